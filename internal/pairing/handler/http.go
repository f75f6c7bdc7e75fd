// Package handler serves the pairing authority HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"jagx-bot/internal/pairing/domain"
	"jagx-bot/internal/pairing/service"
	"jagx-bot/internal/security"
	"jagx-bot/internal/server/middleware"
)

// QRPath is the route of the QR image, also returned as the "qr" field of GET /auto-pair.
const QRPath = "/auto-pair-qr"

// Authority is the pairing service as seen by the HTTP layer. *service.Authority implements it.
type Authority interface {
	Describe(ctx context.Context) (domain.Description, error)
	QR(ctx context.Context) ([]byte, error)
	Verify(ctx context.Context, code, phone string) (*service.VerifyResult, error)
	Session(ctx context.Context, token string) (*service.Session, error)
	Health(ctx context.Context) error
}

// Handler holds the pairing HTTP handlers.
type Handler struct {
	auth Authority
	log  *zap.Logger
}

// NewHandler returns a Handler over auth.
func NewHandler(auth Authority, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{auth: auth, log: log}
}

// Routes mounts the pairing API.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.StatusPage)
	r.Get("/healthz", h.Healthz)
	r.Get("/auto-pair", h.GetAutoPair)
	r.Get(QRPath, h.GetAutoPairQR)
	r.Post("/verify-pair", h.VerifyPair)
	r.With(middleware.RequireBearer).Get("/pair-session", h.GetPairSession)
}

// AutoPairResponse is the body of GET /auto-pair. Absent values are JSON null.
type AutoPairResponse struct {
	Code    *string `json:"code"`
	Expires *int64  `json:"expires"`
	QR      *string `json:"qr"`
}

// VerifyRequest is the body of POST /verify-pair.
type VerifyRequest struct {
	Code      string `json:"code"`
	UserPhone string `json:"userPhone"`
}

// VerifyResponse is the 200 body of POST /verify-pair.
type VerifyResponse struct {
	Message        string `json:"message"`
	UserPhone      string `json:"userPhone"`
	Token          string `json:"token,omitempty"`
	TokenExpiresAt *int64 `json:"tokenExpires,omitempty"`
}

// SessionResponse is the body of GET /pair-session.
type SessionResponse struct {
	UserPhone string `json:"userPhone"`
	Code      string `json:"code"`
	Paired    bool   `json:"paired"`
}

// ErrorResponse is the body of every JSON error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetAutoPair handles GET /auto-pair.
func (h *Handler) GetAutoPair(w http.ResponseWriter, r *http.Request) {
	d, err := h.auth.Describe(r.Context())
	if err != nil {
		h.internalError(w, "describe pairing", err)
		return
	}
	var resp AutoPairResponse
	if d.Present() {
		code := d.Code
		expires := d.ExpiresAt.UnixMilli()
		resp.Code, resp.Expires = &code, &expires
	}
	if d.HasQR {
		qrPath := QRPath
		resp.QR = &qrPath
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAutoPairQR handles GET /auto-pair-qr.
func (h *Handler) GetAutoPairQR(w http.ResponseWriter, r *http.Request) {
	img, err := h.auth.QR(r.Context())
	if err != nil {
		h.internalError(w, "load pairing QR", err)
		return
	}
	if img == nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("QR code not generated yet."))
		return
	}
	w.Header().Set("Content-Type", mimetype.Detect(img).String())
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(img)
}

// VerifyPair handles POST /verify-pair.
func (h *Handler) VerifyPair(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return
	}
	res, err := h.auth.Verify(r.Context(), req.Code, req.UserPhone)
	if err != nil {
		if status, msg, ok := verifyErrorStatus(err); ok {
			writeJSON(w, status, ErrorResponse{Error: msg})
			return
		}
		h.internalError(w, "verify pairing", err)
		return
	}
	resp := VerifyResponse{Message: "Successfully paired!", UserPhone: res.UserPhone, Token: res.Token}
	if res.Token != "" {
		exp := res.TokenExpiresAt.UnixMilli()
		resp.TokenExpiresAt = &exp
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPairSession handles GET /pair-session.
func (h *Handler) GetPairSession(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.BearerTokenFromContext(r.Context())
	sess, err := h.auth.Session(r.Context(), token)
	switch {
	case errors.Is(err, security.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
		return
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "No pairing found."})
		return
	case err != nil:
		h.internalError(w, "resolve pairing session", err)
		return
	}
	writeJSON(w, http.StatusOK, SessionResponse{UserPhone: sess.UserPhone, Code: sess.Code, Paired: sess.Paired})
}

// Healthz handles GET /healthz.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.Health(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// verifyErrorStatus maps verification sentinels to HTTP status and the public message.
func verifyErrorStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "No pairing found.", true
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone, "Pairing code expired.", true
	case errors.Is(err, domain.ErrMismatch):
		return http.StatusUnauthorized, "Invalid code.", true
	case errors.Is(err, domain.ErrAlreadyPaired):
		return http.StatusConflict, "Pairing code already used.", true
	default:
		return 0, "", false
	}
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	h.log.Error(op+" failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
