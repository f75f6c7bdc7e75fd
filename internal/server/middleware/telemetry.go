package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"jagx-bot/internal/telemetry"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	Status     int    `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
	RequestID  string `json:"request_id,omitempty"`
}

// Telemetry emits an http_request event after each request and writes a zap access log line.
// Paths in skip are neither logged nor emitted. A nil emitter still logs.
func Telemetry(logger *zap.Logger, emitter telemetry.EventEmitter, skip map[string]bool) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			meta := httpRequestMetadata{
				Method:     r.Method,
				Route:      route,
				Status:     status,
				DurationMs: time.Since(start).Milliseconds(),
				ClientIP:   ClientIPFromContext(r.Context()),
				RequestID:  chimw.GetReqID(r.Context()),
			}
			logger.Info("http request",
				zap.String("method", meta.Method),
				zap.String("route", meta.Route),
				zap.Int("status", meta.Status),
				zap.Int64("duration_ms", meta.DurationMs),
				zap.String("client_ip", meta.ClientIP),
			)
			telemetry.EmitAsync(logger, emitter, telemetry.NewEvent("http_request", "http_middleware", "", meta))
		})
	}
}
