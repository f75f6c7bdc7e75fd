// Package server assembles the pairing authority HTTP server.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	pairinghandler "jagx-bot/internal/pairing/handler"
	"jagx-bot/internal/server/middleware"
	"jagx-bot/internal/telemetry"
)

// Deps holds the collaborators mounted on the router.
type Deps struct {
	Pairing *pairinghandler.Handler
	Logger  *zap.Logger
	// Emitter receives an http_request event per request. May be nil.
	Emitter telemetry.EventEmitter
}

// skipTelemetry lists paths that are neither access-logged nor emitted.
var skipTelemetry = map[string]bool{"/healthz": true}

// NewRouter returns the chi router with the middleware chain and the pairing routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.ClientIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Telemetry(deps.Logger, deps.Emitter, skipTelemetry))
	if deps.Pairing != nil {
		deps.Pairing.Routes(r)
	}
	return r
}

// NewHTTPServer wraps handler in an http.Server listening on addr.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
