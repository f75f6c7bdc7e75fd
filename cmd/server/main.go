// Server runs the pairing authority: it issues the pairing code on first start and serves the pairing API.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jagx-bot/internal/audit"
	auditrepo "jagx-bot/internal/audit/repository"
	"jagx-bot/internal/config"
	"jagx-bot/internal/db"
	"jagx-bot/internal/logging"
	pairinghandler "jagx-bot/internal/pairing/handler"
	"jagx-bot/internal/pairing/qr"
	pairingrepo "jagx-bot/internal/pairing/repository"
	"jagx-bot/internal/pairing/service"
	"jagx-bot/internal/security"
	"jagx-bot/internal/server"
	"jagx-bot/internal/server/middleware"
	"jagx-bot/internal/telemetry"
	"jagx-bot/internal/telemetry/pipeline"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("pairing server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stack, err := pipeline.New(ctx, cfg, "jagx-pair-server", logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := stack.Shutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown", zap.Error(err))
		}
	}()

	var auditStore auditrepo.Repository
	if cfg.DatabaseURL != "" {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		auditStore = auditrepo.NewPostgresRepository(database)
		logger.Info("audit: persisting to postgres")
	}
	auditLogger := audit.NewLogger(auditStore, middleware.ClientIPFromContext, logger)

	var tokens service.Tokens
	if cfg.TokensEnabled() {
		priv, pub, err := security.LoadKeyPair(cfg.JWTPrivateKey, cfg.JWTPublicKey)
		if err != nil {
			return fmt.Errorf("load signing keys: %w", err)
		}
		tokens = security.NewTokenProvider(priv, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL())
		logger.Info("pairing session tokens enabled", zap.String("alg", security.KeyAlg(pub)))
	}

	repo, err := pairingrepo.NewFileRepository(cfg.PairFile(), cfg.PairQRFile())
	if err != nil {
		return err
	}
	authority := service.NewAuthority(repo, qr.NewPNGEncoder(cfg.PairQRSize), service.Options{
		Prefix:        cfg.PairCodePrefix,
		TTL:           cfg.CodeTTL(),
		QRURLTemplate: cfg.PairQRURL,
		SingleUse:     cfg.PairSingleUse,
		Tokens:        tokens,
		Audit:         auditLogger,
		Emitter:       stack.Emitter,
		Metrics:       stack.Metrics,
		Logger:        logger,
	})
	rec, created, err := authority.Issue(ctx)
	if err != nil {
		return err
	}
	if rec != nil {
		logger.Info("pairing code ready",
			zap.String("code", rec.Code), zap.Time("expires_at", rec.ExpiresAt), zap.Bool("created", created))
	}

	router := server.NewRouter(server.Deps{
		Pairing: pairinghandler.NewHandler(authority, logger),
		Logger:  logger,
		Emitter: stack.Emitter,
	})
	srv := server.NewHTTPServer(cfg.Addr(), router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("pairing server listening", zap.String("addr", cfg.Addr()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down pairing server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}
	// Let in-flight async telemetry emits finish before the providers shut down.
	time.Sleep(telemetry.ShutdownDrainDuration)
	logger.Info("pairing server stopped")
	return nil
}
