// Bot pairs with the authority and then serves chat commands.
//
//	jagx-bot pair   verify the current pairing code and exit
//	jagx-bot run    pair, then serve commands read from stdin ("sender: text" lines)
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jagx-bot/internal/bootstrap"
	"jagx-bot/internal/bot"
	"jagx-bot/internal/config"
	"jagx-bot/internal/db"
	"jagx-bot/internal/logging"
	"jagx-bot/internal/media"
	"jagx-bot/internal/pairing/client"
	"jagx-bot/internal/policy/engine"
	"jagx-bot/internal/quiz"
	"jagx-bot/internal/telemetry/pipeline"
	"jagx-bot/internal/transport"
	xprepo "jagx-bot/internal/xp/repository"
)

const shutdownTimeout = 10 * time.Second

type options struct {
	console  bool
	outbox   string
	assets   string
	logLevel string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          "jagx-bot",
		Short:        "JagX chat bot: pairs with the pairing server, then serves commands",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	pairCmd := &cobra.Command{
		Use:   "pair",
		Short: "Fetch and verify the current pairing code, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			paired, err := pair(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Paired %s with code %s\n", paired.Phone, paired.Code)
			return nil
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Pair with the server and serve chat commands",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			if opts.outbox != "" {
				cfg.OutboxDir = opts.outbox
			}
			if opts.assets != "" {
				cfg.AssetsDir = opts.assets
			}
			if !opts.console {
				return fmt.Errorf("no network chat transport is built in; run with --console")
			}
			return runBot(cmd.Context(), cfg, logger, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	runCmd.Flags().BoolVar(&opts.console, "console", true, "read messages from stdin and print replies")
	runCmd.Flags().StringVar(&opts.outbox, "outbox", "", "override OUTBOX_DIR")
	runCmd.Flags().StringVar(&opts.assets, "assets", "", "override ASSETS_DIR")

	root.AddCommand(pairCmd, runCmd)
	return root
}

func setup(opts *options) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	logger, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func pair(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*bootstrap.Paired, error) {
	c := client.NewClient(cfg.PairServer, cfg.ClientTimeout())
	paired, err := bootstrap.Pair(ctx, c, cfg.BotPhone, logger)
	if err != nil {
		return nil, fmt.Errorf("pairing failed, check code and server: %w", err)
	}
	return paired, nil
}

func runBot(ctx context.Context, cfg *config.Config, logger *zap.Logger, in io.Reader, out io.Writer) error {
	if _, err := pair(ctx, cfg, logger); err != nil {
		return err
	}

	stack, err := pipeline.New(ctx, cfg, "jagx-bot", logger)
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

	var ledger xprepo.Ledger = xprepo.NewMemoryLedger()
	if cfg.DatabaseURL != "" {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer database.Close()
		ledger = xprepo.NewPostgresLedger(database)
		logger.Info("xp: persisting to postgres")
	}

	bank, err := quiz.LoadBank(cfg.QuizFile)
	if err != nil {
		return err
	}
	authorizer, err := engine.NewOPAAuthorizerFromFile(ctx, cfg.AdminPolicyFile)
	if err != nil {
		return err
	}
	if err := authorizer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("admin policy engine: %w", err)
	}

	dispatcher, err := bot.NewDispatcher(bot.Deps{
		Pairing:    client.NewClient(cfg.PairServer, cfg.ClientTimeout()),
		PairServer: cfg.PairServer,
		Ledger:     ledger,
		Tracker:    quiz.NewMemoryTracker(),
		Bank:       bank,
		Media:      media.NewImageRenderer(cfg.AssetsDir),
		Authorizer: authorizer,
		Metrics:    stack.Metrics,
		Emitter:    stack.Emitter,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	console := transport.NewConsole(in, out, cfg.OutboxDir)
	defer console.Close()
	logger.Info("JagX Bot started", zap.Int("quiz_questions", bank.Len()), zap.String("outbox", cfg.OutboxDir))
	return bot.NewSession(console, dispatcher, logger).Run(ctx)
}
