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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kitbuilder587/lesson-gate/internal/config"
	"github.com/kitbuilder587/lesson-gate/internal/metrics"
	"github.com/kitbuilder587/lesson-gate/internal/telegram"
)

func newBotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run the telegram bot and the metrics server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot()
		},
	}
}

func runBot() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()
	metricsSrv := startMetricsServer(cfg.Metrics.Addr, logger)

	a, err := newApp(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer a.close()

	bot, err := telegram.New(telegram.BotConfig{
		Token:             cfg.Telegram.Token,
		Debug:             cfg.Telegram.Debug,
		RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Policies:          a.policies,
	}, a.lessons, logger, m)
	if err != nil {
		return err
	}

	logger.Info("lesson gate started",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.Strings("rubric", cfg.Gate.Rubric.Names()),
		zap.Float64("overall_threshold", cfg.Gate.Rubric.OverallThreshold),
		zap.String("default_policy", a.lessons.DefaultPolicy().Type.String()),
		zap.String("verdict_cache", cfg.Cache.Backend),
		zap.Bool("persistent_sessions", cfg.Database.URL != ""),
	)

	err = bot.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if serr := metricsSrv.Shutdown(shutdownCtx); serr != nil {
		logger.Warn("metrics server shutdown", zap.Error(serr))
	}

	if errors.Is(err, context.Canceled) {
		logger.Info("lesson gate stopped")
		return nil
	}
	return err
}

func startMetricsServer(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
