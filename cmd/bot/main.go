package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xaenox/deskbot/internal/app"
	"github.com/xaenox/deskbot/internal/bot"
	"github.com/xaenox/deskbot/internal/logger"
	"github.com/xaenox/deskbot/internal/reminders"
	"github.com/xaenox/deskbot/pkg/config"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	// Load configuration
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fallback, _ := zap.NewProduction()
		fallback.Fatal("Failed to load config", zap.Error(err), zap.String("path", configPath))
	}

	// Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := app.OpenStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	svcs, err := app.NewServices(cfg, store, log)
	if err != nil {
		log.Fatal("Failed to initialize services", zap.Error(err))
	}

	// Initialize bot
	b, err := bot.New(cfg.Telegram.Token, cfg.Telegram.Debug, svcs.Classifier, svcs.Reminders, log,
		bot.WithLowConfidenceThreshold(cfg.Chat.LowConfidenceThreshold),
		bot.WithHistoryLimit(cfg.Chat.HistoryLimit),
		bot.WithLocation(svcs.Location),
	)
	if err != nil {
		log.Fatal("Failed to create bot", zap.Error(err))
	}

	notifier := reminders.NewNotifier(svcs.Reminders, cfg.Reminders.PollInterval, b.DeliverReminder, log)
	go notifier.Run(ctx)

	metricsSrv := serveMetrics(cfg.Metrics.Addr, log)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("Metrics server shutdown failed", zap.Error(err))
		}
	}()

	// Start the bot
	log.Info("Bot started")
	if err := b.Start(ctx); err != nil {
		log.Error("Bot error", zap.Error(err))
	}
	log.Info("Bot stopped")
}

func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()
	return srv
}
