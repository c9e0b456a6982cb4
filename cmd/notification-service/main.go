package main

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/config"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/logging"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store/dbopen"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/telemetry"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/worker"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadNotification()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log, "notification-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry := telemetry.Setup(cfg.Telemetry, "notification-service", logger)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTelemetry(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := dbopen.Open(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer st.Close()

	w := worker.New(st, worker.Config{
		BatchSize:     cfg.BatchSize,
		MaxAttempts:   cfg.MaxAttempts,
		RetryBackoff:  cfg.RetryBackoff,
		SalesEmail:    cfg.SalesEmail,
		SalesPhone:    cfg.SalesPhone,
		ServiceLabels: serviceLabels(logger),
		Providers:     providers(cfg, logger),
	}, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      healthMux(st.Ping),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server error", zap.Error(err))
		}
	}()

	logger.Info("notification-service started", zap.Duration("poll_interval", cfg.PollInterval))
	worker.Start(ctx, cfg.PollInterval, w)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}

func providers(cfg config.Notification, logger *zap.Logger) map[string]worker.Provider {
	opts := func(url string) worker.ProviderOptions {
		return worker.ProviderOptions{WebhookURL: url, Token: cfg.WebhookToken, Logger: logger}
	}
	return map[string]worker.Provider{
		worker.ChannelEmail:    worker.NewProvider(cfg.EmailProvider, worker.ChannelEmail, opts(cfg.EmailWebhookURL)),
		worker.ChannelSMS:      worker.NewProvider(cfg.SMSProvider, worker.ChannelSMS, opts(cfg.SMSWebhookURL)),
		worker.ChannelWhatsApp: worker.NewProvider(cfg.WhatsAppProvider, worker.ChannelWhatsApp, opts(cfg.WhatsAppWebhookURL)),
	}
}

// serviceLabels maps quote service values to the labels shown on the site.
func serviceLabels(logger *zap.Logger) map[string]string {
	site, err := content.Default()
	if err != nil {
		logger.Warn("default content unavailable, using raw service values", zap.Error(err))
		return nil
	}
	labels := make(map[string]string, len(site.QuoteServices))
	for _, svc := range site.QuoteServices {
		labels[svc.Value] = svc.Label
	}
	return labels
}

func healthMux(ping func(context.Context) error) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", expvar.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
