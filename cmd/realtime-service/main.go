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
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/httpapi"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/hub"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/logging"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store/dbopen"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/telemetry"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadRealtime()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log, "realtime-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry := telemetry.Setup(cfg.Telemetry, "realtime-service", logger)
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

	h := hub.New(logger)
	feed := hub.NewServer(h, st, cfg.AllowedOrigins, logger)
	poller := hub.NewPoller(st, h, cfg.BatchSize, logger)
	limiter, err := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:    cfg.RateLimitPerMinute,
		IPBurst:        cfg.RateLimitBurst,
		FormPerMinute:  cfg.RateLimitPerMinute,
		FormBurst:      cfg.RateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logger.Fatal("rate limiter", zap.Error(err))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", expvar.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := st.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/realtime/", feed.Handler("/realtime"))

	// No write timeout: SockJS streaming transports hold the response open.
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     otelhttp.NewHandler(httpapi.LoggingMiddleware(logger, limiter.Middleware(mux)), "realtime-service"),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("realtime-service listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		poller.Start(ctx, cfg.PollInterval)
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("realtime-service stopped", zap.Error(err))
	}
}
