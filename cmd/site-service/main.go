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

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/config"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/httpapi"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/logging"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store/dbopen"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/telemetry"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.LoadSite()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Log, "site-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	shutdownTelemetry := telemetry.Setup(cfg.Telemetry, "site-service", logger)
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
	if err := dbopen.Migrate(ctx, st); err != nil {
		logger.Fatal("db migrate", zap.Error(err))
	}

	group, ctx := errgroup.WithContext(ctx)

	source, err := contentSource(ctx, group, cfg, logger)
	if err != nil {
		logger.Fatal("load content", zap.Error(err))
	}

	handler := httpapi.NewHandler(st, source, httpapi.Options{
		ViewportDefault:   cfg.ViewportDefault,
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPasswordHash,
		SessionTTL:        cfg.SessionTTL,
		Logger:            logger,
	})
	limiter, err := httpapi.NewRateLimiter(httpapi.RateLimitConfig{
		IPPerMinute:    cfg.RateLimitPerMinute,
		IPBurst:        cfg.RateLimitBurst,
		FormPerMinute:  cfg.FormRateLimitPerMinute,
		FormBurst:      cfg.FormRateLimitBurst,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		logger.Fatal("rate limiter", zap.Error(err))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      otelhttp.NewHandler(httpapi.LoggingMiddleware(logger, limiter.Middleware(handler.Routes())), "site-service"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	group.Go(func() error {
		logger.Info("site-service listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.Error("site-service stopped", zap.Error(err))
	}
}

// contentSource serves the embedded content unless a file is configured.
// A watched file reloads on change.
func contentSource(ctx context.Context, group *errgroup.Group, cfg config.Site, logger *zap.Logger) (content.Source, error) {
	if cfg.ContentPath == "" {
		site, err := content.Default()
		if err != nil {
			return nil, err
		}
		return content.NewStatic(site), nil
	}
	source, err := content.NewFileSource(cfg.ContentPath, logger)
	if err != nil {
		return nil, err
	}
	if cfg.WatchContent {
		group.Go(func() error {
			if err := source.Watch(ctx); err != nil {
				logger.Error("content watch stopped", zap.Error(err))
			}
			return nil
		})
	}
	return source, nil
}
