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

	"github.com/redis/go-redis/v9"

	"rakshak/pkg/config"
	"rakshak/pkg/inference"
	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
	otelobs "rakshak/pkg/observability/otel"
	"rakshak/pkg/risk"
	"rakshak/pkg/structlog"
	"rakshak/pkg/threatgw"
	"rakshak/services/threat-gateway/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "threat-gateway: config: %v\n", err)
		os.Exit(1)
	}
	logger := structlog.NewLogger(cfg.ServiceName, structlog.ParseLevel(cfg.LogLevel), os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.Fatal("threat-gateway stopped", structlog.Fields{"error": err})
	}
}

func run(cfg *config.Config, logger *structlog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// OpenTelemetry tracing (no-op unless built with otelotlp and endpoint set)
	shutdownTracer := otelobs.InitTracer(otelobs.TracerConfig{
		ServiceName:  cfg.ServiceName,
		Endpoint:     cfg.Tracing.Endpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
	}, logger)
	defer shutdownTracer(context.Background())

	reg := metrics.NewRegistry()
	inferenceMetrics := metrics.NewInference(reg)

	layout, err := cfg.ArtifactLayout()
	if err != nil {
		return err
	}
	models := ml.LoadAll(cfg.ModelsRoot, layout, ml.WithLogger(logger), ml.WithMetrics(inferenceMetrics))
	logger.Info("model registry ready", structlog.Fields{
		"root":   cfg.ModelsRoot,
		"loaded": models.Ready(),
		"total":  len(layout),
	})

	aggregator, err := risk.NewAggregator(cfg.Risk)
	if err != nil {
		return err
	}

	adapterOpts := []inference.AdapterOption{inference.WithNegativeClasses(cfg.ZeroDayNegativeClasses)}
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unreachable; predictions will not be cached until it recovers",
				structlog.Fields{"addr": cfg.Redis.Addr, "error": err})
		}
		cancel()
		adapterOpts = append(adapterOpts, inference.WithCache(inference.NewRedisCache(rdb, cfg.Redis.CacheTTL)))
	}

	gw := threatgw.New(models,
		threatgw.WithLogger(logger),
		threatgw.WithMetrics(inferenceMetrics),
		threatgw.WithAggregator(aggregator),
		threatgw.WithAdapterOptions(adapterOpts...),
	)

	srv := server.New(gw, server.Options{
		ServiceName:    cfg.ServiceName,
		Logger:         logger,
		Metrics:        reg,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
	})
	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("threat-gateway starting", structlog.Fields{"addr": cfg.ListenAddr})
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}
