package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"debtplan/internal/amqp"
	"debtplan/internal/cache"
	"debtplan/internal/cli"
	"debtplan/internal/core"
	apphttp "debtplan/internal/http"
	dlog "debtplan/internal/log"
	"debtplan/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), dlog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	ledgerRes, err := cli.OpenLedger(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	// AMQP is optional; without it loans are still saved but the worker is
	// not told about changes.
	var publisher services.LoanPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	var planOpts []services.PlanOption
	cacheManager := cache.NewManager()
	var closeRedis func() error
	switch {
	case cfg.RedisURL != "":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		closeRedis = client.Close
		planOpts = append(planOpts, services.WithResultCache(cache.NewRedisStore[core.SimulationResult](client, "debtplan:plan:", cfg.CacheTTL)))
		logger.Info("Result cache initialized", "type", "redis", "ttl", cfg.CacheTTL)
	case cfg.CacheSize > 0:
		store := cache.NewLocalStore[core.SimulationResult](cfg.CacheSize, cfg.CacheTTL)
		cacheManager.Register(store)
		cacheManager.StartCleanup(cfg.CacheTTL)
		planOpts = append(planOpts, services.WithResultCache(store))
		logger.Info("Result cache initialized", "type", "local", "size", cfg.CacheSize, "ttl", cfg.CacheTTL)
	}

	loans := services.NewLoanService(ledgerRes.Ledger, publisher)
	plans := services.NewPlanService(ledgerRes.Ledger, planOpts...)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Loans:     loans,
		Plans:     plans,
		Snapshots: ledgerRes.Ledger,
		Ready:     ledgerRes.Ping,
	}, apphttp.Options{
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(dlog.ComponentHTTP),
	})
	srv.MaxHeaderBytes = 1 << 16

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cacheManager.Stop()
		if closeRedis != nil {
			if err := closeRedis(); err != nil {
				logger.Error("Redis close error", "error", err)
			}
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if ledgerRes.Cleanup != nil {
			if err := ledgerRes.Cleanup(); err != nil {
				logger.Error("Ledger close error", "error", err)
			}
		}
	})

	logger.Info("Starting debtplan server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
