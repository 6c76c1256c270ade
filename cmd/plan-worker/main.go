package main

import (
	"context"
	"errors"
	"os"
	"time"

	"debtplan/internal/amqp"
	"debtplan/internal/cli"
	dlog "debtplan/internal/log"
	"debtplan/internal/services"
	"debtplan/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"), dlog.ComponentWorker)
	logger.Info("Starting plan-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.PlanBudget == 0 {
		logger.Warn("PLAN_BUDGET is 0; every recorded plan with open balances will be unpayable")
	}

	ledgerRes, err := cli.OpenLedger(context.Background(), logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	plans := services.NewPlanService(ledgerRes.Ledger, services.WithPlanRecorder(ledgerRes.Ledger))
	planWorker := worker.NewPlanWorker(plans, cfg.PlanBudget, cfg.PlanCascade)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("AMQP disabled - relying on the refresh schedule only")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		logger.Info("Shutting down worker...")
		planWorker.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close error", "error", err)
			}
		}
		if ledgerRes.Cleanup != nil {
			if err := ledgerRes.Cleanup(); err != nil {
				logger.Error("Ledger close error", "error", err)
			}
		}
	})

	// Catch up on changes made while the worker was down.
	logger.Info("Performing startup plan refresh...")
	if err := planWorker.RefreshNow(ctx); err != nil {
		logger.Error("Startup plan refresh failed", "error", err)
	}

	if cfg.PlanRefreshCron != "" {
		if err := planWorker.Start(ctx, cfg.PlanRefreshCron); err != nil {
			logger.Error("Failed to schedule plan refresh", "error", err)
			os.Exit(1)
		}
	}

	if amqpClient != nil {
		go func() {
			err := amqpClient.ConsumeLoanChanged(ctx, planWorker.HandleLoanChanged)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", "error", err)
			}
		}()
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
