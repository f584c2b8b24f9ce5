package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/bootstrap"
	"github.com/OpenPecha/translation-workflow/internal/config"
	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/observability/logging"
	"github.com/OpenPecha/translation-workflow/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.NewJSONLogger("worker", "info").Error("load config", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger("worker", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batchMetrics := metrics.NewBatchMetrics("worker")
	app, err := bootstrap.New(ctx, cfg, bootstrap.Options{
		Role:     bootstrap.RoleWorker,
		Logger:   logger,
		Observer: batchMetrics,
	})
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           batchMetrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker metrics server error", "error", err)
		}
	}()

	logger.Info("worker subscribed", "subject", cfg.NATSBatchSubject)
	err = app.Queue.SubscribeBatches(ctx, func(handlerCtx context.Context, batch domain.BatchSubmission) error {
		if !batch.SubmittedAt.IsZero() {
			batchMetrics.ObserveQueueLag(time.Since(batch.SubmittedAt))
		}
		summary, err := app.Executor.Run(handlerCtx, batch.Documents)
		logger.Info("batch processed",
			"batch_id", batch.ID,
			"documents", len(batch.Documents),
			"accepted", summary.Accepted,
			"failed", summary.Failed,
		)
		return err
	})
	if err != nil {
		logger.Error("worker subscribe error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("worker metrics shutdown error", "error", err)
	}
}
