package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"thothsync/internal/config"
	"thothsync/internal/docstore"
	"thothsync/internal/graph"
	"thothsync/internal/logging"
	"thothsync/internal/observability"
	"thothsync/internal/orchestrator"
	"thothsync/internal/queue"
	"thothsync/internal/syncer"
)

func run(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.Sync.Debug, zapcore.Lock(os.Stderr))
	defer func() { _ = logger.Sync() }()

	logger.Info(fmt.Sprintf("Running syncing job in version %q", componentVersion))

	db, err := graph.Open(cfg.GraphDSN(), cfg.Graph.MaxOpenConns)
	if err != nil {
		return fmt.Errorf("graph: %w", err)
	}
	defer db.Close()
	if err := db.Connect(ctx); err != nil {
		return err
	}

	store, err := docstore.New(ctx, docstore.Options{
		Endpoint:     cfg.Documents.Endpoint,
		Region:       cfg.Documents.Region,
		Bucket:       cfg.Documents.Bucket,
		BucketPrefix: cfg.Documents.BucketPrefix,
		Deployment:   cfg.Documents.Deployment,
		AccessKey:    cfg.Documents.AccessKey,
		SecretKey:    cfg.Documents.SecretKey,
	})
	if err != nil {
		return fmt.Errorf("document store: %w", err)
	}
	s, err := syncer.New(store, logger)
	if err != nil {
		return err
	}
	reg, err := s.Registry()
	if err != nil {
		return err
	}

	sinks := []observability.Sink{db}
	if cfg.Reports.RedisURL != "" {
		q, err := queue.New(cfg.Reports.RedisURL, cfg.Reports.Queue)
		if err != nil {
			return fmt.Errorf("report queue: %w", err)
		}
		defer q.Close()
		sinks = append(sinks, q)
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))
	if err := db.BeginRun(ctx, graph.Run{
		ID:               runID,
		ComponentVersion: componentVersion,
		ForceSync:        cfg.Sync.Force,
		Graceful:         cfg.Sync.Graceful,
		DocumentClasses:  cfg.Sync.DocumentClasses,
	}); err != nil {
		logger.Warn("Failed to record sync run", zap.Error(err))
	}

	observer := observability.NewSyncObserver(logger, runID, sinks...)
	svc := orchestrator.NewService(reg, db, observer, logger)
	report, runErr := svc.Run(ctx, orchestrator.RunConfig{
		ForceSync:       cfg.Sync.Force,
		Graceful:        cfg.Sync.Graceful,
		Debug:           cfg.Sync.Debug,
		DocumentClasses: cfg.Sync.DocumentClasses,
	})

	status := graph.RunCompleted
	if runErr != nil {
		status = graph.RunFailed
	}
	if err := db.FinishRun(context.WithoutCancel(ctx), runID, status); err != nil {
		logger.Warn("Failed to finish sync run", zap.String("status", status), zap.Error(err))
	}
	if runErr != nil {
		return runErr
	}

	totals, _ := observer.Totals()
	logger.Info("Syncing job completed",
		zap.Strings("capabilities", report.Invoked),
		zap.Int("processed", totals.Processed),
		zap.Int("synced", totals.Synced),
		zap.Int("skipped", totals.Skipped),
		zap.Int("failed", totals.Failed),
	)
	return nil
}
