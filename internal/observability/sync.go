package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"thothsync/internal/syncer"
)

// Sink receives every completed capability report.
type Sink interface {
	RecordSyncStats(ctx context.Context, report syncer.Report) error
}

type SyncObserver struct {
	logger *zap.Logger
	runID  string
	sinks  []Sink
	now    func() time.Time

	mu     sync.Mutex
	totals syncer.Stats
	runs   int
}

func NewSyncObserver(logger *zap.Logger, runID string, sinks ...Sink) *SyncObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncObserver{
		logger: logger,
		runID:  runID,
		sinks:  sinks,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecordStats logs the stats of one capability invocation and forwards them
// to every sink. Sink failures are logged and otherwise ignored.
func (o *SyncObserver) RecordStats(ctx context.Context, capability string, stats syncer.Stats, fields ...zap.Field) {
	if o == nil {
		return
	}
	logFields := append([]zap.Field{
		zap.String("capability", capability),
		zap.Int("processed", stats.Processed),
		zap.Int("synced", stats.Synced),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
	}, fields...)
	o.logger.Info(fmt.Sprintf(
		"Syncing triggered by %q function completed with %d processed, %d synced, %d skipped and %d failed documents",
		capability, stats.Processed, stats.Synced, stats.Skipped, stats.Failed,
	), logFields...)

	o.mu.Lock()
	o.totals.Processed += stats.Processed
	o.totals.Synced += stats.Synced
	o.totals.Skipped += stats.Skipped
	o.totals.Failed += stats.Failed
	o.runs++
	o.mu.Unlock()

	report := syncer.NewReport(o.runID, capability, stats, o.now())
	for _, sink := range o.sinks {
		if sink == nil {
			continue
		}
		if err := sink.RecordSyncStats(ctx, report); err != nil {
			o.logger.Warn("Failed to record sync stats", zap.String("capability", capability), zap.Error(err))
		}
	}
}

// Totals returns the summed stats and the number of recorded invocations.
func (o *SyncObserver) Totals() (syncer.Stats, int) {
	if o == nil {
		return syncer.Stats{}, 0
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totals, o.runs
}
