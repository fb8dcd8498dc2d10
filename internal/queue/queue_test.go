package queue

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"thothsync/internal/syncer"
)

func TestNewRejectsBadURL(t *testing.T) {
	if _, err := New("", ""); err == nil {
		t.Fatalf("expected error for empty url")
	}
	if _, err := New("not a redis url", ""); err == nil {
		t.Fatalf("expected error for malformed url")
	}
}

func TestNewDefaultsQueueName(t *testing.T) {
	q, err := New("redis://127.0.0.1:6379/0", "")
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	defer q.Close()
	if q.Name() != DefaultName {
		t.Fatalf("expected default queue name, got %q", q.Name())
	}
}

func TestRecordAndPopReport(t *testing.T) {
	url := os.Getenv("THOTH_TEST_REDIS_URL")
	if url == "" {
		url = "redis://127.0.0.1:6379/15"
	}
	name := "thoth_sync_reports_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	q, err := New(url, name)
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := q.Ping(ctx); err != nil {
		t.Skipf("redis unavailable for queue tests (%s): %v", url, err)
	}
	t.Cleanup(func() { _ = q.client.Del(context.Background(), name).Err() })

	runID := uuid.NewString()
	first := syncer.NewReport(runID, "sync_solver_documents", syncer.Stats{Processed: 3, Synced: 3}, time.Now().UTC())
	second := syncer.NewReport(runID, "sync_adviser_documents", syncer.Stats{Processed: 1, Failed: 1}, time.Now().UTC())
	if err := q.RecordSyncStats(ctx, first); err != nil {
		t.Fatalf("record first: %v", err)
	}
	if err := q.RecordSyncStats(ctx, second); err != nil {
		t.Fatalf("record second: %v", err)
	}

	depth, err := q.Depth(ctx)
	if err != nil {
		t.Fatalf("depth: %v", err)
	}
	if depth != 2 {
		t.Fatalf("expected depth 2, got %d", depth)
	}

	got, err := q.PopReport(ctx, time.Second)
	if err != nil {
		t.Fatalf("pop: %v", err)
	}
	if got.Capability != "sync_solver_documents" || got.Synced != 3 || got.RunID != runID {
		t.Fatalf("expected oldest report first, got %+v", got)
	}
}
