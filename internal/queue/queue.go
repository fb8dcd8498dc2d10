package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"thothsync/internal/syncer"
)

const DefaultName = "thoth_sync_reports"

// Queue publishes capability reports onto a Redis list for downstream consumers.
type Queue struct {
	client *redis.Client
	name   string
}

func New(url, name string) (*Queue, error) {
	if url == "" {
		return nil, errors.New("missing redis url")
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultName
	}
	client := redis.NewClient(opt)
	return &Queue{client: client, name: name}, nil
}

func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

// RecordSyncStats pushes the report as JSON onto the head of the list.
func (q *Queue) RecordSyncStats(ctx context.Context, report syncer.Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.name, payload).Err()
}

// PopReport blocks up to timeout for the oldest report on the list.
func (q *Queue) PopReport(ctx context.Context, timeout time.Duration) (syncer.Report, error) {
	var report syncer.Report
	res, err := q.client.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		return report, err
	}
	if len(res) < 2 {
		return report, redis.Nil
	}
	err = json.Unmarshal([]byte(res[1]), &report)
	return report, err
}

func (q *Queue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.name).Result()
}

func (q *Queue) Close() error {
	return q.client.Close()
}
