package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestQueue(t *testing.T, maxRetries int) *RedisJobQueue {
	t.Helper()
	redisSrv := miniredis.RunT(t)
	q, err := NewRedisJobQueue(RedisQueueConfig{
		Addr:       redisSrv.Addr(),
		Stream:     "test:alerts",
		Group:      "test-group",
		Consumer:   "consumer-1",
		RetryDelay: time.Millisecond,
		Block:      10 * time.Millisecond,
		MaxRetries: maxRetries,
	})
	if err != nil {
		t.Fatalf("new queue: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

func waitForStatus(t *testing.T, q *RedisJobQueue, jobID, want string) AlertJob {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		job, ok, err := q.GetJob(context.Background(), jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if ok && job.Status == want {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s never reached %s", jobID, want)
	return AlertJob{}
}

func TestEnqueueRecordsQueuedStatus(t *testing.T) {
	q := newTestQueue(t, 1)
	job, err := q.Enqueue(context.Background(), "post-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	got, ok, err := q.GetJob(context.Background(), job.ID)
	if err != nil || !ok {
		t.Fatalf("get job: ok=%v err=%v", ok, err)
	}
	if got.Status != StatusQueued || got.PostID != "post-1" {
		t.Fatalf("unexpected job: %+v", got)
	}
	if _, err := q.Enqueue(context.Background(), " "); err == nil {
		t.Fatalf("expected error for blank post id")
	}
}

func TestRunProcessesJob(t *testing.T) {
	q := newTestQueue(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.ensureGroup(ctx)

	var seen atomic.Value
	done := make(chan error, 1)
	go func() {
		done <- q.Run(ctx, 2, func(_ context.Context, job AlertJob) error {
			seen.Store(job.PostID)
			return nil
		})
	}()

	job, err := q.Enqueue(context.Background(), "post-7")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	finished := waitForStatus(t, q, job.ID, StatusDone)
	if finished.Attempts != 1 {
		t.Fatalf("expected one attempt, got %d", finished.Attempts)
	}
	if got, _ := seen.Load().(string); got != "post-7" {
		t.Fatalf("handler saw post %q", got)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestRunMarksFailedAfterRetries(t *testing.T) {
	q := newTestQueue(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.ensureGroup(ctx)

	var calls atomic.Int32
	go func() {
		_ = q.Run(ctx, 1, func(context.Context, AlertJob) error {
			calls.Add(1)
			return errors.New("publish failed")
		})
	}()

	job, err := q.Enqueue(context.Background(), "post-9")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	failed := waitForStatus(t, q, job.ID, StatusFailed)
	if failed.Attempts != 2 || failed.ErrorMessage != "publish failed" {
		t.Fatalf("unexpected failed job: %+v", failed)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls.Load())
	}
}

func TestRequeueAndAckFailureKeepsPendingMessage(t *testing.T) {
	q := newTestQueue(t, 1)
	ctx := context.Background()
	q.ensureGroup(ctx)

	job, err := q.Enqueue(ctx, "post-1")
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    q.group,
		Consumer: "consumer-1",
		Streams:  []string{q.stream, ">"},
		Count:    1,
		Block:    0,
	}).Result()
	if err != nil || len(streams) != 1 || len(streams[0].Messages) != 1 {
		t.Fatalf("readgroup: %+v %v", streams, err)
	}
	msgID := streams[0].Messages[0].ID

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.requeueAndAck(canceled, msgID, job.ID, job.PostID); err == nil {
		t.Fatalf("expected requeueAndAck to fail on canceled context")
	}
	pending, err := q.client.XPending(ctx, q.stream, q.group).Result()
	if err != nil {
		t.Fatalf("xpending: %v", err)
	}
	if pending.Count != 1 {
		t.Fatalf("expected original message to remain pending, got %d", pending.Count)
	}
}
