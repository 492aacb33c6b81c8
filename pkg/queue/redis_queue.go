package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"campusportal/internal/util"
)

const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

// AlertJob tracks one job-alert fan-out for a newly created post.
type AlertJob struct {
	ID           string    `json:"id"`
	PostID       string    `json:"postId"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	Attempts     int       `json:"attempts"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Handler processes one job. A non-nil error schedules a retry until
// MaxRetries is reached.
type Handler func(context.Context, AlertJob) error

// RedisJobQueue is a Redis Streams consumer-group queue with per-job status hashes.
type RedisJobQueue struct {
	client       *redis.Client
	stream       string
	group        string
	consumerBase string
	jobTTL       time.Duration
	maxRetries   int
	block        time.Duration
	claimIdle    time.Duration
	retryDelay   time.Duration
	maxLen       int64
	batch        int64
	once         sync.Once
}

type RedisQueueConfig struct {
	Addr       string
	Password   string
	Stream     string
	Group      string
	Consumer   string
	JobTTL     time.Duration
	MaxRetries int
	Block      time.Duration
	ClaimIdle  time.Duration
	RetryDelay time.Duration
	MaxLen     int64
	Batch      int64
}

func withDefault[T int | int64 | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

func NewRedisJobQueue(cfg RedisQueueConfig) (*RedisJobQueue, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		return nil, errors.New("queue stream required")
	}
	group := strings.TrimSpace(cfg.Group)
	if group == "" {
		group = "portal"
	}
	consumer := strings.TrimSpace(cfg.Consumer)
	if consumer == "" {
		consumer = util.NewID()
	}
	return &RedisJobQueue{
		client:       redis.NewClient(&redis.Options{Addr: addr, Password: cfg.Password}),
		stream:       stream,
		group:        group,
		consumerBase: consumer,
		jobTTL:       withDefault(cfg.JobTTL, 24*time.Hour),
		maxRetries:   withDefault(cfg.MaxRetries, 3),
		block:        withDefault(cfg.Block, 5*time.Second),
		claimIdle:    withDefault(cfg.ClaimIdle, 30*time.Second),
		retryDelay:   withDefault(cfg.RetryDelay, 2*time.Second),
		maxLen:       withDefault(cfg.MaxLen, int64(10000)),
		batch:        withDefault(cfg.Batch, int64(10)),
	}, nil
}

// Enqueue records a queued job for postID and appends it to the stream.
func (q *RedisJobQueue) Enqueue(ctx context.Context, postID string) (AlertJob, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return AlertJob{}, errors.New("postId required")
	}
	now := time.Now().UTC()
	job := AlertJob{
		ID:        util.NewID(),
		PostID:    postID,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := q.writeStatus(ctx, job); err != nil {
		return AlertJob{}, fmt.Errorf("write job status: %w", err)
	}
	if err := q.client.XAdd(ctx, q.addArgs(job.ID, job.PostID)).Err(); err != nil {
		return AlertJob{}, fmt.Errorf("append job: %w", err)
	}
	return job, nil
}

func (q *RedisJobQueue) GetJob(ctx context.Context, jobID string) (AlertJob, bool, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return AlertJob{}, false, nil
	}
	data, err := q.client.HGetAll(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return AlertJob{}, false, err
	}
	if len(data) == 0 {
		return AlertJob{}, false, nil
	}
	return decodeJob(jobID, data), true, nil
}

// Run consumes jobs with the given number of consumers until ctx is done.
func (q *RedisJobQueue) Run(ctx context.Context, concurrency int, handler Handler) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	q.ensureGroup(ctx)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < concurrency; i++ {
		consumer := fmt.Sprintf("%s-%d", q.consumerBase, i)
		g.Go(func() error {
			q.consumeLoop(ctx, consumer, handler)
			return nil
		})
	}
	return g.Wait()
}

// Close releases the Redis client.
func (q *RedisJobQueue) Close() error {
	return q.client.Close()
}

func (q *RedisJobQueue) ensureGroup(ctx context.Context) {
	q.once.Do(func() {
		err := q.client.XGroupCreateMkStream(ctx, q.stream, q.group, "$").Err()
		if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
			slog.Warn("create consumer group failed", "stream", q.stream, "err", err)
		}
	})
}

func (q *RedisJobQueue) consumeLoop(ctx context.Context, consumer string, handler Handler) {
	for ctx.Err() == nil {
		if msgs, err := q.claimPending(ctx, consumer); err == nil {
			for _, msg := range msgs {
				q.handleMessage(ctx, msg, handler)
			}
		}
		streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    q.group,
			Consumer: consumer,
			Streams:  []string{q.stream, ">"},
			Count:    q.batch,
			Block:    q.block,
		}).Result()
		if err != nil {
			continue
		}
		for _, stream := range streams {
			for _, msg := range stream.Messages {
				q.handleMessage(ctx, msg, handler)
			}
		}
	}
}

func (q *RedisJobQueue) claimPending(ctx context.Context, consumer string) ([]redis.XMessage, error) {
	res, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.stream,
		Group:    q.group,
		Consumer: consumer,
		MinIdle:  q.claimIdle,
		Start:    "0-0",
		Count:    q.batch,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return res, err
}

func (q *RedisJobQueue) handleMessage(ctx context.Context, msg redis.XMessage, handler Handler) {
	jobID, _ := msg.Values["job_id"].(string)
	postID, _ := msg.Values["post_id"].(string)
	if jobID == "" || postID == "" {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	job, err := q.transition(ctx, jobID, func(j *AlertJob) {
		j.PostID = postID
		j.Attempts++
		j.Status = StatusProcessing
	})
	if err != nil {
		q.ackAndDel(ctx, msg.ID)
		return
	}
	herr := handler(ctx, job)
	switch {
	case herr == nil:
		_, _ = q.transition(ctx, jobID, func(j *AlertJob) {
			j.Status = StatusDone
			j.ErrorMessage = ""
		})
		q.ackAndDel(ctx, msg.ID)
	case job.Attempts >= q.maxRetries:
		slog.Error("alert job failed", "job_id", jobID, "post_id", postID, "attempts", job.Attempts, "err", herr)
		_, _ = q.transition(ctx, jobID, func(j *AlertJob) {
			j.Status = StatusFailed
			j.ErrorMessage = herr.Error()
		})
		q.ackAndDel(ctx, msg.ID)
	default:
		_, _ = q.transition(ctx, jobID, func(j *AlertJob) {
			j.Status = StatusQueued
			j.ErrorMessage = herr.Error()
		})
		select {
		case <-ctx.Done():
			return
		case <-time.After(q.retryDelay):
		}
		_ = q.requeueAndAck(ctx, msg.ID, jobID, postID)
	}
}

func (q *RedisJobQueue) addArgs(jobID, postID string) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: q.stream,
		MaxLen: q.maxLen,
		Approx: true,
		Values: map[string]any{
			"job_id":  jobID,
			"post_id": postID,
		},
	}
}

func (q *RedisJobQueue) ackAndDel(ctx context.Context, msgID string) {
	_, _ = q.client.XAck(ctx, q.stream, q.group, msgID).Result()
	_, _ = q.client.XDel(ctx, q.stream, msgID).Result()
}

// requeueAndAck re-appends the job and acknowledges the old message atomically.
func (q *RedisJobQueue) requeueAndAck(ctx context.Context, msgID, jobID, postID string) error {
	pipe := q.client.TxPipeline()
	pipe.XAdd(ctx, q.addArgs(jobID, postID))
	pipe.XAck(ctx, q.stream, q.group, msgID)
	pipe.XDel(ctx, q.stream, msgID)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisJobQueue) transition(ctx context.Context, jobID string, mutate func(*AlertJob)) (AlertJob, error) {
	job, _, err := q.GetJob(ctx, jobID)
	if err != nil {
		return AlertJob{}, err
	}
	if job.ID == "" {
		job.ID = jobID
	}
	mutate(&job)
	job.UpdatedAt = time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = job.UpdatedAt
	}
	if err := q.writeStatus(ctx, job); err != nil {
		return AlertJob{}, err
	}
	return job, nil
}

func (q *RedisJobQueue) writeStatus(ctx context.Context, job AlertJob) error {
	key := q.jobKey(job.ID)
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"postId":    job.PostID,
		"status":    job.Status,
		"error":     job.ErrorMessage,
		"attempts":  strconv.Itoa(job.Attempts),
		"createdAt": job.CreatedAt.Format(time.RFC3339Nano),
		"updatedAt": job.UpdatedAt.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, q.jobTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (q *RedisJobQueue) jobKey(jobID string) string {
	return fmt.Sprintf("job:%s:%s", q.stream, jobID)
}

func decodeJob(jobID string, data map[string]string) AlertJob {
	job := AlertJob{
		ID:           jobID,
		PostID:       data["postId"],
		Status:       data["status"],
		ErrorMessage: data["error"],
	}
	if n, err := strconv.Atoi(data["attempts"]); err == nil {
		job.Attempts = n
	}
	if t, err := time.Parse(time.RFC3339Nano, data["createdAt"]); err == nil {
		job.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, data["updatedAt"]); err == nil {
		job.UpdatedAt = t
	}
	return job
}
