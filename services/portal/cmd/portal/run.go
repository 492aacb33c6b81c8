package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"campusportal/internal/ratelimit"
	"campusportal/internal/util"
	"campusportal/pkg/events"
	"campusportal/pkg/queue"
	"campusportal/pkg/storage"
	"campusportal/pkg/store"
	"campusportal/services/portal/internal/app"
	"campusportal/services/portal/internal/config"
	"campusportal/services/portal/internal/server"
)

// openMirror selects the snapshot slot configured for this deployment.
func openMirror(cfg config.FileConfig) (store.Mirror, error) {
	switch cfg.Mirror {
	case config.MirrorNone:
		return nil, nil
	case config.MirrorFile:
		return store.NewFileMirror(cfg.SnapshotPath, cfg.SnapshotMaxBytes), nil
	case config.MirrorRedis:
		return store.NewRedisMirror(cfg.RedisAddr, cfg.RedisPassword, cfg.SnapshotSlot, cfg.SnapshotMaxBytes), nil
	case config.MirrorPostgres:
		m, err := store.NewGormMirror(cfg.DatabaseURL, cfg.SnapshotSlot, store.WithGormMaxBytes(cfg.SnapshotMaxBytes))
		if err != nil {
			return nil, fmt.Errorf("open postgres mirror: %w", err)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unknown mirror %q", cfg.Mirror)
	}
}

func openStore(ctx context.Context, cfg config.FileConfig) (*store.MemoryStore, error) {
	mirror, err := openMirror(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.OpenMemoryStore(ctx, mirror)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

func runSnapshot(ctx context.Context, cfg config.FileConfig, w io.Writer) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st.Snapshot())
}

func runSeed(ctx context.Context, cfg config.FileConfig, w io.Writer) error {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	a, err := app.New(app.Config{Store: st, Location: cfg.Location()})
	if err != nil {
		return err
	}
	seeded, err := a.SeedDemo(ctx)
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	if seeded {
		fmt.Fprintln(w, "demo data loaded")
	} else {
		fmt.Fprintln(w, "store already has users; nothing seeded")
	}
	return nil
}

func runServe(parent context.Context, cfg config.FileConfig) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := util.InitLogger(cfg.LogLevel)

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	var objects storage.ObjectStore
	if cfg.MinioEndpoint != "" {
		objects, err = storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			return fmt.Errorf("init object storage: %w", err)
		}
	} else {
		logger.Warn("minioEndpoint not set; resume and picture uploads are disabled")
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.AMQPURL != "" {
		p, err := events.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("init notification publisher: %w", err)
		}
		defer p.Close()
		publisher = p
	}

	var alerts *queue.RedisJobQueue
	if cfg.AlertQueueEnabled {
		alerts, err = queue.NewRedisJobQueue(queue.RedisQueueConfig{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			Stream:     cfg.AlertQueueStream,
			Group:      cfg.AlertQueueGroup,
			MaxRetries: cfg.AlertQueueMaxRetries,
		})
		if err != nil {
			return fmt.Errorf("init alert queue: %w", err)
		}
		defer alerts.Close()
	}

	appCfg := app.Config{
		Store:         st,
		Objects:       objects,
		Publisher:     publisher,
		Location:      cfg.Location(),
		PresignExpiry: cfg.PresignExpiry(),
		MaxAssetBytes: cfg.MaxUploadBytes,
	}
	if alerts != nil {
		appCfg.Alerts = alerts
	}
	appCore, err := app.New(appCfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	if cfg.SeedDemo {
		if seeded, err := appCore.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		} else if seeded {
			logger.Info("demo data loaded")
		}
	}

	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return fmt.Errorf("parse trusted proxies: %w", err)
	}
	var limiterClient *redis.Client
	if cfg.RedisAddr != "" {
		limiterClient, err = ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return fmt.Errorf("init rate limiter: %w", err)
		}
		defer limiterClient.Close()
	} else {
		logger.Warn("redisAddr not set; rate limiting is disabled")
	}
	httpServer, err := server.New(server.Config{
		App:                     appCore,
		Redis:                   limiterClient,
		AuthRateLimitPerMinute:  cfg.AuthRateLimitPerMinute,
		ApplyRateLimitPerMinute: cfg.ApplyRateLimitPerMinute,
		TrustedProxies:          trusted,
		MaxUploadBytes:          cfg.MaxUploadBytes,
	})
	if err != nil {
		return fmt.Errorf("init server: %w", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("portal server listening", "addr", addr, "mirror", cfg.Mirror)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if alerts != nil {
		g.Go(func() error {
			slog.Info("job alert worker started", "stream", cfg.AlertQueueStream, "concurrency", cfg.AlertQueueConcurrency)
			return alerts.Run(gctx, cfg.AlertQueueConcurrency, func(ctx context.Context, job queue.AlertJob) error {
				sent, err := appCore.DispatchJobAlerts(ctx, job.PostID)
				if err != nil {
					return err
				}
				slog.Info("job alerts delivered", "job_id", job.ID, "post_id", job.PostID, "sent", sent)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		return err
	}
	return nil
}
