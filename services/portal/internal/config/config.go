package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default location of the service configuration.
const ConfigPath = "config.yaml"

// Snapshot mirror backends.
const (
	MirrorNone     = "none"
	MirrorFile     = "file"
	MirrorRedis    = "redis"
	MirrorPostgres = "postgres"
)

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`
	TimeZone string `yaml:"timeZone"`
	SeedDemo bool   `yaml:"seedDemo"`

	// snapshot mirror
	Mirror           string `yaml:"mirror"`
	SnapshotPath     string `yaml:"snapshotPath"`
	SnapshotSlot     string `yaml:"snapshotSlot"`
	SnapshotMaxBytes int64  `yaml:"snapshotMaxBytes"`
	DatabaseURL      string `yaml:"databaseURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	// object storage for resumes and pictures
	MinioEndpoint        string `yaml:"minioEndpoint"`
	MinioAccessKey       string `yaml:"minioAccessKey"`
	MinioSecretKey       string `yaml:"minioSecretKey"`
	MinioBucket          string `yaml:"minioBucket"`
	MinioUseSSL          bool   `yaml:"minioUseSSL"`
	PresignExpirySeconds int    `yaml:"presignExpirySeconds"`
	MaxUploadBytes       int64  `yaml:"maxUploadBytes"`

	AMQPURL      string `yaml:"amqpURL"`
	AMQPExchange string `yaml:"amqpExchange"`

	// job-alert queue; requires redisAddr
	AlertQueueEnabled     bool   `yaml:"alertQueueEnabled"`
	AlertQueueStream      string `yaml:"alertQueueStream"`
	AlertQueueGroup       string `yaml:"alertQueueGroup"`
	AlertQueueConcurrency int    `yaml:"alertQueueConcurrency"`
	AlertQueueMaxRetries  int    `yaml:"alertQueueMaxRetries"`

	AuthRateLimitPerMinute  int      `yaml:"authRateLimitPerMinute"`
	ApplyRateLimitPerMinute int      `yaml:"applyRateLimitPerMinute"`
	TrustedProxies          []string `yaml:"trustedProxies"`
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("PORTAL_PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("PORTAL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("PORTAL_TIME_ZONE"); v != "" {
		cfg.TimeZone = v
	}
	if v := os.Getenv("PORTAL_SEED_DEMO"); v != "" {
		cfg.SeedDemo = v == "true"
	}
	if v := os.Getenv("PORTAL_MIRROR"); v != "" {
		cfg.Mirror = v
	}
	if v := os.Getenv("PORTAL_SNAPSHOT_PATH"); v != "" {
		cfg.SnapshotPath = v
	}
	if v := os.Getenv("PORTAL_SNAPSHOT_SLOT"); v != "" {
		cfg.SnapshotSlot = v
	}
	if v := os.Getenv("PORTAL_SNAPSHOT_MAX_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.SnapshotMaxBytes = n
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("MINIO_USE_SSL"); v == "true" {
		cfg.MinioUseSSL = true
	}
	if v := os.Getenv("PORTAL_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("AMQP_URL"); v != "" {
		cfg.AMQPURL = v
	}
	if v := os.Getenv("PORTAL_ALERT_QUEUE_ENABLED"); v != "" {
		cfg.AlertQueueEnabled = v == "true"
	}
	if v := os.Getenv("PORTAL_ALERT_QUEUE_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AlertQueueConcurrency = n
		}
	}
	if v := os.Getenv("PORTAL_AUTH_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AuthRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("PORTAL_APPLY_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ApplyRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("PORTAL_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	cfg.Mirror = strings.ToLower(strings.TrimSpace(cfg.Mirror))
	if cfg.Mirror == "" {
		cfg.Mirror = MirrorFile
	}
	if cfg.Mirror == MirrorFile && strings.TrimSpace(cfg.SnapshotPath) == "" {
		cfg.SnapshotPath = "data/portal-snapshot.json"
	}
	if cfg.SnapshotMaxBytes <= 0 {
		cfg.SnapshotMaxBytes = 5 << 20
	}
	if cfg.AlertQueueStream == "" {
		cfg.AlertQueueStream = "portal:alerts"
	}
	if cfg.AlertQueueConcurrency <= 0 {
		cfg.AlertQueueConcurrency = 2
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.Port == "" {
		return errors.New("config: port is required (set in config.yaml)")
	}
	switch cfg.Mirror {
	case MirrorNone, MirrorFile:
	case MirrorRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis mirror")
		}
	case MirrorPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres mirror")
		}
	default:
		return fmt.Errorf("config: unknown mirror %q (none, file, redis, postgres)", cfg.Mirror)
	}
	if cfg.AlertQueueEnabled && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required when alertQueueEnabled is true")
	}
	if cfg.MinioEndpoint != "" && (cfg.MinioAccessKey == "" || cfg.MinioSecretKey == "" || cfg.MinioBucket == "") {
		return errors.New("config: minioAccessKey, minioSecretKey and minioBucket are required with minioEndpoint")
	}
	if cfg.TimeZone != "" {
		if _, err := time.LoadLocation(cfg.TimeZone); err != nil {
			return fmt.Errorf("config: invalid timeZone %q: %w", cfg.TimeZone, err)
		}
	}
	if cfg.AuthRateLimitPerMinute < 0 || cfg.ApplyRateLimitPerMinute < 0 {
		return errors.New("config: rate limits must not be negative")
	}
	return nil
}

// Location resolves TimeZone, defaulting to UTC.
func (c FileConfig) Location() *time.Location {
	if c.TimeZone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// PresignExpiry returns the lifetime of asset download URLs.
func (c FileConfig) PresignExpiry() time.Duration {
	if c.PresignExpirySeconds <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.PresignExpirySeconds) * time.Second
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
