// Package config loads and validates scraper configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

// Storage backend names accepted by storage.records_backend and
// storage.blobs_backend.
const (
	RecordsBackendMemory   = "memory"
	RecordsBackendPostgres = "postgres"

	BlobsBackendNone   = "none"
	BlobsBackendMemory = "memory"
	BlobsBackendLocal  = "local"
	BlobsBackendGCS    = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server     ServerConfig       `mapstructure:"server"`
	Search     scrape.SearchQuery `mapstructure:"search"`
	Flow       FlowConfig         `mapstructure:"flow"`
	Workers    WorkersConfig      `mapstructure:"workers"`
	HTTP       HTTPConfig         `mapstructure:"http"`
	Politeness PolitenessConfig   `mapstructure:"politeness"`
	Identity   IdentityConfig     `mapstructure:"identity"`
	Storage    StorageConfig      `mapstructure:"storage"`
	DB         DBConfig           `mapstructure:"db"`
	PubSub     PubSubConfig       `mapstructure:"pubsub"`
	Logging    LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig controls the status/metrics HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// FlowConfig bounds one harvest run.
type FlowConfig struct {
	TargetRecords int `mapstructure:"target_records"`
	MaxPages      int `mapstructure:"max_pages"`
}

// WorkersConfig governs the worker pool and task scheduling.
type WorkersConfig struct {
	Count int `mapstructure:"count"`
	// MinCount floors the pool size; the effective pool is the larger of
	// count and min_count.
	MinCount    int `mapstructure:"min_count"`
	QueueDepth  int `mapstructure:"queue_depth"`
	MaxAttempts int `mapstructure:"max_attempts"`
	// TaskBudgetMultiplier caps total task submissions at
	// target_records times this factor, retries included.
	TaskBudgetMultiplier int `mapstructure:"task_budget_multiplier"`
}

// PoolSize returns the effective worker pool size, count floored by
// min_count.
func (c WorkersConfig) PoolSize() int {
	if c.MinCount > c.Count {
		return c.MinCount
	}
	return c.Count
}

// HTTPConfig configures the fetch gateway transport.
type HTTPConfig struct {
	TimeoutSeconds   int     `mapstructure:"timeout_seconds"`
	GlobalRPS        float64 `mapstructure:"global_rps"`
	ProxyURL         string  `mapstructure:"proxy_url"`
	MinBodyBytes     int     `mapstructure:"min_body_bytes"`
	EmptyBodyBytes   int     `mapstructure:"empty_body_bytes"`
	BackoffInitialMs int     `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int     `mapstructure:"backoff_max_ms"`
}

// Timeout returns the request timeout as a duration.
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BackoffInitial returns the initial backoff as a duration.
func (c HTTPConfig) BackoffInitial() time.Duration {
	return time.Duration(c.BackoffInitialMs) * time.Millisecond
}

// BackoffMax returns the backoff cap as a duration.
func (c HTTPConfig) BackoffMax() time.Duration {
	return time.Duration(c.BackoffMaxMs) * time.Millisecond
}

// PolitenessConfig sets the per-stage jittered delay ranges.
type PolitenessConfig struct {
	ListingDelayMinMs int `mapstructure:"listing_delay_min_ms"`
	ListingDelayMaxMs int `mapstructure:"listing_delay_max_ms"`
	DetailDelayMinMs  int `mapstructure:"detail_delay_min_ms"`
	DetailDelayMaxMs  int `mapstructure:"detail_delay_max_ms"`
}

// ListingDelayMin returns the listing-stage minimum delay.
func (c PolitenessConfig) ListingDelayMin() time.Duration {
	return time.Duration(c.ListingDelayMinMs) * time.Millisecond
}

// ListingDelayMax returns the listing-stage maximum delay.
func (c PolitenessConfig) ListingDelayMax() time.Duration {
	return time.Duration(c.ListingDelayMaxMs) * time.Millisecond
}

// DetailDelayMin returns the detail-stage minimum delay.
func (c PolitenessConfig) DetailDelayMin() time.Duration {
	return time.Duration(c.DetailDelayMinMs) * time.Millisecond
}

// DetailDelayMax returns the detail-stage maximum delay.
func (c PolitenessConfig) DetailDelayMax() time.Duration {
	return time.Duration(c.DetailDelayMaxMs) * time.Millisecond
}

// IdentityConfig bounds the identity pool.
type IdentityConfig struct {
	Capacity      int `mapstructure:"capacity"`
	MaxUsage      int `mapstructure:"max_usage"`
	MaxErrorScore int `mapstructure:"max_error_score"`
	MaxAgeMinutes int `mapstructure:"max_age_minutes"`
}

// MaxAge returns the identity lifetime as a duration.
func (c IdentityConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMinutes) * time.Minute
}

// StorageConfig selects record and snapshot backends.
type StorageConfig struct {
	RecordsBackend string `mapstructure:"records_backend"`
	BlobsBackend   string `mapstructure:"blobs_backend"`
	LocalDir       string `mapstructure:"local_dir"`
	GCSBucket      string `mapstructure:"gcs_bucket"`
	Prefix         string `mapstructure:"prefix"`
}

// DBConfig controls access to Postgres when records_backend is postgres.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	Table              string `mapstructure:"table"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMin int    `mapstructure:"max_conn_lifetime_minutes"`
}

// MaxConnLifetime returns the pooled connection lifetime as a duration.
func (c DBConfig) MaxConnLifetime() time.Duration {
	return time.Duration(c.MaxConnLifetimeMin) * time.Minute
}

// PubSubConfig holds metadata for record and run-summary events.
type PubSubConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	Topic     string `mapstructure:"topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("flow.target_records", 50)
	v.SetDefault("flow.max_pages", 10)
	v.SetDefault("workers.count", 4)
	v.SetDefault("workers.min_count", 1)
	v.SetDefault("workers.queue_depth", 256)
	v.SetDefault("workers.max_attempts", 3)
	v.SetDefault("workers.task_budget_multiplier", 4)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.global_rps", 1.0)
	v.SetDefault("http.min_body_bytes", 2048)
	v.SetDefault("http.empty_body_bytes", 64)
	v.SetDefault("http.backoff_initial_ms", 500)
	v.SetDefault("http.backoff_max_ms", 15000)
	v.SetDefault("politeness.listing_delay_min_ms", 1000)
	v.SetDefault("politeness.listing_delay_max_ms", 3000)
	v.SetDefault("politeness.detail_delay_min_ms", 2000)
	v.SetDefault("politeness.detail_delay_max_ms", 6000)
	v.SetDefault("identity.capacity", 8)
	v.SetDefault("identity.max_usage", 30)
	v.SetDefault("identity.max_error_score", 3)
	v.SetDefault("identity.max_age_minutes", 20)
	v.SetDefault("storage.records_backend", RecordsBackendMemory)
	v.SetDefault("storage.blobs_backend", BlobsBackendNone)
	v.SetDefault("storage.prefix", "snapshots")
	v.SetDefault("db.table", "job_listings")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Flow.TargetRecords <= 0 {
		return fmt.Errorf("flow.target_records must be > 0")
	}
	if c.Flow.MaxPages <= 0 {
		return fmt.Errorf("flow.max_pages must be > 0")
	}
	if c.Workers.Count <= 0 {
		return fmt.Errorf("workers.count must be > 0")
	}
	if c.Workers.MinCount < 0 {
		return fmt.Errorf("workers.min_count must be >= 0")
	}
	if c.Workers.MaxAttempts <= 0 {
		return fmt.Errorf("workers.max_attempts must be > 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Identity.Capacity > 0 && c.Identity.Capacity < c.Workers.PoolSize() {
		return fmt.Errorf("identity.capacity must cover the worker pool size %d", c.Workers.PoolSize())
	}

	switch c.Storage.RecordsBackend {
	case RecordsBackendMemory:
	case RecordsBackendPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when storage.records_backend is postgres")
		}
	default:
		return fmt.Errorf("storage.records_backend %q is not supported", c.Storage.RecordsBackend)
	}

	switch c.Storage.BlobsBackend {
	case BlobsBackendNone, BlobsBackendMemory:
	case BlobsBackendLocal:
		if c.Storage.LocalDir == "" {
			return fmt.Errorf("storage.local_dir must be set when storage.blobs_backend is local")
		}
	case BlobsBackendGCS:
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.blobs_backend is gcs")
		}
	default:
		return fmt.Errorf("storage.blobs_backend %q is not supported", c.Storage.BlobsBackend)
	}

	if c.PubSub.Enabled && (c.PubSub.ProjectID == "" || c.PubSub.Topic == "") {
		return fmt.Errorf("pubsub.project_id and pubsub.topic must be set when pubsub is enabled")
	}
	return nil
}
