// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

// Package config loads batch configuration from layered sources via Koanf v2:
// built-in defaults, an optional YAML config file, then environment variables
// (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the recommendation batch.
type Config struct {
	Database  DatabaseConfig  `koanf:"database"`
	Logging   LoggingConfig   `koanf:"logging"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// DatabaseConfig holds the read/write connection settings for the platform
// Postgres database.
type DatabaseConfig struct {
	// URL is the Postgres connection string (DATABASE_URL).
	URL string `koanf:"url" validate:"required"`

	// MaxOpenConns bounds the connection pool. The batch is sequential, so a
	// small pool is sufficient.
	MaxOpenConns int `koanf:"max_open_conns" validate:"gt=0"`

	// MaxIdleConns is the idle pool size.
	MaxIdleConns int `koanf:"max_idle_conns" validate:"gte=0"`

	// ConnMaxLifetime recycles connections to avoid stale sockets behind
	// load balancers.
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`

	// QueryTimeout bounds each signal pull and the upsert statement.
	QueryTimeout time.Duration `koanf:"query_timeout" validate:"gt=0"`
}

// LoggingConfig mirrors logging.Config for koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// MetricsConfig controls the optional Prometheus listener that runs for the
// duration of the batch.
type MetricsConfig struct {
	// Enabled starts the /metrics and /healthz listener when true.
	Enabled bool `koanf:"enabled"`

	// Addr is the listen address, e.g. ":9090".
	Addr string `koanf:"addr" validate:"required_if=Enabled true"`
}

// RecommendConfig holds the tunables of the recommendation model. The
// per-signal base weights are deliberately constants in the aggregate
// package: they are the model, not deployment configuration.
type RecommendConfig struct {
	// WindowDays is the trailing interaction window for time-windowed
	// signals.
	WindowDays int `koanf:"window_days" validate:"gt=0"`

	// HalfLifeDays is the exponential decay half-life applied to
	// time-decayed signals: exp(-age_days / half_life).
	HalfLifeDays float64 `koanf:"half_life_days" validate:"gt=0"`

	// TopK is the maximum number of entities stored per user per type.
	TopK int `koanf:"top_k" validate:"gt=0"`

	// CreatorComponents is the requested SVD rank for the user x creator
	// matrix. Clamped to min(matrix shape) - 1 at runtime.
	CreatorComponents int `koanf:"creator_components" validate:"gt=0"`

	// CategoryComponents is the requested SVD rank for the user x category
	// matrix.
	CategoryComponents int `koanf:"category_components" validate:"gt=0"`

	// ScoreBatchSize is how many users are scored per dense batch to bound
	// memory.
	ScoreBatchSize int `koanf:"score_batch_size" validate:"gt=0"`

	// PowerIterations is the subspace iteration count of the truncated SVD.
	PowerIterations int `koanf:"power_iterations" validate:"gt=0"`

	// Seed makes factorization deterministic across runs.
	Seed int64 `koanf:"seed"`

	// MaskFollowForNewCreator controls whether followed creators count as
	// "seen" and are masked from creator recommendations. Follow weight
	// always enters the training matrix regardless of this flag.
	MaskFollowForNewCreator bool `koanf:"mask_follow_for_new_creator"`
}

// Validate checks the configuration for structural errors.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
