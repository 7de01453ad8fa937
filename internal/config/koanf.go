// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/mij-recommender/config.yaml",
	"/etc/mij-recommender/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envBindings maps flat environment variables onto koanf paths. Only listed
// variables are consumed; everything else in the environment is ignored.
var envBindings = map[string]string{
	"DATABASE_URL":                "database.url",
	"DATABASE_MAX_OPEN_CONNS":     "database.max_open_conns",
	"DATABASE_MAX_IDLE_CONNS":     "database.max_idle_conns",
	"DATABASE_CONN_MAX_LIFETIME":  "database.conn_max_lifetime",
	"DATABASE_QUERY_TIMEOUT":      "database.query_timeout",
	"LOG_LEVEL":                   "logging.level",
	"LOG_FORMAT":                  "logging.format",
	"LOG_CALLER":                  "logging.caller",
	"METRICS_ENABLED":             "metrics.enabled",
	"METRICS_ADDR":                "metrics.addr",
	"WINDOW_DAYS":                 "recommend.window_days",
	"HALF_LIFE_DAYS":              "recommend.half_life_days",
	"TOP_K":                       "recommend.top_k",
	"CREATOR_COMPONENTS":          "recommend.creator_components",
	"CATEGORY_COMPONENTS":         "recommend.category_components",
	"SCORE_BATCH_SIZE":            "recommend.score_batch_size",
	"POWER_ITERATIONS":            "recommend.power_iterations",
	"RECOMMEND_SEED":              "recommend.seed",
	"MASK_FOLLOW_FOR_NEW_CREATOR": "recommend.mask_follow_for_new_creator",
}

// defaultConfig returns the built-in defaults, applied before file and
// environment layers.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL:             "",
			MaxOpenConns:    4,
			MaxIdleConns:    2,
			ConnMaxLifetime: time.Hour,
			QueryTimeout:    5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Recommend: RecommendConfig{
			WindowDays:              30,
			HalfLifeDays:            14,
			TopK:                    30,
			CreatorComponents:       64,
			CategoryComponents:      32,
			ScoreBatchSize:          512,
			PowerIterations:         7,
			Seed:                    42,
			MaskFollowForNewCreator: true,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", func(key string) string {
		return envBindings[key]
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file path, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
