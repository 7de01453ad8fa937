// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

// Package main is the entry point for the recommendation batch.
//
// The batch builds implicit-feedback interaction matrices from the
// platform's follows, likes, bookmarks, view tracking and succeeded payment
// tables over a trailing window, factorizes them with TF-IDF plus truncated
// SVD, and upserts top-K personalized creator and category recommendations
// into the user_recommendations table.
//
// One invocation is one run. Scheduling is the deployment's concern (cron,
// a scheduled container task); the process exits when the run completes or
// fails. Configuration is loaded via Koanf v2 with layered sources, highest
// priority last:
//
//   - Built-in defaults
//   - Optional YAML config file (config.yaml, or CONFIG_PATH)
//   - Environment variables
//
// Commonly tuned variables:
//
//	DATABASE_URL                  Postgres connection string (required)
//	MASK_FOLLOW_FOR_NEW_CREATOR   count follows as seen for masking (default 1)
//	WINDOW_DAYS                   trailing interaction window (default 30)
//	TOP_K                         stored entities per user per type (default 30)
//	METRICS_ENABLED, METRICS_ADDR optional /metrics and /healthz listener
//	LOG_LEVEL, LOG_FORMAT         zerolog level and json/console format
//
// SIGINT and SIGTERM cancel the run; an in-flight upsert transaction rolls
// back and nothing partial becomes visible.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mij-project/mij-recommender/internal/config"
	"github.com/mij-project/mij-recommender/internal/database"
	"github.com/mij-project/mij-recommender/internal/job"
	"github.com/mij-project/mij-recommender/internal/logging"
	"github.com/mij-project/mij-recommender/internal/metrics"
	"github.com/mij-project/mij-recommender/internal/server"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logging.Err(err).Msg("Failed to load configuration")
		return 1
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Int("window_days", cfg.Recommend.WindowDays).
		Int("top_k", cfg.Recommend.TopK).
		Bool("mask_follow", cfg.Recommend.MaskFollowForNewCreator).
		Msg("Recommendation batch starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	var srv *server.Server
	if cfg.Metrics.Enabled {
		srv = server.New(cfg.Metrics.Addr, logging.Logger())
		go func() {
			if err := srv.Start(); err != nil {
				logging.Warn().Err(err).Msg("Metrics listener failed")
			}
		}()
	}

	runner := job.NewRunner(db, db, job.Config{
		WindowDays:              cfg.Recommend.WindowDays,
		HalfLifeDays:            cfg.Recommend.HalfLifeDays,
		TopK:                    cfg.Recommend.TopK,
		CreatorComponents:       cfg.Recommend.CreatorComponents,
		CategoryComponents:      cfg.Recommend.CategoryComponents,
		ScoreBatchSize:          cfg.Recommend.ScoreBatchSize,
		PowerIterations:         cfg.Recommend.PowerIterations,
		Seed:                    cfg.Recommend.Seed,
		MaskFollowForNewCreator: cfg.Recommend.MaskFollowForNewCreator,
	}, logging.Logger())

	start := time.Now()
	runErr := runner.Run(ctx)
	metrics.ObserveRun(start, runErr)

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("Failed to drain metrics listener")
		}
	}

	if runErr != nil {
		logging.Err(runErr).Msg("Recommendation batch failed")
		return 1
	}
	return 0
}
