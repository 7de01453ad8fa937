// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

// Package job orchestrates one batch run: pull the window's interaction
// signals, aggregate them into weight tables, factorize and score each
// entity type, and upsert the resulting payloads.
//
// The run is sequential and stateless; every invocation recomputes from
// scratch over the trailing window. Aggregation, SVD, and upsert run in
// order, once for creators and once for categories. Concurrent batch
// invocations are serialized at the database by the upsert's ON CONFLICT
// semantics, not by application locking.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mij-project/mij-recommender/internal/aggregate"
	"github.com/mij-project/mij-recommender/internal/factorize"
	"github.com/mij-project/mij-recommender/internal/metrics"
	"github.com/mij-project/mij-recommender/internal/models"
)

// SignalSource provides one window's raw interaction rows. *database.DB
// implements it; tests supply fakes.
type SignalSource interface {
	FetchFollows(ctx context.Context) ([]models.CreatorSignal, error)
	FetchLikes(ctx context.Context, since time.Time) ([]models.PostSignal, error)
	FetchBookmarks(ctx context.Context, since time.Time) ([]models.PostSignal, error)
	FetchPostViews(ctx context.Context, since time.Time) ([]models.PostViewSignal, error)
	FetchProfileViews(ctx context.Context, since time.Time) ([]models.CreatorSignal, error)
	FetchSinglePurchases(ctx context.Context, since time.Time) ([]models.PostSignal, error)
	FetchPlanPurchases(ctx context.Context, since time.Time) ([]models.PlanSignal, error)
	FetchPostCategories(ctx context.Context) ([]models.PostCategory, error)
	FetchPlanCategories(ctx context.Context) ([]models.PlanCategory, error)
}

// RecommendationStore persists computed payloads.
type RecommendationStore interface {
	UpsertUserRecommendations(ctx context.Context, recs []models.UserRecommendation) error
}

// Config holds the model tunables for one run.
type Config struct {
	WindowDays              int
	HalfLifeDays            float64
	TopK                    int
	CreatorComponents       int
	CategoryComponents      int
	ScoreBatchSize          int
	PowerIterations         int
	Seed                    int64
	MaskFollowForNewCreator bool
}

// Runner executes batch runs against a signal source and a store.
type Runner struct {
	src    SignalSource
	store  RecommendationStore
	cfg    Config
	logger zerolog.Logger

	// now is injectable for tests.
	now func() time.Time
}

// NewRunner wires a runner with an explicit source and store. The runner
// holds no state between runs.
func NewRunner(src SignalSource, store RecommendationStore, cfg Config, logger zerolog.Logger) *Runner {
	return &Runner{
		src:    src,
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Run executes one full batch: aggregate, score, and upsert both
// recommendation types. A read or upsert failure aborts the run with nothing
// further committed; the next scheduled invocation retries from scratch.
func (r *Runner) Run(ctx context.Context) error {
	start := r.now()
	since := start.AddDate(0, 0, -r.cfg.WindowDays)

	r.logger.Info().
		Time("window_start", since).
		Int("window_days", r.cfg.WindowDays).
		Msg("Starting recommendation batch")

	signals, err := r.fetchSignals(ctx, since)
	if err != nil {
		return err
	}

	agg := aggregate.Build(*signals, aggregate.Config{
		Now:                     start,
		HalfLifeDays:            r.cfg.HalfLifeDays,
		MaskFollowForNewCreator: r.cfg.MaskFollowForNewCreator,
	}, r.logger)

	metrics.AggregatePairs.WithLabelValues(models.RecommendationCreator.String()).
		Set(float64(agg.CreatorWeights.Len()))
	metrics.AggregatePairs.WithLabelValues(models.RecommendationCategory.String()).
		Set(float64(agg.CategoryWeights.Len()))

	if err := r.scoreAndStore(ctx, models.RecommendationCreator, agg.CreatorWeights,
		agg.CreatorSeen, r.cfg.CreatorComponents, start); err != nil {
		return err
	}
	if err := r.scoreAndStore(ctx, models.RecommendationCategory, agg.CategoryWeights,
		agg.CategorySeen, r.cfg.CategoryComponents, start); err != nil {
		return err
	}

	r.logger.Info().
		Dur("elapsed", r.now().Sub(start)).
		Msg("Recommendation batch complete")
	return nil
}

// fetchSignals materializes every signal source for the window.
func (r *Runner) fetchSignals(ctx context.Context, since time.Time) (*aggregate.Signals, error) {
	sig := &aggregate.Signals{}
	var err error

	if sig.Follows, err = r.src.FetchFollows(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch follows: %w", err)
	}
	r.observeSignal("follows", len(sig.Follows))

	if sig.Likes, err = r.src.FetchLikes(ctx, since); err != nil {
		return nil, fmt.Errorf("failed to fetch likes: %w", err)
	}
	r.observeSignal("likes", len(sig.Likes))

	if sig.Bookmarks, err = r.src.FetchBookmarks(ctx, since); err != nil {
		return nil, fmt.Errorf("failed to fetch bookmarks: %w", err)
	}
	r.observeSignal("bookmarks", len(sig.Bookmarks))

	if sig.PostViews, err = r.src.FetchPostViews(ctx, since); err != nil {
		return nil, fmt.Errorf("failed to fetch post views: %w", err)
	}
	r.observeSignal("post_views", len(sig.PostViews))

	if sig.ProfileViews, err = r.src.FetchProfileViews(ctx, since); err != nil {
		return nil, fmt.Errorf("failed to fetch profile views: %w", err)
	}
	r.observeSignal("profile_views", len(sig.ProfileViews))

	if sig.SinglePurchases, err = r.src.FetchSinglePurchases(ctx, since); err != nil {
		return nil, fmt.Errorf("failed to fetch single purchases: %w", err)
	}
	r.observeSignal("single_purchases", len(sig.SinglePurchases))

	if sig.PlanPurchases, err = r.src.FetchPlanPurchases(ctx, since); err != nil {
		return nil, fmt.Errorf("failed to fetch plan purchases: %w", err)
	}
	r.observeSignal("plan_purchases", len(sig.PlanPurchases))

	if sig.PostCategories, err = r.src.FetchPostCategories(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch post categories: %w", err)
	}
	if sig.PlanCategories, err = r.src.FetchPlanCategories(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch plan categories: %w", err)
	}

	return sig, nil
}

func (r *Runner) observeSignal(signal string, rows int) {
	metrics.SignalRows.WithLabelValues(signal).Add(float64(rows))
	r.logger.Debug().Str("signal", signal).Int("rows", rows).Msg("Fetched signal rows")
}

// scoreAndStore factorizes one weight table and upserts its payloads.
func (r *Runner) scoreAndStore(ctx context.Context, typ models.RecommendationType,
	table *aggregate.WeightTable, seen aggregate.SeenSet, components int, now time.Time) error {

	typeLogger := r.logger.With().Str("entity_type", typ.String()).Logger()

	entries := table.Entries()
	interactions := make([]factorize.Interaction, len(entries))
	for i, e := range entries {
		interactions[i] = factorize.Interaction{
			UserID:   e.UserID,
			EntityID: e.EntityID,
			Weight:   e.Weight,
		}
	}

	factorizeStart := r.now()
	recs := factorize.Score(interactions, seen, factorize.Config{
		Components:      components,
		TopK:            r.cfg.TopK,
		BatchSize:       r.cfg.ScoreBatchSize,
		PowerIterations: r.cfg.PowerIterations,
		Seed:            r.cfg.Seed,
	}, typeLogger)
	metrics.FactorizeDuration.WithLabelValues(typ.String()).
		Observe(r.now().Sub(factorizeStart).Seconds())

	rows, err := BuildPayloadRows(recs, typ, now)
	if err != nil {
		return fmt.Errorf("failed to build %s payloads: %w", typ, err)
	}

	metrics.UsersRecommended.WithLabelValues(typ.String()).Set(float64(len(rows)))
	if len(rows) == 0 {
		typeLogger.Info().Msg("No recommendations produced, nothing to upsert")
		return nil
	}

	if err := r.store.UpsertUserRecommendations(ctx, rows); err != nil {
		metrics.UpsertErrors.WithLabelValues(typ.String()).Inc()
		return fmt.Errorf("failed to upsert %s recommendations: %w", typ, err)
	}
	metrics.UpsertRows.WithLabelValues(typ.String()).Add(float64(len(rows)))

	typeLogger.Info().
		Int("users", len(rows)).
		Msg("Upserted recommendation payloads")
	return nil
}
