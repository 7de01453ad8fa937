// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mij-project/mij-recommender/internal/models"
)

// FetchFollows returns all follow relationships. Follows are a standing
// relationship, not an event, so they are not time-windowed.
func (db *DB) FetchFollows(ctx context.Context) ([]models.CreatorSignal, error) {
	const query = `
		SELECT user_id, creator_id, created_at
		FROM follows`
	return db.fetchCreatorSignals(ctx, "follows", query)
}

// FetchLikes returns in-window likes joined to the liked post's creator.
func (db *DB) FetchLikes(ctx context.Context, since time.Time) ([]models.PostSignal, error) {
	const query = `
		SELECT l.user_id, l.post_id, p.user_id AS creator_id, l.created_at
		FROM likes l
		JOIN posts p ON p.id = l.post_id
		WHERE l.created_at >= $1`
	return db.fetchPostSignals(ctx, "likes", query, since)
}

// FetchBookmarks returns in-window bookmarks joined to the post's creator.
func (db *DB) FetchBookmarks(ctx context.Context, since time.Time) ([]models.PostSignal, error) {
	const query = `
		SELECT b.user_id, b.post_id, p.user_id AS creator_id, b.created_at
		FROM bookmarks b
		JOIN posts p ON p.id = b.post_id
		WHERE b.created_at >= $1`
	return db.fetchPostSignals(ctx, "bookmarks", query, since)
}

// FetchPostViews returns in-window post view tracking rows with optional
// watch progress. Anonymous views (NULL user_id) carry no personalization
// signal and are excluded.
func (db *DB) FetchPostViews(ctx context.Context, since time.Time) ([]models.PostViewSignal, error) {
	const query = `
		SELECT v.user_id, v.post_id, p.user_id AS creator_id, v.created_at,
		       v.watched_duration_sec, v.video_duration_sec
		FROM post_views_tracking v
		JOIN posts p ON p.id = v.post_id
		WHERE v.user_id IS NOT NULL
		  AND v.created_at >= $1`

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query post_views_tracking: %w", err)
	}
	defer rows.Close()

	var out []models.PostViewSignal
	for rows.Next() {
		var sig models.PostViewSignal
		var watched, video sql.NullFloat64
		if err := rows.Scan(&sig.UserID, &sig.PostID, &sig.CreatorID, &sig.OccurredAt,
			&watched, &video); err != nil {
			return nil, fmt.Errorf("failed to scan post view row: %w", err)
		}
		if watched.Valid {
			sig.WatchedSeconds = &watched.Float64
		}
		if video.Valid {
			sig.VideoSeconds = &video.Float64
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post view rows: %w", err)
	}
	return out, nil
}

// FetchProfileViews returns in-window profile view tracking rows, excluding
// anonymous views.
func (db *DB) FetchProfileViews(ctx context.Context, since time.Time) ([]models.CreatorSignal, error) {
	const query = `
		SELECT user_id, creator_id, created_at
		FROM profile_views_tracking
		WHERE user_id IS NOT NULL
		  AND created_at >= $1`
	return db.fetchCreatorSignals(ctx, "profile_views_tracking", query, since)
}

// FetchSinglePurchases returns in-window succeeded single-post payments
// resolved to the purchased post and its creator.
func (db *DB) FetchSinglePurchases(ctx context.Context, since time.Time) ([]models.PostSignal, error) {
	const query = `
		SELECT pay.user_id, pr.post_id, p.user_id AS creator_id, pay.created_at
		FROM payments pay
		JOIN prices pr ON pr.id = pay.price_id
		JOIN posts p ON p.id = pr.post_id
		WHERE pay.status = 'succeeded'
		  AND pay.order_type = 'single'
		  AND pay.created_at >= $1`
	return db.fetchPostSignals(ctx, "payments(single)", query, since)
}

// FetchPlanPurchases returns in-window succeeded plan payments resolved to
// the plan and its owning creator.
func (db *DB) FetchPlanPurchases(ctx context.Context, since time.Time) ([]models.PlanSignal, error) {
	const query = `
		SELECT pay.user_id, pl.id AS plan_id, pl.user_id AS creator_id, pay.created_at
		FROM payments pay
		JOIN prices pr ON pr.id = pay.price_id
		JOIN plans pl ON pl.id = pr.plan_id
		WHERE pay.status = 'succeeded'
		  AND pay.order_type = 'plan'
		  AND pay.created_at >= $1`

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan payments: %w", err)
	}
	defer rows.Close()

	var out []models.PlanSignal
	for rows.Next() {
		var sig models.PlanSignal
		if err := rows.Scan(&sig.UserID, &sig.PlanID, &sig.CreatorID, &sig.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan payment row: %w", err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan payment rows: %w", err)
	}
	return out, nil
}

// FetchPostCategories returns the post to category membership table, used
// for category attribution and signal dilution.
func (db *DB) FetchPostCategories(ctx context.Context) ([]models.PostCategory, error) {
	const query = `
		SELECT post_id, category_id
		FROM post_categories`

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query post_categories: %w", err)
	}
	defer rows.Close()

	var out []models.PostCategory
	for rows.Next() {
		var pc models.PostCategory
		if err := rows.Scan(&pc.PostID, &pc.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan post category row: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate post category rows: %w", err)
	}
	return out, nil
}

// FetchPlanCategories returns the distinct categories reachable through each
// plan's bundled posts, used to dilute plan-purchase category signal.
func (db *DB) FetchPlanCategories(ctx context.Context) ([]models.PlanCategory, error) {
	const query = `
		SELECT DISTINCT pp.plan_id, pc.category_id
		FROM post_plans pp
		JOIN post_categories pc ON pc.post_id = pp.post_id`

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plan categories: %w", err)
	}
	defer rows.Close()

	var out []models.PlanCategory
	for rows.Next() {
		var pc models.PlanCategory
		if err := rows.Scan(&pc.PlanID, &pc.CategoryID); err != nil {
			return nil, fmt.Errorf("failed to scan plan category row: %w", err)
		}
		out = append(out, pc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plan category rows: %w", err)
	}
	return out, nil
}

// fetchCreatorSignals runs a query returning (user_id, creator_id,
// created_at) rows.
func (db *DB) fetchCreatorSignals(ctx context.Context, table, query string, args ...any) ([]models.CreatorSignal, error) {
	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.CreatorSignal
	for rows.Next() {
		var sig models.CreatorSignal
		if err := rows.Scan(&sig.UserID, &sig.CreatorID, &sig.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", table, err)
	}
	return out, nil
}

// fetchPostSignals runs a query returning (user_id, post_id, creator_id,
// created_at) rows.
func (db *DB) fetchPostSignals(ctx context.Context, table, query string, args ...any) ([]models.PostSignal, error) {
	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(qctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var out []models.PostSignal
	for rows.Next() {
		var sig models.PostSignal
		if err := rows.Scan(&sig.UserID, &sig.PostID, &sig.CreatorID, &sig.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		out = append(out, sig)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", table, err)
	}
	return out, nil
}
