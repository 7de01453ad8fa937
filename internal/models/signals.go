// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

// Package models defines the row structures shared between the database layer
// and the recommendation pipeline. All structures are read-only snapshots of
// platform tables; the recommender never mutates the source data.
package models

import (
	"time"

	"github.com/google/uuid"
)

// CreatorSignal is a raw interaction row attributed directly to a creator
// (follows, profile views).
type CreatorSignal struct {
	// UserID is the acting user.
	UserID uuid.UUID

	// CreatorID is the creator the interaction targets.
	CreatorID uuid.UUID

	// OccurredAt is when the interaction happened.
	OccurredAt time.Time
}

// PostSignal is a raw interaction row attributed to a post and, through the
// post, to its creator and categories (likes, bookmarks, single purchases).
type PostSignal struct {
	// UserID is the acting user.
	UserID uuid.UUID

	// PostID is the post the interaction targets.
	PostID uuid.UUID

	// CreatorID is the author of the post.
	CreatorID uuid.UUID

	// OccurredAt is when the interaction happened.
	OccurredAt time.Time
}

// PostViewSignal is a post view row with optional watch progress. Duration
// fields are nil when the tracking row carries no playback information
// (image posts, legacy rows).
type PostViewSignal struct {
	PostSignal

	// WatchedSeconds is how long the viewer actually watched.
	WatchedSeconds *float64

	// VideoSeconds is the total media duration.
	VideoSeconds *float64
}

// PlanSignal is a succeeded plan purchase row.
type PlanSignal struct {
	// UserID is the buyer.
	UserID uuid.UUID

	// PlanID is the purchased plan.
	PlanID uuid.UUID

	// CreatorID is the plan owner.
	CreatorID uuid.UUID

	// OccurredAt is when the payment succeeded.
	OccurredAt time.Time
}

// PostCategory links a post to one of its categories.
type PostCategory struct {
	PostID     uuid.UUID
	CategoryID uuid.UUID
}

// PlanCategory links a plan to one distinct category reachable through the
// posts bundled in the plan.
type PlanCategory struct {
	PlanID     uuid.UUID
	CategoryID uuid.UUID
}
