// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package models

import (
	"time"

	"github.com/google/uuid"
)

// RecommendationType discriminates stored recommendation payloads.
type RecommendationType int

const (
	// RecommendationCreator is a ranked list of creators.
	RecommendationCreator RecommendationType = 1

	// RecommendationCategory is a ranked list of categories.
	RecommendationCategory RecommendationType = 2
)

// String returns a human-readable name for the recommendation type.
func (t RecommendationType) String() string {
	switch t {
	case RecommendationCreator:
		return "creator"
	case RecommendationCategory:
		return "category"
	default:
		return "unknown"
	}
}

// RankedItem is one entry of a stored recommendation payload. The payload
// column holds a JSON array of these, ordered by rank ascending.
type RankedItem struct {
	// ID is the recommended entity identifier, serialized as a string.
	ID string `json:"id"`

	// Rank is the 1-indexed position, 1 being the best match.
	Rank int `json:"rank"`

	// Score is the cosine score from the latent-factor model.
	Score float64 `json:"score"`
}

// UserRecommendation is one upsert row for the user_recommendations table.
// At most one row exists per (UserID, Type); each batch run fully replaces
// the payload for that key.
type UserRecommendation struct {
	// UserID is the user the recommendations are for.
	UserID uuid.UUID

	// Type is the recommendation type discriminator.
	Type RecommendationType

	// Payload is the serialized JSON array of RankedItem objects.
	Payload []byte

	// UpdatedAt is when this payload was computed.
	UpdatedAt time.Time
}
