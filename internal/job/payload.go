// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package job

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/mij-project/mij-recommender/internal/factorize"
	"github.com/mij-project/mij-recommender/internal/models"
)

// BuildPayloadRows groups ranked recommendations by user and serializes each
// user's list into one upsert row. The scorer emits rows user by user in
// rank order, so grouping preserves rank ascending within each payload.
// Users without recommendations get no row; their stored payload is left
// untouched.
func BuildPayloadRows(recs []factorize.Recommendation, typ models.RecommendationType,
	now time.Time) ([]models.UserRecommendation, error) {

	if len(recs) == 0 {
		return nil, nil
	}

	var rows []models.UserRecommendation
	var items []models.RankedItem
	flush := func(user models.UserRecommendation) error {
		payload, err := json.Marshal(items)
		if err != nil {
			return fmt.Errorf("failed to serialize payload for user %s: %w", user.UserID, err)
		}
		user.Payload = payload
		rows = append(rows, user)
		return nil
	}

	current := models.UserRecommendation{
		UserID:    recs[0].UserID,
		Type:      typ,
		UpdatedAt: now,
	}
	for _, rec := range recs {
		if rec.UserID != current.UserID {
			if err := flush(current); err != nil {
				return nil, err
			}
			items = nil
			current = models.UserRecommendation{
				UserID:    rec.UserID,
				Type:      typ,
				UpdatedAt: now,
			}
		}
		items = append(items, models.RankedItem{
			ID:    rec.EntityID.String(),
			Rank:  rec.Rank,
			Score: rec.Score,
		})
	}
	if err := flush(current); err != nil {
		return nil, err
	}

	return rows, nil
}
