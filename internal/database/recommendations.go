// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/mij-project/mij-recommender/internal/models"
)

// upsertChunkSize bounds the rows per INSERT statement; 4 parameters per row
// keeps each statement far below the Postgres parameter limit.
const upsertChunkSize = 1000

// UpsertUserRecommendations writes one payload row per (user_id, type),
// overwriting any previous payload for the same key. All rows are written in
// a single transaction so readers never observe a partially updated batch;
// any failure rolls the whole set back.
func (db *DB) UpsertUserRecommendations(ctx context.Context, recs []models.UserRecommendation) error {
	if len(recs) == 0 {
		return nil
	}

	qctx, cancel := db.queryContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(qctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(recs); start += upsertChunkSize {
		end := min(start+upsertChunkSize, len(recs))
		chunk := recs[start:end]

		query := buildUpsertQuery(len(chunk))
		args := make([]any, 0, len(chunk)*4)
		for _, rec := range chunk {
			args = append(args, rec.UserID, int(rec.Type), rec.Payload, rec.UpdatedAt)
		}

		if _, err := tx.ExecContext(qctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert user_recommendations: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendation upsert: %w", err)
	}
	return nil
}

// buildUpsertQuery renders the multi-row upsert statement for n rows. Only
// payload and updated_at are overwritten on conflict; the key columns stay
// as originally inserted.
func buildUpsertQuery(n int) string {
	var b strings.Builder
	b.WriteString("INSERT INTO user_recommendations (user_id, type, payload, updated_at) VALUES ")
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(", ")
		}
		base := i * 4
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)
	}
	b.WriteString(" ON CONFLICT (user_id, type) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at")
	return b.String()
}
