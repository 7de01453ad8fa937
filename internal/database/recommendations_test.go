// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package database

import (
	"strings"
	"testing"
)

func TestBuildUpsertQuery_SingleRow(t *testing.T) {
	got := buildUpsertQuery(1)
	want := "INSERT INTO user_recommendations (user_id, type, payload, updated_at) " +
		"VALUES ($1, $2, $3, $4) " +
		"ON CONFLICT (user_id, type) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at"
	if got != want {
		t.Errorf("buildUpsertQuery(1) =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildUpsertQuery_MultiRow(t *testing.T) {
	got := buildUpsertQuery(3)

	if !strings.Contains(got, "($1, $2, $3, $4), ($5, $6, $7, $8), ($9, $10, $11, $12)") {
		t.Errorf("buildUpsertQuery(3) placeholders wrong:\n%s", got)
	}
	if strings.Count(got, "(") != 5 { // column list + 3 tuples + conflict target
		t.Errorf("buildUpsertQuery(3) has unexpected structure:\n%s", got)
	}
	if !strings.HasSuffix(got, "updated_at = EXCLUDED.updated_at") {
		t.Errorf("buildUpsertQuery(3) missing conflict clause:\n%s", got)
	}
}

func TestBuildUpsertQuery_ChunkBoundary(t *testing.T) {
	// The largest chunk must stay under the 65535 parameter limit of the
	// extended query protocol.
	got := buildUpsertQuery(upsertChunkSize)
	if params := upsertChunkSize * 4; params >= 65535 {
		t.Fatalf("chunk of %d rows needs %d parameters", upsertChunkSize, params)
	}
	if !strings.Contains(got, "$4000)") {
		t.Errorf("buildUpsertQuery(%d) missing final placeholder", upsertChunkSize)
	}
}
