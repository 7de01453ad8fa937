// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

// Package factorize turns an aggregated user x entity weight table into
// top-K personalized recommendations via TF-IDF reweighting and truncated
// SVD.
//
// The pipeline mirrors a classic implicit-feedback latent-factor recipe:
// sparse matrix -> TF-IDF -> rank-k SVD -> L2-normalized user and entity
// embeddings -> cosine scoring with seen-entity masking. All numerics are
// deterministic: seeded initialization plus a defined tie-break (score
// descending, then entity ID ascending) make repeat runs reproducible.
package factorize

import (
	"bytes"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Interaction is one aggregated (user, entity, weight) cell.
type Interaction struct {
	UserID   uuid.UUID
	EntityID uuid.UUID
	Weight   float64
}

// Seen reports whether a user already interacted with an entity; such
// entities are masked from that user's recommendations.
type Seen interface {
	Contains(user, entity uuid.UUID) bool
}

// Config controls scoring for one entity type.
type Config struct {
	// Components is the requested SVD rank, clamped to min(shape)-1.
	Components int

	// TopK is the maximum number of entities emitted per user.
	TopK int

	// BatchSize is how many users are scored per dense batch.
	BatchSize int

	// PowerIterations is the subspace iteration count.
	PowerIterations int

	// Seed fixes the factorization initialization.
	Seed int64
}

// Recommendation is one ranked entity for a user. Ranks are 1-indexed and
// contiguous per user, best score first.
type Recommendation struct {
	UserID   uuid.UUID
	EntityID uuid.UUID
	Rank     int
	Score    float64
}

// index maps UUIDs to dense matrix positions in a deterministic (byte-sorted)
// order.
type index struct {
	ids []uuid.UUID
	pos map[uuid.UUID]int
}

func buildIndex(ids map[uuid.UUID]struct{}) index {
	sorted := make([]uuid.UUID, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	pos := make(map[uuid.UUID]int, len(sorted))
	for i, id := range sorted {
		pos[id] = i
	}
	return index{ids: sorted, pos: pos}
}

// Score produces ranked top-K recommendations for every user in the
// aggregated table, excluding entities in the user's seen set. An empty
// input yields an empty result without any matrix work.
func Score(interactions []Interaction, seen Seen, cfg Config, logger zerolog.Logger) []Recommendation {
	if len(interactions) == 0 {
		logger.Info().Msg("Empty aggregate table, skipping factorization")
		return nil
	}

	users := make(map[uuid.UUID]struct{})
	entities := make(map[uuid.UUID]struct{})
	for _, in := range interactions {
		users[in.UserID] = struct{}{}
		entities[in.EntityID] = struct{}{}
	}
	userIdx := buildIndex(users)
	entityIdx := buildIndex(entities)

	m, n := len(userIdx.ids), len(entityIdx.ids)
	k := cfg.Components
	if maxRank := min(m, n) - 1; k > maxRank {
		k = maxRank
	}
	if k < 1 {
		logger.Warn().
			Int("users", m).
			Int("entities", n).
			Msg("Matrix too small to factorize, skipping")
		return nil
	}

	mat := buildCSR(interactions, userIdx, entityIdx)
	applyTFIDF(mat)

	start := time.Now()
	entityFactors := truncatedSVD(mat, k, cfg.PowerIterations, cfg.Seed)
	userFactors := mat.MulDense(entityFactors)
	l2NormalizeRows(userFactors)
	l2NormalizeRows(entityFactors)
	logger.Debug().
		Int("users", m).
		Int("entities", n).
		Int("components", k).
		Dur("elapsed", time.Since(start)).
		Msg("Factorized interaction matrix")

	return rankAll(userFactors, entityFactors, userIdx, entityIdx, seen, cfg)
}

// buildCSR assembles the sparse matrix. Duplicate (user, entity) cells are
// summed; aggregation upstream normally leaves at most one.
func buildCSR(interactions []Interaction, userIdx, entityIdx index) *Matrix {
	rows := make([]map[int]float64, len(userIdx.ids))
	for _, in := range interactions {
		u := userIdx.pos[in.UserID]
		if rows[u] == nil {
			rows[u] = make(map[int]float64)
		}
		rows[u][entityIdx.pos[in.EntityID]] += in.Weight
	}

	mat := &Matrix{
		Rows:   len(userIdx.ids),
		Cols:   len(entityIdx.ids),
		RowPtr: make([]int, len(userIdx.ids)+1),
	}
	for u, row := range rows {
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		for _, j := range cols {
			mat.ColIdx = append(mat.ColIdx, j)
			mat.Val = append(mat.Val, row[j])
		}
		mat.RowPtr[u+1] = len(mat.Val)
	}
	return mat
}

// l2NormalizeRows normalizes each row to unit length; zero rows stay zero.
func l2NormalizeRows(rows [][]float64) {
	for _, row := range rows {
		var norm float64
		for _, v := range row {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			continue
		}
		for f := range row {
			row[f] /= norm
		}
	}
}

// candidate pairs an entity position with its score during top-K selection.
type candidate struct {
	entity int
	score  float64
}

// rankAll scores users in batches against all entities, masks seen entities,
// and keeps the top-K per user.
func rankAll(userFactors, entityFactors [][]float64, userIdx, entityIdx index, seen Seen, cfg Config) []Recommendation {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 512
	}

	var out []Recommendation
	candidates := make([]candidate, 0, len(entityIdx.ids))

	for batchStart := 0; batchStart < len(userFactors); batchStart += batchSize {
		batchEnd := min(batchStart+batchSize, len(userFactors))

		for u := batchStart; u < batchEnd; u++ {
			userID := userIdx.ids[u]
			uf := userFactors[u]

			candidates = candidates[:0]
			for e, ef := range entityFactors {
				if seen != nil && seen.Contains(userID, entityIdx.ids[e]) {
					continue
				}
				var score float64
				for f := range uf {
					score += uf[f] * ef[f]
				}
				candidates = append(candidates, candidate{entity: e, score: score})
			}

			// A user who has interacted with every entity gets no row at
			// all; their previously stored payload is left untouched.
			if len(candidates) == 0 {
				continue
			}

			sort.Slice(candidates, func(i, j int) bool {
				if candidates[i].score != candidates[j].score {
					return candidates[i].score > candidates[j].score
				}
				return bytes.Compare(
					entityIdx.ids[candidates[i].entity][:],
					entityIdx.ids[candidates[j].entity][:],
				) < 0
			})

			limit := min(cfg.TopK, len(candidates))
			for rank := 0; rank < limit; rank++ {
				out = append(out, Recommendation{
					UserID:   userID,
					EntityID: entityIdx.ids[candidates[rank].entity],
					Rank:     rank + 1,
					Score:    candidates[rank].score,
				})
			}
		}
	}
	return out
}
