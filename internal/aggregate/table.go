// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package aggregate

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// WeightTable accumulates summed interaction weight per (user, entity) pair.
type WeightTable struct {
	weights map[uuid.UUID]map[uuid.UUID]float64
}

// NewWeightTable returns an empty weight table.
func NewWeightTable() *WeightTable {
	return &WeightTable{weights: make(map[uuid.UUID]map[uuid.UUID]float64)}
}

// Add accumulates w onto the (user, entity) cell.
func (t *WeightTable) Add(user, entity uuid.UUID, w float64) {
	row := t.weights[user]
	if row == nil {
		row = make(map[uuid.UUID]float64)
		t.weights[user] = row
	}
	row[entity] += w
}

// Weight returns the accumulated weight for (user, entity), zero if absent.
func (t *WeightTable) Weight(user, entity uuid.UUID) float64 {
	return t.weights[user][entity]
}

// Len returns the number of (user, entity) pairs present.
func (t *WeightTable) Len() int {
	n := 0
	for _, row := range t.weights {
		n += len(row)
	}
	return n
}

// Users returns the number of distinct users present.
func (t *WeightTable) Users() int {
	return len(t.weights)
}

// Prune drops pairs with non-positive accumulated weight. Weights are
// designed to always be positive; this enforces the invariant against
// malformed source rows.
func (t *WeightTable) Prune() int {
	dropped := 0
	for user, row := range t.weights {
		for entity, w := range row {
			if w <= 0 {
				delete(row, entity)
				dropped++
			}
		}
		if len(row) == 0 {
			delete(t.weights, user)
		}
	}
	return dropped
}

// WeightedPair is one materialized (user, entity, weight) cell.
type WeightedPair struct {
	UserID   uuid.UUID
	EntityID uuid.UUID
	Weight   float64
}

// Entries materializes the table sorted by user then entity ID so that
// downstream matrix construction is deterministic across runs.
func (t *WeightTable) Entries() []WeightedPair {
	pairs := make([]WeightedPair, 0, t.Len())
	for user, row := range t.weights {
		for entity, w := range row {
			pairs = append(pairs, WeightedPair{UserID: user, EntityID: entity, Weight: w})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if c := bytes.Compare(pairs[i].UserID[:], pairs[j].UserID[:]); c != 0 {
			return c < 0
		}
		return bytes.Compare(pairs[i].EntityID[:], pairs[j].EntityID[:]) < 0
	})
	return pairs
}

// SeenSet tracks which entities each user has interacted with in-window.
type SeenSet map[uuid.UUID]map[uuid.UUID]struct{}

// NewSeenSet returns an empty seen set.
func NewSeenSet() SeenSet {
	return make(SeenSet)
}

// Mark records that user has seen entity.
func (s SeenSet) Mark(user, entity uuid.UUID) {
	row := s[user]
	if row == nil {
		row = make(map[uuid.UUID]struct{})
		s[user] = row
	}
	row[entity] = struct{}{}
}

// Contains reports whether user has seen entity.
func (s SeenSet) Contains(user, entity uuid.UUID) bool {
	_, ok := s[user][entity]
	return ok
}
