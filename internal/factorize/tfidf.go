// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package factorize

import "math"

// applyTFIDF reweights the interaction matrix in place, treating users as
// documents and entities as terms:
//
//   - sublinear tf: each stored weight w becomes 1 + ln(w)
//   - smooth idf:   scaled by ln((1 + rows) / (1 + df)) + 1
//
// Rows are not normalized here; both factor matrices are L2-normalized after
// the SVD, which makes the final dot products cosine scores. Rare entities
// get relatively boosted so a few strong niche interactions are not drowned
// out by globally popular creators.
func applyTFIDF(m *Matrix) {
	df := m.columnFrequency()

	idf := make([]float64, m.Cols)
	rows := float64(m.Rows)
	for j, d := range df {
		idf[j] = math.Log((1+rows)/(1+float64(d))) + 1
	}

	for p, v := range m.Val {
		m.Val[p] = (1 + math.Log(v)) * idf[m.ColIdx[p]]
	}
}
