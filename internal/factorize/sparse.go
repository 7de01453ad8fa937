// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package factorize

// Matrix is a CSR (compressed sparse row) matrix of interaction weights,
// users as rows and entities as columns. Explicit zeros are absent.
type Matrix struct {
	Rows, Cols int

	// RowPtr has Rows+1 entries; row i occupies [RowPtr[i], RowPtr[i+1])
	// in ColIdx and Val.
	RowPtr []int
	ColIdx []int
	Val    []float64
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	return len(m.Val)
}

// MulDense computes A * W where W is a dense Cols x k matrix, returning a
// dense Rows x k matrix.
func (m *Matrix) MulDense(w [][]float64) [][]float64 {
	if len(w) != m.Cols {
		panic("factorize: MulDense dimension mismatch")
	}
	k := 0
	if m.Cols > 0 {
		k = len(w[0])
	}

	out := make([][]float64, m.Rows)
	for i := 0; i < m.Rows; i++ {
		row := make([]float64, k)
		for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
			v := m.Val[p]
			wc := w[m.ColIdx[p]]
			for f := 0; f < k; f++ {
				row[f] += v * wc[f]
			}
		}
		out[i] = row
	}
	return out
}

// MulTransposeDense computes A' * Y where Y is a dense Rows x k matrix,
// returning a dense Cols x k matrix.
func (m *Matrix) MulTransposeDense(y [][]float64) [][]float64 {
	if len(y) != m.Rows {
		panic("factorize: MulTransposeDense dimension mismatch")
	}
	k := 0
	if m.Rows > 0 {
		k = len(y[0])
	}

	out := make([][]float64, m.Cols)
	for j := range out {
		out[j] = make([]float64, k)
	}
	for i := 0; i < m.Rows; i++ {
		yr := y[i]
		for p := m.RowPtr[i]; p < m.RowPtr[i+1]; p++ {
			v := m.Val[p]
			oc := out[m.ColIdx[p]]
			for f := 0; f < k; f++ {
				oc[f] += v * yr[f]
			}
		}
	}
	return out
}

// columnFrequency returns, for each column, the number of rows with a stored
// entry in that column.
func (m *Matrix) columnFrequency() []int {
	df := make([]int, m.Cols)
	for _, j := range m.ColIdx {
		df[j]++
	}
	return df
}
