// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package factorize

import (
	"math"
	"testing"
)

// testMatrix returns the 2x3 matrix
//
//	[1 0 2]
//	[0 3 0]
func testMatrix() *Matrix {
	return &Matrix{
		Rows:   2,
		Cols:   3,
		RowPtr: []int{0, 2, 3},
		ColIdx: []int{0, 2, 1},
		Val:    []float64{1, 2, 3},
	}
}

func TestMatrix_MulDense(t *testing.T) {
	m := testMatrix()
	w := [][]float64{{1, 0}, {0, 1}, {1, 1}}

	got := m.MulDense(w)

	want := [][]float64{{3, 2}, {0, 3}}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("MulDense()[%d][%d] = %v, want %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestMatrix_MulTransposeDense(t *testing.T) {
	m := testMatrix()
	y := [][]float64{{1, 2}, {3, 4}}

	got := m.MulTransposeDense(y)

	want := [][]float64{{1, 2}, {9, 12}, {2, 4}}
	for i := range want {
		for j := range want[i] {
			if got[i][j] != want[i][j] {
				t.Errorf("MulTransposeDense()[%d][%d] = %v, want %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

func TestMatrix_TransposeConsistency(t *testing.T) {
	// <A*w, y> must equal <w, A'*y> for any w, y.
	m := testMatrix()
	w := [][]float64{{0.5}, {-1.5}, {2.0}}
	y := [][]float64{{1.0}, {0.25}}

	aw := m.MulDense(w)
	aty := m.MulTransposeDense(y)

	var lhs, rhs float64
	for i := range aw {
		lhs += aw[i][0] * y[i][0]
	}
	for j := range aty {
		rhs += w[j][0] * aty[j][0]
	}
	if math.Abs(lhs-rhs) > 1e-12 {
		t.Errorf("<Aw, y> = %v, <w, A'y> = %v", lhs, rhs)
	}
}

func TestMatrix_ColumnFrequency(t *testing.T) {
	m := testMatrix()

	got := m.columnFrequency()
	want := []int{1, 1, 1}
	for j := range want {
		if got[j] != want[j] {
			t.Errorf("columnFrequency()[%d] = %d, want %d", j, got[j], want[j])
		}
	}
}
