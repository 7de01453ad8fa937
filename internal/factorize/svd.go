// Mij Recommender - Creator & Category Recommendation Batch
// Copyright 2026 Mij Project
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mij-project/mij-recommender

package factorize

import (
	"math"
	"math/rand"
)

// truncatedSVD computes the top-k right singular vectors of a via randomized
// subspace iteration:
//
//  1. Start from a seeded Gaussian block W (Cols x k).
//  2. Iterate W <- orth(A' * A * W); the block converges to the dominant
//     right singular subspace.
//  3. Project: S = (A*W)' * (A*W) is a small k x k symmetric matrix whose
//     eigenvectors rotate W onto the singular vectors and whose eigenvalues
//     are the squared singular values.
//
// The returned matrix V is Cols x k with columns ordered by descending
// singular value. Callers recover the user-side factors as A*V, which equals
// U*Sigma. The seed makes repeat runs bitwise identical for identical input.
//
// Requires 1 <= k <= min(Rows, Cols); callers clamp before invoking.
func truncatedSVD(a *Matrix, k, iterations int, seed int64) [][]float64 {
	rng := rand.New(rand.NewSource(seed))

	w := make([][]float64, a.Cols)
	for j := range w {
		col := make([]float64, k)
		for f := range col {
			col[f] = rng.NormFloat64()
		}
		w[j] = col
	}
	orthonormalizeColumns(w)

	if iterations < 1 {
		iterations = 1
	}
	for it := 0; it < iterations; it++ {
		y := a.MulDense(w)
		w = a.MulTransposeDense(y)
		orthonormalizeColumns(w)
	}

	// Rotate the converged subspace onto the singular directions.
	y := a.MulDense(w)
	s := gram(y, k)
	vals, vecs := jacobiEigen(s)
	order := descendingOrder(vals)

	v := make([][]float64, a.Cols)
	for j := range v {
		row := make([]float64, k)
		for f := 0; f < k; f++ {
			src := order[f]
			var sum float64
			for g := 0; g < k; g++ {
				sum += w[j][g] * vecs[g][src]
			}
			row[f] = sum
		}
		v[j] = row
	}
	return v
}

// gram computes Y'Y for a dense Rows x k matrix Y.
func gram(y [][]float64, k int) [][]float64 {
	s := make([][]float64, k)
	for i := range s {
		s[i] = make([]float64, k)
	}
	for _, row := range y {
		for f1 := 0; f1 < k; f1++ {
			for f2 := f1; f2 < k; f2++ {
				s[f1][f2] += row[f1] * row[f2]
			}
		}
	}
	for f1 := 0; f1 < k; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			s[f1][f2] = s[f2][f1]
		}
	}
	return s
}

// orthonormalizeColumns applies modified Gram-Schmidt to the columns of the
// dense n x k matrix w. Columns that collapse to (near) zero norm are left
// as zero vectors; they correspond to directions beyond the matrix rank.
func orthonormalizeColumns(w [][]float64) {
	n := len(w)
	if n == 0 {
		return
	}
	k := len(w[0])

	for j := 0; j < k; j++ {
		for prev := 0; prev < j; prev++ {
			var dot float64
			for i := 0; i < n; i++ {
				dot += w[i][j] * w[i][prev]
			}
			for i := 0; i < n; i++ {
				w[i][j] -= dot * w[i][prev]
			}
		}

		var norm float64
		for i := 0; i < n; i++ {
			norm += w[i][j] * w[i][j]
		}
		norm = math.Sqrt(norm)
		if norm < 1e-12 {
			for i := 0; i < n; i++ {
				w[i][j] = 0
			}
			continue
		}
		for i := 0; i < n; i++ {
			w[i][j] /= norm
		}
	}
}

// jacobiEigen diagonalizes a small symmetric matrix with cyclic Jacobi
// rotations. Returns eigenvalues and the rotation matrix whose columns are
// the corresponding eigenvectors (vecs[i][j] = component i of eigenvector j).
func jacobiEigen(s [][]float64) ([]float64, [][]float64) {
	n := len(s)

	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
		copy(a[i], s[i])
	}

	vecs := make([][]float64, n)
	for i := range vecs {
		vecs[i] = make([]float64, n)
		vecs[i][i] = 1
	}

	const maxSweeps = 64
	for sweep := 0; sweep < maxSweeps; sweep++ {
		var off float64
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				off += a[i][j] * a[i][j]
			}
		}
		if off < 1e-20 {
			break
		}

		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				if math.Abs(a[p][q]) < 1e-18 {
					continue
				}

				theta := (a[q][q] - a[p][p]) / (2 * a[p][q])
				t := math.Copysign(1, theta) / (math.Abs(theta) + math.Sqrt(theta*theta+1))
				c := 1 / math.Sqrt(t*t+1)
				sn := t * c

				for i := 0; i < n; i++ {
					aip, aiq := a[i][p], a[i][q]
					a[i][p] = c*aip - sn*aiq
					a[i][q] = sn*aip + c*aiq
				}
				for i := 0; i < n; i++ {
					api, aqi := a[p][i], a[q][i]
					a[p][i] = c*api - sn*aqi
					a[q][i] = sn*api + c*aqi
				}
				for i := 0; i < n; i++ {
					vip, viq := vecs[i][p], vecs[i][q]
					vecs[i][p] = c*vip - sn*viq
					vecs[i][q] = sn*vip + c*viq
				}
			}
		}
	}

	vals := make([]float64, n)
	for i := 0; i < n; i++ {
		vals[i] = a[i][i]
	}
	return vals, vecs
}

// descendingOrder returns column indices sorted by descending value.
func descendingOrder(vals []float64) []int {
	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	// Insertion sort; k is small (<= 64).
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && vals[order[j]] > vals[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	return order
}
