// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package diversity computes between-sample dissimilarity of community
// abundance profiles and their principal coordinates ordination.
package diversity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/biogo/microbiome/table"
)

var (
	ErrNegativeCount = errors.New("diversity: negative count")
	ErrTooFewSamples = errors.New("diversity: too few samples")
)

// Matrix is a symmetric sample by sample dissimilarity matrix with a
// zero diagonal.
type Matrix struct {
	IDs []string
	D   *mat.SymDense
}

// NewMatrix returns a Matrix for the given sample IDs. The diagonal of d
// must be zero and all entries non-negative.
func NewMatrix(ids []string, d *mat.SymDense) (*Matrix, error) {
	if len(ids) == 0 {
		return nil, ErrTooFewSamples
	}
	if n := d.SymmetricDim(); n != len(ids) {
		return nil, fmt.Errorf("diversity: %d ids for %d×%d matrix", len(ids), n, n)
	}
	for i := range ids {
		if d.At(i, i) != 0 {
			return nil, fmt.Errorf("diversity: non-zero diagonal at %d", i)
		}
		for j := 0; j < i; j++ {
			if v := d.At(i, j); v < 0 || math.IsNaN(v) {
				return nil, fmt.Errorf("diversity: invalid dissimilarity %v between %s and %s", v, ids[i], ids[j])
			}
		}
	}
	return &Matrix{IDs: ids, D: d}, nil
}

// Len returns the number of samples.
func (m *Matrix) Len() int { return len(m.IDs) }

// At returns the dissimilarity between samples i and j.
func (m *Matrix) At(i, j int) float64 { return m.D.At(i, j) }

// BrayCurtis returns the Bray-Curtis dissimilarity between the samples of
// t. OTUs with a missing count in any sample are excluded. For samples i
// and j,
//
//	BC(i,j) = Σ_k |x_ik - x_jk| / Σ_k (x_ik + x_jk)
//
// Two samples with no counts have dissimilarity zero.
func BrayCurtis(t *table.OTUTable) (*Matrix, error) {
	n := len(t.Samples)
	if n == 0 {
		return nil, ErrTooFewSamples
	}
	rows := t.Complete()

	// Sample-major view of the complete rows.
	x := make([][]float64, n)
	for j := range x {
		x[j] = make([]float64, len(rows))
		for k, i := range rows {
			v := t.Counts[i][j]
			if v < 0 {
				return nil, fmt.Errorf("%w: %v for %s in %s", ErrNegativeCount, v, t.IDs[i], t.Samples[j])
			}
			x[j][k] = v
		}
	}

	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var num, den float64
			for k := range x[i] {
				num += math.Abs(x[i][k] - x[j][k])
				den += x[i][k] + x[j][k]
			}
			var bc float64
			if den != 0 {
				bc = num / den
			}
			d.SetSym(i, j, bc)
		}
	}
	return &Matrix{IDs: append([]string(nil), t.Samples...), D: d}, nil
}
