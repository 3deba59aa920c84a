// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diversity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/biogo/microbiome/table"
)

// Ordination is the result of a principal coordinates analysis.
type Ordination struct {
	Samples []string

	// Eigenvalues are in descending order, one per axis.
	Eigenvalues []float64
	// Proportion is the fraction of the positive eigenvalue sum
	// explained by each axis.
	Proportion []float64
	// Coords holds one row per sample with one value per axis.
	Coords [][]float64

	// Groups and Properties are set by Annotate.
	Groups     []string
	Properties []string
}

// Axes returns the number of ordination axes.
func (o *Ordination) Axes() int { return len(o.Eigenvalues) }

// Axis returns the coordinates of all samples on axis k.
func (o *Ordination) Axis(k int) []float64 {
	a := make([]float64, len(o.Coords))
	for i, c := range o.Coords {
		a[i] = c[k]
	}
	return a
}

// PCoA performs classical multidimensional scaling of m. The squared
// dissimilarities are double centred and eigendecomposed; sample
// coordinates on axis k are the k'th eigenvector scaled by the square
// root of its eigenvalue. Axes with negative eigenvalues have zero
// coordinates. Each eigenvector is oriented so that its largest
// magnitude element is positive.
func PCoA(m *Matrix) (*Ordination, error) {
	n := m.Len()
	if n < 2 {
		return nil, ErrTooFewSamples
	}

	a := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d := m.At(i, j)
			a.SetSym(i, j, -0.5*d*d)
		}
	}
	rowMean := make([]float64, n)
	for i := range rowMean {
		for j := 0; j < n; j++ {
			rowMean[i] += a.At(i, j)
		}
		rowMean[i] /= float64(n)
	}
	grand := floats.Sum(rowMean) / float64(n)
	b := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			b.SetSym(i, j, a.At(i, j)-rowMean[i]-rowMean[j]+grand)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(b, true); !ok {
		return nil, errors.New("diversity: eigendecomposition failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	o := &Ordination{
		Samples:     append([]string(nil), m.IDs...),
		Eigenvalues: make([]float64, n),
		Proportion:  make([]float64, n),
		Coords:      make([][]float64, n),
	}
	for i := range o.Coords {
		o.Coords[i] = make([]float64, n)
	}
	var pos float64
	for _, v := range vals {
		if v > 0 {
			pos += v
		}
	}
	// Values are returned in ascending order.
	for k := 0; k < n; k++ {
		src := n - 1 - k
		lambda := vals[src]
		o.Eigenvalues[k] = lambda
		if pos > 0 && lambda > 0 {
			o.Proportion[k] = lambda / pos
		}
		if lambda <= 0 {
			continue
		}
		v := mat.Col(nil, src, &vecs)
		if v[floats.MaxIdx(absAll(v))] < 0 {
			floats.Scale(-1, v)
		}
		s := math.Sqrt(lambda)
		for i := range v {
			o.Coords[i][k] = v[i] * s
		}
	}
	return o, nil
}

func absAll(v []float64) []float64 {
	a := make([]float64, len(v))
	for i, x := range v {
		a[i] = math.Abs(x)
	}
	return a
}

// Annotate sets the Group and Property of each sample from meta.
func (o *Ordination) Annotate(meta *table.Metadata) error {
	idx := meta.Index()
	o.Groups = make([]string, len(o.Samples))
	o.Properties = make([]string, len(o.Samples))
	for i, s := range o.Samples {
		j, ok := idx[s]
		if !ok {
			return fmt.Errorf("%w: no metadata for %q", table.ErrSampleMismatch, s)
		}
		o.Groups[i] = meta.Groups[j]
		o.Properties[i] = meta.Properties[j]
	}
	return nil
}

// Ordinate returns the PCoA of m annotated with meta.
func Ordinate(m *Matrix, meta *table.Metadata) (*Ordination, error) {
	o, err := PCoA(m)
	if err != nil {
		return nil, err
	}
	if err := o.Annotate(meta); err != nil {
		return nil, err
	}
	return o, nil
}
