// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diversity

import (
	"bytes"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"

	check "gopkg.in/check.v1"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"

	"github.com/biogo/microbiome/table"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

func otus(samples []string, counts [][]float64) *table.OTUTable {
	t := &table.OTUTable{Samples: samples, Counts: counts}
	for i := range counts {
		t.IDs = append(t.IDs, table.NewOTUID(i))
	}
	return t
}

func (s *S) TestBrayCurtisDisjoint(c *check.C) {
	m, err := BrayCurtis(otus([]string{"a", "b"}, [][]float64{{10, 0}, {0, 10}}))
	c.Assert(err, check.IsNil)
	c.Check(m.At(0, 1), check.Equals, 1.0)
	c.Check(m.At(1, 0), check.Equals, 1.0)
	c.Check(m.At(0, 0), check.Equals, 0.0)
}

func (s *S) TestBrayCurtisValues(c *check.C) {
	// Samples u=[1 2 0], v=[3 2 1], w=[0 0 0]; the last OTU is incomplete.
	m, err := BrayCurtis(otus([]string{"u", "v", "w"}, [][]float64{
		{1, 3, 0},
		{2, 2, 0},
		{0, 1, 0},
		{math.NaN(), 7, 1},
	}))
	c.Assert(err, check.IsNil)
	c.Check(scalar.EqualWithinAbs(m.At(0, 1), 1.0/3, 1e-12), check.Equals, true)
	c.Check(scalar.EqualWithinAbs(m.At(0, 2), 1.0, 1e-12), check.Equals, true)
	c.Check(scalar.EqualWithinAbs(m.At(1, 2), 1.0, 1e-12), check.Equals, true)

	z, err := BrayCurtis(otus([]string{"a", "b"}, [][]float64{{0, 0}}))
	c.Assert(err, check.IsNil)
	c.Check(z.At(0, 1), check.Equals, 0.0)
}

func (s *S) TestBrayCurtisErrors(c *check.C) {
	_, err := BrayCurtis(otus([]string{"a", "b"}, [][]float64{{1, -1}}))
	c.Check(errors.Is(err, ErrNegativeCount), check.Equals, true)
	_, err = BrayCurtis(otus(nil, nil))
	c.Check(errors.Is(err, ErrTooFewSamples), check.Equals, true)
}

func (s *S) TestBrayCurtisProperties(c *check.C) {
	rnd := rand.New(rand.NewPCG(1, 2))
	for trial := 0; trial < 20; trial++ {
		n, k := 2+rnd.IntN(8), 1+rnd.IntN(15)
		samples := make([]string, n)
		for j := range samples {
			samples[j] = string(rune('a' + j))
		}
		counts := make([][]float64, k)
		for i := range counts {
			counts[i] = make([]float64, n)
			for j := range counts[i] {
				counts[i][j] = float64(rnd.IntN(50))
			}
		}
		m, err := BrayCurtis(otus(samples, counts))
		c.Assert(err, check.IsNil)
		for i := 0; i < n; i++ {
			c.Check(m.At(i, i), check.Equals, 0.0)
			for j := 0; j < n; j++ {
				v := m.At(i, j)
				c.Check(v, check.Equals, m.At(j, i))
				c.Check(v >= 0 && v <= 1, check.Equals, true, check.Commentf("BC(%d,%d)=%v", i, j, v))
			}
		}
	}
}

func euclidean(points [][]float64) *mat.SymDense {
	n := len(points)
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			var ss float64
			for k := range points[i] {
				ss += (points[i][k] - points[j][k]) * (points[i][k] - points[j][k])
			}
			d.SetSym(i, j, math.Sqrt(ss))
		}
	}
	return d
}

func (s *S) TestPCoARecoversEuclidean(c *check.C) {
	points := [][]float64{{0, 0}, {3, 0}, {0, 4}, {1, 1}, {-2, 5}}
	ids := []string{"p", "q", "r", "s", "t"}
	d := euclidean(points)
	m, err := NewMatrix(ids, d)
	c.Assert(err, check.IsNil)

	o, err := PCoA(m)
	c.Assert(err, check.IsNil)
	c.Check(o.Axes(), check.Equals, len(ids))
	c.Check(o.Eigenvalues[0] >= o.Eigenvalues[1], check.Equals, true)
	c.Check(scalar.EqualWithinAbs(o.Proportion[0]+o.Proportion[1], 1, 1e-9), check.Equals, true)

	for i := range points {
		for j := range points {
			dx := o.Coords[i][0] - o.Coords[j][0]
			dy := o.Coords[i][1] - o.Coords[j][1]
			got := math.Hypot(dx, dy)
			c.Check(scalar.EqualWithinAbs(got, d.At(i, j), 1e-9), check.Equals, true,
				check.Commentf("distance %d-%d: got %v want %v", i, j, got, d.At(i, j)))
		}
	}
	for k := 2; k < o.Axes(); k++ {
		c.Check(math.Abs(o.Eigenvalues[k]) < 1e-9, check.Equals, true)
	}
}

func (s *S) TestOrdinate(c *check.C) {
	m, err := BrayCurtis(otus([]string{"a", "b", "c"}, [][]float64{{10, 0, 5}, {0, 10, 5}, {1, 1, 1}}))
	c.Assert(err, check.IsNil)
	meta := &table.Metadata{
		Samples:    []string{"c", "b", "a"},
		Groups:     []string{"g2", "g1", "g1"},
		Properties: []string{"p3", "p2", "p1"},
	}
	o, err := Ordinate(m, meta)
	c.Assert(err, check.IsNil)
	c.Check(o.Groups, check.DeepEquals, []string{"g1", "g1", "g2"})
	c.Check(o.Properties, check.DeepEquals, []string{"p1", "p2", "p3"})
	c.Check(o.Axes() >= 2, check.Equals, true)

	var buf bytes.Buffer
	c.Assert(WriteOrdination(&buf, o, 2), check.IsNil)
	lines := strings.Split(buf.String(), "\n")
	c.Check(lines[0], check.Equals, "SampleID\tPC1\tPC2\tGroup\tProperty")
	c.Check(strings.HasPrefix(lines[1], "a\t"), check.Equals, true)

	_, err = Ordinate(m, &table.Metadata{Samples: []string{"a"}, Groups: []string{"g"}, Properties: []string{""}})
	c.Check(errors.Is(err, table.ErrSampleMismatch), check.Equals, true)
}

func (s *S) TestPCoATwoSamples(c *check.C) {
	m, err := BrayCurtis(otus([]string{"a", "b"}, [][]float64{{10, 0}, {0, 10}}))
	c.Assert(err, check.IsNil)
	o, err := PCoA(m)
	c.Assert(err, check.IsNil)
	c.Check(o.Axes(), check.Equals, 2)
	c.Check(scalar.EqualWithinAbs(math.Abs(o.Coords[0][0]-o.Coords[1][0]), 1, 1e-12), check.Equals, true)

	one, err := NewMatrix([]string{"a"}, mat.NewSymDense(1, nil))
	c.Assert(err, check.IsNil)
	_, err = PCoA(one)
	c.Check(errors.Is(err, ErrTooFewSamples), check.Equals, true)
}

func (s *S) TestNewMatrixValidates(c *check.C) {
	d := mat.NewSymDense(2, []float64{1, 0.5, 0.5, 0})
	_, err := NewMatrix([]string{"a", "b"}, d)
	c.Check(err, check.ErrorMatches, "diversity: non-zero diagonal at 0")
	_, err = NewMatrix([]string{"a"}, mat.NewSymDense(2, nil))
	c.Check(err, check.NotNil)
}

func (s *S) TestWriteMatrix(c *check.C) {
	m, err := BrayCurtis(otus([]string{"a", "b"}, [][]float64{{10, 0}, {0, 10}}))
	c.Assert(err, check.IsNil)
	var buf bytes.Buffer
	c.Assert(WriteMatrix(&buf, m), check.IsNil)
	c.Check(buf.String(), check.Equals, "\ta\tb\na\t0\t1\nb\t1\t0\n")
}
