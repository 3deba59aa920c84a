// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package groupstat

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxExact is the largest number of non-zero differences for which the
// signed-rank p-value is computed from the exact null distribution.
const maxExact = 50

// survival returns the upper tail probability of d at x, handling the
// infinite statistics of degenerate samples.
func survival(d interface{ Survival(float64) float64 }, x float64) float64 {
	switch {
	case math.IsNaN(x):
		return math.NaN()
	case math.IsInf(x, 1):
		return 0
	}
	return d.Survival(x)
}

// sumSquares returns the sum of squared deviations of x from its mean.
func sumSquares(x []float64, mean float64) float64 {
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	return ss
}

func studentT(a, b []float64) (t, p float64) {
	n1, n2 := float64(len(a)), float64(len(b))
	df := n1 + n2 - 2
	if len(a) == 0 || len(b) == 0 || df <= 0 {
		return math.NaN(), math.NaN()
	}
	m1, m2 := stat.Mean(a, nil), stat.Mean(b, nil)
	sp2 := (sumSquares(a, m1) + sumSquares(b, m2)) / df
	t = (m1 - m2) / math.Sqrt(sp2*(1/n1+1/n2))
	p = 2 * survival(distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}, math.Abs(t))
	return t, p
}

func oneWay(groups [][]float64) (f, p float64) {
	var (
		n   int
		all []float64
	)
	for _, g := range groups {
		if len(g) == 0 {
			return math.NaN(), math.NaN()
		}
		n += len(g)
		all = append(all, g...)
	}
	k := len(groups)
	if n <= k {
		return math.NaN(), math.NaN()
	}
	grand := stat.Mean(all, nil)
	var between, within float64
	for _, g := range groups {
		m := stat.Mean(g, nil)
		between += float64(len(g)) * (m - grand) * (m - grand)
		within += sumSquares(g, m)
	}
	d1, d2 := float64(k-1), float64(n-k)
	f = (between / d1) / (within / d2)
	return f, survival(distuv.F{D1: d1, D2: d2}, f)
}

// rank returns the ranks of x, with tied values given the mean of the
// ranks they span, and the tie correction sum Σ(t³-t) over tie groups.
func rank(x []float64) (ranks []float64, ties float64) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })
	ranks = make([]float64, len(x))
	for i := 0; i < len(idx); {
		j := i + 1
		for j < len(idx) && x[idx[j]] == x[idx[i]] {
			j++
		}
		r := float64(i+j+1) / 2
		for _, k := range idx[i:j] {
			ranks[k] = r
		}
		if t := float64(j - i); t > 1 {
			ties += t*t*t - t
		}
		i = j
	}
	return ranks, ties
}

func kruskalWallis(groups [][]float64) (h, p float64) {
	var all []float64
	for _, g := range groups {
		if len(g) == 0 {
			return math.NaN(), math.NaN()
		}
		all = append(all, g...)
	}
	ranks, ties := rank(all)
	n := float64(len(all))
	var off int
	for _, g := range groups {
		r := floats.Sum(ranks[off : off+len(g)])
		h += r * r / float64(len(g))
		off += len(g)
	}
	h = 12/(n*(n+1))*h - 3*(n+1)
	c := 1 - ties/(n*n*n-n)
	if c == 0 {
		return math.NaN(), math.NaN()
	}
	h /= c
	return h, survival(distuv.ChiSquared{K: float64(len(groups) - 1)}, h)
}

// signedRank performs a paired Wilcoxon signed-rank test of x and y. The
// longer sample is truncated to the length of the shorter and pairs with
// zero difference are discarded.
func signedRank(x, y []float64) (w, p float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	var d []float64
	for i := 0; i < n; i++ {
		if v := x[i] - y[i]; v != 0 {
			d = append(d, v)
		}
	}
	if len(d) == 0 {
		return math.NaN(), math.NaN()
	}
	abs := make([]float64, len(d))
	for i, v := range d {
		abs[i] = math.Abs(v)
	}
	ranks, ties := rank(abs)
	var plus, minus float64
	for i, v := range d {
		if v > 0 {
			plus += ranks[i]
		} else {
			minus += ranks[i]
		}
	}
	w = math.Min(plus, minus)

	m := float64(len(d))
	if len(d) <= maxExact && ties == 0 {
		return w, math.Min(1, 2*exactCDF(len(d), int(w)))
	}
	mean := m * (m + 1) / 4
	variance := m*(m+1)*(2*m+1)/24 - ties/48
	if variance <= 0 {
		return w, math.NaN()
	}
	z := (w - mean) / math.Sqrt(variance)
	return w, 2 * distuv.UnitNormal.Survival(math.Abs(z))
}

// exactCDF returns P(W ≤ w) for the signed-rank statistic of n untied
// differences under the null hypothesis.
func exactCDF(n, w int) float64 {
	top := n * (n + 1) / 2
	counts := make([]float64, top+1)
	counts[0] = 1
	for k := 1; k <= n; k++ {
		for s := k * (k + 1) / 2; s >= k; s-- {
			counts[s] += counts[s-k]
		}
	}
	var c float64
	for s := 0; s <= w && s <= top; s++ {
		c += counts[s]
	}
	return c / math.Exp2(float64(n))
}
