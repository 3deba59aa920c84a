// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package groupstat

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/biogo/microbiome/diversity"
	"github.com/biogo/microbiome/table"
)

// DefaultPermutations is the conventional number of label permutations
// used to estimate a PERMANOVA p-value.
const DefaultPermutations = 999

// PermanovaResult is the outcome of a permutational multivariate analysis
// of variance.
type PermanovaResult struct {
	SampleSize   int
	Groups       int
	Statistic    float64 // pseudo-F
	P            float64
	Permutations int
}

// Permanova tests whether the dissimilarities in m differ between the
// groups given by meta. Group labels are permuted using src and the
// p-value is the fraction of permutations, counting the observed labelling,
// with a pseudo-F at least as large as observed. If permutations is zero
// P is NaN. If src is nil a randomly seeded source is used.
func Permanova(m *diversity.Matrix, meta *table.Metadata, permutations int, src rand.Source) (*PermanovaResult, error) {
	if permutations < 0 {
		return nil, fmt.Errorf("groupstat: negative permutation count %d", permutations)
	}
	n := m.Len()
	idx := meta.Index()
	level := make(map[string]int)
	labels := make([]int, n)
	for i, s := range m.IDs {
		j, ok := idx[s]
		if !ok {
			return nil, fmt.Errorf("%w: no metadata for %q", table.ErrSampleMismatch, s)
		}
		g := meta.Groups[j]
		k, ok := level[g]
		if !ok {
			k = len(level)
			level[g] = k
		}
		labels[i] = k
	}
	groups := len(level)
	if err := checkLevels(-2, groups); err != nil {
		return nil, fmt.Errorf("permanova: %w", err)
	}
	if groups == n {
		return nil, fmt.Errorf("permanova: %w: every sample is in its own group", ErrGroupCardinality)
	}

	d2 := make([][]float64, n)
	var total float64
	for i := range d2 {
		d2[i] = make([]float64, n)
		for j := 0; j < i; j++ {
			v := m.At(i, j)
			d2[i][j] = v * v
			total += v * v
		}
	}
	total /= float64(n)

	sizes := make([]float64, groups)
	for _, k := range labels {
		sizes[k]++
	}
	pseudoF := func(labels []int) float64 {
		within := make([]float64, groups)
		for i := range labels {
			for j := 0; j < i; j++ {
				if labels[i] == labels[j] {
					within[labels[i]] += d2[i][j]
				}
			}
		}
		var sw float64
		for k, s := range within {
			sw += s / sizes[k]
		}
		sa := total - sw
		return (sa / float64(groups-1)) / (sw / float64(n-groups))
	}

	res := &PermanovaResult{
		SampleSize:   n,
		Groups:       groups,
		Statistic:    pseudoF(labels),
		P:            math.NaN(),
		Permutations: permutations,
	}
	if permutations == 0 {
		return res, nil
	}
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	rnd := rand.New(src)
	perm := append([]int(nil), labels...)
	var ge int
	for i := 0; i < permutations; i++ {
		rnd.Shuffle(len(perm), func(a, b int) { perm[a], perm[b] = perm[b], perm[a] })
		if pseudoF(perm) >= res.Statistic {
			ge++
		}
	}
	res.P = float64(ge+1) / float64(permutations+1)
	return res, nil
}
