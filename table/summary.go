// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"errors"
	"math"
	"sort"

	"github.com/biogo/microbiome/taxonomy"
)

// Summary is a labelled series of per-sample counts.
type Summary struct {
	Labels  []string
	OTUs    []OTUID // nil for rank aggregates
	Samples []string

	// Counts holds one row per label with one value per sample.
	Counts [][]float64
}

// AggregateRank sums the counts of OTUs sharing a name at rank. OTUs with
// a null name at rank are excluded and missing counts are skipped. Labels
// are sorted.
func AggregateRank(otu *OTUTable, taxa *TaxaTable, rank taxonomy.Rank) (*Summary, error) {
	if err := Aligned(otu, taxa); err != nil {
		return nil, err
	}
	if rank < 0 || int(rank) >= taxonomy.NumRanks {
		return nil, errors.New("table: invalid rank")
	}
	sums := make(map[string][]float64)
	for i, row := range otu.Counts {
		name := taxa.Names[i][rank]
		if name == "" {
			continue
		}
		s, ok := sums[name]
		if !ok {
			s = make([]float64, len(otu.Samples))
			sums[name] = s
		}
		for j, v := range row {
			if !math.IsNaN(v) {
				s[j] += v
			}
		}
	}
	sum := &Summary{Samples: append([]string(nil), otu.Samples...)}
	for name := range sums {
		sum.Labels = append(sum.Labels, name)
	}
	sort.Strings(sum.Labels)
	for _, name := range sum.Labels {
		sum.Counts = append(sum.Counts, sums[name])
	}
	return sum, nil
}

// Top returns the n OTUs with the largest total count, largest first,
// labelled with their most specific known name. Ties keep table order.
func Top(otu *OTUTable, taxa *TaxaTable, n int) (*Summary, error) {
	if err := Aligned(otu, taxa); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, errors.New("table: negative count")
	}
	total := make([]float64, otu.Len())
	order := make([]int, otu.Len())
	for i, row := range otu.Counts {
		order[i] = i
		for _, v := range row {
			if !math.IsNaN(v) {
				total[i] += v
			}
		}
	}
	sort.SliceStable(order, func(a, b int) bool { return total[order[a]] > total[order[b]] })
	if n > len(order) {
		n = len(order)
	}
	sum := &Summary{Samples: append([]string(nil), otu.Samples...)}
	for _, i := range order[:n] {
		sum.Labels = append(sum.Labels, taxa.Label(i))
		sum.OTUs = append(sum.OTUs, otu.IDs[i])
		sum.Counts = append(sum.Counts, append([]float64(nil), otu.Counts[i]...))
	}
	return sum, nil
}
