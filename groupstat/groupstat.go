// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package groupstat performs per-OTU hypothesis tests between sample groups
// and permutational multivariate analysis of variance of dissimilarities.
package groupstat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/biogo/microbiome/table"
)

// ErrGroupCardinality is returned when a test is given a number of groups
// it cannot handle.
var ErrGroupCardinality = errors.New("groupstat: invalid group cardinality")

// View is a sample-major join of an OTU table with sample metadata.
type View struct {
	Samples []string
	// Groups holds the group of each sample.
	Groups []string
	// Levels holds the distinct groups in order of first appearance.
	Levels []string

	OTUs []table.OTUID
	// Values holds one row per sample with one value per OTU.
	Values [][]float64
}

// Prepare returns the samples of otu that are described by meta, in the
// column order of otu. Samples without metadata are omitted.
func Prepare(otu *table.OTUTable, meta *table.Metadata) *View {
	idx := meta.Index()
	v := &View{OTUs: append([]table.OTUID(nil), otu.IDs...)}
	seen := make(map[string]bool)
	for j, s := range otu.Samples {
		k, ok := idx[s]
		if !ok {
			continue
		}
		g := meta.Groups[k]
		if !seen[g] {
			seen[g] = true
			v.Levels = append(v.Levels, g)
		}
		v.Samples = append(v.Samples, s)
		v.Groups = append(v.Groups, g)
		v.Values = append(v.Values, otu.Column(j))
	}
	return v
}

// split returns the non-missing values of OTU i in each group level.
func (v *View) split(i int) [][]float64 {
	level := make(map[string]int, len(v.Levels))
	for k, g := range v.Levels {
		level[g] = k
	}
	groups := make([][]float64, len(v.Levels))
	for j, row := range v.Values {
		x := row[i]
		if math.IsNaN(x) {
			continue
		}
		k := level[v.Groups[j]]
		groups[k] = append(groups[k], x)
	}
	return groups
}

// Kind is a per-OTU test.
type Kind int

const (
	TTest Kind = iota
	ANOVA
	Kruskal
	Wilcoxon
)

var kindNames = [...]string{
	TTest:    "t-test",
	ANOVA:    "ANOVA",
	Kruskal:  "Kruskal-Wallis",
	Wilcoxon: "Wilcoxon",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the Kind named by s. Short command line names such
// as "ttest" and "kruskal" are accepted.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "ttest", "t-test", "t":
		return TTest, nil
	case "anova", "f":
		return ANOVA, nil
	case "kruskal", "kruskal-wallis", "h":
		return Kruskal, nil
	case "wilcoxon", "signed-rank":
		return Wilcoxon, nil
	}
	return 0, fmt.Errorf("groupstat: unknown test %q", s)
}

// groups returns the required number of groups for k. A negative value
// is a lower bound.
func (k Kind) groups() int {
	switch k {
	case TTest, Wilcoxon:
		return 2
	default:
		return -2
	}
}

// Result is the outcome of a test on one OTU.
type Result struct {
	OTU       table.OTUID
	Statistic float64
	P         float64
}

// Results holds the per-OTU outcomes of a test in OTU order.
type Results struct {
	Test Kind
	Rows []Result
}

// Lookup returns the result for the given OTU.
func (r *Results) Lookup(id table.OTUID) (Result, bool) {
	for _, row := range r.Rows {
		if row.OTU == id {
			return row, true
		}
	}
	return Result{}, false
}

// Significant returns the OTUs with p-values below alpha.
func (r *Results) Significant(alpha float64) []table.OTUID {
	var ids []table.OTUID
	for _, row := range r.Rows {
		if row.P < alpha {
			ids = append(ids, row.OTU)
		}
	}
	return ids
}

// Run performs the test k on every OTU of v.
func Run(k Kind, v *View) (*Results, error) {
	var test func([][]float64) (stat, p float64)
	switch k {
	case TTest:
		test = func(g [][]float64) (float64, float64) { return studentT(g[0], g[1]) }
	case ANOVA:
		test = oneWay
	case Kruskal:
		test = kruskalWallis
	case Wilcoxon:
		test = func(g [][]float64) (float64, float64) { return signedRank(g[0], g[1]) }
	default:
		return nil, fmt.Errorf("groupstat: unknown test %v", k)
	}
	if err := checkLevels(k.groups(), len(v.Levels)); err != nil {
		return nil, fmt.Errorf("%v: %w", k, err)
	}
	res := &Results{Test: k, Rows: make([]Result, len(v.OTUs))}
	for i, id := range v.OTUs {
		stat, p := test(v.split(i))
		res.Rows[i] = Result{OTU: id, Statistic: stat, P: p}
	}
	return res, nil
}

func checkLevels(want, got int) error {
	switch {
	case want > 0 && got != want:
		return fmt.Errorf("%w: exactly two groups required, got %d", ErrGroupCardinality, got)
	case want < 0 && got < -want:
		return fmt.Errorf("%w: at least two groups required, got %d", ErrGroupCardinality, got)
	}
	return nil
}

// StudentT performs an independent two-sample Student's t-test with pooled
// variance on each OTU of v.
func StudentT(v *View) (*Results, error) { return Run(TTest, v) }

// OneWay performs a one-way analysis of variance on each OTU of v.
func OneWay(v *View) (*Results, error) { return Run(ANOVA, v) }

// KruskalWallis performs a Kruskal-Wallis H test on each OTU of v.
func KruskalWallis(v *View) (*Results, error) { return Run(Kruskal, v) }

// SignedRank performs a Wilcoxon signed-rank test on each OTU of v,
// pairing the samples of the two groups in order.
func SignedRank(v *View) (*Results, error) { return Run(Wilcoxon, v) }
