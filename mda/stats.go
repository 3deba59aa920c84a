// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/biogo/microbiome/diversity"
	"github.com/biogo/microbiome/groupstat"
)

func newTestCommand(rootOpts *rootOptions) *cobra.Command {
	var in, meta, kind, out string
	var alpha float64
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test each taxon for differences between sample groups",
		Long: `Test each taxon of a merged table for a difference in abundance between
the sample groups given by the metadata. The test is one of ttest,
anova, kruskal or wilcoxon; ttest and wilcoxon require exactly two
groups. Missing counts are dropped within each group.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := groupstat.ParseKind(kind)
			if err != nil {
				return err
			}
			d, err := rootOpts.dataset(cmd, in, meta)
			if err != nil {
				return err
			}
			v := groupstat.Prepare(d.OTU, d.Meta)
			rootOpts.log.WithField("groups", v.Levels).Debugf("%d samples joined", len(v.Samples))
			res, err := groupstat.Run(k, v)
			if err != nil {
				return err
			}
			rootOpts.log.Infof("%v: %d of %d taxa with p < %g", k, len(res.Significant(alpha)), len(res.Rows), alpha)
			return write(cmd, out, func(w io.Writer) error { return groupstat.WriteResults(w, res) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "merged abundance `file`")
	cmd.Flags().StringVarP(&meta, "meta", "m", "", "sample metadata `file`")
	cmd.Flags().StringVarP(&kind, "kind", "k", "ttest", "test: ttest, anova, kruskal or wilcoxon")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.05, "significance level for the summary")
	return cmd
}

func newPermanovaCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		in, meta, out string
		permutations  int
		seed          uint64
	)
	cmd := &cobra.Command{
		Use:   "permanova",
		Short: "Test for differences in community composition between groups",
		Long: `Perform a permutational multivariate analysis of variance of the
Bray-Curtis dissimilarity between samples using the groups given by the
metadata. A non-zero seed makes the permutations reproducible.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := rootOpts.dataset(cmd, in, meta)
			if err != nil {
				return err
			}
			m, err := diversity.BrayCurtis(d.OTU)
			if err != nil {
				return err
			}
			var src rand.Source
			if seed != 0 {
				src = rand.NewPCG(seed, seed)
			}
			res, err := groupstat.Permanova(m, d.Meta, permutations, src)
			if err != nil {
				return err
			}
			rootOpts.log.WithField("pseudo-F", res.Statistic).WithField("p", res.P).Debug("permanova")
			return write(cmd, out, func(w io.Writer) error { return groupstat.WritePermanova(w, res) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "merged abundance `file`")
	cmd.Flags().StringVarP(&meta, "meta", "m", "", "sample metadata `file`")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	cmd.Flags().IntVar(&permutations, "permutations", groupstat.DefaultPermutations, "number of label permutations")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed, 0 for a random seed")
	return cmd
}
