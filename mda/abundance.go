// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/biogo/microbiome/render"
	"github.com/biogo/microbiome/table"
	"github.com/biogo/microbiome/taxonomy"
)

// resolved reads a merged table and resolves its taxonomy.
func (o *rootOptions) resolved(cmd *cobra.Command, in string) (*table.OTUTable, *table.TaxaTable, error) {
	raw, err := readRaw(cmd, in)
	if err != nil {
		return nil, nil, err
	}
	taxa, err := o.taxa(raw)
	if err != nil {
		return nil, nil, err
	}
	otu := table.BuildOTUTable(raw)
	if err := table.Aligned(otu, taxa); err != nil {
		return nil, nil, err
	}
	return otu, taxa, nil
}

func writeSummary(cmd *cobra.Command, s *table.Summary, out, plot, title string) error {
	if plot != "" {
		if err := render.Stacked(s, title, "count", plot); err != nil {
			return err
		}
	}
	return write(cmd, out, func(w io.Writer) error { return table.WriteSummary(w, s) })
}

func newRankCommand(rootOpts *rootOptions) *cobra.Command {
	var in, rank, out, plot string
	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Sum abundance by taxon at a major rank",
		Long: `Sum the counts of all taxa sharing a name at the given major rank:
Kingdom, Phylum, Class, Order, Family, Genus or Species. Taxa without a
name at that rank are excluded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := taxonomy.ParseRank(rank)
			if err != nil {
				return err
			}
			otu, taxa, err := rootOpts.resolved(cmd, in)
			if err != nil {
				return err
			}
			s, err := table.AggregateRank(otu, taxa, r)
			if err != nil {
				return err
			}
			return writeSummary(cmd, s, out, plot, r.String())
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "merged abundance `file`")
	cmd.Flags().StringVarP(&rank, "rank", "r", "Phylum", "major rank")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	cmd.Flags().StringVar(&plot, "plot", "", "write a stacked bar chart to `file`")
	return cmd
}

func newTopCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		in, out, plot string
		n             int
	)
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the most abundant taxa",
		Long: `List the n taxa with the largest total count over all samples, labelled
with their most specific resolved name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			otu, taxa, err := rootOpts.resolved(cmd, in)
			if err != nil {
				return err
			}
			s, err := table.Top(otu, taxa, n)
			if err != nil {
				return err
			}
			return writeSummary(cmd, s, out, plot, fmt.Sprintf("Top %d taxa", len(s.Labels)))
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "merged abundance `file`")
	cmd.Flags().IntVarP(&n, "number", "n", 10, "number of taxa")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	cmd.Flags().StringVar(&plot, "plot", "", "write a stacked bar chart to `file`")
	return cmd
}
