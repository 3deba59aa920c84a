// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/biogo/microbiome/diversity"
	"github.com/biogo/microbiome/render"
	"github.com/biogo/microbiome/table"
)

func brayCurtis(cmd *cobra.Command, in string) (*diversity.Matrix, error) {
	raw, err := readRaw(cmd, in)
	if err != nil {
		return nil, err
	}
	return diversity.BrayCurtis(table.BuildOTUTable(raw))
}

func newBetaCommand(rootOpts *rootOptions) *cobra.Command {
	var in, out string
	cmd := &cobra.Command{
		Use:   "beta",
		Short: "Compute Bray-Curtis dissimilarity between samples",
		Long: `Compute the Bray-Curtis dissimilarity between all pairs of samples of a
merged table. Taxa with a missing count in any sample are excluded.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := brayCurtis(cmd, in)
			if err != nil {
				return err
			}
			rootOpts.log.Debugf("dissimilarity of %d samples", m.Len())
			return write(cmd, out, func(w io.Writer) error { return diversity.WriteMatrix(w, m) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "merged abundance `file`")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	return cmd
}

func newPCoACommand(rootOpts *rootOptions) *cobra.Command {
	var (
		in, meta, out, plot string
		axes                int
	)
	cmd := &cobra.Command{
		Use:   "pcoa",
		Short: "Principal coordinates analysis of Bray-Curtis dissimilarity",
		Long: `Ordinate the samples of a merged table by principal coordinates analysis
of their Bray-Curtis dissimilarity. Coordinates are annotated with the
Group and Property of each sample and may be plotted with --plot; the
image format is given by the file extension.`,
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
			o, err := diversity.Ordinate(m, d.Meta)
			if err != nil {
				return err
			}
			for k := 0; k < axes && k < o.Axes(); k++ {
				rootOpts.log.Debugf("PC%d explains %.3f", k+1, o.Proportion[k])
			}
			if plot != "" {
				if err := render.Ordination(o, plot); err != nil {
					return err
				}
			}
			return write(cmd, out, func(w io.Writer) error { return diversity.WriteOrdination(w, o, axes) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "merged abundance `file`")
	cmd.Flags().StringVarP(&meta, "meta", "m", "", "sample metadata `file`")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	cmd.Flags().StringVar(&plot, "plot", "", "write a scatter plot to `file`")
	cmd.Flags().IntVar(&axes, "axes", 2, "number of axes to write")
	return cmd
}
