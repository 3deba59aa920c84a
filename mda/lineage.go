// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/biogo/microbiome/table"
)

func newLineageCommand(rootOpts *rootOptions) *cobra.Command {
	var in, out, otuOut string
	cmd := &cobra.Command{
		Use:   "lineage",
		Short: "Resolve the taxonomy of a merged table",
		Long: `Resolve the lineage of every taxon of a merged table and write the
taxonomy table with one column per major rank. Taxa that cannot be
resolved are reported and have empty names. The matching OTU table may
be written with --otu.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readRaw(cmd, in)
			if err != nil {
				return err
			}
			taxa, err := rootOpts.taxa(raw)
			if err != nil {
				return err
			}
			if otuOut != "" {
				otu := table.BuildOTUTable(raw)
				err = write(cmd, otuOut, func(w io.Writer) error { return table.WriteOTU(w, otu) })
				if err != nil {
					return err
				}
			}
			return write(cmd, out, func(w io.Writer) error { return table.WriteTaxa(w, taxa) })
		},
	}
	cmd.Flags().StringVarP(&in, "in", "i", "-", "merged abundance `file`")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	cmd.Flags().StringVar(&otuOut, "otu", "", "also write the OTU table to `file`")
	return cmd
}
