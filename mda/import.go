// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/biogo/microbiome/table"
	"github.com/biogo/microbiome/taxonomy"
)

func newImportCommand(rootOpts *rootOptions) *cobra.Command {
	var (
		skip, drop int
		out        string
	)
	cmd := &cobra.Command{
		Use:   "import <sample files>...",
		Short: "Merge per-sample abundance exports into one table",
		Long: `Merge per-sample abundance exports into one table.

Each file holds the abundance of one sample. The first lines are skipped,
the next line is a header and the weight column is dropped, leaving the
taxon identifier and the read count. The sample is named after the file
with its extensions removed. Files are joined on the taxon identifier and
identifiers missing from a sample have an empty count.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tables []*table.Raw
			for _, path := range args {
				raw, err := readSample(cmd, path, skip, drop)
				if err != nil {
					return err
				}
				rootOpts.log.WithField("sample", raw.Samples[0]).Debugf("read %d taxa", len(raw.IDs))
				tables = append(tables, raw)
			}
			merged, err := table.MergeMany(tables)
			if err != nil {
				return err
			}
			rootOpts.log.Infof("merged %d samples with %d taxa", len(merged.Samples), len(merged.IDs))
			return write(cmd, out, func(w io.Writer) error { return table.WriteRaw(w, merged) })
		},
	}
	cmd.Flags().IntVar(&skip, "skip", 2, "number of leading lines to skip in each file")
	cmd.Flags().IntVar(&drop, "drop", 2, "zero-based column to drop, negative for none")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output `file` (default stdout)")
	return cmd
}

// sampleName returns the base name of path without extensions.
func sampleName(path string) string {
	name := filepath.Base(path)
	if i := strings.Index(name, "."); i > 0 {
		name = name[:i]
	}
	return name
}

func readSample(cmd *cobra.Command, path string, skip, drop int) (*table.Raw, error) {
	f, err := open(cmd, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return table.ReadSample(f, sampleName(path), skip, drop)
}

func newTaxdumpCommand(rootOpts *rootOptions) *cobra.Command {
	var nodes, names, merged, out string
	cmd := &cobra.Command{
		Use:   "taxdump",
		Short: "Build a local taxonomy database from NCBI taxdump files",
		Long: `Build a local taxonomy database from the nodes.dmp, names.dmp and
optionally merged.dmp files of an NCBI taxdump archive. The database can
then be given to --taxonomy in place of Entrez.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if nodes == "" || names == "" || out == "" {
				return fmt.Errorf("taxdump: --nodes, --names and --out are required")
			}
			n, err := open(cmd, nodes)
			if err != nil {
				return err
			}
			defer n.Close()
			m, err := open(cmd, names)
			if err != nil {
				return err
			}
			defer m.Close()
			var mr io.Reader
			if merged != "" {
				f, err := open(cmd, merged)
				if err != nil {
					return err
				}
				defer f.Close()
				mr = f
			}
			if err := taxonomy.BuildTaxdump(out, n, m, mr); err != nil {
				return err
			}
			rootOpts.log.WithField("path", out).Info("built taxonomy database")
			return nil
		},
	}
	cmd.Flags().StringVar(&nodes, "nodes", "", "nodes.dmp `file`")
	cmd.Flags().StringVar(&names, "names", "", "names.dmp `file`")
	cmd.Flags().StringVar(&merged, "merged", "", "merged.dmp `file`")
	cmd.Flags().StringVarP(&out, "out", "o", "", "database `path` to create")
	return cmd
}
