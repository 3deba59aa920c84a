// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/biogo/microbiome/table"
	"github.com/biogo/microbiome/taxonomy"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Config   string
	Verbose  bool
	Taxonomy string // "entrez" or the path of a taxdump database
	Email    string
	Tool     string

	log *log.Logger

	// authority overrides Taxonomy when non-nil.
	authority taxonomy.Authority

	session table.Session
}

// config is the YAML configuration file format. Values set on the
// command line take precedence.
type config struct {
	Taxonomy string `yaml:"taxonomy"`
	Email    string `yaml:"email"`
	Tool     string `yaml:"tool"`
	Verbose  bool   `yaml:"verbose"`
}

// newRootCommand returns the mda command tree. If auth is not nil it is
// used for all taxonomy lookups.
func newRootCommand(auth taxonomy.Authority) *cobra.Command {
	opts := &rootOptions{log: log.New(), authority: auth}

	cmd := &cobra.Command{
		Use:   "mda",
		Short: "Microbiome data analyzer",
		Long: `mda merges per-sample taxon abundance tables, resolves their lineages
and computes beta diversity, ordinations and group statistics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.Config != "" {
				if err := opts.loadConfig(cmd); err != nil {
					return err
				}
			}
			opts.log.SetOutput(cmd.ErrOrStderr())
			opts.log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
			if opts.Verbose {
				opts.log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "YAML configuration `file`")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")
	cmd.PersistentFlags().StringVar(&opts.Taxonomy, "taxonomy", "entrez", "taxonomy authority: entrez or a taxdump database `path`")
	cmd.PersistentFlags().StringVar(&opts.Email, "email", "", "contact email for NCBI Entrez requests")
	cmd.PersistentFlags().StringVar(&opts.Tool, "tool", taxonomy.DefaultTool, "tool name for NCBI Entrez requests")

	cmd.AddCommand(newImportCommand(opts))
	cmd.AddCommand(newTaxdumpCommand(opts))
	cmd.AddCommand(newLineageCommand(opts))
	cmd.AddCommand(newBetaCommand(opts))
	cmd.AddCommand(newPCoACommand(opts))
	cmd.AddCommand(newTestCommand(opts))
	cmd.AddCommand(newPermanovaCommand(opts))
	cmd.AddCommand(newRankCommand(opts))
	cmd.AddCommand(newTopCommand(opts))

	return cmd
}

// loadConfig overlays values from the configuration file onto flags
// that were not given on the command line.
func (o *rootOptions) loadConfig(cmd *cobra.Command) error {
	b, err := os.ReadFile(o.Config)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	var c config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return fmt.Errorf("config %s: %w", o.Config, err)
	}
	flags := cmd.Flags()
	if c.Taxonomy != "" && !flags.Changed("taxonomy") {
		o.Taxonomy = c.Taxonomy
	}
	if c.Email != "" && !flags.Changed("email") {
		o.Email = c.Email
	}
	if c.Tool != "" && !flags.Changed("tool") {
		o.Tool = c.Tool
	}
	if c.Verbose && !flags.Changed("verbose") {
		o.Verbose = true
	}
	return nil
}

// resolver returns a taxonomy resolver and a function to release the
// authority's resources.
func (o *rootOptions) resolver() (*taxonomy.Resolver, func(), error) {
	done := func() {}
	auth := o.authority
	switch {
	case auth != nil:
	case o.Taxonomy == "entrez":
		e, err := taxonomy.NewEntrez(o.Tool, o.Email)
		if err != nil {
			return nil, nil, err
		}
		auth = e
	case o.Taxonomy == "":
		return nil, nil, errors.New("no taxonomy authority given")
	default:
		db, err := taxonomy.OpenTaxdump(o.Taxonomy)
		if err != nil {
			return nil, nil, err
		}
		auth = db
		done = func() {
			if err := db.Close(); err != nil {
				o.log.Warnf("closing %s: %v", o.Taxonomy, err)
			}
		}
	}
	r := taxonomy.NewResolver(auth)
	r.Log = o.log
	return r, done, nil
}

// open opens the named file for reading, decompressing it when the name
// ends in ".gz". The name "-" is standard input.
func open(cmd *cobra.Command, name string) (io.ReadCloser, error) {
	var f io.ReadCloser
	if name == "-" {
		f = io.NopCloser(cmd.InOrStdin())
	} else {
		var err error
		f, err = os.Open(name)
		if err != nil {
			return nil, err
		}
	}
	if !strings.HasSuffix(name, ".gz") {
		return f, nil
	}
	gz, err := pgzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return gzipFile{Reader: gz, f: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	f io.Closer
}

func (g gzipFile) Close() error {
	err := g.Reader.Close()
	if cerr := g.f.Close(); err == nil {
		err = cerr
	}
	return err
}

// output returns the writer for the named file, or the command's
// standard output if name is empty or "-".
func output(cmd *cobra.Command, name string) (io.WriteCloser, error) {
	if name == "" || name == "-" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(name)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// write writes to the named output with fn.
func write(cmd *cobra.Command, name string, fn func(io.Writer) error) error {
	w, err := output(cmd, name)
	if err != nil {
		return err
	}
	err = fn(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}

func readRaw(cmd *cobra.Command, name string) (*table.Raw, error) {
	f, err := open(cmd, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	raw, err := table.ReadRaw(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return raw, nil
}

func readMetadata(cmd *cobra.Command, name string) (*table.Metadata, error) {
	if name == "" {
		return nil, errors.New("no metadata file given")
	}
	f, err := open(cmd, name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	meta, err := table.ReadMetadata(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return meta, nil
}

// dataset reads the merged table in and the metadata meta, checks that
// they describe exactly the same samples and makes the result the
// current dataset.
func (o *rootOptions) dataset(cmd *cobra.Command, in, meta string) (*table.Dataset, error) {
	raw, err := readRaw(cmd, in)
	if err != nil {
		return nil, err
	}
	md, err := readMetadata(cmd, meta)
	if err != nil {
		return nil, err
	}
	d, err := table.NewDataset(table.BuildOTUTable(raw), nil, md)
	if err != nil {
		return nil, fmt.Errorf("%s and %s: %w", in, meta, err)
	}
	o.session.Load(d)
	return o.session.Current(), nil
}

// taxa resolves the lineages of raw's identifiers.
func (o *rootOptions) taxa(raw *table.Raw) (*table.TaxaTable, error) {
	r, done, err := o.resolver()
	if err != nil {
		return nil, err
	}
	defer done()
	t, lt, err := table.BuildTaxaTable(raw.IDs, r)
	if err != nil {
		return nil, err
	}
	o.log.WithField("resolved", len(lt.Rows)).WithField("unresolved", len(lt.Unresolved)).Info("lineages")
	return t, nil
}
