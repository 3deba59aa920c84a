// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package table builds the aligned OTU abundance and taxonomy tables used
// by the diversity and group statistics analyses.
//
// Missing counts are represented by NaN. Tables are not modified after
// construction.
package table

import (
	"errors"
	"math"
	"strconv"

	"github.com/biogo/microbiome/taxonomy"
)

var (
	ErrMisaligned      = errors.New("table: otu and taxa tables are not aligned")
	ErrSampleMismatch  = errors.New("table: samples do not match metadata")
	ErrDuplicateKey    = errors.New("table: duplicate key")
	ErrDuplicateColumn = errors.New("table: duplicate column")
)

// OTUID is the synthetic identifier shared by the rows of an OTUTable
// and its TaxaTable.
type OTUID string

// NewOTUID returns the identifier for the i'th source row, counting from
// zero. The first row is OTU1.
func NewOTUID(i int) OTUID {
	return OTUID("OTU" + strconv.Itoa(i+1))
}

// Raw is a merged abundance table keyed by taxon identifier.
type Raw struct {
	// Key is the name of the identifier column.
	Key     string
	Samples []string
	IDs     []taxonomy.TaxID

	// Counts holds one row per ID with one value per sample.
	Counts [][]float64
}

// OTUTable holds per-sample counts for each OTU.
type OTUTable struct {
	IDs     []OTUID
	Samples []string

	// Counts holds one row per OTU with one value per sample.
	Counts [][]float64
}

// Len returns the number of OTUs.
func (t *OTUTable) Len() int { return len(t.IDs) }

// Column returns the counts for sample j.
func (t *OTUTable) Column(j int) []float64 {
	c := make([]float64, len(t.Counts))
	for i, row := range t.Counts {
		c[i] = row[j]
	}
	return c
}

// Complete returns the indices of rows without missing values.
func (t *OTUTable) Complete() []int {
	var idx []int
outer:
	for i, row := range t.Counts {
		for _, v := range row {
			if math.IsNaN(v) {
				continue outer
			}
		}
		idx = append(idx, i)
	}
	return idx
}

// TaxaTable holds the major rank names of each OTU. An empty name is null.
type TaxaTable struct {
	IDs    []OTUID
	TaxIDs []taxonomy.TaxID
	Names  [][taxonomy.NumRanks]string
}

// Len returns the number of OTUs.
func (t *TaxaTable) Len() int { return len(t.IDs) }

// Label returns the most specific non-null name of row i, or "Unknown".
func (t *TaxaTable) Label(i int) string {
	for r := taxonomy.NumRanks - 1; r >= 0; r-- {
		if n := t.Names[i][r]; n != "" {
			return n
		}
	}
	return "Unknown"
}

// Metadata describes samples. Group is the factor compared by the
// statistical tests and Property is a display annotation.
type Metadata struct {
	Samples    []string
	Groups     []string
	Properties []string
}

// Index returns a map from sample ID to row.
func (m *Metadata) Index() map[string]int {
	idx := make(map[string]int, len(m.Samples))
	for i, s := range m.Samples {
		idx[s] = i
	}
	return idx
}
