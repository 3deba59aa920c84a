// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"fmt"
	"sync/atomic"
)

// Dataset is an immutable set of tables built from one import.
type Dataset struct {
	OTU  *OTUTable
	Taxa *TaxaTable // nil when taxonomy was not resolved
	Meta *Metadata
}

// NewDataset returns a Dataset after checking that OTU identifiers are
// unique, that taxa, if not nil, has the same identifiers in the same
// order as otu and that the samples of otu are exactly those of meta.
func NewDataset(otu *OTUTable, taxa *TaxaTable, meta *Metadata) (*Dataset, error) {
	seen := make(map[OTUID]bool, len(otu.IDs))
	for _, id := range otu.IDs {
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, id)
		}
		seen[id] = true
	}
	if taxa != nil {
		if err := Aligned(otu, taxa); err != nil {
			return nil, err
		}
	}
	if err := checkSamples(otu.Samples, meta); err != nil {
		return nil, err
	}
	return &Dataset{OTU: otu, Taxa: taxa, Meta: meta}, nil
}

// Aligned returns ErrMisaligned unless otu and taxa have identical
// identifier indices.
func Aligned(otu *OTUTable, taxa *TaxaTable) error {
	if otu.Len() != taxa.Len() {
		return fmt.Errorf("%w: %d otus, %d taxa", ErrMisaligned, otu.Len(), taxa.Len())
	}
	for i, id := range otu.IDs {
		if taxa.IDs[i] != id {
			return fmt.Errorf("%w: row %d is %s in otu table and %s in taxa table", ErrMisaligned, i, id, taxa.IDs[i])
		}
	}
	return nil
}

func checkSamples(samples []string, meta *Metadata) error {
	idx := make(map[string]bool, len(meta.Samples))
	for _, s := range meta.Samples {
		if idx[s] {
			return fmt.Errorf("%w: sample %q listed twice", ErrSampleMismatch, s)
		}
		idx[s] = true
	}
	if len(samples) != len(idx) {
		return fmt.Errorf("%w: %d samples, %d metadata rows", ErrSampleMismatch, len(samples), len(idx))
	}
	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		if seen[s] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, s)
		}
		seen[s] = true
		if !idx[s] {
			return fmt.Errorf("%w: no metadata for %q", ErrSampleMismatch, s)
		}
	}
	return nil
}

// Session holds the current Dataset. Loading a new Dataset replaces the
// previous one as a whole.
type Session struct {
	cur atomic.Pointer[Dataset]
}

// Load makes d the current dataset.
func (s *Session) Load(d *Dataset) { s.cur.Store(d) }

// Current returns the current dataset, or nil if none has been loaded.
func (s *Session) Current() *Dataset { return s.cur.Load() }
