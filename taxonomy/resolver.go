// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package taxonomy

import (
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"
)

// Resolver resolves taxon identifiers against an Authority.
// A Resolver holds no state between calls.
type Resolver struct {
	Authority Authority

	// Log receives a warning for each identifier dropped by
	// GetLineage. If nil, warnings are discarded.
	Log logrus.FieldLogger
}

// NewResolver returns a Resolver using the given authority.
func NewResolver(a Authority) *Resolver {
	return &Resolver{Authority: a}
}

func (r *Resolver) log() logrus.FieldLogger {
	if r.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return r.Log
}

// ResolveLineage returns the ancestor chain ending at id. The Unassigned
// id is not looked up and yields the unassigned marker.
func (r *Resolver) ResolveLineage(id TaxID) (Lineage, error) {
	if id == Unassigned {
		return Lineage{Unassigned}, nil
	}
	l, err := r.Authority.Lineage(id)
	if err != nil {
		return nil, fmt.Errorf("resolve %d: %w", id, err)
	}
	return l, nil
}

// NormalizeRanks returns the subsequence of l whose members have a major rank.
func (r *Resolver) NormalizeRanks(l Lineage) (Lineage, error) {
	if l.IsUnassigned() {
		return Lineage{Unassigned}, nil
	}
	ranks, err := r.Authority.Ranks(l)
	if err != nil {
		return nil, fmt.Errorf("rank lookup: %w", err)
	}
	n, _ := normalize(l, ranks)
	return n, nil
}

// TranslateToNames returns the scientific names of the members of l in order.
func (r *Resolver) TranslateToNames(l Lineage) ([]string, error) {
	if l.IsUnassigned() {
		return []string{NotAssigned}, nil
	}
	names, err := r.Authority.Names(l)
	if err != nil {
		return nil, fmt.Errorf("name lookup: %w", err)
	}
	return translate(l, names)
}

func normalize(l Lineage, ranks map[TaxID]string) (Lineage, []Rank) {
	var (
		ids  Lineage
		maj  []Rank
		seen [NumRanks]bool
	)
	for _, id := range l {
		rank, ok := MajorRank(ranks[id])
		if !ok || seen[rank] {
			continue
		}
		seen[rank] = true
		ids = append(ids, id)
		maj = append(maj, rank)
	}
	return ids, maj
}

func translate(l Lineage, names map[TaxID]string) ([]string, error) {
	s := make([]string, len(l))
	for i, id := range l {
		n, ok := names[id]
		if !ok {
			return nil, fmt.Errorf("no name for %d: %w", id, ErrUnknownTaxon)
		}
		s[i] = n
	}
	return s, nil
}

// Row is a resolved lineage placed into the major rank columns.
// Empty cells are null.
type Row struct {
	// Index is the position of ID in the GetLineage input.
	Index int
	ID    TaxID
	Names [NumRanks]string
}

// Failure records an identifier that could not be resolved.
type Failure struct {
	Index int
	ID    TaxID
	Err   error
}

// LineageTable is the result of a batch lineage resolution.
type LineageTable struct {
	Rows       []Row
	Unresolved []Failure
}

// GetLineage resolves, normalizes and translates each of ids. Identifiers
// that fail resolution are omitted from Rows and listed in Unresolved.
// Errors from a batched lineage request and from the rank and name
// lookups abort the batch.
func (r *Resolver) GetLineage(ids []TaxID) (*LineageTable, error) {
	var t LineageTable
	lineages, errs, err := r.lineages(ids)
	if err != nil {
		return nil, err
	}
	ok := make([]bool, len(ids))
	for i, id := range ids {
		if errs[i] != nil {
			r.log().WithFields(logrus.Fields{"taxid": id, "index": i}).Warnf("dropping unresolved taxon: %v", errs[i])
			t.Unresolved = append(t.Unresolved, Failure{Index: i, ID: id, Err: errs[i]})
			continue
		}
		ok[i] = true
	}

	ranks, err := r.Authority.Ranks(union(lineages))
	if err != nil {
		return nil, fmt.Errorf("rank lookup: %w", err)
	}
	normal := make([]Lineage, len(ids))
	major := make([][]Rank, len(ids))
	for i, l := range lineages {
		if !ok[i] || l.IsUnassigned() {
			continue
		}
		normal[i], major[i] = normalize(l, ranks)
	}

	names, err := r.Authority.Names(union(normal))
	if err != nil {
		return nil, fmt.Errorf("name lookup: %w", err)
	}
	for i, id := range ids {
		if !ok[i] {
			continue
		}
		row := Row{Index: i, ID: id}
		if lineages[i].IsUnassigned() {
			row.Names[Kingdom] = NotAssigned
			t.Rows = append(t.Rows, row)
			continue
		}
		s, err := translate(normal[i], names)
		if err != nil {
			return nil, err
		}
		for j, rank := range major[i] {
			row.Names[rank] = s[j]
		}
		t.Rows = append(t.Rows, row)
	}
	return &t, nil
}

// lineages resolves each of ids, in a single batch when the authority
// is a Lineager. errs[i] is non-nil when ids[i] could not be resolved.
// The returned error is non-nil only when the batch request fails.
func (r *Resolver) lineages(ids []TaxID) (lineages []Lineage, errs []error, err error) {
	lineages = make([]Lineage, len(ids))
	errs = make([]error, len(ids))
	b, ok := r.Authority.(Lineager)
	if !ok {
		for i, id := range ids {
			lineages[i], errs[i] = r.ResolveLineage(id)
		}
		return lineages, errs, nil
	}

	seen := make(map[TaxID]bool)
	var query []TaxID
	for _, id := range ids {
		if id != Unassigned && !seen[id] {
			seen[id] = true
			query = append(query, id)
		}
	}
	var found map[TaxID]Lineage
	if len(query) != 0 {
		found, err = b.Lineages(query)
		if err != nil {
			return nil, nil, fmt.Errorf("lineage lookup: %w", err)
		}
	}
	for i, id := range ids {
		if id == Unassigned {
			lineages[i] = Lineage{Unassigned}
			continue
		}
		l, ok := found[id]
		if !ok {
			errs[i] = fmt.Errorf("resolve %d: %w", id, ErrUnknownTaxon)
			continue
		}
		lineages[i] = l
	}
	return lineages, errs, nil
}

// union returns the sorted set of assigned ids in ls.
func union(ls []Lineage) []TaxID {
	seen := make(map[TaxID]bool)
	var ids []TaxID
	for _, l := range ls {
		if l.IsUnassigned() {
			continue
		}
		for _, id := range l {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
