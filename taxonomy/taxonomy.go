// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package taxonomy resolves NCBI taxonomy identifiers into lineages restricted
// to the major ranks and translates them into scientific names.
package taxonomy

import (
	"errors"
	"fmt"
	"strings"
)

// TaxID is an NCBI Taxonomy identifier.
type TaxID int

// Unassigned is the identifier used by abundance exports for reads that
// were not assigned to any taxon.
const Unassigned TaxID = -2

// NotAssigned is the name given to the Unassigned lineage.
const NotAssigned = "Not assigned"

// ErrUnknownTaxon is returned when an authority does not know an identifier.
var ErrUnknownTaxon = errors.New("taxonomy: unknown taxon")

// Lineage is an ordered ancestor chain, root first.
type Lineage []TaxID

// IsUnassigned returns whether l is the unassigned marker.
func (l Lineage) IsUnassigned() bool {
	return len(l) == 1 && l[0] == Unassigned
}

// Rank is a major taxonomic rank.
type Rank int

const (
	Kingdom Rank = iota
	Phylum
	Class
	Order
	Family
	Genus
	Species

	NumRanks = int(Species) + 1
)

var rankNames = [NumRanks]string{"Kingdom", "Phylum", "Class", "Order", "Family", "Genus", "Species"}

// Ranks returns the major ranks, broadest first.
func Ranks() []Rank {
	return []Rank{Kingdom, Phylum, Class, Order, Family, Genus, Species}
}

func (r Rank) String() string {
	if r < 0 || int(r) >= NumRanks {
		return fmt.Sprintf("Rank(%d)", int(r))
	}
	return rankNames[r]
}

// ParseRank returns the major rank named by s, ignoring case.
func ParseRank(s string) (Rank, error) {
	for i, n := range rankNames {
		if strings.EqualFold(n, s) {
			return Rank(i), nil
		}
	}
	return 0, fmt.Errorf("taxonomy: %q is not a major rank", s)
}

// MajorRank returns the major rank corresponding to an NCBI rank label.
// NCBI renamed superkingdom to domain; both map to Kingdom. The NCBI
// kingdom rank sits below domain and is not a major rank.
func MajorRank(ncbi string) (Rank, bool) {
	switch ncbi {
	case "superkingdom", "domain":
		return Kingdom, true
	case "phylum":
		return Phylum, true
	case "class":
		return Class, true
	case "order":
		return Order, true
	case "family":
		return Family, true
	case "genus":
		return Genus, true
	case "species":
		return Species, true
	}
	return 0, false
}

// Authority is a read-only taxonomy oracle.
type Authority interface {
	// Lineage returns the ancestor chain ending at id, root first.
	Lineage(id TaxID) (Lineage, error)
	// Ranks returns the NCBI rank label of each id.
	Ranks(ids []TaxID) (map[TaxID]string, error)
	// Names returns the scientific name of each id.
	Names(ids []TaxID) (map[TaxID]string, error)
}

// Lineager is implemented by authorities that can resolve many lineages
// in one request. Identifiers that cannot be resolved are absent from
// the returned map.
type Lineager interface {
	Lineages(ids []TaxID) (map[TaxID]Lineage, error)
}
