// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package taxonomytest provides a small NCBI taxonomy fragment for tests.
package taxonomytest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/biogo/microbiome/taxonomy"
)

// Identifiers present in Fixture.
const (
	Human        taxonomy.TaxID = 9606
	EcoliMG1655  taxonomy.TaxID = 511145
	Bifidobacter taxonomy.TaxID = 1678
)

// Fixture returns a fragment of the NCBI taxonomy containing the lineages
// of Homo sapiens, Escherichia coli K-12 MG1655 and the genus
// Bifidobacterium. Eukaryota uses the superkingdom rank and Bacteria the
// domain rank so both spellings are exercised.
func Fixture() taxonomy.Static {
	return taxonomy.Static{
		1:      {Parent: 1, Rank: "no rank", Name: "root"},
		131567: {Parent: 1, Rank: "no rank", Name: "cellular organisms"},

		2759:    {Parent: 131567, Rank: "superkingdom", Name: "Eukaryota"},
		33154:   {Parent: 2759, Rank: "clade", Name: "Opisthokonta"},
		33208:   {Parent: 33154, Rank: "kingdom", Name: "Metazoa"},
		33213:   {Parent: 33208, Rank: "clade", Name: "Bilateria"},
		7711:    {Parent: 33213, Rank: "phylum", Name: "Chordata"},
		89593:   {Parent: 7711, Rank: "subphylum", Name: "Craniata"},
		7742:    {Parent: 89593, Rank: "clade", Name: "Vertebrata"},
		32523:   {Parent: 7742, Rank: "clade", Name: "Tetrapoda"},
		40674:   {Parent: 32523, Rank: "class", Name: "Mammalia"},
		9347:    {Parent: 40674, Rank: "clade", Name: "Eutheria"},
		314146:  {Parent: 9347, Rank: "superorder", Name: "Euarchontoglires"},
		9443:    {Parent: 314146, Rank: "order", Name: "Primates"},
		376913:  {Parent: 9443, Rank: "suborder", Name: "Haplorrhini"},
		314295:  {Parent: 376913, Rank: "superfamily", Name: "Hominoidea"},
		9604:    {Parent: 314295, Rank: "family", Name: "Hominidae"},
		207598:  {Parent: 9604, Rank: "subfamily", Name: "Homininae"},
		9605:    {Parent: 207598, Rank: "genus", Name: "Homo"},
		Human:   {Parent: 9605, Rank: "species", Name: "Homo sapiens"},
		2:       {Parent: 131567, Rank: "domain", Name: "Bacteria"},
		3379134: {Parent: 2, Rank: "kingdom", Name: "Pseudomonadati"},
		1224:    {Parent: 3379134, Rank: "phylum", Name: "Pseudomonadota"},
		1236:    {Parent: 1224, Rank: "class", Name: "Gammaproteobacteria"},
		91347:   {Parent: 1236, Rank: "order", Name: "Enterobacterales"},
		543:     {Parent: 91347, Rank: "family", Name: "Enterobacteriaceae"},
		561:     {Parent: 543, Rank: "genus", Name: "Escherichia"},
		562:     {Parent: 561, Rank: "species", Name: "Escherichia coli"},
		83333:   {Parent: 562, Rank: "strain", Name: "Escherichia coli K-12"},

		EcoliMG1655: {Parent: 83333, Rank: "strain", Name: "Escherichia coli str. K-12 substr. MG1655"},

		1783272:      {Parent: 2, Rank: "kingdom", Name: "Bacillati"},
		201174:       {Parent: 1783272, Rank: "phylum", Name: "Actinomycetota"},
		1760:         {Parent: 201174, Rank: "class", Name: "Actinomycetes"},
		85004:        {Parent: 1760, Rank: "order", Name: "Bifidobacteriales"},
		31953:        {Parent: 85004, Rank: "family", Name: "Bifidobacteriaceae"},
		Bifidobacter: {Parent: 31953, Rank: "genus", Name: "Bifidobacterium"},
	}
}

// Dump renders s in the NCBI taxdump nodes.dmp and names.dmp formats.
func Dump(s taxonomy.Static) (nodes, names string) {
	ids := make([]int, 0, len(s))
	for id := range s {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	var nb, mb strings.Builder
	for _, id := range ids {
		n := s[taxonomy.TaxID(id)]
		fmt.Fprintf(&nb, "%d\t|\t%d\t|\t%s\t|\t\t|\t0\t|\n", id, n.Parent, n.Rank)
		fmt.Fprintf(&mb, "%d\t|\t%s\t|\t\t|\tscientific name\t|\n", id, n.Name)
		fmt.Fprintf(&mb, "%d\t|\t%s (synonym)\t|\t\t|\tsynonym\t|\n", id, n.Name)
	}
	return nb.String(), mb.String()
}
