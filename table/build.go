// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/biogo/microbiome/taxonomy"
)

// BuildOTUTable drops the identifier column of raw and assigns OTU1..OTUn
// to the rows in order. Counts are copied verbatim.
func BuildOTUTable(raw *Raw) *OTUTable {
	t := &OTUTable{
		IDs:     make([]OTUID, len(raw.IDs)),
		Samples: append([]string(nil), raw.Samples...),
		Counts:  make([][]float64, len(raw.Counts)),
	}
	for i := range raw.IDs {
		t.IDs[i] = NewOTUID(i)
		t.Counts[i] = append([]float64(nil), raw.Counts[i]...)
	}
	return t
}

// BuildTaxaTable resolves ids and keys each row with the OTU identifier of
// its source position, so the result is aligned with the OTUTable built
// from the same source. Rows for identifiers that could not be resolved
// are kept with null names; they are listed in the returned LineageTable.
func BuildTaxaTable(ids []taxonomy.TaxID, r *taxonomy.Resolver) (*TaxaTable, *taxonomy.LineageTable, error) {
	lt, err := r.GetLineage(ids)
	if err != nil {
		return nil, nil, err
	}
	t := &TaxaTable{
		IDs:    make([]OTUID, len(ids)),
		TaxIDs: append([]taxonomy.TaxID(nil), ids...),
		Names:  make([][taxonomy.NumRanks]string, len(ids)),
	}
	for i := range ids {
		t.IDs[i] = NewOTUID(i)
	}
	for _, row := range lt.Rows {
		t.Names[row.Index] = row.Names
	}
	return t, lt, nil
}

// MergeMany performs a full outer join of tables on their identifier
// column. Cells for identifiers absent from a table are NaN. Rows are
// ordered by identifier and sample columns keep their input order.
func MergeMany(tables []*Raw) (*Raw, error) {
	if len(tables) == 0 {
		return nil, errors.New("table: nothing to merge")
	}
	m := &Raw{Key: tables[0].Key}

	var (
		rows    = make(map[taxonomy.TaxID][]float64)
		columns = make(map[string]bool)
		offset  int
	)
	for _, t := range tables {
		if t.Key != m.Key {
			return nil, fmt.Errorf("table: cannot join on %q and %q", m.Key, t.Key)
		}
		for _, s := range t.Samples {
			if columns[s] {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, s)
			}
			columns[s] = true
		}
		m.Samples = append(m.Samples, t.Samples...)

		seen := make(map[taxonomy.TaxID]bool, len(t.IDs))
		for i, id := range t.IDs {
			if seen[id] {
				return nil, fmt.Errorf("%w: %d", ErrDuplicateKey, id)
			}
			seen[id] = true
			rows[id] = pad(rows[id], offset)
			rows[id] = append(rows[id], t.Counts[i]...)
		}
		offset += len(t.Samples)
	}

	m.IDs = make([]taxonomy.TaxID, 0, len(rows))
	for id := range rows {
		m.IDs = append(m.IDs, id)
	}
	sort.Slice(m.IDs, func(i, j int) bool { return m.IDs[i] < m.IDs[j] })
	m.Counts = make([][]float64, len(m.IDs))
	for i, id := range m.IDs {
		m.Counts[i] = pad(rows[id], offset)
	}
	return m, nil
}

// pad extends row with NaN up to length n.
func pad(row []float64, n int) []float64 {
	for len(row) < n {
		row = append(row, math.NaN())
	}
	return row
}
