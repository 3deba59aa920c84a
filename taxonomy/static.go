// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package taxonomy

import "fmt"

// Node is a taxonomy tree node.
type Node struct {
	Parent TaxID
	Rank   string
	Name   string
}

// Static is an in-memory Authority. The root node is its own parent
// or has a zero parent.
type Static map[TaxID]Node

// Lineage returns the ancestor chain ending at id.
func (s Static) Lineage(id TaxID) (Lineage, error) {
	var rev Lineage
	for cur := id; ; {
		n, ok := s[cur]
		if !ok {
			return nil, fmt.Errorf("taxid %d: %w", cur, ErrUnknownTaxon)
		}
		rev = append(rev, cur)
		if n.Parent == cur || n.Parent == 0 {
			break
		}
		if len(rev) > len(s) {
			return nil, fmt.Errorf("taxonomy: cycle at %d", cur)
		}
		cur = n.Parent
	}
	return reverse(rev), nil
}

// Ranks returns the rank of each id.
func (s Static) Ranks(ids []TaxID) (map[TaxID]string, error) {
	return s.lookup(ids, func(n Node) string { return n.Rank })
}

// Names returns the scientific name of each id.
func (s Static) Names(ids []TaxID) (map[TaxID]string, error) {
	return s.lookup(ids, func(n Node) string { return n.Name })
}

func (s Static) lookup(ids []TaxID, field func(Node) string) (map[TaxID]string, error) {
	m := make(map[TaxID]string, len(ids))
	for _, id := range ids {
		n, ok := s[id]
		if !ok {
			return nil, fmt.Errorf("taxid %d: %w", id, ErrUnknownTaxon)
		}
		m[id] = field(n)
	}
	return m, nil
}

func reverse(l Lineage) Lineage {
	for i, j := 0, len(l)-1; i < j; i, j = i+1, j-1 {
		l[i], l[j] = l[j], l[i]
	}
	return l
}
