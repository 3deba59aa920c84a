// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package taxonomy

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"github.com/biogo/ncbi/entrez"
)

const (
	taxonomyDB = "taxonomy"

	// DefaultTool is reported to NCBI when Entrez.Tool is empty.
	DefaultTool = "biogo.microbiome"

	// maxFetch limits the number of ids sent in a single efetch request.
	maxFetch = 200
)

// Entrez is an Authority backed by the NCBI E-utilities taxonomy database.
// Each method call issues blocking efetch requests; nothing is cached and
// failed requests are not retried.
type Entrez struct {
	// Tool and Email identify the client to NCBI. Email is required.
	Tool  string
	Email string

	// fetch is replaced in tests.
	fetch func(ids ...int) (io.ReadCloser, error)
}

// NewEntrez returns an Entrez authority identifying itself with the
// given tool name and email address.
func NewEntrez(tool, email string) (*Entrez, error) {
	if email == "" {
		return nil, errors.New("taxonomy: entrez requires an email address")
	}
	if tool == "" {
		tool = DefaultTool
	}
	return &Entrez{Tool: tool, Email: email}, nil
}

type taxaSet struct {
	Taxa []taxon `xml:"Taxon"`
}

type taxon struct {
	ID        TaxID   `xml:"TaxId"`
	Name      string  `xml:"ScientificName"`
	Parent    TaxID   `xml:"ParentTaxId"`
	Rank      string  `xml:"Rank"`
	Aka       []TaxID `xml:"AkaTaxIds>TaxId"`
	LineageEx []taxon `xml:"LineageEx>Taxon"`
}

// matches returns whether the record answers a request for id. Merged
// identifiers are returned under their current id with the old one
// listed in AkaTaxIds.
func (t *taxon) matches(id TaxID) bool {
	if t.ID == id {
		return true
	}
	for _, a := range t.Aka {
		if a == id {
			return true
		}
	}
	return false
}

func parseTaxa(r io.Reader) ([]taxon, error) {
	var set taxaSet
	err := xml.NewDecoder(r).Decode(&set)
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("taxonomy: parse efetch response: %w", err)
	}
	return set.Taxa, nil
}

func (e *Entrez) records(ids []TaxID) ([]taxon, error) {
	fetch := e.fetch
	if fetch == nil {
		fetch = func(ids ...int) (io.ReadCloser, error) {
			return entrez.Fetch(taxonomyDB, &entrez.Parameters{RetMode: "xml"}, e.Tool, e.Email, nil, ids...)
		}
	}
	var recs []taxon
	for start := 0; start < len(ids); start += maxFetch {
		end := start + maxFetch
		if end > len(ids) {
			end = len(ids)
		}
		n := make([]int, 0, end-start)
		for _, id := range ids[start:end] {
			n = append(n, int(id))
		}
		r, err := fetch(n...)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: efetch: %w", err)
		}
		t, err := parseTaxa(r)
		r.Close()
		if err != nil {
			return nil, err
		}
		recs = append(recs, t...)
	}
	return recs, nil
}

// find returns the record for each of ids that Entrez knows and the
// first id it does not.
func (e *Entrez) find(ids []TaxID) (map[TaxID]*taxon, TaxID, bool, error) {
	recs, err := e.records(ids)
	if err != nil {
		return nil, 0, false, err
	}
	var (
		missing TaxID
		ok      = true
	)
	m := make(map[TaxID]*taxon, len(ids))
	for _, id := range ids {
		for i := range recs {
			if recs[i].matches(id) {
				m[id] = &recs[i]
				break
			}
		}
		if m[id] == nil && ok {
			missing, ok = id, false
		}
	}
	return m, missing, ok, nil
}

func (e *Entrez) lookup(ids []TaxID) (map[TaxID]*taxon, error) {
	m, missing, ok, err := e.find(ids)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("taxid %d: %w", missing, ErrUnknownTaxon)
	}
	return m, nil
}

func (t *taxon) lineage() Lineage {
	l := make(Lineage, 0, len(t.LineageEx)+1)
	for _, a := range t.LineageEx {
		l = append(l, a.ID)
	}
	return append(l, t.ID)
}

// Lineage returns the ancestor chain ending at id. The NCBI root node
// is not reported by Entrez and is not included.
func (e *Entrez) Lineage(id TaxID) (Lineage, error) {
	m, err := e.lookup([]TaxID{id})
	if err != nil {
		return nil, err
	}
	return m[id].lineage(), nil
}

// Lineages returns the ancestor chains ending at each of ids that
// Entrez knows, fetching up to 200 records per request.
func (e *Entrez) Lineages(ids []TaxID) (map[TaxID]Lineage, error) {
	m, _, _, err := e.find(ids)
	if err != nil {
		return nil, err
	}
	l := make(map[TaxID]Lineage, len(m))
	for id, t := range m {
		l[id] = t.lineage()
	}
	return l, nil
}

// Ranks returns the NCBI rank of each id.
func (e *Entrez) Ranks(ids []TaxID) (map[TaxID]string, error) {
	m, err := e.lookup(ids)
	if err != nil {
		return nil, err
	}
	r := make(map[TaxID]string, len(m))
	for id, t := range m {
		r[id] = t.Rank
	}
	return r, nil
}

// Names returns the scientific name of each id.
func (e *Entrez) Names(ids []TaxID) (map[TaxID]string, error) {
	m, err := e.lookup(ids)
	if err != nil {
		return nil, err
	}
	n := make(map[TaxID]string, len(m))
	for id, t := range m {
		n[id] = t.Name
	}
	return n, nil
}
