// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package taxonomy

import (
	"errors"
	"io"
	"strings"

	check "gopkg.in/check.v1"
)

type E struct{}

var _ = check.Suite(&E{})

// Abridged efetch responses.
var efetch = map[int]string{
	562: `<?xml version="1.0" ?>
<!DOCTYPE TaxaSet PUBLIC "-//NLM//DTD Taxon, 14th January 2002//EN" "https://www.ncbi.nlm.nih.gov/entrez/query/DTD/taxon.dtd">
<TaxaSet><Taxon>
    <TaxId>562</TaxId>
    <ScientificName>Escherichia coli</ScientificName>
    <ParentTaxId>561</ParentTaxId>
    <Rank>species</Rank>
    <Division>Bacteria</Division>
    <Lineage>cellular organisms; Bacteria; Pseudomonadota; Gammaproteobacteria; Enterobacterales; Enterobacteriaceae; Escherichia</Lineage>
    <LineageEx>
        <Taxon><TaxId>131567</TaxId><ScientificName>cellular organisms</ScientificName><Rank>cellular root</Rank></Taxon>
        <Taxon><TaxId>2</TaxId><ScientificName>Bacteria</ScientificName><Rank>domain</Rank></Taxon>
        <Taxon><TaxId>3379134</TaxId><ScientificName>Pseudomonadati</ScientificName><Rank>kingdom</Rank></Taxon>
        <Taxon><TaxId>1224</TaxId><ScientificName>Pseudomonadota</ScientificName><Rank>phylum</Rank></Taxon>
        <Taxon><TaxId>1236</TaxId><ScientificName>Gammaproteobacteria</ScientificName><Rank>class</Rank></Taxon>
        <Taxon><TaxId>91347</TaxId><ScientificName>Enterobacterales</ScientificName><Rank>order</Rank></Taxon>
        <Taxon><TaxId>543</TaxId><ScientificName>Enterobacteriaceae</ScientificName><Rank>family</Rank></Taxon>
        <Taxon><TaxId>561</TaxId><ScientificName>Escherichia</ScientificName><Rank>genus</Rank></Taxon>
    </LineageEx>
</Taxon>
</TaxaSet>`,
	9606: `<?xml version="1.0" ?>
<TaxaSet><Taxon>
    <TaxId>9606</TaxId>
    <ScientificName>Homo sapiens</ScientificName>
    <AkaTaxIds><TaxId>63221</TaxId></AkaTaxIds>
    <ParentTaxId>9605</ParentTaxId>
    <Rank>species</Rank>
</Taxon>
</TaxaSet>`,
}

func fakeFetch(calls *int) func(ids ...int) (io.ReadCloser, error) {
	return func(ids ...int) (io.ReadCloser, error) {
		*calls++
		var b strings.Builder
		b.WriteString("<TaxaSet>")
		for _, id := range ids {
			doc, ok := efetch[id]
			if !ok {
				continue
			}
			start := strings.Index(doc, "<Taxon>")
			end := strings.LastIndex(doc, "</TaxaSet>")
			b.WriteString(doc[start:end])
		}
		b.WriteString("</TaxaSet>")
		return io.NopCloser(strings.NewReader(b.String())), nil
	}
}

func (s *E) TestParseTaxa(c *check.C) {
	t, err := parseTaxa(strings.NewReader(efetch[562]))
	c.Assert(err, check.IsNil)
	c.Assert(t, check.HasLen, 1)
	c.Check(t[0].ID, check.Equals, TaxID(562))
	c.Check(t[0].Rank, check.Equals, "species")
	c.Check(t[0].Parent, check.Equals, TaxID(561))
	c.Check(t[0].LineageEx, check.HasLen, 8)
	c.Check(t[0].LineageEx[1].Rank, check.Equals, "domain")

	t, err = parseTaxa(strings.NewReader(""))
	c.Check(err, check.IsNil)
	c.Check(t, check.HasLen, 0)
}

func (s *E) TestEntrezLineage(c *check.C) {
	var calls int
	e := &Entrez{Tool: DefaultTool, Email: "user@example.org", fetch: fakeFetch(&calls)}

	l, err := e.Lineage(562)
	c.Assert(err, check.IsNil)
	c.Check(l, check.DeepEquals, Lineage{131567, 2, 3379134, 1224, 1236, 91347, 543, 561, 562})
	c.Check(calls, check.Equals, 1)

	_, err = e.Lineage(424242)
	c.Check(errors.Is(err, ErrUnknownTaxon), check.Equals, true)
}

func (s *E) TestEntrezLineages(c *check.C) {
	var calls int
	e := &Entrez{Email: "user@example.org", fetch: fakeFetch(&calls)}

	m, err := e.Lineages([]TaxID{562, 424242, 9606})
	c.Assert(err, check.IsNil)
	c.Check(calls, check.Equals, 1)
	c.Check(m, check.DeepEquals, map[TaxID]Lineage{
		562:  {131567, 2, 3379134, 1224, 1236, 91347, 543, 561, 562},
		9606: {9606},
	})
}

func (s *E) TestEntrezMergedID(c *check.C) {
	var calls int
	e := &Entrez{Email: "user@example.org", fetch: fakeFetch(&calls)}
	efetch[63221] = efetch[9606]
	defer delete(efetch, 63221)

	n, err := e.Names([]TaxID{63221})
	c.Assert(err, check.IsNil)
	c.Check(n[63221], check.Equals, "Homo sapiens")
}

func (s *E) TestEntrezBatches(c *check.C) {
	var calls int
	e := &Entrez{Email: "user@example.org", fetch: fakeFetch(&calls)}
	ids := make([]TaxID, maxFetch+1)
	for i := range ids {
		ids[i] = 562
	}
	r, err := e.Ranks(ids)
	c.Assert(err, check.IsNil)
	c.Check(r[562], check.Equals, "species")
	c.Check(calls, check.Equals, 2)

	calls = 0
	r, err = e.Ranks(nil)
	c.Assert(err, check.IsNil)
	c.Check(r, check.HasLen, 0)
	c.Check(calls, check.Equals, 0)
}

func (s *E) TestNewEntrez(c *check.C) {
	_, err := NewEntrez("", "")
	c.Check(err, check.NotNil)
	e, err := NewEntrez("", "user@example.org")
	c.Assert(err, check.IsNil)
	c.Check(e.Tool, check.Equals, DefaultTool)
}
