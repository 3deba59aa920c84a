// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/biogo/microbiome/taxonomy"
)

// DefaultKey is the identifier column name of imported sample files.
const DefaultKey = "Taxa"

func newReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = '\t'
	cr.LazyQuotes = true
	return cr
}

func parseCount(s string) (float64, error) {
	switch strings.TrimSpace(s) {
	case "", "NA", "N/A", "NaN", "nan", "null":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseTaxID(s string) (taxonomy.TaxID, error) {
	id, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid taxon id %q", s)
	}
	return taxonomy.TaxID(id), nil
}

// ReadRaw reads a tab-delimited abundance table with a header line. The
// first column holds taxon identifiers and the remaining columns hold
// per-sample counts. Empty and NA cells are missing values.
func ReadRaw(r io.Reader) (*Raw, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("table: empty input")
		}
		return nil, fmt.Errorf("table: header: %w", err)
	}
	if len(header) < 1 {
		return nil, errors.New("table: no identifier column")
	}
	raw := &Raw{Key: header[0], Samples: append([]string(nil), header[1:]...)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: %w", err)
		}
		id, err := parseTaxID(rec[0])
		if err != nil {
			return nil, fmt.Errorf("table: line %d: %w", line, err)
		}
		row := make([]float64, len(rec)-1)
		for j, v := range rec[1:] {
			row[j], err = parseCount(v)
			if err != nil {
				return nil, fmt.Errorf("table: line %d column %q: %w", line, raw.Samples[j], err)
			}
		}
		raw.IDs = append(raw.IDs, id)
		raw.Counts = append(raw.Counts, row)
	}
	return raw, nil
}

// ReadSample reads a single-sample abundance export. The first skip lines
// are discarded, the next line is a header and column drop, counted from
// zero, is removed when present. The two remaining columns are the taxon
// identifier and the count, which is labelled with name.
func ReadSample(r io.Reader, name string, skip, drop int) (*Raw, error) {
	br := bufio.NewReader(r)
	for i := 0; i < skip; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("table: %s: skipping header lines: %w", name, err)
		}
	}
	cr := newReader(br)
	cr.FieldsPerRecord = -1
	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("table: %s: header: %w", name, err)
	}
	raw := &Raw{Key: DefaultKey, Samples: []string{name}}
	for line := skip + 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("table: %s: %w", name, err)
		}
		if drop >= 0 && drop < len(rec) {
			rec = append(rec[:drop:drop], rec[drop+1:]...)
		}
		if len(rec) != 2 {
			return nil, fmt.Errorf("table: %s: line %d: want 2 columns, got %d", name, line, len(rec))
		}
		id, err := parseTaxID(rec[0])
		if err != nil {
			return nil, fmt.Errorf("table: %s: line %d: %w", name, line, err)
		}
		v, err := parseCount(rec[1])
		if err != nil {
			return nil, fmt.Errorf("table: %s: line %d: %w", name, line, err)
		}
		raw.IDs = append(raw.IDs, id)
		raw.Counts = append(raw.Counts, []float64{v})
	}
	return raw, nil
}

// ReadMetadata reads tab-delimited sample metadata with a header naming
// the SampleID, Group and Property columns. Other columns are ignored
// and Property may be absent.
func ReadMetadata(r io.Reader) (*Metadata, error) {
	cr := newReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("metadata: header: %w", err)
	}
	col := map[string]int{"SampleID": -1, "Group": -1, "Property": -1}
	for i, h := range header {
		if _, ok := col[h]; ok {
			col[h] = i
		}
	}
	if col["SampleID"] < 0 || col["Group"] < 0 {
		return nil, errors.New("metadata: SampleID and Group columns are required")
	}
	var m Metadata
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("metadata: %w", err)
		}
		m.Samples = append(m.Samples, rec[col["SampleID"]])
		m.Groups = append(m.Groups, rec[col["Group"]])
		var p string
		if i := col["Property"]; i >= 0 {
			p = rec[i]
		}
		m.Properties = append(m.Properties, p)
	}
	return &m, nil
}

func formatCount(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func newWriter(w io.Writer) *csv.Writer {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	return cw
}

// WriteRaw writes raw in the format read by ReadRaw.
func WriteRaw(w io.Writer, raw *Raw) error {
	cw := newWriter(w)
	cw.Write(append([]string{raw.Key}, raw.Samples...))
	for i, id := range raw.IDs {
		rec := []string{strconv.Itoa(int(id))}
		for _, v := range raw.Counts[i] {
			rec = append(rec, formatCount(v))
		}
		cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}

// WriteOTU writes t as a tab-delimited table.
func WriteOTU(w io.Writer, t *OTUTable) error {
	cw := newWriter(w)
	cw.Write(append([]string{""}, t.Samples...))
	for i, id := range t.IDs {
		rec := []string{string(id)}
		for _, v := range t.Counts[i] {
			rec = append(rec, formatCount(v))
		}
		cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}

// WriteTaxa writes t as a tab-delimited table with one column per rank.
func WriteTaxa(w io.Writer, t *TaxaTable) error {
	cw := newWriter(w)
	header := []string{""}
	for _, r := range taxonomy.Ranks() {
		header = append(header, r.String())
	}
	cw.Write(header)
	for i, id := range t.IDs {
		cw.Write(append([]string{string(id)}, t.Names[i][:]...))
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes s as a tab-delimited table with one row per label.
// When s lists OTUs, their identifiers are written in a second column.
func WriteSummary(w io.Writer, s *Summary) error {
	cw := newWriter(w)
	header := []string{""}
	if s.OTUs != nil {
		header = append(header, "OTU")
	}
	cw.Write(append(header, s.Samples...))
	for i, label := range s.Labels {
		rec := []string{label}
		if s.OTUs != nil {
			rec = append(rec, string(s.OTUs[i]))
		}
		for _, v := range s.Counts[i] {
			rec = append(rec, formatCount(v))
		}
		cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}
