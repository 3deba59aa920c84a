// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diversity

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

func format(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

// WriteMatrix writes m as a tab-delimited square table.
func WriteMatrix(w io.Writer, m *Matrix) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.Write(append([]string{""}, m.IDs...))
	for i, id := range m.IDs {
		rec := []string{id}
		for j := range m.IDs {
			rec = append(rec, format(m.At(i, j)))
		}
		cw.Write(rec)
	}
	cw.Flush()
	return cw.Error()
}

// WriteOrdination writes the first axes coordinates of o, one sample per
// line, followed by Group and Property when o has been annotated.
func WriteOrdination(w io.Writer, o *Ordination, axes int) error {
	if axes > o.Axes() {
		axes = o.Axes()
	}
	annotated := o.Groups != nil
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	header := []string{"SampleID"}
	for k := 0; k < axes; k++ {
		header = append(header, fmt.Sprintf("PC%d", k+1))
	}
	if annotated {
		header = append(header, "Group", "Property")
	}
	cw.Write(header)
	for i, s := range o.Samples {
		rec := []string{s}
		for k := 0; k < axes; k++ {
			rec = append(rec, format(o.Coords[i][k]))
		}
		if annotated {
			rec = append(rec, o.Groups[i], o.Properties[i])
		}
		cw.Write(rec)
	}
	cw.Write(nil)
	prop := []string{"proportion"}
	for k := 0; k < axes; k++ {
		prop = append(prop, format(o.Proportion[k]))
	}
	cw.Write(prop)
	cw.Flush()
	return cw.Error()
}
