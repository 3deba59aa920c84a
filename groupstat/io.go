// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package groupstat

import (
	"encoding/csv"
	"io"
	"strconv"
)

func format(v float64) string { return strconv.FormatFloat(v, 'g', 6, 64) }

// WriteResults writes r as a tab-delimited table of OTU, statistic and
// p-value.
func WriteResults(w io.Writer, r *Results) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.Write([]string{"OTU", r.Test.String(), "p"})
	for _, row := range r.Rows {
		cw.Write([]string{string(row.OTU), format(row.Statistic), format(row.P)})
	}
	cw.Flush()
	return cw.Error()
}

// WritePermanova writes r as tab-delimited name and value pairs.
func WritePermanova(w io.Writer, r *PermanovaResult) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	cw.WriteAll([][]string{
		{"method", "PERMANOVA"},
		{"test statistic name", "pseudo-F"},
		{"sample size", strconv.Itoa(r.SampleSize)},
		{"number of groups", strconv.Itoa(r.Groups)},
		{"test statistic", format(r.Statistic)},
		{"p-value", format(r.P)},
		{"number of permutations", strconv.Itoa(r.Permutations)},
	})
	return cw.Error()
}
