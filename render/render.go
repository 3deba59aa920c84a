// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render draws ordination scatter plots and stacked abundance bar
// charts. The image format is chosen from the extension of the output
// path and may be any format supported by gonum.org/v1/plot.
package render

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/biogo/microbiome/diversity"
	"github.com/biogo/microbiome/table"
)

var (
	width  = 16 * vg.Centimeter
	height = 12 * vg.Centimeter
)

// Ordination writes a scatter plot of the first two axes of o to path.
// Samples are coloured by group and labelled with their property when o
// has been annotated.
func Ordination(o *diversity.Ordination, path string) error {
	if o.Axes() < 2 {
		return fmt.Errorf("render: ordination has %d axes", o.Axes())
	}
	p := plot.New()
	p.Title.Text = "PCoA"
	p.X.Label.Text = fmt.Sprintf("PC1 (%.1f%%)", 100*o.Proportion[0])
	p.Y.Label.Text = fmt.Sprintf("PC2 (%.1f%%)", 100*o.Proportion[1])
	p.Add(plotter.NewGrid())

	groups := o.Groups
	if groups == nil {
		groups = make([]string, len(o.Samples))
	}
	var levels []string
	points := make(map[string]plotter.XYs)
	for i, g := range groups {
		if _, ok := points[g]; !ok {
			levels = append(levels, g)
		}
		points[g] = append(points[g], plotter.XY{X: o.Coords[i][0], Y: o.Coords[i][1]})
	}
	for k, g := range levels {
		s, err := plotter.NewScatter(points[g])
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		s.GlyphStyle.Color = plotutil.Color(k)
		s.GlyphStyle.Shape = plotutil.Shape(k)
		p.Add(s)
		if g != "" {
			p.Legend.Add(g, s)
		}
	}

	var labelled bool
	for _, prop := range o.Properties {
		if prop != "" {
			labelled = true
			break
		}
	}
	if labelled {
		xyl := plotter.XYLabels{Labels: o.Properties}
		for _, c := range o.Coords {
			xyl.XYs = append(xyl.XYs, plotter.XY{X: c[0], Y: c[1]})
		}
		l, err := plotter.NewLabels(xyl)
		if err != nil {
			return fmt.Errorf("render: %w", err)
		}
		p.Add(l)
	}
	p.Legend.Top = true

	return p.Save(width, height, path)
}

// Stacked writes a bar chart of s to path with one bar per sample and
// one stacked segment per label.
func Stacked(s *table.Summary, title, ylabel, path string) error {
	if len(s.Labels) == 0 {
		return errors.New("render: no series to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = ylabel

	bw := vg.Points(20)
	var below *plotter.BarChart
	for i, label := range s.Labels {
		v := make(plotter.Values, len(s.Samples))
		for j, x := range s.Counts[i] {
			if !math.IsNaN(x) {
				v[j] = x
			}
		}
		b, err := plotter.NewBarChart(v, bw)
		if err != nil {
			return fmt.Errorf("render: %s: %w", label, err)
		}
		b.LineStyle.Width = 0
		b.Color = plotutil.Color(i)
		if below != nil {
			b.StackOn(below)
		}
		p.Add(b)
		p.Legend.Add(label, b)
		below = b
	}
	p.NominalX(s.Samples...)
	p.Legend.Top = true
	p.Legend.Left = false

	w := width
	if need := vg.Length(len(s.Samples)) * 1.5 * bw; need > w {
		w = need
	}
	return p.Save(w, height, path)
}
