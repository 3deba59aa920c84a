// Copyright ©2024 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	check "gopkg.in/check.v1"

	"github.com/biogo/microbiome/table"
	"github.com/biogo/microbiome/taxonomy"
	"github.com/biogo/microbiome/taxonomy/taxonomytest"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

const (
	sampleA = "#Datasets\ta\n" +
		"#Total reads\t11\n" +
		"TaxID\tReads\tWeight\n" +
		"9606\t10\t0.9\n" +
		"511145\t1\t0.1\n"
	sampleB = "#Datasets\tb\n" +
		"#Total reads\t6\n" +
		"TaxID\tReads\tWeight\n" +
		"9606\t4\t0.7\n" +
		"1678\t2\t0.3\n"

	imported = "Taxa\ta\tb\n" +
		"1678\t\t2\n" +
		"9606\t10\t4\n" +
		"511145\t1\t\n"

	cohort = "Taxa\ts1\ts2\ts3\ts4\ts5\ts6\n" +
		"9606\t10\t11\t12\t30\t31\t33\n" +
		"511145\t5\t6\t5\t1\t0\t2\n" +
		"1678\t1\t2\t1\t8\t9\t7\n"
	twoGroups = "SampleID\tGroup\tProperty\n" +
		"s1\tA\tday1\n" +
		"s2\tA\tday2\n" +
		"s3\tA\tday3\n" +
		"s4\tB\tday1\n" +
		"s5\tB\tday2\n" +
		"s6\tB\tday3\n"
	threeGroups = "SampleID\tGroup\tProperty\n" +
		"s1\tA\t\n" +
		"s2\tA\t\n" +
		"s3\tB\t\n" +
		"s4\tB\t\n" +
		"s5\tC\t\n" +
		"s6\tC\t\n"

	humanRow = "OTU2\tEukaryota\tChordata\tMammalia\tPrimates\tHominidae\tHomo\tHomo sapiens\n"
)

func run(auth taxonomy.Authority, args ...string) (string, error) {
	cmd := newRootCommand(auth)
	var out, errs bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errs)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(c *check.C, dir, name, content string) string {
	path := filepath.Join(dir, name)
	c.Assert(os.WriteFile(path, []byte(content), 0o644), check.IsNil)
	return path
}

func writeGzip(c *check.C, dir, name, content string) string {
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	c.Assert(err, check.IsNil)
	gz := pgzip.NewWriter(f)
	_, err = gz.Write([]byte(content))
	c.Assert(err, check.IsNil)
	c.Assert(gz.Close(), check.IsNil)
	c.Assert(f.Close(), check.IsNil)
	return path
}

func (s *S) TestImport(c *check.C) {
	dir := c.MkDir()
	a := writeFile(c, dir, "a.tsv", sampleA)
	b := writeGzip(c, dir, "b.tsv.gz", sampleB)

	out, err := run(nil, "import", a, b)
	c.Assert(err, check.IsNil)
	c.Check(out, check.Equals, imported)

	merged := filepath.Join(dir, "merged.tsv")
	_, err = run(nil, "import", "--out", merged, b, a)
	c.Assert(err, check.IsNil)
	got, err := os.ReadFile(merged)
	c.Assert(err, check.IsNil)
	c.Check(string(got), check.Equals, "Taxa\tb\ta\n"+
		"1678\t2\t\n"+
		"9606\t4\t10\n"+
		"511145\t\t1\n")

	_, err = run(nil, "import", filepath.Join(dir, "missing.tsv"))
	c.Check(os.IsNotExist(err), check.Equals, true)
	c.Check(sampleName("/data/Alice00.report.tsv.gz"), check.Equals, "Alice00")
}

func (s *S) TestLineage(c *check.C) {
	dir := c.MkDir()
	in := writeFile(c, dir, "merged.tsv", imported)

	out, err := run(taxonomytest.Fixture(), "lineage", "-i", in)
	c.Assert(err, check.IsNil)
	lines := strings.Split(out, "\n")
	c.Check(lines[0], check.Equals, "\tKingdom\tPhylum\tClass\tOrder\tFamily\tGenus\tSpecies")
	c.Check(strings.Contains(out, humanRow), check.Equals, true, check.Commentf("%s", out))

	_, err = run(nil, "lineage", "-i", in)
	c.Check(err, check.ErrorMatches, "taxonomy: entrez requires an email address")
}

func (s *S) TestTaxdumpAuthority(c *check.C) {
	dir := c.MkDir()
	nodes, names := taxonomytest.Dump(taxonomytest.Fixture())
	n := writeFile(c, dir, "nodes.dmp", nodes)
	m := writeGzip(c, dir, "names.dmp.gz", names)
	db := filepath.Join(dir, "taxa.db")
	_, err := run(nil, "taxdump", "--nodes", n, "--names", m, "--out", db)
	c.Assert(err, check.IsNil)

	in := writeFile(c, dir, "merged.tsv", imported)
	want, err := run(taxonomytest.Fixture(), "lineage", "-i", in)
	c.Assert(err, check.IsNil)

	got, err := run(nil, "--taxonomy", db, "lineage", "-i", in)
	c.Assert(err, check.IsNil)
	c.Check(got, check.Equals, want)

	cfg := writeFile(c, dir, "mda.yaml", "taxonomy: "+db+"\nverbose: true\n")
	got, err = run(nil, "--config", cfg, "lineage", "-i", in)
	c.Assert(err, check.IsNil)
	c.Check(got, check.Equals, want)

	_, err = run(nil, "taxdump", "--nodes", n)
	c.Check(err, check.NotNil)
}

func (s *S) TestBeta(c *check.C) {
	in := writeFile(c, c.MkDir(), "merged.tsv", imported)
	out, err := run(nil, "beta", "-i", in)
	c.Assert(err, check.IsNil)
	c.Check(out, check.Equals, "\ta\tb\na\t0\t0.428571\nb\t0.428571\t0\n")
}

func (s *S) TestPCoA(c *check.C) {
	dir := c.MkDir()
	in := writeFile(c, dir, "cohort.tsv", cohort)
	meta := writeFile(c, dir, "meta.tsv", twoGroups)
	plot := filepath.Join(dir, "pcoa.png")
	out, err := run(nil, "pcoa", "-i", in, "-m", meta, "--plot", plot)
	c.Assert(err, check.IsNil)
	lines := strings.Split(out, "\n")
	c.Check(lines[0], check.Equals, "SampleID\tPC1\tPC2\tGroup\tProperty")
	c.Check(strings.HasSuffix(lines[1], "\tA\tday1"), check.Equals, true, check.Commentf("%q", lines[1]))
	_, err = os.Stat(plot)
	c.Check(err, check.IsNil)

	_, err = run(nil, "pcoa", "-i", in)
	c.Check(err, check.ErrorMatches, "no metadata file given")
}

func (s *S) TestGroupTests(c *check.C) {
	dir := c.MkDir()
	in := writeFile(c, dir, "cohort.tsv", cohort)
	two := writeFile(c, dir, "two.tsv", twoGroups)
	three := writeFile(c, dir, "three.tsv", threeGroups)

	for _, kind := range []string{"ttest", "anova", "kruskal", "wilcoxon"} {
		out, err := run(nil, "test", "-k", kind, "-i", in, "-m", two)
		c.Assert(err, check.IsNil, check.Commentf("%s", kind))
		lines := strings.Split(strings.TrimSpace(out), "\n")
		c.Check(lines, check.HasLen, 4, check.Commentf("%s", kind))
		c.Check(strings.HasPrefix(lines[1], "OTU1\t"), check.Equals, true)
	}

	_, err := run(nil, "test", "-k", "wilcoxon", "-i", in, "-m", three)
	c.Check(err, check.ErrorMatches, ".*exactly two groups required.*")
	_, err = run(nil, "test", "-k", "anova", "-i", in, "-m", three)
	c.Check(err, check.IsNil)
	_, err = run(nil, "test", "-k", "chisq", "-i", in, "-m", two)
	c.Check(err, check.ErrorMatches, `groupstat: unknown test "chisq"`)
}

func (s *S) TestPermanova(c *check.C) {
	dir := c.MkDir()
	in := writeFile(c, dir, "cohort.tsv", cohort)
	meta := writeFile(c, dir, "meta.tsv", twoGroups)

	first, err := run(nil, "permanova", "-i", in, "-m", meta, "--permutations", "99", "--seed", "7")
	c.Assert(err, check.IsNil)
	second, err := run(nil, "permanova", "-i", in, "-m", meta, "--permutations", "99", "--seed", "7")
	c.Assert(err, check.IsNil)
	c.Check(first, check.Equals, second)
	c.Check(strings.Contains(first, "number of permutations\t99\n"), check.Equals, true)
	c.Check(strings.Contains(first, "sample size\t6\n"), check.Equals, true)
}

func (s *S) TestSampleMismatch(c *check.C) {
	dir := c.MkDir()
	stray := writeFile(c, dir, "stray.tsv", "Taxa\ts1\ts2\ts3\ts4\ts5\ts6\tstray\n"+
		"9606\t10\t11\t12\t30\t31\t33\t5\n"+
		"511145\t5\t6\t5\t1\t0\t2\t5\n"+
		"1678\t1\t2\t1\t8\t9\t7\t5\n")
	in := writeFile(c, dir, "cohort.tsv", cohort)
	meta := writeFile(c, dir, "meta.tsv", twoGroups)
	ghost := writeFile(c, dir, "ghost.tsv", twoGroups+"ghost\tB\tday4\n")

	for _, t := range []struct{ in, meta string }{
		{in: stray, meta: ghost},
		{in: stray, meta: meta},
		{in: in, meta: ghost},
	} {
		for _, args := range [][]string{
			{"test", "-k", "ttest"},
			{"permanova", "--permutations", "9", "--seed", "1"},
			{"pcoa"},
		} {
			_, err := run(nil, append(args, "-i", t.in, "-m", t.meta)...)
			c.Check(errors.Is(err, table.ErrSampleMismatch), check.Equals, true,
				check.Commentf("%v %s %s: %v", args, filepath.Base(t.in), filepath.Base(t.meta), err))
		}
	}
}

func (s *S) TestAbundance(c *check.C) {
	dir := c.MkDir()
	in := writeFile(c, dir, "cohort.tsv", cohort)
	fix := taxonomytest.Fixture()

	out, err := run(fix, "rank", "-i", in, "-r", "kingdom", "--plot", filepath.Join(dir, "kingdom.svg"))
	c.Assert(err, check.IsNil)
	c.Check(out, check.Equals, "\ts1\ts2\ts3\ts4\ts5\ts6\n"+
		"Bacteria\t6\t8\t6\t9\t9\t9\n"+
		"Eukaryota\t10\t11\t12\t30\t31\t33\n")
	_, err = os.Stat(filepath.Join(dir, "kingdom.svg"))
	c.Check(err, check.IsNil)

	_, err = run(fix, "rank", "-i", in, "-r", "tribe")
	c.Check(err, check.ErrorMatches, `taxonomy: "tribe" is not a major rank`)

	out, err = run(fix, "top", "-i", in, "-n", "1")
	c.Assert(err, check.IsNil)
	c.Check(out, check.Equals, "\tOTU\ts1\ts2\ts3\ts4\ts5\ts6\n"+
		"Homo sapiens\tOTU1\t10\t11\t12\t30\t31\t33\n")
}
