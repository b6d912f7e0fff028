// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package vcfx

import (
	"testing"

	"gopkg.in/check.v1"
)

func Test(t *testing.T) { check.TestingT(t) }

type vcfxSuite struct{}

var _ = check.Suite(&vcfxSuite{})

const testVCF = "##fileformat=VCFv4.2\n" +
	"##contig=<ID=chr1>\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tsampleA\tsampleB\n" +
	"chr1\t100\t.\tA\tG,T\t.\tPASS\t.\tGT\t0/1\t1|2\n" +
	"chr1\t200\t.\tAT\t*\t.\tPASS\t.\tGT\t0/1\t0/0\n"

func (s *vcfxSuite) TestReadHeaderParsesSampleNames(c *check.C) {
	r := NewReader([]byte(testVCF))
	c.Assert(r.ReadHeader(), check.IsNil)
	c.Check(r.SampleOrder(), check.DeepEquals, []string{"sampleA", "sampleB"})
	c.Check(r.SampleNames()["sampleA"], check.Equals, 1)
	c.Check(r.SampleNames()["sampleB"], check.Equals, 2)
}

func (s *vcfxSuite) TestParseRecordsLazyFields(c *check.C) {
	r := NewReader([]byte(testVCF))
	c.Assert(r.ReadHeader(), check.IsNil)

	var lines []int
	eof := r.Parse(func(rec *Record) bool {
		lines = append(lines, rec.LineNo)
		switch len(lines) {
		case 1:
			c.Check(rec.Pos(), check.Equals, 100)
			c.Check(string(rec.Ref), check.Equals, "A")
			c.Check(rec.Alt(), check.DeepEquals, [][]byte{[]byte("G"), []byte("T")})
			entryA, err := rec.GenotypeOf(1)
			c.Assert(err, check.IsNil)
			c.Check(entryA.Alleles, check.DeepEquals, []uint8{0, 1})
			c.Check(entryA.Phased, check.Equals, false)
			entryB, err := rec.GenotypeOf(2)
			c.Assert(err, check.IsNil)
			c.Check(entryB.Alleles, check.DeepEquals, []uint8{1, 2})
			c.Check(entryB.Phased, check.Equals, true)
		case 2:
			c.Check(rec.Pos(), check.Equals, 200)
			c.Check(rec.End(), check.Equals, 201)
			c.Check(rec.Alt(), check.DeepEquals, [][]byte{[]byte("*")})
		}
		return true
	})
	c.Check(eof, check.Equals, false)
	c.Check(lines, check.DeepEquals, []int{4, 5})
}

func (s *vcfxSuite) TestGenotypeOfOutOfRangeSample(c *check.C) {
	r := NewReader([]byte(testVCF))
	c.Assert(r.ReadHeader(), check.IsNil)
	r.Parse(func(rec *Record) bool {
		_, err := rec.GenotypeOf(99)
		c.Check(err, check.NotNil)
		return false
	})
}

func (s *vcfxSuite) TestSetRangeRestrictsParsing(c *check.C) {
	r := NewReader([]byte(testVCF))
	c.Assert(r.ReadHeader(), check.IsNil)

	firstOffset := r.Offset()
	r.Parse(func(rec *Record) bool { return false })
	secondOffset := r.Offset()
	c.Check(secondOffset > firstOffset, check.Equals, true)

	r.SetRange(secondOffset, len(testVCF), 5)
	var count int
	r.Parse(func(rec *Record) bool {
		count++
		c.Check(rec.Pos(), check.Equals, 200)
		return true
	})
	c.Check(count, check.Equals, 1)
}
