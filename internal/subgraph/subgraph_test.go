// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package subgraph

import (
	"testing"

	"gopkg.in/check.v1"

	"github.com/tsnorri/vcf2multialign/internal/vcfx"
)

func Test(t *testing.T) { check.TestingT(t) }

type subgraphSuite struct{}

var _ = check.Suite(&subgraphSuite{})

func recordAt(lineNo, pos, refLen int) *vcfx.Record {
	ref := make([]byte, refLen)
	for i := range ref {
		ref[i] = 'A'
	}
	data := []byte("chr1\t" +
		itoa(pos) + "\t.\t" + string(ref) + "\tG\t.\tPASS\t.\tGT\t0/1\n")
	r := vcfx.NewReader(data)
	var rec *vcfx.Record
	r.Parse(func(rc *vcfx.Record) bool {
		cp := *rc
		cp.LineNo = lineNo
		rec = &cp
		return false
	})
	return rec
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

func (s *subgraphSuite) TestFinderNoOverlapEmitsEveryOther(c *check.C) {
	f := NewFinder(0)
	// Non-overlapping records far apart: every boundary after the first
	// is a candidate starting point.
	f.Observe(recordAt(1, 100, 1), 10)
	f.Observe(recordAt(2, 200, 1), 20)
	f.Observe(recordAt(3, 300, 1), 30)

	pts := f.StartingPoints()
	c.Assert(pts, check.HasLen, 2)
	c.Check(pts[0], check.Equals, StartingPoint{Offset: 20, LineNo: 2})
	c.Check(pts[1], check.Equals, StartingPoint{Offset: 30, LineNo: 3})
}

func (s *subgraphSuite) TestFinderOverlapSuppressesCut(c *check.C) {
	f := NewFinder(0)
	f.Observe(recordAt(1, 100, 10), 10) // covers [100,109]
	f.Observe(recordAt(2, 105, 1), 20)  // starts inside the first: no cut
	f.Observe(recordAt(3, 200, 1), 30)  // clear of both: cut point

	pts := f.StartingPoints()
	c.Assert(pts, check.HasLen, 1)
	c.Check(pts[0].LineNo, check.Equals, 3)
}

func (s *subgraphSuite) TestFinderMinPathLengthGatesEmission(c *check.C) {
	f := NewFinder(50)
	f.Observe(recordAt(1, 100, 1), 10)
	f.Observe(recordAt(2, 200, 1), 30) // only 20 bytes past first cut: suppressed
	f.Observe(recordAt(3, 300, 1), 80) // 70 bytes past: emitted

	pts := f.StartingPoints()
	c.Assert(pts, check.HasLen, 1)
	c.Check(pts[0].LineNo, check.Equals, 3)
}

func (s *subgraphSuite) TestBuilderDedupsAndSortsPaths(c *check.C) {
	b := NewBuilder(42, 3)
	i0 := b.AddPath([]byte{1, 0, 2})
	i1 := b.AddPath([]byte{0, 0, 0})
	i2 := b.AddPath([]byte{1, 0, 2}) // duplicate of i0
	c.Check(i2, check.Equals, i0)
	c.Check(i1 != i0, check.Equals, true)

	reduced, remap := b.Build()
	c.Check(reduced.StartLine, check.Equals, 42)
	c.Check(reduced.VariantCount, check.Equals, 3)
	c.Assert(reduced.PathCount(), check.Equals, 2)
	c.Check(reduced.PathSequence(0), check.DeepEquals, []byte{0, 0, 0})
	c.Check(reduced.PathSequence(1), check.DeepEquals, []byte{1, 0, 2})
	c.Check(remap[i1], check.Equals, 0)
	c.Check(remap[i0], check.Equals, 1)
}
