// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package reducer

import (
	"testing"

	"gopkg.in/check.v1"

	"github.com/tsnorri/vcf2multialign/internal/seqwriter"
)

func Test(t *testing.T) { check.TestingT(t) }

type reducerSuite struct{}

var _ = check.Suite(&reducerSuite{})

// TestRangeMapPacksNonOverlappingIntervals is distilled spec §8 scenario 6:
// three variant sequences with intervals [10,20], [15,25], [30,40] must
// pack into exactly two overlap-tested slot columns, {[10,20], [30,40]} and
// {[15,25]}.
func (s *reducerSuite) TestRangeMapPacksNonOverlappingIntervals(c *check.C) {
	a := &VariantSequence{Start: 10, End: 20}
	b := &VariantSequence{Start: 15, End: 25}
	d := &VariantSequence{Start: 30, End: 40}

	m := NewRangeMap()
	slotA := m.Assign(a)
	slotB := m.Assign(b)
	slotD := m.Assign(d)

	c.Check(m.SlotCount(), check.Equals, 2)
	c.Check(slotA, check.Equals, 0)
	c.Check(slotB, check.Equals, 1)
	c.Check(slotD, check.Equals, 0)
	c.Check(m.Columns[0][a.Start], check.Equals, a)
	c.Check(m.Columns[0][d.Start], check.Equals, d)
	c.Check(m.Columns[1][b.Start], check.Equals, b)
}

func (s *reducerSuite) TestReduceCollapsesIdenticalSequences(c *check.C) {
	r := NewReducer(10, 2)
	hapA := seqwriter.Haplotype{Sample: 1, Copy: 0}
	hapB := seqwriter.Haplotype{Sample: 1, Copy: 1}
	hapC := seqwriter.Haplotype{Sample: 2, Copy: 0}

	// Three records at positions 5, 6, 7: hapA and hapC pick the identical
	// run of ALTs and must collapse onto one generated path; hapB stays on
	// REF throughout and needs no slot at all.
	r.Observe(11, 5, map[seqwriter.Haplotype]uint8{hapA: 1, hapB: 0, hapC: 1})
	r.Observe(12, 6, map[seqwriter.Haplotype]uint8{hapA: 1, hapB: 0, hapC: 1})
	r.Observe(13, 7, map[seqwriter.Haplotype]uint8{hapA: 0, hapB: 0, hapC: 0})

	a, ok := r.Finish()
	c.Assert(ok, check.Equals, true)
	c.Check(a.StartLine, check.Equals, 10)
	c.Assert(len(a.Paths), check.Equals, 1)
	c.Check(a.Paths[0], check.DeepEquals, []byte{1, 1, 0})
}

func (s *reducerSuite) TestReduceSeparatesDivergentSequences(c *check.C) {
	r := NewReducer(0, 2)
	hapA := seqwriter.Haplotype{Sample: 1, Copy: 0}
	hapB := seqwriter.Haplotype{Sample: 2, Copy: 0}

	r.Observe(1, 0, map[seqwriter.Haplotype]uint8{hapA: 1, hapB: 2})
	r.Observe(2, 1, map[seqwriter.Haplotype]uint8{hapA: 0, hapB: 0})

	a, ok := r.Finish()
	c.Assert(ok, check.Equals, true)
	c.Assert(len(a.Paths), check.Equals, 2)

	sawOne, sawTwo := false, false
	for _, path := range a.Paths {
		c.Assert(len(path), check.Equals, 2)
		switch path[0] {
		case 1:
			sawOne = true
		case 2:
			sawTwo = true
		}
	}
	c.Check(sawOne, check.Equals, true)
	c.Check(sawTwo, check.Equals, true)
}

func (s *reducerSuite) TestReduceFailsWhenPathCountExceedsBudget(c *check.C) {
	r := NewReducer(0, 1)
	hapA := seqwriter.Haplotype{Sample: 1, Copy: 0}
	hapB := seqwriter.Haplotype{Sample: 2, Copy: 0}

	// Overlapping ALT calls at the same position force two distinct,
	// mutually overlapping sequences: assign_ranges_greedy needs two slots,
	// exceeding the configured budget of one.
	r.Observe(1, 0, map[seqwriter.Haplotype]uint8{hapA: 1, hapB: 2})

	_, ok := r.Finish()
	c.Check(ok, check.Equals, false)
}

func (s *reducerSuite) TestRefBeforeSequenceEndDoesNotClose(c *check.C) {
	r := NewReducer(0, 2)
	hap := seqwriter.Haplotype{Sample: 1, Copy: 0}

	// Two records share POS 5 (e.g. a SNP and an indel called at the same
	// site): the ALT call sets end=6, so the second record's REF call at
	// the same position 5 is still strictly before end and must not close
	// the live sequence. The third record's REF at position 6 is at last
	// past end and closes it.
	r.Observe(1, 5, map[seqwriter.Haplotype]uint8{hap: 1})
	r.Observe(2, 5, map[seqwriter.Haplotype]uint8{hap: 0})
	r.Observe(3, 6, map[seqwriter.Haplotype]uint8{hap: 0})

	a, ok := r.Finish()
	c.Assert(ok, check.Equals, true)
	c.Assert(len(a.Paths), check.Equals, 1)
	c.Check(a.Paths[0], check.DeepEquals, []byte{1, 0, 0})
}
