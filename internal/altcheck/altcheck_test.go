// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package altcheck

import (
	"testing"

	"gopkg.in/check.v1"

	"github.com/tsnorri/vcf2multialign/internal/vcfx"
)

func Test(t *testing.T) { check.TestingT(t) }

type altcheckSuite struct{}

var _ = check.Suite(&altcheckSuite{})

func recordWithAlt(lineNo int, alt string) *vcfx.Record {
	data := []byte("chr1\t100\t.\tA\t" + alt + "\t.\tPASS\t.\tGT\t0/1\n")
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

func (s *altcheckSuite) TestParsePolicy(c *check.C) {
	_, ok := ParsePolicy("bogus")
	c.Check(ok, check.Equals, false)
	p, ok := ParsePolicy("discard")
	c.Assert(ok, check.Equals, true)
	c.Check(p, check.Equals, Discard)
}

func (s *altcheckSuite) TestKeepPolicyAcceptsEverything(c *check.C) {
	checker := NewChecker(Keep)
	rec := recordWithAlt(1, "<DEL>")
	c.Check(checker.CheckRecord(rec), check.Equals, false)
	c.Check(checker.IsValidAlt(1, 1), check.Equals, true)
}

func (s *altcheckSuite) TestDiscardPolicyRejectsAsteriskAndSymbolic(c *check.C) {
	checker := NewChecker(Discard)
	star := recordWithAlt(1, "*")
	c.Check(checker.CheckRecord(star), check.Equals, true)
	c.Check(checker.IsSkipped(1), check.Equals, true)

	sym := recordWithAlt(2, "<DUP>")
	c.Check(checker.CheckRecord(sym), check.Equals, true)

	bnd := recordWithAlt(3, "G]chr2:1000]")
	c.Check(checker.CheckRecord(bnd), check.Equals, true)

	ordinary := recordWithAlt(4, "G")
	c.Check(checker.CheckRecord(ordinary), check.Equals, false)
}

func (s *altcheckSuite) TestKeepAsterisksOnlyAcceptsStarRejectsSymbolic(c *check.C) {
	checker := NewChecker(KeepAsterisksOnly)
	star := recordWithAlt(1, "*")
	c.Check(checker.CheckRecord(star), check.Equals, false)
	c.Check(checker.IsValidAlt(1, 1), check.Equals, true)

	sym := recordWithAlt(2, "<INV>")
	c.Check(checker.CheckRecord(sym), check.Equals, true)
}

func (s *altcheckSuite) TestMixedValidAndInvalidAlts(c *check.C) {
	checker := NewChecker(Discard)
	rec := recordWithAlt(1, "G,*,<DEL>")
	c.Check(checker.CheckRecord(rec), check.Equals, false)
	c.Check(checker.IsValidAlt(1, 1), check.Equals, true)
	c.Check(checker.IsValidAlt(1, 2), check.Equals, false)
	c.Check(checker.IsValidAlt(1, 3), check.Equals, false)
}
