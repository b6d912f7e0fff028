// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package altcheck classifies VCF ALT alleles as valid or skippable
// according to the configured structural-variant handling policy,
// implementing distilled spec §4.2, grounded on
// _examples/original_source/src/preparation_task.cc's use of alt_checker.
package altcheck

import "github.com/tsnorri/vcf2multialign/internal/vcfx"

// Policy is the SV-handling policy named in distilled spec §4.2.
type Policy int

const (
	// Keep accepts every ALT, including symbolic and breakend alleles.
	Keep Policy = iota
	// Discard rejects '*', symbolic ('<...>') and breakend ALTs.
	Discard
	// KeepAsterisksOnly accepts '*' ALTs but rejects symbolic and
	// breakend ALTs.
	KeepAsterisksOnly
)

// ParsePolicy maps the CLI spelling of a policy to a Policy value.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "keep":
		return Keep, true
	case "discard":
		return Discard, true
	case "keep-asterisks-only":
		return KeepAsterisksOnly, true
	default:
		return 0, false
	}
}

// Checker accumulates the skipped-variant set and alt-validity map of
// distilled spec §3 as records are checked.
type Checker struct {
	policy  Policy
	skipped map[int]struct{}
	valid   map[int]uint64 // lineNo -> bitset, bit i set means ALT index i is valid
}

// NewChecker returns a Checker applying policy.
func NewChecker(policy Policy) *Checker {
	return &Checker{
		policy:  policy,
		skipped: make(map[int]struct{}),
		valid:   make(map[int]uint64),
	}
}

// isAltValid reports whether a single ALT string is acceptable under
// policy, implementing distilled spec §4.2's three rejection rules.
func isAltValid(policy Policy, alt []byte) bool {
	switch {
	case len(alt) == 1 && alt[0] == '*':
		return policy != Discard
	case len(alt) > 0 && alt[0] == '<':
		return policy == Keep
	case containsBreakend(alt):
		return policy == Keep
	default:
		return true
	}
}

func containsBreakend(alt []byte) bool {
	for _, b := range alt {
		if b == '[' || b == ']' {
			return true
		}
	}
	return false
}

// CheckRecord validates every ALT of rec, updating the skipped set and
// validity bitset, and reports whether every ALT was invalid (i.e. the
// record was added to the skipped set).
func (c *Checker) CheckRecord(rec *vcfx.Record) bool {
	alts := rec.Alt()
	var bitset uint64
	anyValid := false
	for i, alt := range alts {
		altIdx := i + 1 // ALT index 1 is the first ALT, per distilled spec §3.
		if isAltValid(c.policy, alt) {
			bitset |= 1 << uint(altIdx)
			anyValid = true
		}
	}
	c.valid[rec.LineNo] = bitset
	if !anyValid {
		c.skipped[rec.LineNo] = struct{}{}
		return true
	}
	return false
}

// IsSkipped reports whether lineNo was added to the skipped set.
func (c *Checker) IsSkipped(lineNo int) bool {
	_, ok := c.skipped[lineNo]
	return ok
}

// IsValidAlt reports whether altIdx is marked valid for lineNo. A line that
// was never checked (e.g. because the whole record lies outside the
// subgraph currently being processed) reports every ALT as invalid.
func (c *Checker) IsValidAlt(lineNo int, altIdx uint8) bool {
	return c.valid[lineNo]&(1<<uint(altIdx)) != 0
}

// SkippedCount returns the number of skipped records.
func (c *Checker) SkippedCount() int { return len(c.skipped) }

// SkipSet exposes the underlying skipped-line-number set for callers that
// want the map itself rather than one IsSkipped lookup per line.
func (c *Checker) SkipSet() map[int]struct{} { return c.skipped }
