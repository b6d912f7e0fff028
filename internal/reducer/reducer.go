// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package reducer collapses per-(sample,copy) variant sequences within a
// subgraph down to a bounded number of generated paths, implementing
// distilled spec §4.6's variant-sequence lifecycle, canonicalisation, and
// assign_ranges_greedy slot packing, grounded on
// _examples/original_source/include/vcf2multialign/sample_reducer.hh.
package reducer

import (
	"sort"

	"github.com/tsnorri/vcf2multialign/internal/seqwriter"
)

// lineAlt is one (line-number, ALT-index) call recorded against a variant
// sequence, mirroring variant_sequence::m_alt_indices.
type lineAlt struct {
	Line int
	Alt  uint8
}

// VariantSequence is one (sample, copy)'s contiguous run of non-REF allele
// choices within a subgraph, per distilled spec §3's "Variant sequence":
// {start position, end position, mapping line-number -> ALT-index}. Start
// and End are measured in ALT call positions, not reference span — End is
// always one past the position of the most recent call, matching
// variant_sequence::add_alt's "m_end_pos = 1 + zero_based_pos".
type VariantSequence struct {
	Hap        seqwriter.Haplotype
	Start, End int
	Calls      []lineAlt
}

// equal reports whether two sequences are interchangeable for packing
// purposes: identical start position and an element-wise identical
// line-number -> ALT-index mapping, mirroring variant_sequence::equal_sequences.
func (s *VariantSequence) equal(o *VariantSequence) bool {
	if s.Start != o.Start || len(s.Calls) != len(o.Calls) {
		return false
	}
	for i := range s.Calls {
		if s.Calls[i] != o.Calls[i] {
			return false
		}
	}
	return true
}

// overlaps reports whether two sequences' [Start, End) ranges intersect.
func (s *VariantSequence) overlaps(o *VariantSequence) bool {
	return s.Start < o.End && o.Start < s.End
}

// lessForPacking orders prepared sequences by start position, breaking ties
// by lexicographic comparison of their line-number call sequence, per
// distilled spec §4.6's assign_ranges_greedy tie-break.
func lessForPacking(a, b *VariantSequence) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	for i := 0; i < len(a.Calls) && i < len(b.Calls); i++ {
		if a.Calls[i].Line != b.Calls[i].Line {
			return a.Calls[i].Line < b.Calls[i].Line
		}
		if a.Calls[i].Alt != b.Calls[i].Alt {
			return a.Calls[i].Alt < b.Calls[i].Alt
		}
	}
	return len(a.Calls) < len(b.Calls)
}

// Reducer accumulates one subgraph's per-(sample,copy) variant sequences as
// records are observed in line order, then packs the distinct sequences
// into a bounded set of generated paths on Finish.
type Reducer struct {
	startLine      int
	generatedPaths int

	live         map[seqwriter.Haplotype]*VariantSequence
	prepared     []*VariantSequence
	numRecords   int
	recIdxByLine map[int]int
}

// NewReducer returns a Reducer for the subgraph starting at startLine,
// packing into at most generatedPaths output slots.
func NewReducer(startLine, generatedPaths int) *Reducer {
	return &Reducer{
		startLine:      startLine,
		generatedPaths: generatedPaths,
		live:           make(map[seqwriter.Haplotype]*VariantSequence),
		recIdxByLine:   make(map[int]int),
	}
}

// Observe feeds one non-skipped record's classified allele choices (0 means
// REF, otherwise a 1-based ALT index already checked valid by the caller)
// through the variant-sequence lifecycle of distilled spec §4.6: a non-REF
// allele starts or extends a haplotype's live sequence; a REF allele closes
// it once the current position has passed the live sequence's end,
// resolving the "allow switch to REF mid-sequence" Open Question as always
// false, per SPEC_FULL.md §4.6.
func (r *Reducer) Observe(lineNo, pos int, choices map[seqwriter.Haplotype]uint8) {
	r.recIdxByLine[lineNo] = r.numRecords
	r.numRecords++

	for hap, alt := range choices {
		live := r.live[hap]
		if alt == 0 {
			if live != nil && pos >= live.End {
				r.closeAndPrepare(live)
				delete(r.live, hap)
			}
			continue
		}
		if live == nil {
			live = &VariantSequence{Hap: hap, Start: pos}
			r.live[hap] = live
		}
		live.Calls = append(live.Calls, lineAlt{Line: lineNo, Alt: alt})
		live.End = pos + 1
	}
}

// closeAndPrepare implements check_and_copy_seq_to_prepared: seq is folded
// onto an already-prepared sequence with identical content if one exists,
// otherwise appended as a new distinct sequence.
func (r *Reducer) closeAndPrepare(seq *VariantSequence) {
	for _, p := range r.prepared {
		if p.equal(seq) {
			return
		}
	}
	r.prepared = append(r.prepared, seq)
}

// Assignment is the result of reducing one subgraph: for each packed slot,
// the ALT-index chosen at every subgraph record position (0 meaning REF),
// so the writer can resolve a generated path's choice back to nucleotide
// bytes one record at a time.
type Assignment struct {
	StartLine int
	Paths     [][]byte
}

// Finish closes any sequences still live at the end of the subgraph, packs
// every distinct prepared sequence into generated-path slots via
// assign_ranges_greedy, and renders each slot's calls into a per-record
// ALT-index path. ok is false if packing needed more slots than
// generatedPaths allows, a fatal condition per SPEC_FULL.md §7.
func (r *Reducer) Finish() (*Assignment, bool) {
	for _, live := range r.live {
		r.closeAndPrepare(live)
	}
	r.live = nil

	rm := NewRangeMap()
	ordered := append([]*VariantSequence(nil), r.prepared...)
	sort.Slice(ordered, func(i, j int) bool { return lessForPacking(ordered[i], ordered[j]) })
	for _, seq := range ordered {
		rm.Assign(seq)
	}

	if rm.SlotCount() > r.generatedPaths {
		return nil, false
	}

	a := &Assignment{
		StartLine: r.startLine,
		Paths:     make([][]byte, rm.SlotCount()),
	}
	for slot, col := range rm.Columns {
		path := make([]byte, r.numRecords)
		for _, seq := range col {
			for _, call := range seq.Calls {
				path[r.recIdxByLine[call.Line]] = call.Alt
			}
		}
		a.Paths[slot] = path
	}
	return a, true
}
