// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package subgraph locates the cut points that partition a VCF's variant
// stream into disjoint subgraphs, implementing distilled spec §4.3,
// grounded on the find_subgraph_starting_points entry point referenced
// from _examples/original_source/src/preparation_task.cc.
package subgraph

import "github.com/tsnorri/vcf2multialign/internal/vcfx"

// StartingPoint is a subgraph cut point: a byte offset in the VCF source
// together with the line number of the record that begins the next
// subgraph, per distilled spec §3.
type StartingPoint struct {
	Offset int64
	LineNo int
}

// openInterval tracks one still-open non-skipped variant's [pos, end], with
// end inclusive as vcfx.Record.End returns it, used
// by Finder to decide when the running set of open variants has drained.
type openInterval struct {
	pos, end int
}

// Finder scans variant records in POS order and emits subgraph starting
// points wherever no unresolved overlap crosses the boundary, implementing
// distilled spec §4.3's running-multiset algorithm. VCF is assumed sorted
// by POS (distilled spec §1 Non-goals), so open intervals can be kept in a
// plain slice, filtered on every record, rather than a full interval tree.
type Finder struct {
	minPathLength int
	open          []openInterval
	maxEndSeen    int
	lastCutOffset int64
	haveFirstCut  bool
	points        []StartingPoint
}

// NewFinder returns a Finder that will only emit a starting point once at
// least minPathLength bytes of VCF source separate it from the previous
// one, per distilled spec §4.3.
func NewFinder(minPathLength int) *Finder {
	return &Finder{minPathLength: minPathLength}
}

// Observe feeds one non-skipped record (skipped records, per distilled
// spec §4.3, simply never open an interval) at byte offset
// offsetAfterRecord (the reader's position immediately after consuming the
// record's line) to the finder.
func (f *Finder) Observe(rec *vcfx.Record, offsetAfterRecord int64) {
	pos, end := rec.Pos(), rec.End()

	// Drop open intervals that have closed strictly before this record's
	// position; track the furthest END seen among those still relevant.
	kept := f.open[:0]
	for _, iv := range f.open {
		if iv.end > pos {
			kept = append(kept, iv)
		}
	}
	f.open = kept

	noOverlapCrosses := len(f.open) == 0 && f.maxEndSeen <= pos
	if noOverlapCrosses {
		f.maybeEmit(rec.LineNo, offsetAfterRecord)
	}

	f.open = append(f.open, openInterval{pos: pos, end: end})
	if end > f.maxEndSeen {
		f.maxEndSeen = end
	}
}

func (f *Finder) maybeEmit(lineNo int, offset int64) {
	if !f.haveFirstCut {
		// The first point is implicit at the first data line, per
		// distilled spec §3; it is not recorded as a cut point here,
		// it is the pipeline's starting boundary by construction.
		f.haveFirstCut = true
		f.lastCutOffset = offset
		return
	}
	if offset-f.lastCutOffset >= int64(f.minPathLength) {
		f.points = append(f.points, StartingPoint{Offset: offset, LineNo: lineNo})
		f.lastCutOffset = offset
	}
}

// StartingPoints returns the accumulated starting points, excluding the
// implicit first point and the implicit final point at EOF (distilled
// spec §3: "The first point is implicit at the first data line; the last
// subgraph runs to EOF").
func (f *Finder) StartingPoints() []StartingPoint {
	return f.points
}
