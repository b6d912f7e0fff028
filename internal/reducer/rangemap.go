// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package reducer

// RangeMap is the compressed range map of distilled spec §3: an ordered
// sequence of slot columns, each a set of variant sequences keyed by start
// position, with the invariant that no two sequences assigned to the same
// column have overlapping [start, end) ranges.
type RangeMap struct {
	Columns []map[int]*VariantSequence
}

// NewRangeMap returns an empty RangeMap.
func NewRangeMap() *RangeMap {
	return &RangeMap{}
}

// Assign implements assign_ranges_greedy for a single prepared sequence:
// scan the columns from slot 0 upward and place seq in the first one whose
// assigned sequences do not overlap it, extending the map with a fresh
// column if none fit. Callers must present sequences in the tie-broken
// start order distilled spec §4.6 requires for deterministic packing.
func (m *RangeMap) Assign(seq *VariantSequence) int {
	for i, col := range m.Columns {
		if !overlapsAny(col, seq) {
			col[seq.Start] = seq
			return i
		}
	}
	i := len(m.Columns)
	m.Columns = append(m.Columns, map[int]*VariantSequence{seq.Start: seq})
	return i
}

// SlotCount returns the number of columns currently in use.
func (m *RangeMap) SlotCount() int { return len(m.Columns) }

func overlapsAny(col map[int]*VariantSequence, seq *VariantSequence) bool {
	for _, existing := range col {
		if existing.overlaps(seq) {
			return true
		}
	}
	return false
}
