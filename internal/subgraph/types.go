// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package subgraph

import "sort"

// Reduced is the reduced subgraph of distilled spec §3: a maximal
// contiguous run of variants, stored once per distinct haplotype path
// observed through it.
type Reduced struct {
	StartLine    int
	VariantCount int
	// Paths holds one byte string per distinct path; Paths[p][i] is the
	// chosen ALT index of the i-th variant in this subgraph for path p.
	Paths [][]byte
}

// PathCount reports how many distinct paths this subgraph has.
func (r *Reduced) PathCount() int { return len(r.Paths) }

// PathSequence returns the ALT-index byte string for path index p.
func (r *Reduced) PathSequence(p int) []byte { return r.Paths[p] }

// Builder accumulates distinct per-(sample,copy) ALT-choice sequences for
// one subgraph and produces a Reduced with deterministic path ordering.
type Builder struct {
	startLine    int
	variantCount int
	seen         map[string]int // sequence bytes -> path index
	order        [][]byte
}

// NewBuilder returns a Builder for a subgraph starting at startLine and
// spanning variantCount variants.
func NewBuilder(startLine, variantCount int) *Builder {
	return &Builder{
		startLine:    startLine,
		variantCount: variantCount,
		seen:         make(map[string]int),
	}
}

// AddPath registers one haplotype's ALT-choice sequence (length
// variantCount) and returns its path index, deduplicating identical
// sequences exactly as distilled spec §3 requires for variant sequences.
func (b *Builder) AddPath(seq []byte) int {
	key := string(seq)
	if idx, ok := b.seen[key]; ok {
		return idx
	}
	idx := len(b.order)
	cp := append([]byte(nil), seq...)
	b.order = append(b.order, cp)
	b.seen[key] = idx
	return idx
}

// Build finalizes the subgraph. Paths are sorted lexicographically by
// byte-string for determinism (distilled spec §9: "determinism requires a
// fixed tie-break (lexicographic by path byte-string)"), and AddPath's
// returned indices are remapped accordingly.
func (b *Builder) Build() (*Reduced, []int) {
	order := make([]int, len(b.order))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return string(b.order[order[i]]) < string(b.order[order[j]])
	})
	remap := make([]int, len(order))
	paths := make([][]byte, len(order))
	for newIdx, oldIdx := range order {
		remap[oldIdx] = newIdx
		paths[newIdx] = b.order[oldIdx]
	}
	return &Reduced{
		StartLine:    b.startLine,
		VariantCount: b.variantCount,
		Paths:        paths,
	}, remap
}
