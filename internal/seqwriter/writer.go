// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package seqwriter implements the overlap-stack algorithm that turns a
// stream of classified variants plus a reference sequence into one output
// byte stream per haplotype, implementing distilled spec §4.5, grounded on
// _examples/original_source/include/vcf2multialign/sequence_writer.hh.
package seqwriter

import (
	"sort"
)

// DefaultNullAllele is the padding byte written when no override is
// configured, per distilled spec §6's "null-allele byte ... default '-'".
var DefaultNullAllele = []byte{'-'}

// Haplotype identifies one output stream: a sample number (1-based) and a
// chromosome copy index (0-based), per distilled spec §3.
type Haplotype struct {
	Sample int
	Copy   int
}

// Sink receives the bytes written to one haplotype's output stream, keeping
// the writer itself free of any notion of files or compression (SPEC_FULL.md
// §6's ByteSink abstraction lives in internal/sink).
type Sink interface {
	Write(p []byte) (int, error)
}

// frame is one entry of the overlap stack: an open [pos, end) reference
// window contributed by one variant, mirroring sequence_writer's
// overlap_stack entries (distilled spec §3/§4.5). heaviestLen is the
// longest path seen through this frame so far — either a haplotype
// committed directly to this frame's own ALT, or the accumulated length
// every pass-through (REF-at-this-level) haplotype has been given via
// literal reference bytes and closed nested children, whichever is larger.
// ownHaps holds the ALT bytes assigned directly to this frame, keyed by the
// haplotype that chose them; those haplotypes are excluded from the global
// reference pool for as long as this frame stays open, so a nested child's
// reference emission never reaches a haplotype whose entire span here was
// already replaced by an ancestor's ALT.
type frame struct {
	pos, end    int
	heaviestLen int
	accum       int
	ownHaps     map[Haplotype][]byte
}

// Writer drives the overlap-stack algorithm. Reference holds the full
// reference sequence for the contig currently being processed, 0-based.
type Writer struct {
	Reference  []byte
	Sinks      map[Haplotype]Sink
	Haplotypes []Haplotype
	// NullAllele is the padding byte sequence repeated to fill short
	// choices out to a span's heaviest length; defaults to DefaultNullAllele
	// when left nil, per distilled spec §6.
	NullAllele []byte

	stack     []*frame
	cursor    int // literal reference position up to which the source text has been read
	committed map[Haplotype]bool
}

// NewWriter returns a Writer for the given reference and haplotype set. Each
// haplotype must have an entry in sinks.
func NewWriter(reference []byte, haplotypes []Haplotype, sinks map[Haplotype]Sink) *Writer {
	hs := append([]Haplotype(nil), haplotypes...)
	sort.Slice(hs, func(i, j int) bool {
		if hs[i].Sample != hs[j].Sample {
			return hs[i].Sample < hs[j].Sample
		}
		return hs[i].Copy < hs[j].Copy
	})
	return &Writer{
		Reference:  reference,
		Sinks:      sinks,
		Haplotypes: hs,
		NullAllele: DefaultNullAllele,
		committed:  make(map[Haplotype]bool),
	}
}

// refPoolWrite writes chunk to every haplotype not currently committed to
// some still-open frame's own ALT, mirroring the "global REF pointer pool"
// distilled spec §4.5 describes for output_reference: a haplotype whose
// entire span here was already replaced by an ancestor overlap's ALT must
// not also receive the literal reference bytes of a nested variant within
// that span.
func (w *Writer) refPoolWrite(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	for _, h := range w.Haplotypes {
		if w.committed[h] {
			continue
		}
		if _, err := w.Sinks[h].Write(chunk); err != nil {
			return err
		}
	}
	return nil
}

// refPoolPad pads every haplotype not currently committed to some
// still-open frame's own ALT out to targetAccum bytes, given it has so far
// received haveAccum bytes via refPoolWrite within the frame being closed.
func (w *Writer) refPoolPad(haveAccum, targetAccum int) error {
	if targetAccum <= haveAccum {
		return nil
	}
	for _, h := range w.Haplotypes {
		if w.committed[h] {
			continue
		}
		if err := w.pad(h, targetAccum-haveAccum); err != nil {
			return err
		}
	}
	return nil
}

// OutputReference advances the source reference cursor to pos, draining any
// overlap-stack frames that close at or before pos along the way and
// routing the literal reference bytes only to haplotypes currently in the
// global REF pool, mirroring sequence_writer::output_reference.
func (w *Writer) OutputReference(pos int) error {
	if err := w.drainThrough(pos); err != nil {
		return err
	}
	if pos <= w.cursor {
		return nil
	}
	chunk := w.Reference[w.cursor:pos]
	if err := w.refPoolWrite(chunk); err != nil {
		return err
	}
	if top := w.top(); top != nil {
		top.accum += len(chunk)
		if top.accum > top.heaviestLen {
			top.heaviestLen = top.accum
		}
	}
	w.cursor = pos
	return nil
}

func (w *Writer) top() *frame {
	if len(w.stack) == 0 {
		return nil
	}
	return w.stack[len(w.stack)-1]
}

// OpenSpan begins tracking a new overlapping region [pos, end) one variant
// contributes, mirroring the push onto sequence_writer's overlap stack.
// Callers must have already advanced the writer to pos via OutputReference.
func (w *Writer) OpenSpan(pos, end int) {
	w.stack = append(w.stack, &frame{
		pos: pos, end: end,
		heaviestLen: end - pos,
		ownHaps:     make(map[Haplotype][]byte),
	})
}

// Assign writes hap's chosen ALT bytes immediately to its stream and
// registers hap as committed to the most recently opened frame's variant,
// removing it from the global REF pool until that frame closes, mirroring
// route_alleles' "append that ALT's bytes to the haplotype stream ... and
// register the haplotype as committed to this ALT within this frame."
func (w *Writer) Assign(hap Haplotype, altIndex int, bytes []byte) error {
	top := w.stack[len(w.stack)-1]
	top.ownHaps[hap] = bytes
	w.committed[hap] = true
	if _, err := w.Sinks[hap].Write(bytes); err != nil {
		return err
	}
	if len(bytes) > top.heaviestLen {
		top.heaviestLen = len(bytes)
	}
	return nil
}

// drainThrough closes and emits every frame on the stack whose end is <=
// pos, innermost (top-of-stack) first. Closing a frame writes its
// remaining literal reference gap to the REF pool, pads every REF-pool and
// own-ALT haplotype out to the frame's final heaviest length, and folds
// that final length into the parent frame's own accumulated pass-through
// length — so a nested insertion longer than its own REF still keeps every
// ancestor's pass-through haplotypes aligned with the ones that took the
// nested ALT.
func (w *Writer) drainThrough(pos int) error {
	for {
		top := w.top()
		if top == nil || top.end > pos {
			return nil
		}
		w.stack = w.stack[:len(w.stack)-1]

		if gap := top.end - w.cursor; gap > 0 {
			chunk := w.Reference[w.cursor:top.end]
			if err := w.refPoolWrite(chunk); err != nil {
				return err
			}
			top.accum += gap
			if top.accum > top.heaviestLen {
				top.heaviestLen = top.accum
			}
			w.cursor = top.end
		}

		finalLen := top.heaviestLen
		if finalLen < top.accum {
			finalLen = top.accum
		}

		if err := w.refPoolPad(top.accum, finalLen); err != nil {
			return err
		}
		for hap, bytes := range top.ownHaps {
			if err := w.pad(hap, finalLen-len(bytes)); err != nil {
				return err
			}
			w.committed[hap] = false
		}

		if parent := w.top(); parent != nil {
			parent.accum += finalLen
			if parent.accum > parent.heaviestLen {
				parent.heaviestLen = parent.accum
			}
		}
	}
}

// pad writes n filler bytes (the configured null-allele byte, '-' by
// default) to hap's sink, used to keep every haplotype's output the same
// length as the heaviest allele chosen at a shared span, per distilled spec
// §4.5.
func (w *Writer) pad(hap Haplotype, n int) error {
	if n <= 0 {
		return nil
	}
	fill := w.NullAllele
	if len(fill) == 0 {
		fill = DefaultNullAllele
	}
	filler := make([]byte, n)
	for i := range filler {
		filler[i] = fill[i%len(fill)]
	}
	_, err := w.Sinks[hap].Write(filler)
	return err
}

// Finish flushes any remaining reference bytes through the end of the
// contig and drains whatever frames remain open, mirroring
// sequence_writer::finish.
func (w *Writer) Finish(contigEnd int) error {
	return w.OutputReference(contigEnd)
}
