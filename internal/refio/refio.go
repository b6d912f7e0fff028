// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package refio loads reference contigs for the generator, delegating the
// actual FASTA parsing to github.com/grailbio/bio/encoding/fasta per
// SPEC_FULL.md §2 item 11, which treats FASTA parsing as an external
// collaborator, rather than hand-rolling a FASTA scanner.
package refio

import (
	"bytes"
	"fmt"

	"github.com/grailbio/bio/encoding/fasta"
)

// Reference wraps a loaded FASTA file and exposes the single-contig byte
// slices the rest of the pipeline works with.
type Reference struct {
	fa fasta.Fasta
}

// Load opens and indexes the FASTA file at path.
func Load(path string) (*Reference, error) {
	fa, err := fasta.New(path)
	if err != nil {
		return nil, fmt.Errorf("refio: loading %q: %w", path, err)
	}
	return &Reference{fa: fa}, nil
}

// ContigNames returns the reference's sequence names in file order.
func (r *Reference) ContigNames() []string {
	return r.fa.SeqNames()
}

// Contig returns the full byte sequence of the named contig, upper-cased as
// the rest of the pipeline assumes (VCF REF/ALT are always upper-case).
func (r *Reference) Contig(name string) ([]byte, error) {
	seq := r.fa.Get(name, 0, -1)
	if seq == "" {
		return nil, fmt.Errorf("refio: contig %q not found", name)
	}
	return bytes.ToUpper([]byte(seq)), nil
}
