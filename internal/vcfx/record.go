// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package vcfx implements the streaming, lazily-parsed VCF record reader
// described in SPEC_FULL.md §4.1, grounded on
// _examples/original_source/src/vcf_reader.cc.
package vcfx

import "fmt"

// Field identifies how far into a tab-delimited VCF line parsing should go,
// mirroring the original's vcf_field enum.
type Field int

// Field values, in column order. ALL means "every sample column".
const (
	FieldCHROM Field = iota
	FieldPOS
	FieldID
	FieldREF
	FieldALT
	FieldQUAL
	FieldFILTER
	FieldINFO
	FieldFORMAT
	FieldALL // first sample column; samples follow
)

// SampleEntry is one sample's genotype for one record: a ploidy-length
// vector of allele indices (0 == REF) plus the phased flag, matching
// distilled spec §3's "sample entry" exactly.
type SampleEntry struct {
	Alleles []uint8
	Phased  bool
}

// Record is one VCF data line. Fields past what set_parsed_fields(last)
// requested are left zero-valued; POS and ALT are memoized once computed,
// mirroring variant::pos()/variant::alt() in the original, which parse on
// first access and cache the result on the struct.
type Record struct {
	LineNo int
	Chrom  string
	rawPos string
	pos    int
	posOK  bool
	Ref    []byte
	rawAlt string
	alt    [][]byte
	altOK  bool
	Format string
	// rawSamples holds one tab field per sample, unparsed until GenotypeOf
	// is called for that sample number (1-based).
	rawSamples []string
	// formatIdx maps a FORMAT key (e.g. "GT") to its colon-separated
	// index, memoized per distinct FORMAT string seen, mirroring
	// variant::map_format_fields.
	formatIdx map[string]int
}

// Reset clears a record so it can be reused by the node pool, mirroring
// variant::reset().
func (r *Record) Reset() {
	r.LineNo = 0
	r.Chrom = ""
	r.rawPos = ""
	r.pos = 0
	r.posOK = false
	r.Ref = r.Ref[:0]
	r.rawAlt = ""
	r.alt = r.alt[:0]
	r.altOK = false
	r.Format = ""
	r.rawSamples = r.rawSamples[:0]
	r.formatIdx = nil
}

// Pos returns the 1-based POS, parsing it from the raw field on first call.
func (r *Record) Pos() int {
	if !r.posOK {
		r.pos = parseUint(r.rawPos)
		r.posOK = true
	}
	return r.pos
}

// End returns the last reference position covered by this record
// (POS+len(REF)-1, 1-based, inclusive), per distilled spec §3.
func (r *Record) End() int {
	return r.Pos() + len(r.Ref) - 1
}

// Alt returns the ALT list, splitting the raw comma-separated field on
// first call. Index 0 is reserved for REF by convention of the caller;
// Alt()[0] is the first ALT (ALT index 1), matching distilled spec §3
// ("index 1 is the first ALT, index 0 denotes the reference allele").
func (r *Record) Alt() [][]byte {
	if !r.altOK {
		r.alt = splitBytes(r.rawAlt, ',')
		r.altOK = true
	}
	return r.alt
}

// GenotypeOf decodes the GT subfield of sample sampleNo (1-based),
// mirroring variant::get_genotype: scan the colon-delimited sample value,
// accumulate decimal digits into an allele index, '/' clears phased, one
// allele is emitted per separator.
func (r *Record) GenotypeOf(sampleNo int) (SampleEntry, error) {
	if sampleNo < 1 || sampleNo > len(r.rawSamples) {
		return SampleEntry{}, fmt.Errorf("vcfx: sample number %d out of range (have %d samples)", sampleNo, len(r.rawSamples))
	}
	if r.formatIdx == nil {
		r.formatIdx = indexFormat(r.Format)
	}
	gtIdx, ok := r.formatIdx["GT"]
	if !ok {
		return SampleEntry{}, fmt.Errorf("vcfx: line %d: FORMAT %q has no GT subfield", r.LineNo, r.Format)
	}
	fields := splitStrings(r.rawSamples[sampleNo-1], ':')
	if gtIdx >= len(fields) {
		return SampleEntry{}, fmt.Errorf("vcfx: line %d: sample %d missing GT value", r.LineNo, sampleNo)
	}
	gt := fields[gtIdx]

	entry := SampleEntry{Phased: true}
	var allele uint8
	haveDigit := false
	for i := 0; i < len(gt); i++ {
		ch := gt[i]
		switch {
		case ch >= '0' && ch <= '9':
			allele = allele*10 + (ch - '0')
			haveDigit = true
		case ch == '/' || ch == '|':
			if ch == '/' {
				entry.Phased = false
			}
			entry.Alleles = append(entry.Alleles, allele)
			allele = 0
			haveDigit = false
		default:
			return SampleEntry{}, fmt.Errorf("vcfx: line %d: malformed GT %q", r.LineNo, gt)
		}
	}
	if haveDigit || len(entry.Alleles) == 0 {
		entry.Alleles = append(entry.Alleles, allele)
	}
	return entry, nil
}

// SampleCount reports how many sample columns this record carries.
func (r *Record) SampleCount() int { return len(r.rawSamples) }

func indexFormat(format string) map[string]int {
	idx := make(map[string]int)
	for i, key := range splitStrings(format, ':') {
		idx[key] = i
	}
	return idx
}

func parseUint(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func splitBytes(s string, sep byte) [][]byte {
	if s == "" {
		return nil
	}
	var out [][]byte
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == sep {
			out = append(out, []byte(s[start:i]))
			start = i + 1
		}
	}
	return out
}

func splitStrings(s string, sep byte) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == sep {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	return out
}
