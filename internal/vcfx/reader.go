// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package vcfx

import (
	"bytes"
	"fmt"
	"strings"

	mvcf "github.com/mendelics/vcf"
)

// Reader is the streaming, lazy-field VCF tokenizer of distilled spec §4.1.
// It operates over an in-memory byte buffer rather than a live stream
// handle: reduced-samples mode needs to hand out byte-range slices of the
// same VCF body to several concurrent subgraph readers (mirroring the
// original's vcf_mmap_input), and all-haplotypes mode only ever needs one
// pass, so a single owned []byte backs both.
type Reader struct {
	data   []byte
	pos    int
	end    int
	lineNo int

	sampleNames      map[string]int
	sampleOrder      []string
	lastHeaderLineNo int
	firstDataOffset  int

	parsedFields Field
	counter      int
}

// NewReader wraps data, the full contents of a VCF file (after any gzip
// decompression), for header reading and subsequent Parse calls.
func NewReader(data []byte) *Reader {
	return &Reader{data: data, end: len(data), parsedFields: FieldALL}
}

// ReadHeader consumes "##" lines and the "#CHROM..." column header line,
// mirroring vcf_reader::read_header. Sample names are tokenized by
// delegating to github.com/mendelics/vcf's SampleIDs, the "textual VCF
// tokenizer below the field level" SPEC_FULL.md §4.1 calls for as an
// external collaborator — this reader still owns byte-offset bookkeeping,
// which SampleIDs does not expose.
func (r *Reader) ReadHeader() error {
	off := 0
	for {
		nl := bytes.IndexByte(r.data[off:], '\n')
		var line []byte
		if nl < 0 {
			line = r.data[off:]
		} else {
			line = r.data[off : off+nl]
		}
		r.lineNo++
		if len(line) < 2 || line[0] != '#' || line[1] != '#' {
			if !bytes.HasPrefix(line, []byte("#CHROM")) {
				return fmt.Errorf("vcfx: expected a line starting with '#CHROM', got %q", string(line))
			}
			names, err := mvcf.SampleIDs(strings.NewReader(string(line) + "\n"))
			if err != nil {
				return fmt.Errorf("vcfx: reading sample names: %w", err)
			}
			r.sampleNames = make(map[string]int, len(names))
			r.sampleOrder = names
			for i, name := range names {
				if _, dup := r.sampleNames[name]; dup {
					return fmt.Errorf("vcfx: duplicate sample name %q", name)
				}
				r.sampleNames[name] = i + 1
			}
			if nl < 0 {
				off = len(r.data)
			} else {
				off = off + nl + 1
			}
			break
		}
		if nl < 0 {
			return fmt.Errorf("vcfx: truncated header, no '#CHROM' line found")
		}
		off = off + nl + 1
	}
	r.firstDataOffset = off
	r.pos = off
	r.lastHeaderLineNo = r.lineNo
	return nil
}

// Reset rewinds the reader to the first data line, mirroring
// vcf_reader::reset.
func (r *Reader) Reset() {
	r.pos = r.firstDataOffset
	r.lineNo = r.lastHeaderLineNo
	r.counter = 0
}

// SetRange restricts subsequent Parse calls to data[start:end], with the
// first data line numbered startLineNo. Used by the subgraph pipeline
// (SPEC_FULL.md §4.7) to hand each subgraph reader task its own byte range
// of the shared VCF buffer, mirroring read_subgraph_variants_task's use of
// set_buffer_start/set_buffer_end/set_eof.
func (r *Reader) SetRange(start, end, startLineNo int) {
	r.pos = start
	r.end = end
	r.lineNo = startLineNo - 1
	r.counter = 0
}

// SetParsedFields controls how far into each line Parse splits fields,
// mirroring vcf_reader::set_parsed_fields.
func (r *Reader) SetParsedFields(f Field) { r.parsedFields = f }

// SampleNames returns the sample-name to sample-number (1-based) map
// established by ReadHeader.
func (r *Reader) SampleNames() map[string]int { return r.sampleNames }

// SampleOrder returns sample names in header column order.
func (r *Reader) SampleOrder() []string { return r.sampleOrder }

// LastHeaderLineNo returns the line number of the "#CHROM" line.
func (r *Reader) LastHeaderLineNo() int { return r.lastHeaderLineNo }

// BufferStart returns the byte offset of the first data line and BufferEnd
// the end of the range currently in scope, mirroring
// vcf_reader::buffer_start/buffer_end; SetRange moves BufferEnd but not
// BufferStart. The pipeline uses them as the outer subgraph bounds.
func (r *Reader) BufferStart() int { return r.firstDataOffset }
func (r *Reader) BufferEnd() int   { return r.end }

// Offset reports the current read position, for subgraph starting-point
// bookkeeping.
func (r *Reader) Offset() int { return r.pos }

// CounterValue returns the number of records parsed since the last Reset
// or SetRange, mirroring vcf_reader::counter_value.
func (r *Reader) CounterValue() int { return r.counter }

// Parse splits each remaining line into a Record and invokes cb with it.
// The Record passed to cb is transient: its byte-slice fields point into
// the reader's shared backing array and are invalidated by the next Parse
// call, exactly as distilled spec §4.1 specifies. Parse stops when cb
// returns false or the in-scope range is exhausted, and reports whether
// more input may remain (true) or true EOF was reached (false), mirroring
// vcf_reader::parse's should_continue contract.
func (r *Reader) Parse(cb func(*Record) bool) bool {
	var rec Record
	for r.pos < r.end {
		nl := bytes.IndexByte(r.data[r.pos:r.end], '\n')
		var lineEnd int
		if nl < 0 {
			lineEnd = r.end
		} else {
			lineEnd = r.pos + nl
		}
		if lineEnd == r.pos {
			// Blank line; treat as EOF padding, matching the original's
			// "truncated lines on EOF terminate parse cleanly."
			r.pos = r.end
			break
		}
		line := r.data[r.pos:lineEnd]
		r.lineNo++
		r.counter++
		rec.Reset()
		if err := splitRecord(line, r.lineNo, r.parsedFields, r.sampleOrder, &rec); err != nil {
			panic(err) // VCF-format errors are fatal per SPEC_FULL.md §7.
		}
		if nl < 0 {
			r.pos = r.end
		} else {
			r.pos = lineEnd + 1
		}
		if !cb(&rec) {
			return true
		}
	}
	return false
}

func splitRecord(line []byte, lineNo int, parsedFields Field, sampleOrder []string, rec *Record) error {
	fields := bytes.Split(line, []byte("\t"))
	minFields := int(FieldFORMAT) + 1
	if len(fields) < minFields {
		return fmt.Errorf("vcfx: line %d: expected at least %d tab-separated fields, got %d", lineNo, minFields, len(fields))
	}
	if len(sampleOrder) > 0 && len(fields) != int(FieldALL)+len(sampleOrder) {
		return fmt.Errorf("vcfx: line %d: expected %d sample columns, got %d", lineNo, len(sampleOrder), len(fields)-int(FieldALL))
	}

	rec.LineNo = lineNo
	rec.Chrom = string(fields[FieldCHROM])
	rec.rawPos = string(fields[FieldPOS])
	rec.Ref = fields[FieldREF]
	rec.rawAlt = string(fields[FieldALT])

	if parsedFields < FieldFORMAT {
		return nil
	}
	rec.Format = string(fields[FieldFORMAT])

	if parsedFields < FieldALL {
		return nil
	}
	nsamples := len(fields) - int(FieldALL)
	if nsamples > 0 {
		rec.rawSamples = make([]string, nsamples)
		for i := 0; i < nsamples; i++ {
			rec.rawSamples[i] = string(fields[int(FieldALL)+i])
		}
	}
	return nil
}
