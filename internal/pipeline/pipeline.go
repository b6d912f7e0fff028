// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package pipeline wires the VCF reader, ALT checker, subgraph finder,
// variant buffer, sequence writer, sample reducer and assignment matcher
// into the two run modes distilled spec §4/§5 describe: all-haplotypes and
// reduce-samples. Grounded on
// _examples/original_source/src/generate_haplotypes.cc, which plays the
// same wiring role for the dispatch-based original.
package pipeline

import (
	"fmt"
	"math"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/tsnorri/vcf2multialign/internal/altcheck"
	"github.com/tsnorri/vcf2multialign/internal/config"
	"github.com/tsnorri/vcf2multialign/internal/dispatch"
	"github.com/tsnorri/vcf2multialign/internal/matching"
	"github.com/tsnorri/vcf2multialign/internal/reducer"
	"github.com/tsnorri/vcf2multialign/internal/refio"
	"github.com/tsnorri/vcf2multialign/internal/report"
	"github.com/tsnorri/vcf2multialign/internal/seqwriter"
	"github.com/tsnorri/vcf2multialign/internal/sink"
	"github.com/tsnorri/vcf2multialign/internal/subgraph"
	"github.com/tsnorri/vcf2multialign/internal/variantbuffer"
	"github.com/tsnorri/vcf2multialign/internal/vcfx"
)

// subgraphResult is one subgraph's reduced generated-path assignment,
// carried from the parallel reduce stage into the merge/write stage.
type subgraphResult struct {
	assignment *reducer.Assignment
	startLine  int
	// records holds, in encounter order, the reference span and ALT list of
	// every non-skipped variant in this subgraph; assignment.Paths[i][j]
	// chooses records[j]'s ALT (or REF, if 0) for generated path i, so the
	// final writer can resolve an ALT-index path back to nucleotide bytes.
	records []subgraphRecord
}

// subgraphRecord is the byte-level shape of one variant needed to replay a
// generated path's ALT-index choices through seqwriter, independent of the
// vcfx.Record it was copied from (which is transient and reused per line).
type subgraphRecord struct {
	pos, end int
	alt      [][]byte
}

// Pipeline executes one generation run end to end.
type Pipeline struct {
	Config *config.Configuration
	Logger *log.Logger

	registry *dispatch.Registry
}

// New returns a Pipeline for cfg, logging through logger.
func New(cfg *config.Configuration, logger *log.Logger) *Pipeline {
	return &Pipeline{Config: cfg, Logger: logger, registry: dispatch.NewRegistry()}
}

// Run executes the configured mode and returns a process exit code,
// mirroring the teacher's RunCommand int-return convention.
func (p *Pipeline) Run() int {
	if err := p.Config.Validate(); err != nil {
		p.Logger.WithError(err).Error("invalid configuration")
		return 1
	}

	stop := dispatch.InstallSIGHUPHandler(p.Logger, p)
	defer stop()

	ref, err := refio.Load(p.Config.ReferencePath)
	if err != nil {
		p.Logger.WithError(err).Error("loading reference")
		return 1
	}

	data, err := os.ReadFile(p.Config.VCFPath)
	if err != nil {
		p.Logger.WithError(err).Error("reading VCF")
		return 1
	}

	reader := vcfx.NewReader(data)
	if err := reader.ReadHeader(); err != nil {
		p.Logger.WithError(err).Error("reading VCF header")
		return 1
	}

	checker := altcheck.NewChecker(p.Config.SVPolicy)

	var reportWriter *report.Writer
	if p.Config.CheckRef && p.Config.ReportPath != "" {
		f, err := os.Create(p.Config.ReportPath)
		if err != nil {
			p.Logger.WithError(err).Error("creating report file")
			return 1
		}
		defer f.Close()
		reportWriter = report.NewWriter(f)
		defer reportWriter.Close()
	}

	names := ref.ContigNames()
	if len(names) == 0 {
		p.Logger.Error("reference FASTA has no contigs")
		return 1
	}
	contig, err := ref.Contig(names[0])
	if err != nil {
		p.Logger.WithError(err).Error("loading contig")
		return 1
	}

	if p.Config.MinPathLength == 0 {
		// distilled spec §6: "minimum path length (0 ⇒ ceil(sqrt(|reference|)))".
		p.Config.MinPathLength = int(math.Ceil(math.Sqrt(float64(len(contig)))))
	}

	if p.Config.ReduceSamples {
		return p.runReduceSamples(reader, contig, checker, reportWriter)
	}
	return p.runAllHaplotypes(reader, contig, checker, reportWriter)
}

// LogStatus implements dispatch.StatusReporter, reporting how many tasks
// are currently registered when SIGHUP is received, mirroring the
// original's handler for the same signal.
func (p *Pipeline) LogStatus(logger log.FieldLogger) {
	logger.Infof("vcf2multialign: %d tasks active", p.registry.Len())
}

// haplotypeSet enumerates every (sample, copy) pair in header column order.
// Every sample is treated as diploid; a genotype with any other number of
// alleles is fatal (see HandleVariant), per SPEC_FULL.md §9's resolution of
// Open Question i.
func haplotypeSet(reader *vcfx.Reader) []seqwriter.Haplotype {
	var haps []seqwriter.Haplotype
	for _, name := range reader.SampleOrder() {
		sampleNo := reader.SampleNames()[name]
		haps = append(haps, seqwriter.Haplotype{Sample: sampleNo, Copy: 0}, seqwriter.Haplotype{Sample: sampleNo, Copy: 1})
	}
	return haps
}

// runAllHaplotypes implements distilled spec §4's default mode: one output
// stream per haplotype, written directly by a single sequence writer fed
// from the variant buffer.
func (p *Pipeline) runAllHaplotypes(reader *vcfx.Reader, contig []byte, checker *altcheck.Checker, rw *report.Writer) int {
	haps := haplotypeSet(reader)
	sinks := make(map[seqwriter.Haplotype]sink.ByteSink, len(haps))
	writerSinks := make(map[seqwriter.Haplotype]seqwriter.Sink, len(haps))
	for _, h := range haps {
		path := fmt.Sprintf("%s.%d.%d.fa", p.Config.VCFPath, h.Sample, h.Copy)
		if p.Config.CompressOutput {
			path += ".gz"
		}
		s, err := sink.Create(path, p.Config.CompressOutput, p.Config.Overwrite)
		if err != nil {
			p.Logger.WithError(err).WithField("haplotype", h).Error("opening output")
			return 1
		}
		sinks[h] = s
		writerSinks[h] = s
	}
	defer func() {
		for _, s := range sinks {
			s.Close()
		}
	}()

	writer := seqwriter.NewWriter(contig, haps, writerSinks)
	if len(p.Config.NullAllele) > 0 {
		writer.NullAllele = p.Config.NullAllele
	}

	handler := &allHapsHandler{
		checker: checker,
		writer:  writer,
		reader:  reader,
		contig:  contig,
		report:  rw,
	}

	buf := variantbuffer.NewBuffer(p.Config.ChunkSize, handler)
	buf.ReadFrom(reader)

	if err := writer.Finish(len(contig)); err != nil {
		p.Logger.WithError(err).Error("flushing output")
		return 1
	}
	if handler.fatalErr != nil {
		p.Logger.WithError(handler.fatalErr).Error("processing VCF")
		return 1
	}
	return 0
}

type allHapsHandler struct {
	checker  *altcheck.Checker
	writer   *seqwriter.Writer
	reader   *vcfx.Reader
	contig   []byte
	report   *report.Writer
	fatalErr error
}

// HandleVariant implements variantbuffer.Handler, routing one record's
// alleles through the overlap-stack writer.
func (h *allHapsHandler) HandleVariant(rec *vcfx.Record) {
	if h.fatalErr != nil {
		return
	}
	if h.checker.CheckRecord(rec) {
		return // every ALT invalid under the configured policy; skip entirely.
	}

	pos := rec.Pos() - 1 // VCF POS is 1-based; writer works in 0-based offsets.
	end := pos + len(rec.Ref)

	if h.report != nil && pos >= 0 && end <= len(h.contig) {
		if string(h.contig[pos:end]) != string(rec.Ref) {
			h.report.Write(report.Mismatch{
				LineNo: rec.LineNo, Chrom: rec.Chrom, Pos: rec.Pos(),
				VCFRef: string(rec.Ref), RefBases: string(h.contig[pos:end]),
			})
		}
	}

	if err := h.writer.OutputReference(pos); err != nil {
		h.fatalErr = err
		return
	}
	h.writer.OpenSpan(pos, end)

	for _, name := range h.reader.SampleOrder() {
		sampleNo := h.reader.SampleNames()[name]
		entry, err := rec.GenotypeOf(sampleNo)
		if err != nil {
			h.fatalErr = err
			return
		}
		if len(entry.Alleles) != 2 {
			h.fatalErr = fmt.Errorf("pipeline: line %d: sample %d has ploidy %d, expected 2", rec.LineNo, sampleNo, len(entry.Alleles))
			return
		}
		for copyIdx, allele := range entry.Alleles {
			hap := seqwriter.Haplotype{Sample: sampleNo, Copy: copyIdx}
			if allele == 0 || !h.checker.IsValidAlt(rec.LineNo, allele) {
				continue // REF, or an invalid ALT treated as REF per distilled spec §4.2.
			}
			alt := rec.Alt()[allele-1]
			if err := h.writer.Assign(hap, int(allele), alt); err != nil {
				h.fatalErr = err
				return
			}
		}
	}
}

// Finish implements variantbuffer.Handler; nothing to do here since
// Pipeline.runAllHaplotypes calls writer.Finish after the buffer drains.
func (h *allHapsHandler) Finish() {}

// runReduceSamples implements distilled spec §5's reduced-output mode: the
// VCF is partitioned into subgraphs, each reduced to a bounded number of
// generated paths, and adjacent subgraphs' paths are stitched together by
// minimum-cost assignment before a single sequence writer emits the final
// generated-path streams.
func (p *Pipeline) runReduceSamples(reader *vcfx.Reader, contig []byte, checker *altcheck.Checker, rw *report.Writer) int {
	finder := subgraph.NewFinder(p.Config.MinPathLength)

	shouldContinue := true
	offset := int64(reader.BufferStart())
	for shouldContinue {
		shouldContinue = reader.Parse(func(rec *vcfx.Record) bool {
			skipped := checker.CheckRecord(rec)
			offset = int64(reader.Offset())
			if !skipped {
				finder.Observe(rec, offset)
			}
			return true
		})
	}
	points := finder.StartingPoints()

	bounds := make([]int, 0, len(points)+2)
	bounds = append(bounds, reader.BufferStart())
	for _, pt := range points {
		bounds = append(bounds, int(pt.Offset))
	}
	bounds = append(bounds, reader.BufferEnd())

	results := make([]subgraphResult, len(bounds)-1)

	group := &dispatch.Group{}
	var sem dispatch.Semaphore
	sem.Max = p.Config.ChunkSize
	if sem.Max <= 0 {
		sem.Max = 1
	}

	// The global checker's prep pass above numbered its first data record
	// LastHeaderLineNo()+1 (vcfx.Reader increments lineNo before invoking
	// Parse's callback); each subgraph reader must be seeded with that same
	// absolute numbering for checker.IsValidAlt lookups to hit, not miss.
	startLine := reader.LastHeaderLineNo() + 1
	for i := 0; i < len(bounds)-1; i++ {
		i := i
		sgStartLine := startLine // per-iteration copy: the goroutine below runs concurrently with this loop's own later mutation of startLine.
		sgReader := vcfx.NewReader(nil)
		*sgReader = *reader
		sgReader.SetRange(bounds[i], bounds[i+1], sgStartLine)

		sem.Acquire()
		group.Go(func() {
			defer sem.Release()
			red := reducer.NewReducer(sgStartLine, p.Config.GeneratedPaths)
			var recs []subgraphRecord
			sgReader.Parse(func(rec *vcfx.Record) bool {
				if checker.IsSkipped(rec.LineNo) {
					return true
				}
				pos := rec.Pos() - 1
				end := pos + len(rec.Ref)
				alt := rec.Alt()
				altCopy := make([][]byte, len(alt))
				for i, a := range alt {
					altCopy[i] = append([]byte(nil), a...)
				}
				recs = append(recs, subgraphRecord{pos: pos, end: end, alt: altCopy})

				choices := make(map[seqwriter.Haplotype]uint8)
				for _, name := range sgReader.SampleOrder() {
					sampleNo := sgReader.SampleNames()[name]
					entry, err := rec.GenotypeOf(sampleNo)
					if err != nil {
						sem.Report(err)
						return false
					}
					if len(entry.Alleles) != 2 {
						sem.Report(fmt.Errorf("pipeline: line %d: sample %d has ploidy %d, expected 2", rec.LineNo, sampleNo, len(entry.Alleles)))
						return false
					}
					for copyIdx, allele := range entry.Alleles {
						hap := seqwriter.Haplotype{Sample: sampleNo, Copy: copyIdx}
						choice := uint8(0)
						if allele != 0 && checker.IsValidAlt(rec.LineNo, allele) {
							choice = allele
						}
						choices[hap] = choice
					}
				}
				red.Observe(rec.LineNo, pos, choices)
				return true
			})
			assignment, ok := red.Finish()
			if !ok {
				sem.Report(fmt.Errorf("pipeline: subgraph at line %d exceeds the configured generated-path count", sgStartLine))
				return
			}
			results[i] = subgraphResult{assignment: assignment, startLine: sgStartLine, records: recs}
		})
		// points[i].LineNo is the line number of the record that triggered
		// the cut — the last record of the subgraph ending here, since
		// Finder.Observe tests for an open-overlap-free gap before appending
		// that record's own interval. The next subgraph's first record is
		// therefore one line later.
		if i < len(points) {
			startLine = points[i].LineNo + 1
		}
	}
	group.Wait()
	if err := sem.Err(); err != nil {
		p.Logger.WithError(err).Error("reducing samples")
		return 1
	}

	// Boundary merges: merges[k] stitches results[k] (left) to results[k+1]
	// (right), per distilled spec §4.7's merge_subgraph_paths_task. The
	// resulting assignment permutes which right-subgraph path continues
	// which left-subgraph path once a global generated-path slot is traced
	// across the boundary.
	merges := make([]matching.MergeResult, 0, len(results)-1)
	totalCost := 0.0
	for i := 0; i+1 < len(results); i++ {
		left, right := results[i].assignment, results[i+1].assignment
		var m matching.MergeResult
		if left != nil && right != nil {
			m = matching.Merge(left.Paths, right.Paths, matching.Hamming)
			totalCost += m.TotalCost
		}
		merges = append(merges, m)
	}
	if p.Config.PrintSubgraphHandling {
		p.Logger.Infof("processed %d subgraphs, total boundary merge cost %.0f", len(results), totalCost)
	}

	return p.writeGeneratedPaths(results, merges, contig)
}

// writeGeneratedPaths implements the final sequence_writer_task of distilled
// spec §4.7: it walks the subgraphs in order, tracing each global
// generated-path slot through the per-boundary permutation computed by
// matching.Merge so that slot b always continues the haplotype path it was
// matched to at the previous boundary, then replays that local path's
// ALT-index choices through the same overlap-stack writer the
// all-haplotypes mode uses, so insertion padding and reference fill stay
// byte-aligned across every generated-path output stream exactly as they do
// across per-sample streams.
func (p *Pipeline) writeGeneratedPaths(results []subgraphResult, merges []matching.MergeResult, contig []byte) int {
	n := p.Config.GeneratedPaths
	haps := make([]seqwriter.Haplotype, n)
	for i := range haps {
		haps[i] = seqwriter.Haplotype{Sample: 0, Copy: i}
	}
	sinks := make(map[seqwriter.Haplotype]seqwriter.Sink, n)
	closers := make([]sink.ByteSink, 0, n)
	for i, h := range haps {
		path := fmt.Sprintf("%s.path%d.fa", p.Config.VCFPath, i)
		if p.Config.CompressOutput {
			path += ".gz"
		}
		s, err := sink.Create(path, p.Config.CompressOutput, p.Config.Overwrite)
		if err != nil {
			p.Logger.WithError(err).Error("opening generated-path output")
			return 1
		}
		sinks[h] = s
		closers = append(closers, s)
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	writer := seqwriter.NewWriter(contig, haps, sinks)
	if len(p.Config.NullAllele) > 0 {
		writer.NullAllele = p.Config.NullAllele
	}

	// curMap[b] is the local path index within the subgraph currently being
	// written that global slot b should read from; it starts as the
	// identity permutation and is recomposed with merges[k] each time the
	// walk crosses boundary k, mirroring "the current path permutation is
	// initialised to the identity and is composed with matching[k]".
	curMap := make([]int, n)
	for b := range curMap {
		curMap[b] = b
	}

	for i, r := range results {
		if i > 0 {
			m := merges[i-1]
			next := make([]int, n)
			for b, local := range curMap {
				if local < len(m.Assignment) {
					next[b] = m.Assignment[local]
				} else {
					next[b] = local
				}
			}
			curMap = next
		}
		if r.assignment == nil {
			continue
		}
		for recIdx, rec := range r.records {
			if err := writer.OutputReference(rec.pos); err != nil {
				p.Logger.WithError(err).Error("writing generated path")
				return 1
			}
			writer.OpenSpan(rec.pos, rec.end)
			for slot, h := range haps {
				local := curMap[slot]
				if local < 0 || local >= len(r.assignment.Paths) {
					continue
				}
				path := r.assignment.Paths[local]
				if recIdx >= len(path) {
					continue
				}
				altIdx := int(path[recIdx])
				if altIdx == 0 || altIdx > len(rec.alt) {
					continue // REF, or out of range: left on REF for this span.
				}
				if err := writer.Assign(h, altIdx, rec.alt[altIdx-1]); err != nil {
					p.Logger.WithError(err).Error("writing generated path")
					return 1
				}
			}
		}
	}
	if err := writer.Finish(len(contig)); err != nil {
		p.Logger.WithError(err).Error("flushing generated-path output")
		return 1
	}
	return 0
}
