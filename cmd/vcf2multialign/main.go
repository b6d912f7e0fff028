// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	log "github.com/sirupsen/logrus"

	"github.com/tsnorri/vcf2multialign/internal/altcheck"
	"github.com/tsnorri/vcf2multialign/internal/config"
	"github.com/tsnorri/vcf2multialign/internal/pipeline"
)

func main() {
	os.Exit(runCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// runCommand parses flags and runs the pipeline, following the
// prog/args/stdin/stdout/stderr RunCommand(...) int shape used throughout
// this project's command set.
func runCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	logger := log.New()
	logger.Out = stderr
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logger.Formatter = &log.TextFormatter{DisableTimestamp: true}
	}

	var cfg config.Configuration
	var svPolicyName string
	var nullAllele string

	flags := flag.NewFlagSet(prog, flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&cfg.ReferencePath, "reference", "", "reference FASTA `file`")
	flags.StringVar(&cfg.VCFPath, "variants", "", "input VCF `file`")
	flags.StringVar(&cfg.OutReferencePath, "output-reference", "", "reference output path; the value is accepted but no reference file is written")
	flags.StringVar(&cfg.ReportPath, "report-file", "", "optional path for a REF/reference mismatch report")
	flags.StringVar(&nullAllele, "null-allele", "-", "padding byte sequence written into haplotype streams aligned against insertions")
	flags.IntVar(&cfg.ChunkSize, "chunk-size", 1, "variant batch depth handed to the sequence writer at a time")
	flags.IntVar(&cfg.MinPathLength, "min-path-length", 0, "minimum byte distance between subgraph starting points (0 picks ceil(sqrt(reference length)))")
	flags.IntVar(&cfg.GeneratedPaths, "generated-paths", 0, "number of generated paths to produce in reduced-samples mode")
	flags.StringVar(&svPolicyName, "sv-handling", "keep", "structural variant ALT handling: keep, discard, or keep-asterisks-only")
	flags.BoolVar(&cfg.Overwrite, "overwrite", false, "allow replacing existing output files")
	flags.BoolVar(&cfg.CheckRef, "check-ref", false, "verify REF alleles against the reference and write a mismatch report")
	flags.BoolVar(&cfg.ReduceSamples, "reduce-samples", false, "produce a bounded number of generated paths instead of one stream per haplotype")
	flags.BoolVar(&cfg.PrintSubgraphHandling, "print-subgraph-handling", false, "log subgraph partition and merge diagnostics")
	flags.BoolVar(&cfg.CompressOutput, "compress-output", false, "gzip-compress generated FASTA output")

	if err := flags.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	policy, ok := altcheck.ParsePolicy(svPolicyName)
	if !ok {
		fmt.Fprintf(stderr, "vcf2multialign: unrecognized -sv-handling value %q\n", svPolicyName)
		return 2
	}
	cfg.SVPolicy = policy
	cfg.NullAllele = []byte(nullAllele)

	p := pipeline.New(&cfg, logger)
	return p.Run()
}
