// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package config holds the generator's run parameters, mirroring the
// original generate_haplotypes's argument struct and grounded on the
// teacher's RunCommand flag-parsing style in vcf2fasta.go (since adapted
// into cmd/vcf2multialign/main.go; see DESIGN.md).
package config

import (
	"fmt"

	"github.com/tsnorri/vcf2multialign/internal/altcheck"
)

// Configuration collects every knob distilled spec §2 and §4 name.
type Configuration struct {
	ReferencePath string
	VCFPath       string

	OutReferencePath string
	ReportPath       string

	NullAllele []byte

	ChunkSize       int
	MinPathLength   int
	GeneratedPaths  int
	SVPolicy        altcheck.Policy

	Overwrite            bool
	CheckRef             bool
	ReduceSamples        bool
	PrintSubgraphHandling bool
	CompressOutput       bool
}

// Validate checks the combination of fields for the constraints distilled
// spec §6/§7 impose (e.g. generated path count must be positive, a
// reduce-samples run needs a positive chunk size).
func (c *Configuration) Validate() error {
	if c.ReferencePath == "" {
		return fmt.Errorf("config: a reference FASTA path is required")
	}
	if c.VCFPath == "" {
		return fmt.Errorf("config: a VCF path is required")
	}
	if c.MinPathLength < 0 {
		return fmt.Errorf("config: min-path-length must be non-negative")
	}
	if c.ReduceSamples {
		if c.GeneratedPaths <= 0 {
			return fmt.Errorf("config: generated-path count must be positive when reducing samples")
		}
		if c.ChunkSize <= 0 {
			return fmt.Errorf("config: chunk-size must be positive when reducing samples")
		}
	}
	return nil
}
