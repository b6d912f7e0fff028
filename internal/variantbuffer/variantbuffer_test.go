// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package variantbuffer

import (
	"sync"
	"testing"

	"gopkg.in/check.v1"

	"github.com/tsnorri/vcf2multialign/internal/vcfx"
)

func Test(t *testing.T) { check.TestingT(t) }

type variantbufferSuite struct{}

var _ = check.Suite(&variantbufferSuite{})

type recordingHandler struct {
	mu       sync.Mutex
	lines    []int
	finished bool
}

func (h *recordingHandler) HandleVariant(rec *vcfx.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, rec.LineNo)
}

func (h *recordingHandler) Finish() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished = true
}

const bufferTestVCF = "##fileformat=VCFv4.2\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tsampleA\n" +
	"chr1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0/1\n" +
	"chr1\t100\t.\tA\tT\t.\tPASS\t.\tGT\t1/1\n" +
	"chr1\t200\t.\tC\tG\t.\tPASS\t.\tGT\t0/1\n"

func (s *variantbufferSuite) TestReadFromDeliversAllRecordsInOrderAndFinishes(c *check.C) {
	reader := vcfx.NewReader([]byte(bufferTestVCF))
	c.Assert(reader.ReadHeader(), check.IsNil)

	handler := &recordingHandler{}
	buf := NewBuffer(2, handler)
	buf.ReadFrom(reader)

	handler.mu.Lock()
	defer handler.mu.Unlock()
	c.Check(handler.lines, check.DeepEquals, []int{3, 4, 5})
	c.Check(handler.finished, check.Equals, true)
}
