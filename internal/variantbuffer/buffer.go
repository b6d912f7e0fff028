// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package variantbuffer groups consecutive same-POS VCF records into
// batches and hands each batch to a worker under a bounded semaphore,
// implementing distilled spec §4.4, grounded on
// _examples/original_source/src/variant_buffer.cc.
package variantbuffer

import (
	"sync"

	"github.com/tsnorri/vcf2multialign/internal/dispatch"
	"github.com/tsnorri/vcf2multialign/internal/vcfx"
)

// Handler is the delegate that receives each batched record, mirroring
// variant_buffer_delegate::handle_variant/finish.
type Handler interface {
	HandleVariant(rec *vcfx.Record)
	Finish()
}

// pooledRecord is one node in the reusable record pool (distilled spec
// §4.4, §9 "Reusable record pool"): a *vcfx.Record plus the storage it
// owns, recycled instead of allocated on the hot path.
type pooledRecord struct {
	rec vcfx.Record
}

// Buffer implements the POS-batching producer/consumer handoff. Depth sets
// the counting semaphore's capacity: the producer can run Depth batches
// ahead of the worker before blocking, mirroring "a counting semaphore
// (initial value = configured depth)". The node pool has no fixed size; it
// grows to the largest number of records in flight at once.
type Buffer struct {
	Depth   int
	Handler Handler

	poolMu sync.Mutex
	pool   []*pooledRecord

	sem   dispatch.Semaphore
	queue *dispatch.SerialQueue

	batch []*pooledRecord
}

// NewBuffer returns a Buffer with the given backpressure depth and
// delegate.
func NewBuffer(depth int, handler Handler) *Buffer {
	b := &Buffer{Depth: depth, Handler: handler}
	b.sem.Max = depth
	b.queue = dispatch.NewSerialQueue(depth * 2)
	return b
}

func (b *Buffer) getNode() *pooledRecord {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()
	n := len(b.pool)
	if n == 0 {
		return &pooledRecord{}
	}
	node := b.pool[n-1]
	b.pool = b.pool[:n-1]
	return node
}

func (b *Buffer) returnNode(node *pooledRecord) {
	b.poolMu.Lock()
	defer b.poolMu.Unlock()
	b.pool = append(b.pool, node)
}

// ReadFrom drives reader, grouping consecutive same-POS records into
// batches and dispatching each batch to the worker queue as soon as POS
// changes, mirroring variant_buffer::read_input. It blocks until reader
// reports true EOF and the final flush/finish message has been processed.
func (b *Buffer) ReadFrom(reader *vcfx.Reader) {
	previousPos := -1
	shouldContinue := true
	for shouldContinue {
		shouldContinue = reader.Parse(func(rec *vcfx.Record) bool {
			node := b.getNode()
			node.rec = *rec
			// Detach byte-slice fields from the reader's shared buffer so
			// the copy outlives the next Parse call: the record's
			// underlying arrays (Ref, rawAlt-derived Alt) must survive
			// until the worker processes this batch.
			node.rec.Ref = append([]byte(nil), rec.Ref...)

			pos := node.rec.Pos()
			if pos != previousPos && previousPos != -1 {
				b.flushBatch()
			}
			previousPos = pos
			b.batch = append(b.batch, node)
			return true
		})
	}
	if len(b.batch) > 0 {
		b.flushBatch()
	}
	b.queue.Async(b.Handler.Finish)
	b.queue.Close()
}

// flushBatch hands the accumulated same-POS batch to the worker queue,
// acquiring one semaphore slot per batch before enqueueing and releasing it
// only once the whole batch has been processed: a long run of same-POS
// records never blocks mid-batch, matching distilled spec §4.4's
// backpressure rule, which rate-matches across POS values rather than
// within one.
func (b *Buffer) flushBatch() {
	batch := b.batch
	b.batch = nil
	b.sem.Acquire()
	b.queue.Async(func() { b.processBatch(batch) })
}

func (b *Buffer) processBatch(batch []*pooledRecord) {
	defer b.sem.Release()
	for _, node := range batch {
		b.Handler.HandleVariant(&node.rec)
		b.returnNode(node)
	}
}
