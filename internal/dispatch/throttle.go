// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

// Package dispatch re-expresses the Grand Central Dispatch primitives the
// original vcf2multialign implementation is built on (dispatch_queue_t,
// dispatch_group_t, dispatch_semaphore_t, dispatch_source_t) in terms of
// goroutines, channels and sync.WaitGroup, following the concurrency idiom
// already used throughout this repository's teacher codebase.
package dispatch

import (
	"sync"
	"sync/atomic"
)

// Semaphore is a counting semaphore backed by a buffered channel, exactly
// as the teacher's own throttle type implements one: Acquire blocks until a
// slot is free, Release returns it. It also accumulates the first reported
// error, the same semantics the teacher's throttle uses to let a fan-out of
// goroutines report failure without a dedicated error channel.
//
// This exists instead of golang.org/x/sync/semaphore because the variant
// buffer's backpressure rule (distilled spec §4.4: "a long run of same-POS
// records does not block... cross-POS rate-matching is enforced") needs
// exactly the channel-as-counter behavior below, not a weighted semaphore.
type Semaphore struct {
	Max       int
	wg        sync.WaitGroup
	ch        chan struct{}
	err       atomic.Value
	setupOnce sync.Once
	errorOnce sync.Once
}

// Acquire reserves one of Max concurrent slots, blocking if none are free.
func (s *Semaphore) Acquire() {
	s.setupOnce.Do(func() { s.ch = make(chan struct{}, s.Max) })
	s.wg.Add(1)
	s.ch <- struct{}{}
}

// Release returns a slot reserved by Acquire.
func (s *Semaphore) Release() {
	s.wg.Done()
	<-s.ch
}

// Report records err as the semaphore's terminal error if none has been
// reported yet.
func (s *Semaphore) Report(err error) {
	if err != nil {
		s.errorOnce.Do(func() { s.err.Store(err) })
	}
}

// Err returns the first error reported via Report, if any.
func (s *Semaphore) Err() error {
	err, _ := s.err.Load().(error)
	return err
}

// Wait blocks until every Acquire has a matching Release, then returns the
// first reported error.
func (s *Semaphore) Wait() error {
	s.wg.Wait()
	return s.Err()
}
