// Copyright (C) The Lightning Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package dispatch

import (
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
)

// StatusReporter is anything that can describe its current pool/queue
// status for diagnostics, mirroring gzip_sink_impl::buffer_memory_resource
// in the original, which the SIGHUP handler dumps on receipt of the signal.
type StatusReporter interface {
	LogStatus(logger log.FieldLogger)
}

// InstallSIGHUPHandler starts a goroutine that logs reporter's status every
// time the process receives SIGHUP, mirroring
// generate_context::handle_hup_mt, which is installed on the main queue in
// generate_haplotypes.cc. SIGHUP is purely informational here, matching
// distilled spec §5 ("A SIGHUP is informational only; there is no
// user-visible cancel"). The returned stop func cancels the signal
// subscription.
func InstallSIGHUPHandler(logger log.FieldLogger, reporter StatusReporter) (stop func()) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ch:
				reporter.LogStatus(logger)
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}
