// Copyright 2026 The djitrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package djit provides a dynamic data-race detector based on the Djit+
// vector-clock algorithm.
//
// The detector observes a stream of thread events - reads, writes, lock
// acquires and releases, forks and joins - and reports every pair of
// accesses to the same variable that is not ordered by the happens-before
// relation the synchronization events induce. It maintains one vector clock
// per thread, a read clock and a write clock per variable, and one clock per
// lock, updating them in amortized constant time per event.
//
// # Quick start
//
// Instrument the interesting accesses by hand and run the program:
//
//	package main
//
//	import "github.com/kolkov/djitrace/djit"
//
//	var counter int
//
//	func main() {
//		djit.Init()
//		defer djit.Fini()
//
//		djit.Write("counter")
//		counter = 42
//	}
//
// This program has a single goroutine and reports no race. Races are
// reported to stderr as they are detected; had a second, unsynchronized
// goroutine (thread 1) also written counter, the report would read:
//
//	==================
//	WARNING: DATA RACE
//	Write race on counter by thread 1
//	  C[1] = <T1:1>
//	  R[counter] = <>
//	  W[counter] = <T0:1,T1:1>
//	  [report 7f9c24e8-...]
//	==================
//
// # Goroutine lifecycle
//
// Happens-before edges across goroutines come from the events the program
// reports. Wrap goroutine creation with [Fork], [Begin] and [End], and the
// await with [Join]; wrap mutex use with [Acquire] and [Release]. Accesses
// whose synchronization the program does not report are treated as
// unordered, so unreported custom synchronization produces false positives -
// the detector is only as complete as the events it is given.
//
// # Recorded traces
//
// The same analyzer runs offline over recorded event streams; see the
// djitrace command's replay subcommand. Both front-ends produce the event
// stream through one dispatcher contract, so a live run and a replayed
// trace of the same program report the same races.
package djit
