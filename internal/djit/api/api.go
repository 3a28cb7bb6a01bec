// Copyright 2026 The djitrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package api implements the live-capture runtime behind the public djit
// package.
//
// Where trace replay feeds the analyzer recorded events, this layer produces
// them from a running program: manually instrumented code calls Read, Write,
// Acquire, Release, Fork, Begin and Join, and the runtime maps each calling
// goroutine to an analyzer thread id. The mapping key is the goroutine id
// (goid); a goroutine entered through Begin takes the thread id its Fork
// allocated, and a goroutine seen with no binding at all is adopted as a
// fresh root thread with no happens-before edges - the detector is only as
// complete as the fork/join edges it is told about.
//
// The runtime is process-global, like the detector runtime it is modeled on:
// one analyzer, one dispatcher, one reporter, initialized by Init and
// summarized by Fini.
package api

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"

	"github.com/kolkov/djitrace/internal/djit/analyzer"
	"github.com/kolkov/djitrace/internal/djit/dispatch"
	"github.com/kolkov/djitrace/internal/djit/report"
)

// EnvVar is the environment variable consulted by Init, a comma-separated
// key=value list:
//
//	DJITRACE=output=stdout,watch=1,dump=1
//
// output selects where reports go (stderr, stdout), watch=1 enables the
// strict watch-set policy, dump=1 makes Fini print the full clock dump.
const EnvVar = "DJITRACE"

var (
	mu          sync.Mutex
	initialized bool

	disp *dispatch.Dispatcher
	rep  *report.Reporter

	// bindings maps goroutine ids to analyzer thread ids. Reads vastly
	// outnumber writes (one write per goroutine lifetime), the sync.Map
	// case.
	bindings sync.Map // int64 -> analyzer.ThreadID

	// handleSeq numbers fork handles; handles only need process-lifetime
	// uniqueness.
	handleSeq atomic.Uint64

	dumpOnFini bool
	out        io.Writer = os.Stderr
)

// Init initializes the global runtime and binds the calling goroutine as
// the first thread. Safe to call multiple times; only the first call takes
// effect. Configuration comes from the DJITRACE environment variable.
func Init() {
	mu.Lock()
	defer mu.Unlock()
	if initialized {
		return
	}

	var opts []analyzer.Option
	for _, kv := range strings.Split(os.Getenv(EnvVar), ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(kv), "=")
		switch key {
		case "output":
			if value == "stdout" {
				out = os.Stdout
			}
		case "watch":
			if value == "1" {
				opts = append(opts, analyzer.WithWatchSet())
			}
		case "dump":
			dumpOnFini = value == "1"
		}
	}

	an := analyzer.New(opts...)
	rep = report.NewReporter(out, report.StyleBlock)
	rep.Attach(an)
	disp = dispatch.New(an)

	bindings.Store(goid.Get(), an.Adopt())
	initialized = true
}

// Fini prints the run summary: the race count, and the full clock dump when
// dump=1 was configured. The runtime stays usable afterwards.
func Fini() {
	mu.Lock()
	defer mu.Unlock()
	if !initialized {
		return
	}

	fmt.Fprintf(out, "djitrace: %d data race(s) detected\n", rep.Count())
	if dumpOnFini {
		report.FormatDump(out, disp.Analyzer().Snapshot())
	}
}

// Enabled reports whether Init has run.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return initialized
}

// currentTID returns the analyzer thread id bound to the calling goroutine,
// adopting a fresh root thread on first sight.
func currentTID() analyzer.ThreadID {
	gid := goid.Get()
	if t, ok := bindings.Load(gid); ok {
		return t.(analyzer.ThreadID)
	}
	t := disp.Analyzer().Adopt()
	bindings.Store(gid, t)
	return t
}

// RegisterVar declares x to the analyzer's watch set.
func RegisterVar(x string) {
	if !ready() {
		return
	}
	disp.Analyzer().RegisterVar(analyzer.VarID(x))
}

// RegisterLock declares m to the analyzer's watch set.
func RegisterLock(m string) {
	if !ready() {
		return
	}
	disp.Analyzer().RegisterLock(analyzer.LockID(m))
}

// Read records that the calling goroutine reads x.
func Read(x string) {
	if !ready() {
		return
	}
	disp.SubmitRead(currentTID(), analyzer.VarID(x))
}

// Write records that the calling goroutine writes x.
func Write(x string) {
	if !ready() {
		return
	}
	disp.SubmitWrite(currentTID(), analyzer.VarID(x))
}

// Acquire records that the calling goroutine acquired m. Call it after the
// underlying lock call returns.
func Acquire(m string) {
	if !ready() {
		return
	}
	disp.SubmitAcquire(currentTID(), analyzer.LockID(m))
}

// Release records that the calling goroutine is releasing m. Call it before
// the underlying unlock proceeds.
func Release(m string) {
	if !ready() {
		return
	}
	disp.SubmitRelease(currentTID(), analyzer.LockID(m))
}

// Fork records that the calling goroutine is about to start a child
// goroutine, and returns the handle the child must pass to Begin. Call Fork
// before the go statement, on the parent.
func Fork() string {
	if !ready() {
		return ""
	}
	h := fmt.Sprintf("g%d", handleSeq.Add(1))
	disp.SubmitFork(currentTID(), analyzer.Handle(h))
	return h
}

// Begin binds the calling goroutine to the thread id its Fork allocated.
// Call it first thing inside the child goroutine. A handle Fork never
// issued leaves the goroutine to be adopted as an unrelated root thread.
func Begin(h string) {
	if !ready() {
		return
	}
	if t, ok := disp.Analyzer().ThreadOf(analyzer.Handle(h)); ok {
		bindings.Store(goid.Get(), t)
	}
}

// End drops the calling goroutine's binding. Call it when the instrumented
// goroutine returns; goids are reused by the Go runtime, and a stale binding
// would hand a recycled goroutine a dead thread's clock.
func End() {
	if !ready() {
		return
	}
	bindings.Delete(goid.Get())
}

// Join records that the calling goroutine joined the child forked under h.
// Call it after the synchronization that awaits the child (WaitGroup.Wait,
// channel receive) has returned.
func Join(h string) {
	if !ready() {
		return
	}
	disp.SubmitJoin(currentTID(), analyzer.Handle(h))
}

// Races returns the number of violations reported so far.
func Races() int {
	if !ready() {
		return 0
	}
	return rep.Count()
}

func ready() bool {
	mu.Lock()
	defer mu.Unlock()
	return initialized
}
