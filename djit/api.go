// Copyright 2026 The djitrace Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package djit provides the public API for the Djit+ race detector runtime.
//
// See doc.go for detailed documentation and examples.
package djit

import internal "github.com/kolkov/djitrace/internal/djit/api"

// Init initializes the detector runtime and binds the calling goroutine as
// the first observed thread.
//
// Call it at program startup, before any other djit operation:
//
//	func main() {
//		djit.Init()
//		defer djit.Fini()
//		// ... rest of program
//	}
//
// Init is safe to call multiple times (subsequent calls are no-ops).
// Configuration is read from the DJITRACE environment variable; see
// [EnvVar].
func Init() {
	internal.Init()
}

// Fini prints the run summary: the number of races detected, and the full
// vector-clock dump when dump=1 is configured. Use defer so the summary
// survives early returns:
//
//	djit.Init()
//	defer djit.Fini()
func Fini() {
	internal.Fini()
}

// EnvVar is the configuration environment variable, a comma-separated
// key=value list: output=stdout|stderr, watch=1, dump=1.
const EnvVar = internal.EnvVar

// RegisterVar declares variable x to the watch set. Under the default lazy
// policy registration is optional; under watch=1 only registered variables
// are analyzed.
func RegisterVar(x string) {
	internal.RegisterVar(x)
}

// RegisterLock declares lock m to the watch set.
func RegisterLock(m string) {
	internal.RegisterLock(m)
}

// Read records a read of variable x by the calling goroutine. Instrument
// the access site:
//
//	djit.Read("counter")
//	v := counter
func Read(x string) {
	internal.Read(x)
}

// Write records a write of variable x by the calling goroutine:
//
//	djit.Write("counter")
//	counter = v
func Write(x string) {
	internal.Write(x)
}

// Acquire records that the calling goroutine acquired lock m. Call it after
// the underlying Lock() returns, so the event order matches the real
// acquisition order:
//
//	mu.Lock()
//	djit.Acquire("mu")
func Acquire(m string) {
	internal.Acquire(m)
}

// Release records that the calling goroutine is releasing lock m. Call it
// before the underlying Unlock():
//
//	djit.Release("mu")
//	mu.Unlock()
func Release(m string) {
	internal.Release(m)
}

// Fork announces a child goroutine and returns its handle. Call on the
// parent, before the go statement; pass the handle into the child for
// Begin, and keep it for Join:
//
//	h := djit.Fork()
//	go func() {
//		djit.Begin(h)
//		defer djit.End()
//		// ... child work
//	}()
func Fork() string {
	return internal.Fork()
}

// Begin binds the calling goroutine to the thread Fork allocated for it.
// Must be the first djit call the child makes.
func Begin(h string) {
	internal.Begin(h)
}

// End releases the calling goroutine's binding. Pair it with Begin
// (typically via defer); goroutine ids are recycled by the Go runtime.
func End() {
	internal.End()
}

// Join records that the child forked under h has been awaited. Call it
// after the synchronization that waits for the child (WaitGroup.Wait, a
// channel receive of the child's completion) has returned:
//
//	wg.Wait()
//	djit.Join(h)
func Join(h string) {
	internal.Join(h)
}

// Races returns the number of data races reported so far.
func Races() int {
	return internal.Races()
}
