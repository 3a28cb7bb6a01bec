// Package dispatch serializes event delivery to the analyzer.
//
// Event sources - the trace replayer, the live-capture runtime, tests - may
// submit events from any number of goroutines. The Dispatcher guarantees that
// the Analyzer observes one totally ordered stream: each submission runs the
// corresponding analyzer operation under the analyzer lock, so the total
// order is the lock-acquisition order, which is a linear extension of the
// traced program's happens-before as long as SubmitRead and SubmitWrite are
// invoked on the logical thread performing the access.
//
// Submissions are total: nothing propagates back to the source. Races flow
// out through the handlers installed on the Analyzer, races only; dropped
// events are visible as counters.
package dispatch

import (
	"errors"
	"io"
	"sync/atomic"

	"github.com/kolkov/djitrace/internal/djit/analyzer"
)

// Stats counts delivered events per kind. Counters are cumulative for the
// dispatcher's lifetime.
type Stats struct {
	Reads    uint64
	Writes   uint64
	Acquires uint64
	Releases uint64
	Forks    uint64
	Joins    uint64
}

// Total returns the number of delivered events of all kinds.
func (s Stats) Total() uint64 {
	return s.Reads + s.Writes + s.Acquires + s.Releases + s.Forks + s.Joins
}

// Dispatcher routes submitted events to a single Analyzer instance.
// Safe for concurrent use.
type Dispatcher struct {
	an *analyzer.Analyzer

	reads    atomic.Uint64
	writes   atomic.Uint64
	acquires atomic.Uint64
	releases atomic.Uint64
	forks    atomic.Uint64
	joins    atomic.Uint64
}

// New creates a Dispatcher delivering to an.
func New(an *analyzer.Analyzer) *Dispatcher {
	return &Dispatcher{an: an}
}

// Analyzer returns the wrapped analyzer, for queries and handler setup.
func (d *Dispatcher) Analyzer() *analyzer.Analyzer {
	return d.an
}

// SubmitRead delivers a read of x by t. Must be invoked on the logical
// thread that performs the access.
func (d *Dispatcher) SubmitRead(t analyzer.ThreadID, x analyzer.VarID) {
	d.reads.Add(1)
	d.an.Read(t, x)
}

// SubmitWrite delivers a write of x by t. Must be invoked on the logical
// thread that performs the access.
func (d *Dispatcher) SubmitWrite(t analyzer.ThreadID, x analyzer.VarID) {
	d.writes.Add(1)
	d.an.Write(t, x)
}

// SubmitAcquire delivers an acquire of m by t.
func (d *Dispatcher) SubmitAcquire(t analyzer.ThreadID, m analyzer.LockID) {
	d.acquires.Add(1)
	d.an.Acquire(t, m)
}

// SubmitRelease delivers a release of m by t.
func (d *Dispatcher) SubmitRelease(t analyzer.ThreadID, m analyzer.LockID) {
	d.releases.Add(1)
	d.an.Release(t, m)
}

// SubmitFork delivers a fork by t binding child, returning the fresh child
// thread id.
func (d *Dispatcher) SubmitFork(t analyzer.ThreadID, child analyzer.Handle) analyzer.ThreadID {
	d.forks.Add(1)
	return d.an.Fork(t, child)
}

// SubmitJoin delivers a join by t of the thread bound to child.
func (d *Dispatcher) SubmitJoin(t analyzer.ThreadID, child analyzer.Handle) {
	d.joins.Add(1)
	d.an.Join(t, child)
}

// Apply routes one event record to the submit operation for its kind.
func (d *Dispatcher) Apply(ev Event) {
	switch ev.Kind {
	case KindRead:
		d.SubmitRead(ev.Thread, ev.Var)
	case KindWrite:
		d.SubmitWrite(ev.Thread, ev.Var)
	case KindAcquire:
		d.SubmitAcquire(ev.Thread, ev.Lock)
	case KindRelease:
		d.SubmitRelease(ev.Thread, ev.Lock)
	case KindFork:
		d.SubmitFork(ev.Thread, ev.Child)
	case KindJoin:
		d.SubmitJoin(ev.Thread, ev.Child)
	}
}

// Source produces an event stream. Next returns io.EOF when the stream
// ends; any other error aborts the pump.
type Source interface {
	Next() (Event, error)
}

// Pump drains src into the dispatcher, one event at a time in source order,
// and returns the number of events delivered. The source is assumed to block
// until the previous event has been analyzed; Pump provides exactly that by
// calling Next only after Apply returns.
func (d *Dispatcher) Pump(src Source) (int, error) {
	n := 0
	for {
		ev, err := src.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		d.Apply(ev)
		n++
	}
}

// Stats returns a copy of the per-kind delivery counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Reads:    d.reads.Load(),
		Writes:   d.writes.Load(),
		Acquires: d.acquires.Load(),
		Releases: d.releases.Load(),
		Forks:    d.forks.Load(),
		Joins:    d.joins.Load(),
	}
}
