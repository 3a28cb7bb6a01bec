package analyzer

import "github.com/kolkov/djitrace/internal/djit/vectorclock"

// Snapshot is a consistent copy of the entire analyzer state, taken under
// the analyzer lock. Reporters use it for the post-mortem dump; tests use it
// to check the quantified invariants. The order slices list threads in
// ascending id order and variables and locks in registration-or-first-use
// order, so dumps are stable across runs of the same trace.
type Snapshot struct {
	ThreadOrder []ThreadID
	VarOrder    []VarID
	LockOrder   []LockID

	Threads map[ThreadID]vectorclock.Clock
	Reads   map[VarID]vectorclock.Clock
	Writes  map[VarID]vectorclock.Clock
	Locks   map[LockID]vectorclock.Clock
}

// Snapshot copies the complete analyzer state: every thread, variable and
// lock clock. The copy is deep; the caller owns it.
func (a *Analyzer) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		ThreadOrder: a.threadIDs(),
		VarOrder:    make([]VarID, len(a.vars)),
		LockOrder:   make([]LockID, len(a.locks)),
		Threads:     make(map[ThreadID]vectorclock.Clock, len(a.threads)),
		Reads:       make(map[VarID]vectorclock.Clock, len(a.readVC)),
		Writes:      make(map[VarID]vectorclock.Clock, len(a.writeVC)),
		Locks:       make(map[LockID]vectorclock.Clock, len(a.lockVC)),
	}
	copy(s.VarOrder, a.vars)
	copy(s.LockOrder, a.locks)

	for t, c := range a.threads {
		s.Threads[t] = c.Clone()
	}
	for x, c := range a.readVC {
		s.Reads[x] = c.Clone()
	}
	for x, c := range a.writeVC {
		s.Writes[x] = c.Clone()
	}
	for m, c := range a.lockVC {
		s.Locks[m] = c.Clone()
	}
	return s
}
