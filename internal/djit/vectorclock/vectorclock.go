// Package vectorclock implements vector clocks for tracking happens-before relations.
//
// A vector clock maps thread ids to logical times and summarizes the
// happens-before prefix of an event. The Djit+ analyzer keeps one clock per
// thread (C), two per variable (R and W) and one per lock (L), and drives
// them with two operations:
//
//   - Join: point-wise maximum - applied on lock acquire and thread join
//   - LessOrEqual: happens-before check (partial order) - the race predicate
//
// Two representations are provided behind the Clock interface. Sparse keeps a
// map from thread id to time and supports an unbounded, dynamically forked
// thread population. Dense keeps a fixed-capacity slice and suits traced
// programs whose thread count is known at start time.
package vectorclock

import (
	"sort"
	"strconv"
	"strings"
)

// Clock is the vector-clock abstraction shared by both representations.
//
// Semantically a clock is a total function from thread id to logical time;
// threads it has never seen are at time 0. Implementations must support
// mixed-representation Join and LessOrEqual via Threads and Get.
type Clock interface {
	// Get returns the logical time for thread tid (0 if never set).
	Get(tid int) uint64

	// Set installs the logical time for thread tid.
	Set(tid int, clock uint64)

	// Increment advances the logical time for thread tid by one.
	Increment(tid int)

	// Join merges other into this clock: point-wise maximum.
	// The receiver is updated destructively; other is not modified.
	Join(other Clock)

	// LessOrEqual reports whether this clock happens-before-or-equals other:
	// Get(t) <= other.Get(t) for every thread t.
	LessOrEqual(other Clock) bool

	// Clone returns a deep copy, independent of the receiver.
	Clone() Clock

	// Threads returns the ids with a nonzero time, in ascending order.
	Threads() []int

	// String renders the clock as "<T0:2,T3:1>" for diagnostics and dumps.
	String() string
}

// Sparse is a map-backed vector clock.
//
// Unmentioned threads are implicitly at time 0, so a Sparse clock costs
// memory proportional to the threads it has actually observed. This is the
// default representation: the analyzer allocates thread ids monotonically and
// never recycles them, so a fixed-size array would have to be sized for the
// whole run up front.
type Sparse struct {
	clocks map[int]uint64
}

// New creates an empty sparse vector clock (all threads at time 0).
func New() *Sparse {
	return &Sparse{clocks: make(map[int]uint64)}
}

// Get returns the logical time for thread tid.
func (vc *Sparse) Get(tid int) uint64 {
	return vc.clocks[tid]
}

// Set installs the logical time for thread tid.
// Setting 0 removes the entry so that Threads stays minimal.
func (vc *Sparse) Set(tid int, clock uint64) {
	if clock == 0 {
		delete(vc.clocks, tid)
		return
	}
	vc.clocks[tid] = clock
}

// Increment advances the logical time for thread tid.
func (vc *Sparse) Increment(tid int) {
	vc.clocks[tid]++
}

// Join merges other into vc: vc = vc ⊔ other.
//
// Only the entries other actually carries can raise a component, so the loop
// runs over other's support and never materializes zero entries.
func (vc *Sparse) Join(other Clock) {
	if o, ok := other.(*Sparse); ok {
		for tid, v := range o.clocks {
			if v > vc.clocks[tid] {
				vc.clocks[tid] = v
			}
		}
		return
	}
	for _, tid := range other.Threads() {
		if v := other.Get(tid); v > vc.clocks[tid] {
			vc.clocks[tid] = v
		}
	}
}

// LessOrEqual reports vc ⊑ other.
//
// A missing entry on either side reads as 0, so only vc's support needs to be
// checked: a zero component is ⊑ anything.
func (vc *Sparse) LessOrEqual(other Clock) bool {
	for tid, v := range vc.clocks {
		if v > other.Get(tid) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the clock.
func (vc *Sparse) Clone() Clock {
	clone := &Sparse{clocks: make(map[int]uint64, len(vc.clocks))}
	for tid, v := range vc.clocks {
		clone.clocks[tid] = v
	}
	return clone
}

// Threads returns the thread ids with nonzero time, ascending.
func (vc *Sparse) Threads() []int {
	tids := make([]int, 0, len(vc.clocks))
	for tid := range vc.clocks {
		tids = append(tids, tid)
	}
	sort.Ints(tids)
	return tids
}

// String renders the clock as "<T0:2,T3:1>"; the empty clock is "<>".
func (vc *Sparse) String() string {
	return format(vc)
}

// Equal reports whether two clocks agree on every component.
// Used by tests and the final-dump differ; not on the event path.
func Equal(a, b Clock) bool {
	return a.LessOrEqual(b) && b.LessOrEqual(a)
}

// format renders any Clock in the "<T0:2,T3:1>" notation.
func format(vc Clock) string {
	tids := vc.Threads()
	if len(tids) == 0 {
		return "<>"
	}
	var b strings.Builder
	sep := byte('<')
	for _, tid := range tids {
		b.WriteByte(sep)
		b.WriteByte('T')
		b.WriteString(strconv.Itoa(tid))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(vc.Get(tid), 10))
		sep = ','
	}
	b.WriteByte('>')
	return b.String()
}
