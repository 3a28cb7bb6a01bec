// Package analyzer implements the Djit+ vector-clock race-detection core.
//
// The Analyzer consumes a serialized stream of thread events - reads, writes,
// lock acquires and releases, forks and joins - and maintains the vector
// clocks that encode the happens-before relation of the traced program:
//
//	C[t]  per-thread clock: the happens-before prefix of thread t
//	R[x]  per-variable read clock: R[x][t] is the time of t's last read of x
//	W[x]  per-variable write clock: W[x][t] is the time of t's last write of x
//	L[m]  per-lock clock: C of the most recent releaser of m
//
// At each access the race predicates are evaluated against the clocks as they
// were before the access is folded in:
//
//	read  t,x  races unless W[x] ⊑ C[t]
//	write t,x  races unless R[x] ⊑ C[t] and W[x] ⊑ C[t]
//
// Violations are surfaced through the two handler callbacks; every violation
// is reported as it occurs, including repeated violations on the same
// variable.
//
// All state is guarded by a single mutex (the analyzer lock). Every event
// operation acquires it on entry, and handlers run on the delivering
// goroutine while it is still held - handlers must not call back into the
// Analyzer.
package analyzer

import (
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/xojoc/bitset"

	"github.com/kolkov/djitrace/internal/djit/vectorclock"
)

// ThreadID identifies a thread observed by the Analyzer. Ids are assigned
// from a monotonically increasing counter and never reused.
type ThreadID int

// VarID identifies a watched variable. The Analyzer imposes nothing on it
// beyond equality and ordering; a symbolic name and a formatted address both
// work.
type VarID string

// LockID identifies a watched lock.
type LockID string

// Handle is the opaque name a fork event binds to the child thread it
// creates. A later join resolves the handle back to the child's ThreadID.
type Handle string

// ReadViolation is the snapshot delivered to the read-violation handler.
// All clocks are copies taken after the triggering read was recorded; the
// receiver owns them.
type ReadViolation struct {
	Thread      ThreadID
	Var         VarID
	ThreadClock vectorclock.Clock // C[t]
	WriteClock  vectorclock.Clock // W[x]
}

// WriteViolation is the snapshot delivered to the write-violation handler.
type WriteViolation struct {
	Thread      ThreadID
	Var         VarID
	ThreadClock vectorclock.Clock // C[t]
	ReadClock   vectorclock.Clock // R[x]
	WriteClock  vectorclock.Clock // W[x]
}

// ReadViolationHandler observes read races. It runs with the analyzer lock
// held and must not re-enter the Analyzer.
type ReadViolationHandler func(ReadViolation)

// WriteViolationHandler observes write races under the same contract.
type WriteViolationHandler func(WriteViolation)

// Option configures an Analyzer at construction.
type Option func(*Analyzer)

// WithWatchSet makes registration mandatory: events naming a variable or
// lock that was never registered are dropped without side effects. This is
// the policy an instrumentation front-end wants when only a few symbols are
// of interest. The default is lazy creation, where first access registers.
func WithWatchSet() Option {
	return func(a *Analyzer) { a.watchSet = true }
}

// WithThreads pre-creates thread ids 0 through n-1, each at C[t][t] = 1.
// Replayed traces that name fixed thread ids (the two-thread demo scenarios)
// use this; dynamically forked populations do not need it.
func WithThreads(n int) Option {
	return func(a *Analyzer) { a.seedThreads = n }
}

// WithBoundedThreads switches the clock representation to the dense
// fixed-capacity variant sized for thread ids 0 through n-1, and pre-creates
// them as WithThreads does. Ids at or beyond n panic.
func WithBoundedThreads(n int) Option {
	return func(a *Analyzer) {
		a.seedThreads = n
		a.newClock = func() vectorclock.Clock { return vectorclock.NewDense(n) }
	}
}

// WithDiagnostics redirects diagnostic output (dropped join handles).
// The default is os.Stderr.
func WithDiagnostics(w io.Writer) Option {
	return func(a *Analyzer) { a.diag = w }
}

// Analyzer is the Djit+ core. It exclusively owns every clock; callers hold
// only ids and handles, and all query results are copies.
//
// Safe for concurrent use: every operation serializes on the analyzer lock.
type Analyzer struct {
	mu sync.Mutex

	newClock func() vectorclock.Clock

	threads map[ThreadID]vectorclock.Clock
	readVC  map[VarID]vectorclock.Clock
	writeVC map[VarID]vectorclock.Clock
	lockVC  map[LockID]vectorclock.Clock

	// vars and locks hold registration-or-first-use order for dumps.
	vars  []VarID
	locks []LockID

	// observed marks every thread id ever seen; lastID stays at or above
	// the largest of them so Fork never collides with a replayed id.
	observed *bitset.BitSet
	lastID   ThreadID

	// handles binds fork handles to the child ids they created.
	handles map[Handle]ThreadID

	watchSet    bool
	seedThreads int
	dropped     uint64

	diag io.Writer

	onReadViolated  ReadViolationHandler
	onWriteViolated WriteViolationHandler
}

// New creates an Analyzer. With no options it uses sparse clocks, lazy
// entity creation and diagnostics on stderr.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		newClock: func() vectorclock.Clock { return vectorclock.New() },
		threads:  make(map[ThreadID]vectorclock.Clock),
		readVC:   make(map[VarID]vectorclock.Clock),
		writeVC:  make(map[VarID]vectorclock.Clock),
		lockVC:   make(map[LockID]vectorclock.Clock),
		observed: &bitset.BitSet{},
		handles:  make(map[Handle]ThreadID),
		lastID:   -1,
		diag:     os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	for t := 0; t < a.seedThreads; t++ {
		a.thread(ThreadID(t))
	}
	return a
}

// SetReadViolationHandler installs the read-race handler. A nil handler
// discards violations; the event still updates state either way.
func (a *Analyzer) SetReadViolationHandler(f ReadViolationHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onReadViolated = f
}

// SetWriteViolationHandler installs the write-race handler.
func (a *Analyzer) SetWriteViolationHandler(f WriteViolationHandler) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onWriteViolated = f
}

// RegisterVar inserts R[x] = W[x] = zero if x is absent. Idempotent.
func (a *Analyzer) RegisterVar(x VarID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registerVar(x)
}

// RegisterLock inserts L[m] = zero if m is absent. Idempotent.
func (a *Analyzer) RegisterLock(m LockID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registerLock(m)
}

func (a *Analyzer) registerVar(x VarID) {
	if _, ok := a.readVC[x]; ok {
		return
	}
	a.readVC[x] = a.newClock()
	a.writeVC[x] = a.newClock()
	a.vars = append(a.vars, x)
}

func (a *Analyzer) registerLock(m LockID) {
	if _, ok := a.lockVC[m]; ok {
		return
	}
	a.lockVC[m] = a.newClock()
	a.locks = append(a.locks, m)
}

// thread returns C[t], creating it at C[t][t] = 1 on first observation.
// Caller holds the analyzer lock.
func (a *Analyzer) thread(t ThreadID) vectorclock.Clock {
	if c, ok := a.threads[t]; ok {
		if c.Get(int(t)) == 0 {
			panic(fmt.Sprintf("analyzer: corrupted state: C[%d][%d] = 0", t, t))
		}
		return c
	}
	c := a.newClock()
	c.Set(int(t), 1)
	a.threads[t] = c
	a.observed.Set(int(t))
	if t > a.lastID {
		a.lastID = t
	}
	return c
}

// varClocks returns (R[x], W[x]). Under the watch-set policy an unregistered
// x yields ok = false and the event must be dropped; otherwise first access
// registers.
func (a *Analyzer) varClocks(x VarID) (r, w vectorclock.Clock, ok bool) {
	if _, present := a.readVC[x]; !present {
		if a.watchSet {
			return nil, nil, false
		}
		a.registerVar(x)
	}
	return a.readVC[x], a.writeVC[x], true
}

// Read processes a read of x by thread t.
//
// The predicate W[x] ⊑ C[t] is evaluated against the clocks as they stand
// before the read is recorded, then R[x][t] is set to C[t][t]. A thread
// re-reading its own footprint therefore never trips the predicate.
func (a *Analyzer) Read(t ThreadID, x VarID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rx, wx, ok := a.varClocks(x)
	if !ok {
		a.dropped++
		return
	}
	ct := a.thread(t)

	noRace := wx.LessOrEqual(ct)
	rx.Set(int(t), ct.Get(int(t)))

	if !noRace && a.onReadViolated != nil {
		a.onReadViolated(ReadViolation{
			Thread:      t,
			Var:         x,
			ThreadClock: ct.Clone(),
			WriteClock:  wx.Clone(),
		})
	}
}

// Write processes a write of x by thread t.
//
// The predicate R[x] ⊑ C[t] ∧ W[x] ⊑ C[t] is evaluated before W[x][t] is
// set to C[t][t].
func (a *Analyzer) Write(t ThreadID, x VarID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rx, wx, ok := a.varClocks(x)
	if !ok {
		a.dropped++
		return
	}
	ct := a.thread(t)

	noRace := rx.LessOrEqual(ct) && wx.LessOrEqual(ct)
	wx.Set(int(t), ct.Get(int(t)))

	if !noRace && a.onWriteViolated != nil {
		a.onWriteViolated(WriteViolation{
			Thread:      t,
			Var:         x,
			ThreadClock: ct.Clone(),
			ReadClock:   rx.Clone(),
			WriteClock:  wx.Clone(),
		})
	}
}

// Acquire processes t acquiring m: C[t] ← C[t] ⊔ L[m]. The lock clock is
// not modified, and no race check runs.
func (a *Analyzer) Acquire(t ThreadID, m LockID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, present := a.lockVC[m]; !present {
		if a.watchSet {
			a.dropped++
			return
		}
		a.registerLock(m)
	}
	a.thread(t).Join(a.lockVC[m])
}

// Release processes t releasing m: C[t][t] is incremented first, then C[t]
// is copied into L[m]. The increment before publication guarantees a later
// acquirer observes a strictly greater time for t. A release without a prior
// acquire is permitted.
func (a *Analyzer) Release(t ThreadID, m LockID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, present := a.lockVC[m]; !present {
		if a.watchSet {
			a.dropped++
			return
		}
		a.registerLock(m)
	}
	ct := a.thread(t)
	ct.Increment(int(t))
	a.lockVC[m] = ct.Clone()
}

// Fork processes t creating a child thread bound to handle child, and
// returns the fresh id allocated for it.
//
// The child inherits the parent's happens-before prefix (C[u] ← C[t]) and
// gets a clean own component (C[u][u] ← 1); the parent's time then advances
// so that later parent events are not ordered before the child's start. A
// handle may be rebound by a later fork; the previous binding is lost.
func (a *Analyzer) Fork(t ThreadID, child Handle) ThreadID {
	a.mu.Lock()
	defer a.mu.Unlock()

	ct := a.thread(t)

	u := a.lastID + 1
	a.lastID = u
	a.handles[child] = u

	cu := ct.Clone()
	cu.Set(int(u), 1)
	a.threads[u] = cu
	a.observed.Set(int(u))

	ct.Increment(int(t))
	return u
}

// Join processes t joining the child bound to handle child:
// C[t] ← C[t] ⊔ C[u], then C[u][u] is incremented to keep the terminated
// thread's state monotone. A handle no fork ever bound indicates a corrupted
// event source; the event is dropped with a diagnostic. Self-joins are
// dropped the same way.
func (a *Analyzer) Join(t ThreadID, child Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.handles[child]
	if !ok {
		a.dropped++
		fmt.Fprintf(a.diag, "djitrace: join by thread %d for unknown handle %q dropped\n", t, child)
		return
	}
	if u == t {
		a.dropped++
		fmt.Fprintf(a.diag, "djitrace: thread %d joining itself via handle %q dropped\n", t, child)
		return
	}

	cu := a.thread(u)
	a.thread(t).Join(cu)
	cu.Increment(int(u))
}

// Adopt allocates a fresh thread id with no happens-before relation to any
// existing thread. The live-capture runtime uses it for goroutines it first
// observes mid-flight, where no fork event was recorded.
func (a *Analyzer) Adopt() ThreadID {
	a.mu.Lock()
	defer a.mu.Unlock()

	u := a.lastID + 1
	a.thread(u)
	return u
}

// ThreadOf resolves a fork handle to the thread id it is bound to.
func (a *Analyzer) ThreadOf(child Handle) (ThreadID, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.handles[child]
	return u, ok
}

// ThreadClock returns a copy of C[t]. ok is false if t was never observed.
func (a *Analyzer) ThreadClock(t ThreadID) (vectorclock.Clock, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.threads[t]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// ReadClock returns a copy of R[x].
func (a *Analyzer) ReadClock(x VarID) (vectorclock.Clock, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.readVC[x]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// WriteClock returns a copy of W[x].
func (a *Analyzer) WriteClock(x VarID) (vectorclock.Clock, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.writeVC[x]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// LockClock returns a copy of L[m].
func (a *Analyzer) LockClock(m LockID) (vectorclock.Clock, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.lockVC[m]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Variables returns the registered variables in registration-or-first-use
// order.
func (a *Analyzer) Variables() []VarID {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]VarID, len(a.vars))
	copy(out, a.vars)
	return out
}

// Locks returns the registered locks in registration-or-first-use order.
func (a *Analyzer) Locks() []LockID {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]LockID, len(a.locks))
	copy(out, a.locks)
	return out
}

// Threads returns every observed thread id, ascending.
func (a *Analyzer) Threads() []ThreadID {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.threadIDs()
}

func (a *Analyzer) threadIDs() []ThreadID {
	tids := make([]ThreadID, 0, len(a.threads))
	for t := range a.threads {
		if a.observed.Get(int(t)) {
			tids = append(tids, t)
		}
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	return tids
}

// DroppedEvents returns how many events were dropped: watch-set misses plus
// unresolvable joins.
func (a *Analyzer) DroppedEvents() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dropped
}
