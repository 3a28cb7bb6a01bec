package dispatch

import (
	"fmt"

	"github.com/kolkov/djitrace/internal/djit/analyzer"
)

// Kind discriminates the six event record types of the stream.
type Kind int

const (
	// KindRead is a memory read: thread Thread reads variable Var.
	KindRead Kind = iota
	// KindWrite is a memory write.
	KindWrite
	// KindAcquire is a lock acquire, recorded after the underlying lock
	// call returned.
	KindAcquire
	// KindRelease is a lock release, recorded before the underlying unlock
	// proceeds.
	KindRelease
	// KindFork is thread creation: Thread forked the child bound to Child.
	KindFork
	// KindJoin is thread completion: Thread joined the child bound to Child.
	KindJoin
)

// String returns the trace keyword for the kind.
func (k Kind) String() string {
	switch k {
	case KindRead:
		return "rd"
	case KindWrite:
		return "wr"
	case KindAcquire:
		return "acq"
	case KindRelease:
		return "rel"
	case KindFork:
		return "fork"
	case KindJoin:
		return "join"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Event is one typed record of the event stream. Thread is always set; Var,
// Lock and Child are populated according to Kind.
type Event struct {
	Kind   Kind
	Thread analyzer.ThreadID
	Var    analyzer.VarID
	Lock   analyzer.LockID
	Child  analyzer.Handle
}

// String renders the event in trace notation, e.g. "rd 0 x" or "fork 0 h1".
func (e Event) String() string {
	switch e.Kind {
	case KindRead, KindWrite:
		return fmt.Sprintf("%s %d %s", e.Kind, e.Thread, e.Var)
	case KindAcquire, KindRelease:
		return fmt.Sprintf("%s %d %s", e.Kind, e.Thread, e.Lock)
	case KindFork, KindJoin:
		return fmt.Sprintf("%s %d %s", e.Kind, e.Thread, e.Child)
	default:
		return fmt.Sprintf("%s %d", e.Kind, e.Thread)
	}
}
