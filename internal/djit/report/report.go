// Package report formats race violations and analyzer state dumps.
//
// The Reporter is the standard sink for the analyzer's violation handlers:
// it renders each violation as it arrives and keeps the records for the
// post-run summary. Rendering styles follow the two front-ends the detector
// grew up with - a framed WARNING block for standalone reports, and a
// one-line "race condition detected" form for the tabular demo output.
package report

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kolkov/djitrace/internal/djit/analyzer"
	"github.com/kolkov/djitrace/internal/djit/vectorclock"
)

// AccessKind tells which predicate a violation tripped.
type AccessKind int

const (
	// AccessRead marks a read violation: W[x] ⋢ C[t].
	AccessRead AccessKind = iota
	// AccessWrite marks a write violation: R[x] ⋢ C[t] or W[x] ⋢ C[t].
	AccessWrite
)

// String returns "Read" or "Write".
func (k AccessKind) String() string {
	switch k {
	case AccessRead:
		return "Read"
	case AccessWrite:
		return "Write"
	default:
		return "Unknown"
	}
}

// Violation is one reported race with the clock snapshots the analyzer
// delivered. ReadClock is nil for read violations (the read predicate does
// not consult R[x]).
type Violation struct {
	// ID uniquely identifies the report, so a violation can be referenced
	// across logs and summaries.
	ID uuid.UUID

	Kind   AccessKind
	Thread analyzer.ThreadID
	Var    analyzer.VarID

	ThreadClock vectorclock.Clock
	ReadClock   vectorclock.Clock
	WriteClock  vectorclock.Clock
}

// FromRead converts an analyzer read-violation snapshot into a Violation.
func FromRead(v analyzer.ReadViolation) Violation {
	return Violation{
		ID:          uuid.New(),
		Kind:        AccessRead,
		Thread:      v.Thread,
		Var:         v.Var,
		ThreadClock: v.ThreadClock,
		WriteClock:  v.WriteClock,
	}
}

// FromWrite converts an analyzer write-violation snapshot into a Violation.
func FromWrite(v analyzer.WriteViolation) Violation {
	return Violation{
		ID:          uuid.New(),
		Kind:        AccessWrite,
		Thread:      v.Thread,
		Var:         v.Var,
		ThreadClock: v.ThreadClock,
		ReadClock:   v.ReadClock,
		WriteClock:  v.WriteClock,
	}
}

// Format writes the framed report block:
//
//	==================
//	WARNING: DATA RACE
//	Write race on x by thread 1
//	  C[1] = <T1:1>
//	  R[x] = <>
//	  W[x] = <T0:1,T1:1>
//	  [report 6ba7b810-...]
//	==================
func (v Violation) Format(w io.Writer) {
	fmt.Fprintf(w, "==================\n")
	fmt.Fprintf(w, "WARNING: DATA RACE\n")
	fmt.Fprintf(w, "%s race on %s by thread %d\n", v.Kind, v.Var, v.Thread)
	fmt.Fprintf(w, "  C[%d] = %s\n", v.Thread, v.ThreadClock)
	if v.ReadClock != nil {
		fmt.Fprintf(w, "  R[%s] = %s\n", v.Var, v.ReadClock)
	}
	fmt.Fprintf(w, "  W[%s] = %s\n", v.Var, v.WriteClock)
	fmt.Fprintf(w, "  [report %s]\n", v.ID)
	fmt.Fprintf(w, "==================\n")
}

// String renders the framed report block as a string.
func (v Violation) String() string {
	var b strings.Builder
	v.Format(&b)
	return b.String()
}

// Line renders the one-line demo form: "race condition detected: wr(1,x)".
func (v Violation) Line() string {
	op := "rd"
	if v.Kind == AccessWrite {
		op = "wr"
	}
	return fmt.Sprintf("race condition detected: %s(%d,%s)", op, v.Thread, v.Var)
}

// Style selects how an attached Reporter renders violations.
type Style int

const (
	// StyleBlock prints the framed WARNING block per violation.
	StyleBlock Style = iota
	// StyleLine prints the one-line demo form per violation.
	StyleLine
)

// Reporter collects violations and renders them to a writer as they occur.
//
// Attach installs it on an analyzer; the handlers run with the analyzer lock
// held, so the reporter does nothing there beyond formatting the snapshots it
// was handed. Retained records are bounded by the number of violations in the
// run, which suits trace replay and tests; a long-lived embedder that only
// wants counts can drain with TakeViolations.
type Reporter struct {
	mu         sync.Mutex
	w          io.Writer
	style      Style
	violations []Violation
}

// NewReporter creates a Reporter rendering to w in the given style.
func NewReporter(w io.Writer, style Style) *Reporter {
	return &Reporter{w: w, style: style}
}

// Attach installs the reporter's handlers on an.
func (r *Reporter) Attach(an *analyzer.Analyzer) {
	an.SetReadViolationHandler(func(v analyzer.ReadViolation) {
		r.record(FromRead(v))
	})
	an.SetWriteViolationHandler(func(v analyzer.WriteViolation) {
		r.record(FromWrite(v))
	})
}

func (r *Reporter) record(v Violation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = append(r.violations, v)
	if r.w == nil {
		return
	}
	switch r.style {
	case StyleLine:
		fmt.Fprintln(r.w, v.Line())
	default:
		v.Format(r.w)
	}
}

// Count returns the number of violations recorded so far.
func (r *Reporter) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.violations)
}

// Violations returns a copy of the recorded violations in arrival order.
func (r *Reporter) Violations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Violation, len(r.violations))
	copy(out, r.violations)
	return out
}

// TakeViolations returns the recorded violations and resets the record.
func (r *Reporter) TakeViolations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.violations
	r.violations = nil
	return out
}
