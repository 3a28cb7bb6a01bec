// Package trace reads and writes the text form of the event stream.
//
// A trace file is a sequence of lines, one record each, in the notation the
// analyzer's demo scenarios use:
//
//	# unprotected writes
//	var x
//	lock m
//	rd 0 x
//	wr 1 x
//	acq 0 m
//	rel 0 m
//	fork 0 h1
//	join 0 h1
//
// "var" and "lock" lines declare the watch set; the six event forms carry a
// thread id and the variable, lock, or fork handle they apply to. Blank
// lines and "#" comments are skipped. Replaying a file substitutes for a
// live event source: the records reach the analyzer through the same
// dispatcher contract.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/djitrace/internal/djit/analyzer"
	"github.com/kolkov/djitrace/internal/djit/dispatch"
)

// Trace is a parsed trace file: the declared watch set and the event
// sequence in file order.
type Trace struct {
	Vars   []analyzer.VarID
	Locks  []analyzer.LockID
	Events []dispatch.Event
}

// Parse reads a complete trace from r. Errors carry the 1-based line number.
func Parse(r io.Reader) (*Trace, error) {
	t := &Trace{}
	s := bufio.NewScanner(r)
	line := 0
	for s.Scan() {
		line++
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if err := t.parseRecord(fields); err != nil {
			return nil, fmt.Errorf("trace: line %d: %w", line, err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return t, nil
}

func (t *Trace) parseRecord(fields []string) error {
	op := fields[0]
	switch op {
	case "var":
		if len(fields) != 2 {
			return fmt.Errorf("%q takes one name, got %d fields", op, len(fields))
		}
		t.Vars = append(t.Vars, analyzer.VarID(fields[1]))
		return nil
	case "lock":
		if len(fields) != 2 {
			return fmt.Errorf("%q takes one name, got %d fields", op, len(fields))
		}
		t.Locks = append(t.Locks, analyzer.LockID(fields[1]))
		return nil
	}

	kind, ok := kinds[op]
	if !ok {
		return fmt.Errorf("unknown record %q", op)
	}
	if len(fields) != 3 {
		return fmt.Errorf("%q takes a thread id and a name, got %d fields", op, len(fields))
	}
	tid, err := strconv.Atoi(fields[1])
	if err != nil || tid < 0 {
		return fmt.Errorf("bad thread id %q", fields[1])
	}

	ev := dispatch.Event{Kind: kind, Thread: analyzer.ThreadID(tid)}
	switch kind {
	case dispatch.KindRead, dispatch.KindWrite:
		ev.Var = analyzer.VarID(fields[2])
	case dispatch.KindAcquire, dispatch.KindRelease:
		ev.Lock = analyzer.LockID(fields[2])
	case dispatch.KindFork, dispatch.KindJoin:
		ev.Child = analyzer.Handle(fields[2])
	}
	t.Events = append(t.Events, ev)
	return nil
}

var kinds = map[string]dispatch.Kind{
	"rd":   dispatch.KindRead,
	"wr":   dispatch.KindWrite,
	"acq":  dispatch.KindAcquire,
	"rel":  dispatch.KindRelease,
	"fork": dispatch.KindFork,
	"join": dispatch.KindJoin,
}

// Register declares the trace's watch set on an analyzer. Replay of a trace
// with declarations into a watch-set analyzer needs this before pumping.
func (t *Trace) Register(an *analyzer.Analyzer) {
	for _, x := range t.Vars {
		an.RegisterVar(x)
	}
	for _, m := range t.Locks {
		an.RegisterLock(m)
	}
}

// Source returns a dispatch.Source yielding the trace's events in order.
func (t *Trace) Source() dispatch.Source {
	return &sliceSource{events: t.Events}
}

type sliceSource struct {
	events []dispatch.Event
	next   int
}

func (s *sliceSource) Next() (dispatch.Event, error) {
	if s.next >= len(s.events) {
		return dispatch.Event{}, io.EOF
	}
	ev := s.events[s.next]
	s.next++
	return ev, nil
}

// Write renders the trace back to its text form: declarations first, then
// events, one record per line.
func (t *Trace) Write(w io.Writer) error {
	for _, x := range t.Vars {
		if _, err := fmt.Fprintf(w, "var %s\n", x); err != nil {
			return err
		}
	}
	for _, m := range t.Locks {
		if _, err := fmt.Fprintf(w, "lock %s\n", m); err != nil {
			return err
		}
	}
	for _, ev := range t.Events {
		if _, err := fmt.Fprintln(w, ev); err != nil {
			return err
		}
	}
	return nil
}
