package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kolkov/djitrace/internal/djit/analyzer"
	"github.com/kolkov/djitrace/internal/djit/vectorclock"
)

// FormatDump writes the post-mortem state dump: every thread, variable and
// lock clock from a snapshot, framed the way the tracing front-end prints
// its exit report.
func FormatDump(w io.Writer, s analyzer.Snapshot) {
	fmt.Fprintln(w, "===============================================")
	for _, t := range s.ThreadOrder {
		fmt.Fprintf(w, "Thread %d's VC: %s\n", t, s.Threads[t])
	}
	for _, x := range s.VarOrder {
		fmt.Fprintf(w, "Read VC for %s: %s\n", x, s.Reads[x])
	}
	for _, x := range s.VarOrder {
		fmt.Fprintf(w, "Write VC for %s: %s\n", x, s.Writes[x])
	}
	for _, m := range s.LockOrder {
		fmt.Fprintf(w, "Lock VC for %s: %s\n", m, s.Locks[m])
	}
	fmt.Fprintln(w, "===============================================")
}

// FormatTableHeader writes the column header of the per-event clock table:
// one column per thread clock, a read and a write column per variable, and
// one column per lock.
//
//	C0	C1	Rx	Wx	Lm
func FormatTableHeader(w io.Writer, s analyzer.Snapshot) {
	cols := make([]string, 0, len(s.ThreadOrder)+2*len(s.VarOrder)+len(s.LockOrder))
	for _, t := range s.ThreadOrder {
		cols = append(cols, "C"+strconv.Itoa(int(t)))
	}
	for _, x := range s.VarOrder {
		cols = append(cols, "R"+string(x), "W"+string(x))
	}
	for _, m := range s.LockOrder {
		cols = append(cols, "L"+string(m))
	}
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

// FormatTableRow writes one row of the clock table: each clock rendered
// densely over the snapshot's thread order, e.g. "<1,0>" for C[0] in a
// two-thread run.
//
// Columns line up with FormatTableHeader only while the entity population is
// stable; replay's table mode registers the trace's declarations and
// pre-creates the -threads ids up front for exactly that reason.
func FormatTableRow(w io.Writer, s analyzer.Snapshot) {
	cols := make([]string, 0, len(s.ThreadOrder)+2*len(s.VarOrder)+len(s.LockOrder))
	for _, t := range s.ThreadOrder {
		cols = append(cols, denseString(s.Threads[t], s.ThreadOrder))
	}
	for _, x := range s.VarOrder {
		cols = append(cols,
			denseString(s.Reads[x], s.ThreadOrder),
			denseString(s.Writes[x], s.ThreadOrder))
	}
	for _, m := range s.LockOrder {
		cols = append(cols, denseString(s.Locks[m], s.ThreadOrder))
	}
	fmt.Fprintln(w, strings.Join(cols, "\t"))
}

// denseString renders c positionally over the given thread order: "<1,0>".
func denseString(c vectorclock.Clock, order []analyzer.ThreadID) string {
	var b strings.Builder
	sep := byte('<')
	for _, t := range order {
		b.WriteByte(sep)
		b.WriteString(strconv.FormatUint(c.Get(int(t)), 10))
		sep = ','
	}
	if sep == '<' {
		b.WriteByte('<')
	}
	b.WriteByte('>')
	return b.String()
}
