package vectorclock

import "testing"

// TestDenseBasic tests Get/Set/Increment within capacity.
func TestDenseBasic(t *testing.T) {
	vc := NewDense(4)

	if got := vc.Cap(); got != 4 {
		t.Fatalf("Cap() = %d, want 4", got)
	}
	vc.Set(0, 10)
	vc.Increment(0)
	vc.Increment(3)

	if got := vc.Get(0); got != 11 {
		t.Errorf("Get(0) = %d, want 11", got)
	}
	if got := vc.Get(3); got != 1 {
		t.Errorf("Get(3) = %d, want 1", got)
	}
	if got := vc.Get(1); got != 0 {
		t.Errorf("Get(1) = %d, want 0", got)
	}
}

// TestDenseOutOfRange tests that ids beyond capacity panic: a bounded
// analyzer handed an oversized id is a programming error.
func TestDenseOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Set beyond capacity did not panic")
		}
	}()
	NewDense(2).Set(2, 1)
}

// TestDenseThreads tests that Threads walks only touched, nonzero indices.
func TestDenseThreads(t *testing.T) {
	vc := NewDense(8)
	vc.Set(5, 2)
	vc.Set(1, 1)
	vc.Set(6, 3)
	vc.Set(6, 0) // touched but back to zero: excluded

	got := vc.Threads()
	want := []int{1, 5}
	if len(got) != len(want) {
		t.Fatalf("Threads() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Threads() = %v, want %v", got, want)
		}
	}
}

// TestDenseJoinAndCompare tests Join and LessOrEqual between dense clocks.
func TestDenseJoinAndCompare(t *testing.T) {
	vc1 := NewDense(4)
	vc1.Set(0, 10)
	vc1.Set(1, 30)

	vc2 := NewDense(4)
	vc2.Set(0, 5)
	vc2.Set(2, 15)

	vc1.Join(vc2)
	want := map[int]uint64{0: 10, 1: 30, 2: 15}
	for tid, w := range want {
		if got := vc1.Get(tid); got != w {
			t.Errorf("join result[%d] = %d, want %d", tid, got, w)
		}
	}

	if !vc2.LessOrEqual(vc1) {
		t.Error("vc2 ⊑ vc1⊔vc2 should be true")
	}
	if vc1.LessOrEqual(vc2) {
		t.Error("vc1⊔vc2 ⊑ vc2 should be false")
	}
}

// TestDenseSparseInterop tests mixed-representation Join and LessOrEqual:
// the analyzer never mixes them, but the Clock contract requires it to work.
func TestDenseSparseInterop(t *testing.T) {
	d := NewDense(4)
	d.Set(0, 2)
	d.Set(1, 1)

	s := New()
	s.Set(1, 3)
	s.Set(2, 1)

	d.Join(s)
	want := map[int]uint64{0: 2, 1: 3, 2: 1}
	for tid, w := range want {
		if got := d.Get(tid); got != w {
			t.Errorf("dense⊔sparse [%d] = %d, want %d", tid, got, w)
		}
	}

	if !s.LessOrEqual(d) {
		t.Error("sparse ⊑ dense⊔sparse should be true")
	}

	s2 := New()
	s2.Join(d)
	if !Equal(s2, d) {
		t.Errorf("sparse⊔dense = %s, want %s", s2, d)
	}
}

// TestDenseClone tests deep-copy independence including touched tracking.
func TestDenseClone(t *testing.T) {
	vc := NewDense(4)
	vc.Set(0, 7)
	vc.Set(2, 9)

	clone := vc.Clone()
	if !Equal(vc, clone) {
		t.Fatalf("Clone() = %s, want %s", clone, vc)
	}

	clone.Set(1, 5)
	if got := vc.Get(1); got != 0 {
		t.Errorf("original modified through clone: Get(1) = %d, want 0", got)
	}
}

// TestDenseString tests that rendering matches the sparse notation.
func TestDenseString(t *testing.T) {
	vc := NewDense(4)
	if got := vc.String(); got != "<>" {
		t.Errorf("empty String() = %q, want %q", got, "<>")
	}
	vc.Set(0, 2)
	vc.Set(3, 1)
	if got, want := vc.String(), "<T0:2,T3:1>"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
