package vectorclock

import "testing"

// TestSparseNew tests that a fresh clock reads 0 everywhere.
func TestSparseNew(t *testing.T) {
	vc := New()

	for _, tid := range []int{0, 1, 7, 1000} {
		if got := vc.Get(tid); got != 0 {
			t.Errorf("New() Get(%d) = %d, want 0", tid, got)
		}
	}
	if got := len(vc.Threads()); got != 0 {
		t.Errorf("New() Threads() has %d entries, want 0", got)
	}
}

// TestSparseSetGet tests pointwise read/write, including the zero-removal
// behavior of Set.
func TestSparseSetGet(t *testing.T) {
	vc := New()

	tests := []struct {
		tid   int
		clock uint64
	}{
		{0, 100},
		{1, 200},
		{127, 300},
		{65535, 400},
	}
	for _, tt := range tests {
		vc.Set(tt.tid, tt.clock)
		if got := vc.Get(tt.tid); got != tt.clock {
			t.Errorf("Set(%d, %d) then Get(%d) = %d, want %d",
				tt.tid, tt.clock, tt.tid, got, tt.clock)
		}
	}

	if got := vc.Get(5); got != 0 {
		t.Errorf("untouched thread Get(5) = %d, want 0", got)
	}

	// Setting a component back to 0 removes it from the support.
	vc.Set(127, 0)
	for _, tid := range vc.Threads() {
		if tid == 127 {
			t.Error("Set(127, 0) left 127 in Threads()")
		}
	}
}

// TestSparseIncrement tests Increment from zero and nonzero values.
func TestSparseIncrement(t *testing.T) {
	vc := New()

	for i := 1; i <= 10; i++ {
		vc.Increment(0)
		if got := vc.Get(0); got != uint64(i) {
			t.Errorf("after %d increments, Get(0) = %d, want %d", i, got, i)
		}
	}

	vc.Increment(5)
	if got := vc.Get(5); got != 1 {
		t.Errorf("Increment(5) then Get(5) = %d, want 1", got)
	}
	if got := vc.Get(0); got != 10 {
		t.Errorf("thread 0 changed by Increment(5): Get(0) = %d, want 10", got)
	}
}

// TestSparseClone tests deep-copy independence.
func TestSparseClone(t *testing.T) {
	original := New()
	original.Set(0, 10)
	original.Set(5, 20)

	clone := original.Clone()
	if !Equal(original, clone) {
		t.Fatalf("Clone() = %s, want %s", clone, original)
	}

	clone.Set(0, 999)
	if got := original.Get(0); got != 10 {
		t.Errorf("original modified through clone: Get(0) = %d, want 10", got)
	}
}

// TestSparseJoinCommutativity tests vc1⊔vc2 == vc2⊔vc1.
func TestSparseJoinCommutativity(t *testing.T) {
	vc1 := New()
	vc1.Set(0, 10)
	vc1.Set(1, 30)
	vc1.Set(2, 20)

	vc2 := New()
	vc2.Set(0, 5)
	vc2.Set(1, 40)
	vc2.Set(3, 15)

	a := vc1.Clone()
	a.Join(vc2)
	b := vc2.Clone()
	b.Join(vc1)

	if !Equal(a, b) {
		t.Errorf("Join not commutative: vc1⊔vc2 = %s, vc2⊔vc1 = %s", a, b)
	}

	want := map[int]uint64{0: 10, 1: 40, 2: 20, 3: 15}
	for tid, w := range want {
		if got := a.Get(tid); got != w {
			t.Errorf("join result[%d] = %d, want %d", tid, got, w)
		}
	}
}

// TestSparseJoinIdempotent tests vc⊔vc == vc.
func TestSparseJoinIdempotent(t *testing.T) {
	vc := New()
	vc.Set(0, 10)
	vc.Set(1, 20)

	original := vc.Clone()
	vc.Join(vc)

	if !Equal(vc, original) {
		t.Errorf("Join not idempotent: vc⊔vc = %s, want %s", vc, original)
	}
}

// TestSparsePartialOrder tests reflexivity, transitivity and incomparability
// of LessOrEqual.
func TestSparsePartialOrder(t *testing.T) {
	vc1 := New()
	vc1.Set(0, 10)
	vc1.Set(1, 20)

	vc2 := New()
	vc2.Set(0, 15)
	vc2.Set(1, 25)

	vc3 := New()
	vc3.Set(0, 20)
	vc3.Set(1, 30)

	if !vc1.LessOrEqual(vc1) {
		t.Error("reflexivity failed: vc1 ⊑ vc1 should be true")
	}
	if !vc1.LessOrEqual(vc2) || !vc2.LessOrEqual(vc3) {
		t.Fatal("setup: vc1 ⊑ vc2 ⊑ vc3 should hold")
	}
	if !vc1.LessOrEqual(vc3) {
		t.Error("transitivity failed: vc1 ⊑ vc3 should be true")
	}

	// Concurrent (incomparable) clocks.
	vc4 := New()
	vc4.Set(0, 5)
	vc4.Set(1, 25)
	if vc4.LessOrEqual(vc1) {
		t.Error("vc4 ⊑ vc1 should be false (vc4[1] > vc1[1])")
	}
	if vc1.LessOrEqual(vc4) {
		t.Error("vc1 ⊑ vc4 should be false (vc1[0] > vc4[0])")
	}
}

// TestSparseLessOrEqualZero tests the implicit-zero semantics: missing
// entries compare as 0 on both sides.
func TestSparseLessOrEqualZero(t *testing.T) {
	zero := New()
	some := New()
	some.Set(3, 1)

	if !zero.LessOrEqual(zero) {
		t.Error("0 ⊑ 0 should be true")
	}
	if !zero.LessOrEqual(some) {
		t.Error("0 ⊑ some should be true")
	}
	if some.LessOrEqual(zero) {
		t.Error("some ⊑ 0 should be false")
	}
}

// TestSparseThreads tests that Threads is the sorted nonzero support.
func TestSparseThreads(t *testing.T) {
	vc := New()
	vc.Set(7, 1)
	vc.Set(0, 3)
	vc.Set(42, 2)

	got := vc.Threads()
	want := []int{0, 7, 42}
	if len(got) != len(want) {
		t.Fatalf("Threads() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Threads() = %v, want %v", got, want)
		}
	}
}

// TestSparseString tests the "<T0:2,T3:1>" rendering.
func TestSparseString(t *testing.T) {
	tests := []struct {
		name string
		set  map[int]uint64
		want string
	}{
		{name: "empty", set: nil, want: "<>"},
		{name: "single", set: map[int]uint64{0: 42}, want: "<T0:42>"},
		{name: "sorted", set: map[int]uint64{3: 1, 0: 2}, want: "<T0:2,T3:1>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vc := New()
			for tid, clock := range tt.set {
				vc.Set(tid, clock)
			}
			if got := vc.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// ========== BENCHMARKS ==========

// BenchmarkSparseJoin benchmarks Join on ten-thread clocks.
func BenchmarkSparseJoin(b *testing.B) {
	vc1 := New()
	vc2 := New()
	for i := 0; i < 10; i++ {
		vc1.Set(i, uint64(i*10))
		vc2.Set(i, uint64(i*15))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		vc1.Join(vc2)
	}
}

// BenchmarkSparseLessOrEqual benchmarks the race-predicate comparison.
func BenchmarkSparseLessOrEqual(b *testing.B) {
	vc1 := New()
	vc2 := New()
	for i := 0; i < 10; i++ {
		vc1.Set(i, uint64(i*10))
		vc2.Set(i, uint64(i*20))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = vc1.LessOrEqual(vc2)
	}
}

// BenchmarkSparseClone benchmarks the snapshot copy.
func BenchmarkSparseClone(b *testing.B) {
	vc := New()
	for i := 0; i < 10; i++ {
		vc.Set(i, uint64(i*10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = vc.Clone()
	}
}
