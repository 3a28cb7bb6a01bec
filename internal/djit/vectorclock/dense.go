package vectorclock

import "github.com/xojoc/bitset"

// Dense is a fixed-capacity vector clock.
//
// The slice is sized once at construction for the traced program's maximum
// thread count; component access is an index, not a map lookup. A bitset
// records which indices have ever been set; Threads, and String through it,
// report only touched indices with a nonzero time. Threads, Join and
// LessOrEqual loop over the whole capacity.
//
// Out-of-range thread ids panic: handing an id beyond the declared capacity
// to a bounded analyzer is a programming error, not an input error.
type Dense struct {
	clocks  []uint64
	touched *bitset.BitSet
}

// NewDense creates a dense vector clock with capacity for thread ids
// 0 through n-1, all at time 0.
func NewDense(n int) *Dense {
	return &Dense{
		clocks:  make([]uint64, n),
		touched: &bitset.BitSet{},
	}
}

// Cap returns the number of thread ids the clock can hold.
func (vc *Dense) Cap() int {
	return len(vc.clocks)
}

// Get returns the logical time for thread tid.
func (vc *Dense) Get(tid int) uint64 {
	return vc.clocks[tid]
}

// Set installs the logical time for thread tid.
func (vc *Dense) Set(tid int, clock uint64) {
	vc.clocks[tid] = clock
	vc.touched.Set(tid)
}

// Increment advances the logical time for thread tid.
func (vc *Dense) Increment(tid int) {
	vc.clocks[tid]++
	vc.touched.Set(tid)
}

// Join merges other into vc: vc = vc ⊔ other.
func (vc *Dense) Join(other Clock) {
	if o, ok := other.(*Dense); ok && len(o.clocks) <= len(vc.clocks) {
		for i, v := range o.clocks {
			if v > vc.clocks[i] {
				vc.clocks[i] = v
				vc.touched.Set(i)
			}
		}
		return
	}
	for _, tid := range other.Threads() {
		if v := other.Get(tid); v > vc.clocks[tid] {
			vc.clocks[tid] = v
			vc.touched.Set(tid)
		}
	}
}

// LessOrEqual reports vc ⊑ other.
func (vc *Dense) LessOrEqual(other Clock) bool {
	for i, v := range vc.clocks {
		if v > other.Get(i) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the clock.
func (vc *Dense) Clone() Clock {
	clone := NewDense(len(vc.clocks))
	copy(clone.clocks, vc.clocks)
	for i := range vc.clocks {
		if vc.touched.Get(i) {
			clone.touched.Set(i)
		}
	}
	return clone
}

// Threads returns the thread ids with nonzero time, ascending.
func (vc *Dense) Threads() []int {
	var tids []int
	for i := range vc.clocks {
		if vc.touched.Get(i) && vc.clocks[i] != 0 {
			tids = append(tids, i)
		}
	}
	return tids
}

// String renders the clock as "<T0:2,T3:1>"; the empty clock is "<>".
func (vc *Dense) String() string {
	return format(vc)
}
