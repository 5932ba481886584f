// Package fenwick provides a binary-indexed prefix-sum tree over item sizes.
//
// The tree stores effective sizes: each item's size plus a trailing gap,
// with the gap omitted after the last item. It supports O(n) construction,
// O(log n) point updates and prefix sums, and an O(log n) lower-bound
// search that maps an offset to the number of items it covers.
//
// All arithmetic saturates. A decrease that would take a node below zero
// clamps to the current value instead of wrapping.
package fenwick

import (
	"math"
	"math/bits"

	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
)

// Tree is a 1-indexed Fenwick tree over uint64 effective sizes.
type Tree struct {
	tree   []uint64
	total  uint64
	maxBit int
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{tree: []uint64{0}}
}

// FromSizes builds a tree from item sizes and a uniform inter-item gap in O(n).
func FromSizes(sizes []uint32, gap uint32) *Tree {
	t := &Tree{}
	t.Rebuild(sizes, gap)

	return t
}

// Rebuild replaces the tree contents with sizes and gap, reusing storage.
func (t *Tree) Rebuild(sizes []uint32, gap uint32) {
	n := len(sizes)

	if cap(t.tree) >= n+1 {
		t.tree = t.tree[:n+1]
		clear(t.tree)
	} else {
		t.tree = make([]uint64, n+1)
	}

	var total uint64

	for i, size := range sizes {
		v := EffectiveSize(size, gap, i, n)
		t.tree[i+1] = v
		total = safeconv.AddU64(total, v)
	}

	for i := 1; i <= n; i++ {
		parent := i + lsb(i)
		if parent <= n {
			t.tree[parent] = safeconv.AddU64(t.tree[parent], t.tree[i])
		}
	}

	t.total = total
	t.maxBit = highestPowerOfTwo(n)
}

// EffectiveSize returns size plus gap, except for the last of n items.
func EffectiveSize(size, gap uint32, index, n int) uint64 {
	if index+1 < n {
		return uint64(size) + uint64(gap)
	}

	return uint64(size)
}

// Len returns the number of items in the tree.
func (t *Tree) Len() int {
	return len(t.tree) - 1
}

// Total returns the sum of all effective sizes.
func (t *Tree) Total() uint64 {
	return t.total
}

// Add applies a signed delta to the item at index. Out-of-range indices are ignored.
func (t *Tree) Add(index int, delta int64) {
	n := t.Len()
	if index < 0 || index >= n || delta == 0 {
		return
	}

	if delta < 0 {
		// Clamp impossible decreases to the item's current value.
		current := t.ValueAt(index)
		if uint64(-(delta + 1))+1 > current {
			delta = -int64(min(current, math.MaxInt64))
		}
	}

	for i := index + 1; i <= n; i += lsb(i) {
		t.tree[i] = safeconv.AddSigned(t.tree[i], delta)
	}

	t.total = safeconv.AddSigned(t.total, delta)
}

// PrefixSum returns the sum of the first count effective sizes.
func (t *Tree) PrefixSum(count int) uint64 {
	count = min(count, t.Len())

	var sum uint64

	for i := count; i > 0; i &= i - 1 {
		sum = safeconv.AddU64(sum, t.tree[i])
	}

	return sum
}

// ValueAt returns the effective size stored for index.
func (t *Tree) ValueAt(index int) uint64 {
	if index < 0 || index >= t.Len() {
		return 0
	}

	return safeconv.SubU64(t.PrefixSum(index+1), t.PrefixSum(index))
}

// LowerBound returns how many leading items have a cumulative effective
// size less than or equal to target. Callers that need an index clamp the
// result to Len()-1.
func (t *Tree) LowerBound(target uint64) int {
	n := t.Len()
	pos := 0
	remaining := target

	for step := t.maxBit; step > 0; step >>= 1 {
		next := pos + step
		if next <= n && t.tree[next] <= remaining {
			pos = next
			remaining -= t.tree[next]
		}
	}

	return pos
}

// Truncate shrinks the tree to newLen items. Growing is a no-op.
func (t *Tree) Truncate(newLen int) {
	if newLen < 0 {
		newLen = 0
	}

	if newLen >= t.Len() {
		return
	}

	t.total = t.PrefixSum(newLen)
	t.tree = t.tree[:newLen+1]
	t.maxBit = highestPowerOfTwo(newLen)
}

// PushValue appends one item with effective size v. The new node covers
// the range (i-lsb(i), i], so its value is derived from existing prefix sums.
func (t *Tree) PushValue(v uint64) {
	i := t.Len() + 1
	covered := safeconv.SubU64(t.PrefixSum(i-1), t.PrefixSum(i-lsb(i)))

	t.tree = append(t.tree, safeconv.AddU64(covered, v))
	t.total = safeconv.AddU64(t.total, v)
	t.maxBit = highestPowerOfTwo(i)
}

func lsb(i int) int {
	return i & -i
}

func highestPowerOfTwo(n int) int {
	if n <= 0 {
		return 0
	}

	return 1 << (bits.Len(uint(n)) - 1)
}
