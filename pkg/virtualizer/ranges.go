package virtualizer

import (
	"iter"

	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
)

// TotalSize returns padding plus all effective sizes, or 0 when disabled.
func (v *Virtualizer[K]) TotalSize() uint64 {
	if !v.cfg.Enabled {
		return 0
	}

	return v.totalSize()
}

func (v *Virtualizer[K]) totalSize() uint64 {
	total := safeconv.AddU64(uint64(v.cfg.PaddingStart), v.sums.Total())

	return safeconv.AddU64(total, uint64(v.cfg.PaddingEnd))
}

// VisibleRange returns the strictly visible index range for the current state.
func (v *Virtualizer[K]) VisibleRange() Range {
	return v.VisibleRangeAt(v.scrollOffset, v.viewportSize)
}

// VisibleRangeAt returns the visible index range for an arbitrary offset and
// viewport size without touching engine state.
func (v *Virtualizer[K]) VisibleRangeAt(offset uint64, viewport uint32) Range {
	if !v.cfg.Enabled {
		return Range{}
	}

	return v.visibleRange(offset, viewport)
}

// VirtualRange returns the visible range grown by overscan.
func (v *Virtualizer[K]) VirtualRange() Range {
	return v.VirtualRangeAt(v.scrollOffset, v.viewportSize)
}

// VirtualRangeAt returns the overscanned range for an arbitrary offset and viewport size.
func (v *Virtualizer[K]) VirtualRangeAt(offset uint64, viewport uint32) Range {
	if !v.cfg.Enabled {
		return Range{}
	}

	r := v.visibleRange(offset, viewport)
	if r.Empty() {
		return r
	}

	return expand(r, v.cfg.Overscan, v.cfg.Count)
}

// expand grows r by overscan on both sides, clamped to [0, count].
func expand(r Range, overscan, count int) Range {
	start := r.Start - min(overscan, r.Start)
	end := count
	if overscan < count-r.End {
		end = r.End + overscan
	}

	return Range{Start: max(start, 0), End: min(end, count)}
}

func (v *Virtualizer[K]) visibleRange(offset uint64, viewport uint32) Range {
	count := v.cfg.Count
	if count == 0 || viewport == 0 {
		return Range{}
	}

	margin := uint64(v.cfg.ScrollMargin)
	view := uint64(viewport)
	total := v.totalSize()

	offset = min(offset, safeconv.AddU64(margin, safeconv.SubU64(total, view)))
	scrollEnd := safeconv.AddU64(offset, view)

	if scrollEnd <= margin {
		return Range{}
	}

	visibleStart := safeconv.SubU64(offset, margin)
	if visibleStart >= total {
		return Range{Start: count, End: count}
	}

	visibleEnd := safeconv.SubU64(safeconv.SubU64(scrollEnd, margin), 1)

	start, ok := v.indexAtListOffset(visibleStart)
	if !ok {
		start = count
	}

	end := count
	if last, ok := v.indexAtListOffset(max(visibleEnd, visibleStart)); ok {
		end = last + 1
	}

	return Range{Start: min(start, count), End: min(end, count)}
}

// IndexAtOffset maps an absolute offset to the item covering it. Offsets
// before the list map to 0, offsets inside a gap map to the preceding item,
// and offsets past the end map to the last item.
func (v *Virtualizer[K]) IndexAtOffset(offset uint64) (int, bool) {
	if !v.cfg.Enabled {
		return 0, false
	}

	i, ok := v.indexAtOffset(offset)
	if !ok || i >= v.cfg.Count {
		return 0, false
	}

	return i, true
}

func (v *Virtualizer[K]) indexAtOffset(offset uint64) (int, bool) {
	margin := uint64(v.cfg.ScrollMargin)
	if offset < margin {
		return 0, true
	}

	return v.indexAtListOffset(offset - margin)
}

func (v *Virtualizer[K]) indexAtListOffset(offset uint64) (int, bool) {
	padding := uint64(v.cfg.PaddingStart)
	if offset < padding {
		return 0, true
	}

	count := v.cfg.Count
	if count == 0 {
		return 0, false
	}

	return min(v.sums.LowerBound(offset-padding), count-1), true
}

// ItemStart returns the absolute start offset of the item at index.
func (v *Virtualizer[K]) ItemStart(index int) (uint64, bool) {
	if !v.validIndex(index) {
		return 0, false
	}

	return v.startOf(index), true
}

// ItemSize returns the current size of the item at index, excluding the gap.
func (v *Virtualizer[K]) ItemSize(index int) (uint32, bool) {
	if !v.validIndex(index) {
		return 0, false
	}

	return v.sizes[index], true
}

// ItemEnd returns the absolute offset just past the item at index.
func (v *Virtualizer[K]) ItemEnd(index int) (uint64, bool) {
	if !v.validIndex(index) {
		return 0, false
	}

	return v.item(index).End(), true
}

// Item returns the layout of the item at index.
func (v *Virtualizer[K]) Item(index int) (VirtualItem, bool) {
	if !v.validIndex(index) {
		return VirtualItem{}, false
	}

	return v.item(index), true
}

// VirtualItemForOffset returns the item covering an absolute offset.
func (v *Virtualizer[K]) VirtualItemForOffset(offset uint64) (VirtualItem, bool) {
	i, ok := v.IndexAtOffset(offset)
	if !ok {
		return VirtualItem{}, false
	}

	return v.item(i), true
}

// VirtualItemKeyedForOffset is VirtualItemForOffset with the item key attached.
func (v *Virtualizer[K]) VirtualItemKeyedForOffset(offset uint64) (KeyedItem[K], bool) {
	i, ok := v.IndexAtOffset(offset)
	if !ok {
		return KeyedItem[K]{}, false
	}

	return KeyedItem[K]{Key: v.cfg.key(i), VirtualItem: v.item(i)}, true
}

func (v *Virtualizer[K]) validIndex(index int) bool {
	return v.cfg.Enabled && index >= 0 && index < v.cfg.Count
}

func (v *Virtualizer[K]) item(index int) VirtualItem {
	return VirtualItem{Index: index, Start: v.startOf(index), Size: v.sizes[index]}
}

// startOf returns the absolute start of index, including margin and padding.
func (v *Virtualizer[K]) startOf(index int) uint64 {
	start := safeconv.AddU64(uint64(v.cfg.ScrollMargin), uint64(v.cfg.PaddingStart))

	return safeconv.AddU64(start, v.sums.PrefixSum(index))
}

// VirtualIndexes iterates over the indices to render for the current state.
// The engine must not be mutated during iteration.
func (v *Virtualizer[K]) VirtualIndexes() iter.Seq[int] {
	return v.VirtualIndexesAt(v.scrollOffset, v.viewportSize)
}

// VirtualIndexesAt iterates over the indices to render for an arbitrary
// offset and viewport size. A configured range extractor decides the set.
func (v *Virtualizer[K]) VirtualIndexesAt(offset uint64, viewport uint32) iter.Seq[int] {
	return func(yield func(int) bool) {
		v.eachIndex(offset, viewport, yield)
	}
}

func (v *Virtualizer[K]) eachIndex(offset uint64, viewport uint32, yield func(int) bool) {
	if !v.cfg.Enabled {
		return
	}

	visible := v.visibleRange(offset, viewport)
	if visible.Empty() {
		return
	}

	if v.cfg.HasRangeExtractor() {
		v.extract(visible, yield)

		return
	}

	r := expand(visible, v.cfg.Overscan, v.cfg.Count)
	for i := r.Start; i < r.End; i++ {
		if !yield(i) {
			return
		}
	}
}

// VirtualItems iterates over the items to render for the current state.
func (v *Virtualizer[K]) VirtualItems() iter.Seq[VirtualItem] {
	return v.VirtualItemsAt(v.scrollOffset, v.viewportSize)
}

// VirtualItemsAt iterates over the items to render for an arbitrary offset
// and viewport size.
func (v *Virtualizer[K]) VirtualItemsAt(offset uint64, viewport uint32) iter.Seq[VirtualItem] {
	return func(yield func(VirtualItem) bool) {
		v.eachItem(offset, viewport, yield)
	}
}

func (v *Virtualizer[K]) eachItem(offset uint64, viewport uint32, yield func(VirtualItem) bool) {
	if !v.cfg.Enabled {
		return
	}

	visible := v.visibleRange(offset, viewport)
	if visible.Empty() {
		return
	}

	if v.cfg.HasRangeExtractor() {
		v.extract(visible, func(i int) bool {
			return yield(v.item(i))
		})

		return
	}

	// Contiguous windows walk starts forward instead of querying each prefix.
	count := v.cfg.Count
	gap := uint64(v.cfg.Gap)
	r := expand(visible, v.cfg.Overscan, count)
	start := v.startOf(r.Start)

	for i := r.Start; i < r.End; i++ {
		size := v.sizes[i]
		if !yield(VirtualItem{Index: i, Start: start, Size: size}) {
			return
		}

		start = safeconv.AddU64(start, uint64(size))
		if i+1 < count {
			start = safeconv.AddU64(start, gap)
		}
	}
}

// VirtualItemsKeyed iterates over the items to render with their keys.
func (v *Virtualizer[K]) VirtualItemsKeyed() iter.Seq[KeyedItem[K]] {
	return v.VirtualItemsKeyedAt(v.scrollOffset, v.viewportSize)
}

// VirtualItemsKeyedAt iterates over keyed items for an arbitrary offset and viewport size.
func (v *Virtualizer[K]) VirtualItemsKeyedAt(offset uint64, viewport uint32) iter.Seq[KeyedItem[K]] {
	return func(yield func(KeyedItem[K]) bool) {
		v.eachItem(offset, viewport, func(it VirtualItem) bool {
			return yield(KeyedItem[K]{Key: v.cfg.key(it.Index), VirtualItem: it})
		})
	}
}

// AppendVirtualIndexes appends the indices to render to dst and returns it.
// Reusing dst across frames avoids allocation.
func (v *Virtualizer[K]) AppendVirtualIndexes(dst []int) []int {
	v.eachIndex(v.scrollOffset, v.viewportSize, func(i int) bool {
		dst = append(dst, i)

		return true
	})

	return dst
}

// AppendVirtualItems appends the items to render to dst and returns it.
func (v *Virtualizer[K]) AppendVirtualItems(dst []VirtualItem) []VirtualItem {
	v.eachItem(v.scrollOffset, v.viewportSize, func(it VirtualItem) bool {
		dst = append(dst, it)

		return true
	})

	return dst
}

// AppendVirtualItemsKeyed appends the keyed items to render to dst and returns it.
func (v *Virtualizer[K]) AppendVirtualItemsKeyed(dst []KeyedItem[K]) []KeyedItem[K] {
	v.eachItem(v.scrollOffset, v.viewportSize, func(it VirtualItem) bool {
		dst = append(dst, KeyedItem[K]{Key: v.cfg.key(it.Index), VirtualItem: it})

		return true
	})

	return dst
}
