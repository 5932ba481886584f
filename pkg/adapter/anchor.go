// Package adapter provides framework-neutral helpers for hosts driving a
// virtualizer: scroll anchoring across data changes, eased scroll tweens,
// and a Controller that combines both with the engine's scroll state.
package adapter

import (
	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// ScrollAnchor pins the viewport to an item identity. OffsetInViewport is
// the distance from the item's start to the scroll offset.
type ScrollAnchor[K comparable] struct {
	Key              K      `json:"key"                yaml:"key"`
	OffsetInViewport uint64 `json:"offset_in_viewport" yaml:"offset_in_viewport"`
}

// KeyIndexFunc resolves a key to its index in the current dataset.
type KeyIndexFunc[K comparable] func(key K) (int, bool)

// CaptureFirstVisibleAnchor anchors the first visible item. It returns false
// when the engine is disabled or nothing is visible.
func CaptureFirstVisibleAnchor[K comparable](v *virtualizer.Virtualizer[K]) (ScrollAnchor[K], bool) {
	visible := v.VisibleRange()
	if visible.Empty() {
		return ScrollAnchor[K]{}, false
	}

	start, ok := v.ItemStart(visible.Start)
	if !ok {
		return ScrollAnchor[K]{}, false
	}

	return ScrollAnchor[K]{
		Key:              v.KeyFor(visible.Start),
		OffsetInViewport: safeconv.SubU64(v.ScrollOffset(), start),
	}, true
}

// ApplyAnchor resolves the anchor key through keyToIndex and restores the
// saved relative offset, clamped. It reports whether the anchor was applied.
func ApplyAnchor[K comparable](v *virtualizer.Virtualizer[K], anchor ScrollAnchor[K], keyToIndex KeyIndexFunc[K]) bool {
	index, ok := keyToIndex(anchor.Key)
	if !ok {
		return false
	}

	start, ok := v.ItemStart(index)
	if !ok {
		return false
	}

	v.SetScrollOffsetClamped(safeconv.AddU64(start, anchor.OffsetInViewport))

	return true
}

// IndexMap builds a KeyIndexFunc from a key snapshot of the current dataset.
func IndexMap[K comparable](v *virtualizer.Virtualizer[K]) KeyIndexFunc[K] {
	m := make(map[K]int, v.Count())
	for i := range v.Count() {
		m[v.KeyFor(i)] = i
	}

	return func(key K) (int, bool) {
		i, ok := m[key]

		return i, ok
	}
}
