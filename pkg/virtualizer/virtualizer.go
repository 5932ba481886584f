// Package virtualizer implements a headless list virtualization engine.
//
// Given an item count, a size estimator, a viewport size, and a scroll
// offset, a Virtualizer reports which items must be rendered and where
// each one starts. Real sizes reported by the adapter replace estimates in
// O(log n) through a Fenwick prefix-sum index, and measurements are cached
// by item key so they survive reordering and count changes.
//
// The engine owns no UI objects, no timers, and no locks. Adapters supply
// geometry, scroll offsets, and timestamps; a Virtualizer must not be used
// from more than one goroutine at a time.
package virtualizer

import (
	"github.com/Sumatoshi-tech/virtualizer/pkg/alg/fenwick"
	"github.com/Sumatoshi-tech/virtualizer/pkg/measure"
)

// Virtualizer is the virtualization engine. Create it with New.
type Virtualizer[K comparable] struct {
	cfg Config[K]

	viewportSize   uint32
	scrollOffset   uint64
	scrollRect     Rect
	isScrolling    bool
	direction      Direction
	lastScrollMS   uint64
	hasScrollEvent bool

	// sizes excludes the gap; sums stores effective sizes.
	sizes    []uint32
	measured []bool
	sums     fenwick.Tree
	cache    *measure.Cache[K]

	notifyDepth   int
	notifyPending bool

	stats counters
}

// New creates an engine from cfg, applying the initial rect and offset.
func New[K comparable](cfg Config[K]) *Virtualizer[K] {
	cfg = normalize(cfg)

	v := &Virtualizer[K]{
		cfg:          cfg,
		scrollRect:   cfg.InitialRect,
		viewportSize: cfg.InitialRect.Main,
		scrollOffset: cfg.resolveInitialOffset(),
		cache:        measure.New[K](),
	}

	v.cfg.log().Debug("virtualizer created",
		"count", cfg.Count, "enabled", cfg.Enabled, "overscan", cfg.Overscan)

	v.rebuildEstimates()

	return v
}

func normalize[K comparable](cfg Config[K]) Config[K] {
	cfg.Count = max(cfg.Count, 0)
	cfg.Overscan = max(cfg.Overscan, 0)

	return cfg
}

// Config returns a copy of the current configuration. Copies share
// callback identity with the engine's configuration.
func (v *Virtualizer[K]) Config() Config[K] {
	return v.cfg
}

// SetConfig replaces the whole configuration and rebuilds only what the
// change requires: a count, estimator, or key function change re-derives
// every size; a gap change rebuilds the prefix index. Disabling zeroes the
// viewport state and re-enabling restores the initial rect and offset.
// Passing a configuration equal to the current one is a no-op.
func (v *Virtualizer[K]) SetConfig(cfg Config[K]) {
	cfg = normalize(cfg)
	prev := v.cfg

	if cfg == prev {
		return
	}

	v.cfg = cfg

	v.cfg.log().Debug("virtualizer config replaced",
		"count", cfg.Count, "enabled", cfg.Enabled, "overscan", cfg.Overscan)

	switch {
	case !cfg.Enabled:
		v.clearViewport()
	case !prev.Enabled:
		v.resetToInitial()
	}

	switch {
	case cfg.Count != prev.Count || cfg.estimate != prev.estimate || cfg.keyFor != prev.keyFor:
		v.rebuildEstimates()
	case cfg.Gap != prev.Gap:
		v.rebuildIndex()
	}

	v.notify()
}

// UpdateConfig applies fn to a copy of the configuration and passes the
// result to SetConfig.
func (v *Virtualizer[K]) UpdateConfig(fn func(cfg *Config[K])) {
	next := v.cfg
	fn(&next)
	v.SetConfig(next)
}

func (v *Virtualizer[K]) resetToInitial() {
	v.scrollOffset = v.cfg.resolveInitialOffset()
	v.scrollRect = v.cfg.InitialRect
	v.viewportSize = v.scrollRect.Main
	v.stopScrolling()
}

func (v *Virtualizer[K]) clearViewport() {
	v.viewportSize = 0
	v.scrollOffset = v.cfg.resolveInitialOffset()
	v.scrollRect = Rect{}
	v.stopScrolling()
}

func (v *Virtualizer[K]) stopScrolling() {
	v.isScrolling = false
	v.direction = DirectionNone
	v.hasScrollEvent = false
	v.lastScrollMS = 0
}

// Count returns the item count.
func (v *Virtualizer[K]) Count() int {
	return v.cfg.Count
}

// Enabled reports whether the engine produces output.
func (v *Virtualizer[K]) Enabled() bool {
	return v.cfg.Enabled
}

// SetEnabled toggles the engine. Disabling zeroes viewport and scroll state
// and makes every query empty; enabling restores the initial rect and offset.
func (v *Virtualizer[K]) SetEnabled(enabled bool) {
	if v.cfg.Enabled == enabled {
		return
	}

	v.cfg.Enabled = enabled

	if enabled {
		v.resetToInitial()
	} else {
		v.clearViewport()
	}

	v.notify()
}

// SetCount changes the item count and re-derives all sizes. New indices use
// a cached measurement for their key when one exists.
func (v *Virtualizer[K]) SetCount(count int) {
	count = max(count, 0)
	if v.cfg.Count == count {
		return
	}

	v.cfg.Count = count
	v.rebuildEstimates()
	v.notify()
}

// AppendItems grows the list by n items at the tail without re-deriving
// existing sizes. It is meant for append-only feeds where the key function
// is stable for existing indices.
func (v *Virtualizer[K]) AppendItems(n int) {
	if n <= 0 {
		return
	}

	old := v.cfg.Count
	gap := v.cfg.Gap
	count := old + n

	if old > 0 && gap > 0 {
		// The old last item gains its trailing gap.
		v.sums.Add(old-1, int64(gap))
	}

	for i := old; i < count; i++ {
		size, measured := v.sizeFor(i)
		v.sizes = append(v.sizes, size)
		v.measured = append(v.measured, measured)
		v.sums.PushValue(fenwick.EffectiveSize(size, gap, i, count))
	}

	v.cfg.Count = count
	v.notify()
}

// TruncateItems shrinks the list to count items, keeping the prefix index.
func (v *Virtualizer[K]) TruncateItems(count int) {
	count = max(count, 0)
	if count >= v.cfg.Count {
		return
	}

	v.sizes = v.sizes[:count]
	v.measured = v.measured[:count]
	v.sums.Truncate(count)

	if count > 0 && v.cfg.Gap > 0 {
		// The new last item loses its trailing gap.
		v.sums.Add(count-1, -int64(v.cfg.Gap))
	}

	v.cfg.Count = count
	v.notify()
}

// SetOverscan sets the number of extra items rendered around the visible range.
func (v *Virtualizer[K]) SetOverscan(overscan int) {
	overscan = max(overscan, 0)
	if v.cfg.Overscan == overscan {
		return
	}

	v.cfg.Overscan = overscan
	v.notify()
}

// SetPadding sets leading and trailing list padding.
func (v *Virtualizer[K]) SetPadding(start, end uint32) {
	if v.cfg.PaddingStart == start && v.cfg.PaddingEnd == end {
		return
	}

	v.cfg.PaddingStart, v.cfg.PaddingEnd = start, end
	v.notify()
}

// SetScrollPadding sets the padding used by scroll-to-index.
func (v *Virtualizer[K]) SetScrollPadding(start, end uint32) {
	if v.cfg.ScrollPaddingStart == start && v.cfg.ScrollPaddingEnd == end {
		return
	}

	v.cfg.ScrollPaddingStart, v.cfg.ScrollPaddingEnd = start, end
	v.notify()
}

// SetScrollMargin sets the list's offset inside the scroll region.
func (v *Virtualizer[K]) SetScrollMargin(margin uint32) {
	if v.cfg.ScrollMargin == margin {
		return
	}

	v.cfg.ScrollMargin = margin
	v.notify()
}

// SetGap sets the inter-item gap. Only the prefix index is rebuilt.
func (v *Virtualizer[K]) SetGap(gap uint32) {
	if v.cfg.Gap == gap {
		return
	}

	v.cfg.Gap = gap
	v.rebuildIndex()
	v.notify()
}

// SetEstimateSize replaces the estimator and re-derives all sizes.
func (v *Virtualizer[K]) SetEstimateSize(fn EstimateFunc) {
	v.cfg = v.cfg.WithEstimateSize(fn)
	v.rebuildEstimates()
	v.notify()
}

// SetKeyFunc replaces the key function and re-derives all sizes, so cached
// measurements follow their keys to the new indices.
func (v *Virtualizer[K]) SetKeyFunc(fn KeyFunc[K]) {
	v.cfg = v.cfg.WithKeyFunc(fn)
	v.rebuildEstimates()
	v.notify()
}

// SetRangeExtractor installs or clears the range-selection policy.
func (v *Virtualizer[K]) SetRangeExtractor(fn RangeExtractor) {
	v.cfg = v.cfg.WithRangeExtractor(fn)
	v.notify()
}

// SetAdjustOnResize installs or clears the resize compensation override.
func (v *Virtualizer[K]) SetAdjustOnResize(fn AdjustFunc[K]) {
	v.cfg = v.cfg.WithAdjustOnResize(fn)
	v.notify()
}

// SetOnChange installs or clears the change callback.
func (v *Virtualizer[K]) SetOnChange(fn ChangeFunc[K]) {
	v.cfg = v.cfg.WithOnChange(fn)
	v.notify()
}

// SetInitialOffset sets the fixed offset used on reset.
func (v *Virtualizer[K]) SetInitialOffset(offset uint64) {
	if v.cfg.callbacks().offsetProvider == nil && v.cfg.initialOffset == offset {
		return
	}

	v.cfg = v.cfg.WithInitialOffset(offset)
	v.notify()
}

// SetInitialOffsetProvider sets a lazily evaluated offset used on reset.
func (v *Virtualizer[K]) SetInitialOffsetProvider(p OffsetProvider) {
	v.cfg = v.cfg.WithInitialOffsetProvider(p)
	v.notify()
}

// SetUseScrollEndEvent opts in or out of adapter-driven scroll end detection.
func (v *Virtualizer[K]) SetUseScrollEndEvent(use bool) {
	if v.cfg.UseScrollEndEvent == use {
		return
	}

	v.cfg.UseScrollEndEvent = use
	v.notify()
}

// SetScrollingResetDelay sets the is-scrolling debounce delay in milliseconds.
func (v *Virtualizer[K]) SetScrollingResetDelay(ms uint64) {
	if v.cfg.ScrollingResetDelayMS == ms {
		return
	}

	v.cfg.ScrollingResetDelayMS = ms
	v.notify()
}

// KeyFor returns the key of the item at index.
func (v *Virtualizer[K]) KeyFor(index int) K {
	return v.cfg.key(index)
}

func (v *Virtualizer[K]) sizeFor(index int) (uint32, bool) {
	if !v.cfg.keyed() {
		if index < len(v.measured) && v.measured[index] {
			return v.sizes[index], true
		}

		return v.cfg.estimateSize(index), false
	}

	if size, ok := v.cache.Get(v.cfg.key(index)); ok {
		return size, true
	}

	return v.cfg.estimateSize(index), false
}

func (v *Virtualizer[K]) rebuildEstimates() {
	count := v.cfg.Count

	v.cfg.log().Debug("virtualizer rebuild", "count", count, "cached", v.cache.Len())

	v.sizes = resize(v.sizes, count)
	v.measured = resize(v.measured, count)

	for i := range count {
		v.sizes[i], v.measured[i] = v.sizeFor(i)
	}

	v.stats.rebuilds.Add(1)
	v.rebuildIndex()
}

func (v *Virtualizer[K]) rebuildIndex() {
	v.sums.Rebuild(v.sizes, v.cfg.Gap)
	v.stats.indexRebuilds.Add(1)
}

// resize returns s with length n, keeping the common prefix and zeroing
// any grown tail.
func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		grown := make([]T, n)
		copy(grown, s)

		return grown
	}

	old := len(s)
	s = s[:n]

	if n > old {
		clear(s[old:])
	}

	return s
}
