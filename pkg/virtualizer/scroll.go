package virtualizer

import "github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"

// IsScrolling reports whether a scroll event was seen within the reset delay.
func (v *Virtualizer[K]) IsScrolling() bool {
	return v.isScrolling
}

// Direction returns the last scroll direction, or DirectionNone when idle.
func (v *Virtualizer[K]) Direction() Direction {
	return v.direction
}

// SetIsScrolling sets the scrolling flag. Clearing it also forgets the
// direction and the last event time.
func (v *Virtualizer[K]) SetIsScrolling(scrolling bool) {
	if v.isScrolling == scrolling {
		return
	}

	v.isScrolling = scrolling
	if !scrolling {
		v.direction = DirectionNone
		v.hasScrollEvent = false
		v.lastScrollMS = 0
	}

	v.notify()
}

// NotifyScrollEvent records a scroll event at nowMS and marks the engine as scrolling.
func (v *Virtualizer[K]) NotifyScrollEvent(nowMS uint64) {
	if !v.cfg.Enabled {
		return
	}

	v.lastScrollMS = nowMS
	v.hasScrollEvent = true
	v.SetIsScrolling(true)
}

// UpdateScrolling clears the scrolling flag once nowMS is at least the reset
// delay past the last scroll event. It does nothing when the adapter uses
// scroll end events.
func (v *Virtualizer[K]) UpdateScrolling(nowMS uint64) {
	if !v.cfg.Enabled || v.cfg.UseScrollEndEvent || !v.isScrolling || !v.hasScrollEvent {
		return
	}

	if safeconv.SubU64(nowMS, v.lastScrollMS) >= v.cfg.ScrollingResetDelayMS {
		v.SetIsScrolling(false)
	}
}

// ViewportSize returns the main-axis viewport size.
func (v *Virtualizer[K]) ViewportSize() uint32 {
	return v.viewportSize
}

// ScrollRect returns the scroll container geometry.
func (v *Virtualizer[K]) ScrollRect() Rect {
	return v.scrollRect
}

// SetScrollRect sets the container geometry; the viewport size follows Main.
func (v *Virtualizer[K]) SetScrollRect(r Rect) {
	if v.scrollRect == r {
		return
	}

	v.scrollRect = r
	v.viewportSize = r.Main
	v.notify()
}

// ApplyScrollRectEvent is SetScrollRect inside a batch.
func (v *Virtualizer[K]) ApplyScrollRectEvent(r Rect) {
	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetScrollRect(r)
	})
}

// SetViewportSize sets the main-axis viewport size.
func (v *Virtualizer[K]) SetViewportSize(size uint32) {
	if v.viewportSize == size && v.scrollRect.Main == size {
		return
	}

	v.viewportSize = size
	v.scrollRect.Main = size
	v.notify()
}

// ScrollOffset returns the absolute scroll offset, including the margin.
func (v *Virtualizer[K]) ScrollOffset() uint64 {
	return v.scrollOffset
}

// ScrollOffsetInList returns the scroll offset relative to the list start.
func (v *Virtualizer[K]) ScrollOffsetInList() uint64 {
	return safeconv.SubU64(v.scrollOffset, uint64(v.cfg.ScrollMargin))
}

// SetScrollOffset sets the absolute scroll offset and updates the direction.
// The direction is left as is when the offset does not move.
func (v *Virtualizer[K]) SetScrollOffset(offset uint64) {
	if v.scrollOffset == offset {
		return
	}

	if offset > v.scrollOffset {
		v.direction = DirectionForward
	} else {
		v.direction = DirectionBackward
	}

	v.scrollOffset = offset
	v.notify()
}

// SetScrollOffsetClamped sets the offset clamped to MaxScrollOffset.
func (v *Virtualizer[K]) SetScrollOffsetClamped(offset uint64) {
	v.SetScrollOffset(v.ClampScrollOffset(offset))
}

// ApplyScrollOffsetEvent applies a user scroll and records the event time,
// with one coalesced notification.
func (v *Virtualizer[K]) ApplyScrollOffsetEvent(offset, nowMS uint64) {
	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetScrollOffset(offset)
		v.NotifyScrollEvent(nowMS)
	})
}

// ApplyScrollOffsetEventClamped is ApplyScrollOffsetEvent with clamping.
func (v *Virtualizer[K]) ApplyScrollOffsetEventClamped(offset, nowMS uint64) {
	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetScrollOffsetClamped(offset)
		v.NotifyScrollEvent(nowMS)
	})
}

// SetViewportAndScroll updates viewport size and offset together.
func (v *Virtualizer[K]) SetViewportAndScroll(viewport uint32, offset uint64) {
	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetViewportSize(viewport)
		v.SetScrollOffset(offset)
	})
}

// SetViewportAndScrollClamped is SetViewportAndScroll with clamping.
func (v *Virtualizer[K]) SetViewportAndScrollClamped(viewport uint32, offset uint64) {
	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetViewportSize(viewport)
		v.SetScrollOffsetClamped(offset)
	})
}

// ApplyScrollFrame applies geometry, offset, and a scroll event in one batch.
// This is the preferred entry point for adapters receiving per-frame scroll data.
func (v *Virtualizer[K]) ApplyScrollFrame(r Rect, offset, nowMS uint64) {
	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetScrollRect(r)
		v.SetScrollOffset(offset)
		v.NotifyScrollEvent(nowMS)
	})
}

// ApplyScrollFrameClamped is ApplyScrollFrame with clamping.
func (v *Virtualizer[K]) ApplyScrollFrameClamped(r Rect, offset, nowMS uint64) {
	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetScrollRect(r)
		v.SetScrollOffsetClamped(offset)
		v.NotifyScrollEvent(nowMS)
	})
}

// MaxScrollOffset returns the largest offset that keeps the viewport within
// the list. A disabled engine reports its initial offset.
func (v *Virtualizer[K]) MaxScrollOffset() uint64 {
	if !v.cfg.Enabled {
		return v.cfg.resolveInitialOffset()
	}

	margin := uint64(v.cfg.ScrollMargin)

	return safeconv.AddU64(margin, safeconv.SubU64(v.totalSize(), uint64(v.viewportSize)))
}

// ClampScrollOffset clamps offset to [0, MaxScrollOffset].
func (v *Virtualizer[K]) ClampScrollOffset(offset uint64) uint64 {
	return min(offset, v.MaxScrollOffset())
}

// ScrollToIndexOffset computes the clamped offset that brings index into
// view with the given alignment. It does not change engine state.
func (v *Virtualizer[K]) ScrollToIndexOffset(index int, align Align) uint64 {
	if !v.cfg.Enabled {
		return v.cfg.resolveInitialOffset()
	}

	count := v.cfg.Count
	if count == 0 {
		return 0
	}

	item := v.item(min(max(index, 0), count-1))
	padStart := uint64(v.cfg.ScrollPaddingStart)
	padEnd := uint64(v.cfg.ScrollPaddingEnd)
	view := uint64(v.viewportSize)

	alignStart := func() uint64 {
		return safeconv.SubU64(item.Start, padStart)
	}

	alignEnd := func() uint64 {
		return safeconv.SubU64(safeconv.AddU64(item.End(), padEnd), view)
	}

	var target uint64

	switch align {
	case AlignStart:
		target = alignStart()
	case AlignEnd:
		target = alignEnd()
	case AlignCenter:
		center := safeconv.AddU64(item.Start, uint64(item.Size/2))
		target = safeconv.SubU64(center, view/2)
	case AlignAuto:
		cur := v.scrollOffset

		switch {
		case item.Start >= cur && item.End() <= safeconv.AddU64(cur, view):
			target = cur
		case item.Start < cur:
			target = alignStart()
		default:
			target = alignEnd()
		}
	}

	return v.ClampScrollOffset(target)
}

// ScrollToIndex applies ScrollToIndexOffset without marking the engine as
// scrolling, and returns the applied offset.
func (v *Virtualizer[K]) ScrollToIndex(index int, align Align) uint64 {
	offset := v.ScrollToIndexOffset(index, align)
	v.SetScrollOffset(offset)

	return offset
}
