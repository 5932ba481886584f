package virtualizer

// ViewportState is a serializable snapshot of viewport geometry.
type ViewportState struct {
	Rect Rect `json:"rect" yaml:"rect"`
}

// ScrollState is a serializable snapshot of scroll position.
type ScrollState struct {
	Offset      uint64 `json:"offset"       yaml:"offset"`
	IsScrolling bool   `json:"is_scrolling" yaml:"is_scrolling"`
}

// FrameState combines viewport and scroll snapshots.
type FrameState struct {
	Viewport ViewportState `json:"viewport" yaml:"viewport"`
	Scroll   ScrollState   `json:"scroll"   yaml:"scroll"`
}

// ViewportState returns the current viewport snapshot.
func (v *Virtualizer[K]) ViewportState() ViewportState {
	return ViewportState{Rect: v.scrollRect}
}

// ScrollState returns the current scroll snapshot.
func (v *Virtualizer[K]) ScrollState() ScrollState {
	return ScrollState{Offset: v.scrollOffset, IsScrolling: v.isScrolling}
}

// FrameState returns the current combined snapshot.
func (v *Virtualizer[K]) FrameState() FrameState {
	return FrameState{Viewport: v.ViewportState(), Scroll: v.ScrollState()}
}

// RestoreViewportState applies a viewport snapshot.
func (v *Virtualizer[K]) RestoreViewportState(s ViewportState) {
	v.SetScrollRect(s.Rect)
}

// RestoreScrollState applies a scroll snapshot. A snapshot taken while
// scrolling counts as a scroll event at nowMS.
func (v *Virtualizer[K]) RestoreScrollState(s ScrollState, nowMS uint64) {
	if s.IsScrolling {
		v.ApplyScrollOffsetEventClamped(s.Offset, nowMS)

		return
	}

	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetScrollOffsetClamped(s.Offset)
		v.SetIsScrolling(false)
	})
}

// RestoreFrameState applies a combined snapshot in one batch.
func (v *Virtualizer[K]) RestoreFrameState(s FrameState, nowMS uint64) {
	if s.Scroll.IsScrolling {
		v.ApplyScrollFrameClamped(s.Viewport.Rect, s.Scroll.Offset, nowMS)

		return
	}

	v.BatchUpdate(func(v *Virtualizer[K]) {
		v.SetScrollRect(s.Viewport.Rect)
		v.SetScrollOffsetClamped(s.Scroll.Offset)
		v.SetIsScrolling(false)
	})
}
