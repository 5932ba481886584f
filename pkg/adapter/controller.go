package adapter

import (
	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// Controller wraps an engine with tween-driven scrolling and anchoring.
// Hosts call OnViewportSize and OnScroll for UI events and Tick once per frame.
type Controller[K comparable] struct {
	v     *virtualizer.Virtualizer[K]
	tween *Tween
}

// NewController creates a controller owning a new engine built from cfg.
func NewController[K comparable](cfg virtualizer.Config[K]) *Controller[K] {
	return &Controller[K]{v: virtualizer.New(cfg)}
}

// Wrap creates a controller around an existing engine.
func Wrap[K comparable](v *virtualizer.Virtualizer[K]) *Controller[K] {
	return &Controller[K]{v: v}
}

// Virtualizer returns the wrapped engine.
func (c *Controller[K]) Virtualizer() *virtualizer.Virtualizer[K] {
	return c.v
}

// Animating reports whether a tween is active.
func (c *Controller[K]) Animating() bool {
	return c.tween != nil
}

// Tween returns the active tween.
func (c *Controller[K]) Tween() (Tween, bool) {
	if c.tween == nil {
		return Tween{}, false
	}

	return *c.tween, true
}

// CancelAnimation drops the active tween.
func (c *Controller[K]) CancelAnimation() {
	c.tween = nil
}

// OnViewportSize forwards a viewport resize.
func (c *Controller[K]) OnViewportSize(size uint32) {
	c.v.SetViewportSize(size)
}

// OnScroll applies a user scroll and cancels any tween.
func (c *Controller[K]) OnScroll(offset, nowMS uint64) {
	c.CancelAnimation()
	c.v.ApplyScrollOffsetEvent(offset, nowMS)
}

// Tick advances the controller. With an active tween it applies the sampled
// offset and returns it; otherwise it runs is-scrolling debouncing and
// returns false.
func (c *Controller[K]) Tick(nowMS uint64) (uint64, bool) {
	if c.tween == nil {
		c.v.UpdateScrolling(nowMS)

		return 0, false
	}

	tw := *c.tween
	c.v.ApplyScrollOffsetEventClamped(tw.Sample(nowMS), nowMS)

	if tw.Done(nowMS) {
		c.tween = nil
		c.v.SetIsScrolling(false)
	}

	return c.v.ScrollOffset(), true
}

// ScrollToIndex jumps to index without animation and returns the applied offset.
func (c *Controller[K]) ScrollToIndex(index int, align virtualizer.Align, nowMS uint64) uint64 {
	return c.ScrollToOffset(c.v.ScrollToIndexOffset(index, align), nowMS)
}

// ScrollToOffset jumps to offset without animation and returns the applied offset.
func (c *Controller[K]) ScrollToOffset(offset, nowMS uint64) uint64 {
	c.v.ApplyScrollOffsetEventClamped(offset, nowMS)

	return c.v.ScrollOffset()
}

// StartTweenToIndex animates toward index and returns the clamped target.
func (c *Controller[K]) StartTweenToIndex(index int, align virtualizer.Align, nowMS, durationMS uint64, easing Easing) uint64 {
	return c.StartTweenToOffset(c.v.ScrollToIndexOffset(index, align), nowMS, durationMS, easing)
}

// StartTweenToOffset animates from the current offset toward offset and
// returns the clamped target. It replaces any active tween.
func (c *Controller[K]) StartTweenToOffset(offset, nowMS, durationMS uint64, easing Easing) uint64 {
	to := c.v.ClampScrollOffset(offset)
	tw := NewTween(c.v.ScrollOffset(), to, nowMS, durationMS, easing)
	c.tween = &tw

	return to
}

// CaptureFirstVisibleAnchor anchors the first visible item.
func (c *Controller[K]) CaptureFirstVisibleAnchor() (ScrollAnchor[K], bool) {
	return CaptureFirstVisibleAnchor(c.v)
}

// CaptureAnchorAtOffsetInViewport anchors the item found at the given
// distance below the scroll offset.
func (c *Controller[K]) CaptureAnchorAtOffsetInViewport(offsetInViewport uint64) (ScrollAnchor[K], bool) {
	abs := safeconv.AddU64(c.v.ScrollOffset(), offsetInViewport)

	item, ok := c.v.VirtualItemKeyedForOffset(abs)
	if !ok {
		return ScrollAnchor[K]{}, false
	}

	return ScrollAnchor[K]{
		Key:              item.Key,
		OffsetInViewport: safeconv.SubU64(c.v.ScrollOffset(), item.Start),
	}, true
}

// ApplyAnchor cancels any tween and restores anchor.
func (c *Controller[K]) ApplyAnchor(anchor ScrollAnchor[K], keyToIndex KeyIndexFunc[K]) bool {
	c.CancelAnimation()

	return ApplyAnchor(c.v, anchor, keyToIndex)
}
