package virtualizer

import "log/slog"

// Default configuration values.
const (
	DefaultOverscan              = 1
	DefaultScrollingResetDelayMS = 150
)

// EstimateFunc returns the estimated main-axis size of the item at index.
// It is called at rebuild time for items without a cached measurement.
type EstimateFunc func(index int) uint32

// KeyFunc returns the stable identity of the item at index.
type KeyFunc[K comparable] func(index int) K

// RangeExtractor chooses the indices to render for a frame. It must call
// emit with strictly ascending in-bounds indices; duplicates are ignored and
// violations are dropped.
type RangeExtractor func(r ExtractorRange, emit func(index int))

// AdjustFunc decides whether a size change of item by delta should shift
// the scroll offset. item is the state before the change.
type AdjustFunc[K comparable] func(v *Virtualizer[K], item VirtualItem, delta int64) bool

// ChangeFunc is invoked after state changes, at most once per batch.
type ChangeFunc[K comparable] func(v *Virtualizer[K], isScrolling bool)

// OffsetProvider lazily supplies the initial scroll offset.
type OffsetProvider func() uint64

// Boxed callbacks give function values an identity: copies of a Config share
// the same box, so replacing a configuration can tell whether the estimator
// or key function changed. The remaining callbacks share one copy-on-write
// box, which keeps Config comparable with ==.
type (
	estimateBox          struct{ fn EstimateFunc }
	keyBox[K comparable] struct{ fn KeyFunc[K] }
)

type hooks[K comparable] struct {
	offsetProvider OffsetProvider
	extractor      RangeExtractor
	adjust         AdjustFunc[K]
	onChange       ChangeFunc[K]
}

// Config is the engine configuration. Scalar fields may be set directly;
// callbacks are installed through the With* builders.
type Config[K comparable] struct {
	Count              int
	Overscan           int
	PaddingStart       uint32
	PaddingEnd         uint32
	ScrollPaddingStart uint32
	ScrollPaddingEnd   uint32
	ScrollMargin       uint32
	Gap                uint32
	Enabled            bool

	// InitialRect is applied at construction and when the engine is re-enabled.
	InitialRect Rect

	// UseScrollEndEvent disables the time-based is-scrolling reset; the
	// adapter clears scrolling itself when its platform reports scroll end.
	UseScrollEndEvent     bool
	ScrollingResetDelayMS uint64

	estimate      *estimateBox
	keyFor        *keyBox[K]
	initialOffset uint64
	hooks         *hooks[K]
	logger        *slog.Logger
}

// NewConfig creates a configuration with defaults for count items.
func NewConfig[K comparable](count int, estimate EstimateFunc, keyFor KeyFunc[K]) Config[K] {
	return Config[K]{
		Count:                 max(count, 0),
		Overscan:              DefaultOverscan,
		Enabled:               true,
		ScrollingResetDelayMS: DefaultScrollingResetDelayMS,
		estimate:              &estimateBox{fn: estimate},
		keyFor:                &keyBox[K]{fn: keyFor},
	}
}

// NewIndexConfig creates a configuration keyed by item index.
func NewIndexConfig(count int, estimate EstimateFunc) Config[ItemKey] {
	return NewConfig(count, estimate, IndexKey)
}

// IndexKey is the default key function: the index itself.
func IndexKey(index int) ItemKey {
	return ItemKey(index)
}

// FixedSize returns an estimator that reports size for every item.
func FixedSize(size uint32) EstimateFunc {
	return func(int) uint32 { return size }
}

// WithOverscan sets the number of extra items rendered on each side.
func (c Config[K]) WithOverscan(n int) Config[K] {
	c.Overscan = max(n, 0)

	return c
}

// WithPadding sets leading and trailing list padding.
func (c Config[K]) WithPadding(start, end uint32) Config[K] {
	c.PaddingStart, c.PaddingEnd = start, end

	return c
}

// WithScrollPadding sets the padding applied by scroll-to-index.
func (c Config[K]) WithScrollPadding(start, end uint32) Config[K] {
	c.ScrollPaddingStart, c.ScrollPaddingEnd = start, end

	return c
}

// WithScrollMargin sets the offset of the list inside a larger scroll region.
func (c Config[K]) WithScrollMargin(margin uint32) Config[K] {
	c.ScrollMargin = margin

	return c
}

// WithGap sets the space between adjacent items.
func (c Config[K]) WithGap(gap uint32) Config[K] {
	c.Gap = gap

	return c
}

// WithEnabled toggles the engine.
func (c Config[K]) WithEnabled(enabled bool) Config[K] {
	c.Enabled = enabled

	return c
}

// WithInitialRect sets the initial viewport geometry.
func (c Config[K]) WithInitialRect(r Rect) Config[K] {
	c.InitialRect = r

	return c
}

// WithInitialOffset sets a fixed initial scroll offset.
func (c Config[K]) WithInitialOffset(offset uint64) Config[K] {
	c.initialOffset = offset

	return c.withHooks(func(h *hooks[K]) { h.offsetProvider = nil })
}

// WithInitialOffsetProvider sets a lazily evaluated initial scroll offset.
func (c Config[K]) WithInitialOffsetProvider(p OffsetProvider) Config[K] {
	return c.withHooks(func(h *hooks[K]) { h.offsetProvider = p })
}

// WithUseScrollEndEvent opts into adapter-driven scroll end detection.
func (c Config[K]) WithUseScrollEndEvent(use bool) Config[K] {
	c.UseScrollEndEvent = use

	return c
}

// WithScrollingResetDelay sets how long after the last scroll event the
// engine stops reporting scrolling.
func (c Config[K]) WithScrollingResetDelay(ms uint64) Config[K] {
	c.ScrollingResetDelayMS = ms

	return c
}

// WithEstimateSize replaces the size estimator.
func (c Config[K]) WithEstimateSize(fn EstimateFunc) Config[K] {
	c.estimate = &estimateBox{fn: fn}

	return c
}

// WithKeyFunc replaces the key function.
func (c Config[K]) WithKeyFunc(fn KeyFunc[K]) Config[K] {
	c.keyFor = &keyBox[K]{fn: fn}

	return c
}

// WithRangeExtractor installs a custom range-selection policy. nil restores
// the contiguous default.
func (c Config[K]) WithRangeExtractor(fn RangeExtractor) Config[K] {
	return c.withHooks(func(h *hooks[K]) { h.extractor = fn })
}

// WithAdjustOnResize overrides the scroll compensation rule used by ResizeItem.
func (c Config[K]) WithAdjustOnResize(fn AdjustFunc[K]) Config[K] {
	return c.withHooks(func(h *hooks[K]) { h.adjust = fn })
}

// WithOnChange installs the change notification callback.
func (c Config[K]) WithOnChange(fn ChangeFunc[K]) Config[K] {
	return c.withHooks(func(h *hooks[K]) { h.onChange = fn })
}

// WithLogger sets the logger used for rebuild diagnostics and contract
// warnings. nil means slog.Default().
func (c Config[K]) WithLogger(logger *slog.Logger) Config[K] {
	c.logger = logger

	return c
}

// HasRangeExtractor reports whether a custom range-selection policy is set.
func (c Config[K]) HasRangeExtractor() bool {
	return c.hooks != nil && c.hooks.extractor != nil
}

// withHooks copies the callback box before fn mutates it, so other copies
// of the Config keep their callbacks.
func (c Config[K]) withHooks(fn func(h *hooks[K])) Config[K] {
	var h hooks[K]
	if c.hooks != nil {
		h = *c.hooks
	}

	fn(&h)
	c.hooks = &h

	return c
}

func (c *Config[K]) callbacks() hooks[K] {
	if c.hooks == nil {
		return hooks[K]{}
	}

	return *c.hooks
}

func (c *Config[K]) resolveInitialOffset() uint64 {
	if p := c.callbacks().offsetProvider; p != nil {
		return p()
	}

	return c.initialOffset
}

func (c *Config[K]) estimateSize(index int) uint32 {
	if c.estimate == nil || c.estimate.fn == nil {
		return 0
	}

	return c.estimate.fn(index)
}

// keyed reports whether items have identities. Without a key function
// measurements stay per index and bypass the cache.
func (c *Config[K]) keyed() bool {
	return c.keyFor != nil && c.keyFor.fn != nil
}

func (c *Config[K]) key(index int) K {
	if !c.keyed() {
		var zero K

		return zero
	}

	return c.keyFor.fn(index)
}

func (c *Config[K]) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}

	return slog.Default()
}
