package virtualizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test constants.
const (
	testCount100  = 100
	testViewport  = 10
	testOffset50  = 50
	testMargin50  = 50
	testPadding10 = 10
)

func newFixed(count int, size uint32) *Virtualizer[ItemKey] {
	return New(NewIndexConfig(count, FixedSize(size)))
}

func countCalls(cfg Config[ItemKey]) (Config[ItemKey], *int) {
	calls := 0

	return cfg.WithOnChange(func(*Virtualizer[ItemKey], bool) { calls++ }), &calls
}

// TestNew_Defaults verifies default configuration values.
func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	v := newFixed(testCount100, 1)

	assert.True(t, v.Enabled())
	assert.Equal(t, testCount100, v.Count())
	assert.Equal(t, DefaultOverscan, v.Config().Overscan)
	assert.Equal(t, uint64(DefaultScrollingResetDelayMS), v.Config().ScrollingResetDelayMS)
	assert.Equal(t, uint64(testCount100), v.TotalSize())
	assert.Equal(t, uint64(0), v.ScrollOffset())
	assert.Equal(t, DirectionNone, v.Direction())
}

// TestScenario_FixedSizeRange verifies the visible and overscanned window at offset 0.
func TestScenario_FixedSizeRange(t *testing.T) {
	t.Parallel()

	v := newFixed(testCount100, 1)
	v.SetViewportSize(testViewport)
	v.SetScrollOffset(0)

	assert.Equal(t, Range{Start: 0, End: 10}, v.VisibleRange())
	assert.Equal(t, Range{Start: 0, End: 11}, v.VirtualRange())
}

// TestScenario_OverscanAndScroll verifies overscan on both sides mid-list.
func TestScenario_OverscanAndScroll(t *testing.T) {
	t.Parallel()

	v := newFixed(testCount100, 1)
	v.SetViewportSize(testViewport)
	v.SetScrollOffset(testOffset50)

	assert.Equal(t, Range{Start: 49, End: 61}, v.VirtualRange())
	assert.Equal(t, Range{Start: 50, End: 60}, v.VisibleRange())
}

// TestPaddingAndGap_TotalSize verifies padding and gap accounting.
func TestPaddingAndGap_TotalSize(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(3, FixedSize(2)).WithPadding(10, 5).WithGap(1))

	assert.Equal(t, uint64(23), v.TotalSize())
	assert.Empty(t, v.AppendVirtualItems(nil), "zero viewport renders nothing")
}

// TestScenario_MeasureAndScrollTo verifies measurement effects on totals and targeting.
func TestScenario_MeasureAndScrollTo(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(5, FixedSize(1)).WithScrollPadding(2, 0))
	v.SetViewportSize(3)

	assert.Equal(t, uint64(5), v.TotalSize())

	v.Measure(2, 10)
	assert.Equal(t, uint64(14), v.TotalSize())
	assert.Equal(t, uint64(0), v.ScrollToIndexOffset(2, AlignStart))
	assert.Equal(t, uint64(11), v.ScrollToIndexOffset(4, AlignEnd))
}

// TestScenario_GapBelongsToPrecedingItem verifies offset mapping inside a gap.
func TestScenario_GapBelongsToPrecedingItem(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(2, FixedSize(2)).WithGap(1))

	for offset, want := range []int{0, 0, 0, 1, 1} {
		got, ok := v.IndexAtOffset(uint64(offset))
		require.True(t, ok)
		assert.Equal(t, want, got, "offset %d", offset)
	}

	it, ok := v.VirtualItemForOffset(2)
	require.True(t, ok)
	assert.Equal(t, 0, it.Index)

	it, ok = v.VirtualItemForOffset(3)
	require.True(t, ok)
	assert.Equal(t, 1, it.Index)
}

// TestScenario_ResizeCompensatesScroll verifies scroll-jump compensation.
func TestScenario_ResizeCompensatesScroll(t *testing.T) {
	t.Parallel()

	v := newFixed(5, 10)
	v.SetViewportSize(testViewport)
	v.SetScrollOffset(30)

	assert.Equal(t, int64(5), v.ResizeItem(0, 15))
	assert.Equal(t, uint64(35), v.ScrollOffset())
	assert.Equal(t, uint64(1), v.Stats().ScrollAdjustments)
}

// TestResizeItem_NoAdjustWhenItemAfterOffset verifies the default rule.
func TestResizeItem_NoAdjustWhenItemAfterOffset(t *testing.T) {
	t.Parallel()

	v := newFixed(5, 10)
	v.SetViewportSize(testViewport)
	v.SetScrollOffset(30)

	assert.Equal(t, int64(0), v.ResizeItem(3, 20))
	assert.Equal(t, uint64(30), v.ScrollOffset())

	size, ok := v.ItemSize(3)
	require.True(t, ok)
	assert.Equal(t, uint32(20), size)
}

// TestResizeItem_CustomAdjustRule verifies the override receives the old item and delta.
func TestResizeItem_CustomAdjustRule(t *testing.T) {
	t.Parallel()

	var (
		gotItem  VirtualItem
		gotDelta int64
	)

	cfg := NewIndexConfig(5, FixedSize(10)).WithAdjustOnResize(
		func(_ *Virtualizer[ItemKey], item VirtualItem, delta int64) bool {
			gotItem, gotDelta = item, delta

			return true
		})

	v := New(cfg)
	v.SetScrollOffset(5)

	assert.Equal(t, int64(-4), v.ResizeItem(2, 6))
	assert.Equal(t, uint64(1), v.ScrollOffset())
	assert.Equal(t, VirtualItem{Index: 2, Start: 20, Size: 10}, gotItem)
	assert.Equal(t, int64(-4), gotDelta)
}

// TestResizeItemMany_SumsAdjustments verifies batched resize accounting.
func TestResizeItemMany_SumsAdjustments(t *testing.T) {
	t.Parallel()

	cfg, calls := countCalls(NewIndexConfig(4, FixedSize(1)))
	v := New(cfg)
	v.SetViewportSize(2)
	v.SetScrollOffset(100)
	*calls = 0

	applied := v.ResizeItemMany([]Measurement{{Index: 0, Size: 4}, {Index: 2, Size: 0}, {Index: 9, Size: 3}})

	assert.Equal(t, int64(2), applied)
	assert.Equal(t, uint64(102), v.ScrollOffset())
	assert.Equal(t, 1, *calls)

	size, _ := v.ItemSize(2)
	assert.Equal(t, uint32(0), size)
}

// TestMeasurements_FollowKeysAfterReorder verifies cache entries follow keys.
func TestMeasurements_FollowKeysAfterReorder(t *testing.T) {
	t.Parallel()

	v := newFixed(2, 1)
	v.Measure(0, 10)

	v.SetKeyFunc(func(i int) ItemKey {
		if i == 0 {
			return 1
		}

		return 0
	})

	size0, _ := v.ItemSize(0)
	size1, _ := v.ItemSize(1)
	assert.Equal(t, uint32(1), size0)
	assert.Equal(t, uint32(10), size1)
}

// TestSyncItemKeys_MovesMeasurements verifies in-place reorders with a stable key function.
func TestSyncItemKeys_MovesMeasurements(t *testing.T) {
	t.Parallel()

	keys := []ItemKey{0, 1, 2}
	v := New(NewConfig(3, FixedSize(1), func(i int) ItemKey { return keys[i] }))

	v.Measure(0, 10)

	keys = []ItemKey{2, 1, 0}

	v.SyncItemKeys()

	size0, _ := v.ItemSize(0)
	size2, _ := v.ItemSize(2)
	assert.Equal(t, uint32(1), size0)
	assert.Equal(t, uint32(10), size2)
	assert.True(t, v.IsMeasured(2))
	assert.False(t, v.IsMeasured(0))
}

// TestSetCount_GapBookkeeping verifies the trailing gap follows the last item.
func TestSetCount_GapBookkeeping(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(1, FixedSize(2)).WithGap(1))
	assert.Equal(t, uint64(2), v.TotalSize())

	v.SetCount(2)
	assert.Equal(t, uint64(5), v.TotalSize())

	i, _ := v.IndexAtOffset(2)
	assert.Equal(t, 0, i)
	i, _ = v.IndexAtOffset(3)
	assert.Equal(t, 1, i)

	v.SetCount(1)
	assert.Equal(t, uint64(2), v.TotalSize())
	i, _ = v.IndexAtOffset(2)
	assert.Equal(t, 0, i)
}

// TestSetCount_ShrinkGrowRoundTrip verifies measured sizes return after growth.
func TestSetCount_ShrinkGrowRoundTrip(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(2, FixedSize(1)).WithGap(1))
	v.Measure(0, 5)
	v.SetCount(4)
	v.Measure(3, 7)

	assert.Equal(t, uint64(17), v.TotalSize())
	start, _ := v.ItemStart(3)
	end, _ := v.ItemEnd(3)
	assert.Equal(t, uint64(10), start)
	assert.Equal(t, uint64(17), end)

	v.SetCount(2)
	assert.Equal(t, uint64(7), v.TotalSize())
	_, ok := v.ItemSize(3)
	assert.False(t, ok)

	v.SetCount(4)
	size, _ := v.ItemSize(3)
	start, _ = v.ItemStart(3)
	assert.Equal(t, uint32(7), size)
	assert.Equal(t, uint64(10), start)
}

// TestSetCount_ZeroThenGrow verifies the empty list is well defined.
func TestSetCount_ZeroThenGrow(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(3, FixedSize(2)).WithGap(1))
	assert.Equal(t, uint64(8), v.TotalSize())

	v.SetCount(0)
	assert.Equal(t, uint64(0), v.TotalSize())
	_, ok := v.IndexAtOffset(0)
	assert.False(t, ok)
	assert.True(t, v.VirtualRange().Empty())

	v.SetCount(2)
	assert.Equal(t, uint64(5), v.TotalSize())
	i, ok := v.IndexAtOffset(3)
	require.True(t, ok)
	assert.Equal(t, 1, i)
}

// TestAppendAndTruncate_MatchFullRebuild verifies tail-only count changes.
func TestAppendAndTruncate_MatchFullRebuild(t *testing.T) {
	t.Parallel()

	cfg := NewIndexConfig(2, FixedSize(1)).WithGap(1)
	v := New(cfg)
	v.Measure(0, 5)
	v.AppendItems(2)
	v.Measure(3, 7)

	assert.Equal(t, 4, v.Count())
	assert.Equal(t, uint64(17), v.TotalSize())
	start, _ := v.ItemStart(3)
	assert.Equal(t, uint64(10), start)

	v.TruncateItems(2)
	assert.Equal(t, uint64(7), v.TotalSize())

	v.AppendItems(2)
	size, _ := v.ItemSize(3)
	assert.Equal(t, uint32(7), size)
	assert.True(t, v.IsMeasured(3))

	rebuilt := New(cfg)
	rebuilt.ImportMeasurementCache(v.ExportMeasurementCache())
	rebuilt.SetCount(4)

	for i := range 4 {
		a, _ := v.ItemStart(i)
		b, _ := rebuilt.ItemStart(i)
		assert.Equal(t, b, a, "item %d", i)
	}

	assert.Equal(t, rebuilt.TotalSize(), v.TotalSize())
	assert.Equal(t, uint64(1), v.Stats().Rebuilds, "tail changes never rebuild")
}

// TestSetConfig_CountOnlyKeepsCache verifies cached measurements survive count changes.
func TestSetConfig_CountOnlyKeepsCache(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(2, FixedSize(1)).WithGap(1))
	v.Measure(1, 9)

	v.UpdateConfig(func(c *Config[ItemKey]) { c.Count = 4 })
	size, _ := v.ItemSize(1)
	assert.Equal(t, uint32(9), size)

	v.UpdateConfig(func(c *Config[ItemKey]) { c.Count = 1 })
	assert.Equal(t, uint64(1), v.TotalSize())
	_, ok := v.ItemSize(1)
	assert.False(t, ok)
}

// TestSetConfig_RebuildDecisions verifies which changes trigger which rebuilds.
func TestSetConfig_RebuildDecisions(t *testing.T) {
	t.Parallel()

	v := newFixed(3, 1)
	base := v.Stats()

	// Same callbacks, same count: nothing to rebuild.
	v.SetConfig(v.Config().WithOverscan(4))
	assert.Equal(t, base.Rebuilds, v.Stats().Rebuilds)
	assert.Equal(t, base.IndexRebuilds, v.Stats().IndexRebuilds)

	v.SetConfig(v.Config().WithGap(2))
	assert.Equal(t, base.Rebuilds, v.Stats().Rebuilds)
	assert.Equal(t, base.IndexRebuilds+1, v.Stats().IndexRebuilds)

	// A new estimator box means a new identity.
	v.SetConfig(v.Config().WithEstimateSize(FixedSize(2)))
	assert.Equal(t, base.Rebuilds+1, v.Stats().Rebuilds)

	size, _ := v.ItemSize(0)
	assert.Equal(t, uint32(2), size)
}

// TestSetConfig_UnchangedIsSilent verifies replacing a configuration with an
// equal one neither rebuilds nor notifies.
func TestSetConfig_UnchangedIsSilent(t *testing.T) {
	t.Parallel()

	cfg, calls := countCalls(NewIndexConfig(5, FixedSize(3)).
		WithRangeExtractor(PinnedExtractor(0)).
		WithInitialOffsetProvider(func() uint64 { return 4 }))
	v := New(cfg)
	base := v.Stats()

	v.SetConfig(v.Config())
	v.UpdateConfig(func(*Config[ItemKey]) {})

	assert.Zero(t, *calls)
	assert.Equal(t, base, v.Stats())

	// Reinstalling a callback is a change even when the function is the same.
	v.SetConfig(v.Config().WithRangeExtractor(PinnedExtractor(0)))
	assert.Equal(t, 1, *calls)
}

// TestSetConfig_DisableEnable verifies viewport reset semantics.
func TestSetConfig_DisableEnable(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(testCount100, FixedSize(1)).
		WithInitialRect(Rect{Main: 10, Cross: 4}).
		WithInitialOffset(7))
	v.SetScrollOffset(40)
	v.SetViewportSize(20)

	v.SetEnabled(false)
	assert.Equal(t, uint32(0), v.ViewportSize())
	assert.Equal(t, Rect{}, v.ScrollRect())
	assert.Equal(t, uint64(7), v.ScrollOffset())
	assert.Equal(t, uint64(0), v.TotalSize())

	v.SetEnabled(true)
	assert.Equal(t, Rect{Main: 10, Cross: 4}, v.ScrollRect())
	assert.Equal(t, uint32(10), v.ViewportSize())
	assert.Equal(t, uint64(7), v.ScrollOffset())
	assert.Equal(t, Range{Start: 7, End: 17}, v.VisibleRange())
}

// TestDisabled_IsEmpty verifies a disabled engine answers every query with nothing.
func TestDisabled_IsEmpty(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(10, FixedSize(1)).WithEnabled(false))

	assert.Equal(t, uint64(0), v.TotalSize())
	assert.True(t, v.VirtualRange().Empty())
	assert.True(t, v.VisibleRange().Empty())
	_, ok := v.IndexAtOffset(0)
	assert.False(t, ok)
	_, ok = v.ItemStart(0)
	assert.False(t, ok)

	v.SetViewportAndScrollClamped(10, 5)
	assert.True(t, v.VirtualRange().Empty())
	assert.Empty(t, v.AppendVirtualIndexes(nil))

	v.NotifyScrollEvent(1)
	assert.False(t, v.IsScrolling())
}

// TestDisabledConfig_CountChangeStillRebuilds verifies sizes track count while disabled.
func TestDisabledConfig_CountChangeStillRebuilds(t *testing.T) {
	t.Parallel()

	v := newFixed(3, 1)
	v.SetConfig(v.Config().WithEnabled(false))
	v.UpdateConfig(func(c *Config[ItemKey]) { c.Count = 6 })
	v.SetEnabled(true)

	assert.Equal(t, uint64(6), v.TotalSize())
	_, ok := v.ItemSize(5)
	assert.True(t, ok)
}

// TestSetGap_RebuildsMapping verifies gap changes rebuild only the index.
func TestSetGap_RebuildsMapping(t *testing.T) {
	t.Parallel()

	v := newFixed(2, 2)
	assert.Equal(t, uint64(4), v.TotalSize())
	i, _ := v.IndexAtOffset(2)
	assert.Equal(t, 1, i)

	rebuilds := v.Stats().Rebuilds

	v.SetGap(1)
	assert.Equal(t, uint64(5), v.TotalSize())
	i, _ = v.IndexAtOffset(2)
	assert.Equal(t, 0, i)
	assert.Equal(t, rebuilds, v.Stats().Rebuilds)
}

// TestInitialRect verifies the initial rect sets viewport and geometry.
func TestInitialRect(t *testing.T) {
	t.Parallel()

	v := New(NewIndexConfig(1, FixedSize(1)).WithInitialRect(Rect{Main: 10, Cross: 20}))

	assert.Equal(t, uint32(10), v.ViewportSize())
	assert.Equal(t, Rect{Main: 10, Cross: 20}, v.ScrollRect())
}

// TestInitialOffsetProvider verifies the provider is invoked.
func TestInitialOffsetProvider(t *testing.T) {
	t.Parallel()

	called := 0
	v := New(NewIndexConfig(1, FixedSize(1)).WithInitialOffsetProvider(func() uint64 {
		called++

		return 42
	}))

	assert.Equal(t, uint64(42), v.ScrollOffset())
	assert.GreaterOrEqual(t, called, 1)
}

// TestKeyedConfig verifies string keys flow through keyed queries.
func TestKeyedConfig(t *testing.T) {
	t.Parallel()

	names := []string{"a", "b", "c", "d"}
	v := New(NewConfig(len(names), FixedSize(5), func(i int) string { return names[i] }))
	v.SetViewportSize(5)
	v.SetScrollOffset(5)

	items := v.AppendVirtualItemsKeyed(nil)
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].Key)
	assert.Equal(t, "b", items[1].Key)
	assert.Equal(t, uint64(5), items[1].Start)

	it, ok := v.VirtualItemKeyedForOffset(12)
	require.True(t, ok)
	assert.Equal(t, "c", it.Key)
	assert.Equal(t, "d", v.KeyFor(3))
}
