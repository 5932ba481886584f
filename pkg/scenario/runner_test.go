package scenario

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/Sumatoshi-tech/virtualizer/pkg/config"
	"github.com/Sumatoshi-tech/virtualizer/pkg/observability"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// Test list geometry: 100 items of 10 in a 50 viewport.
const (
	testCount    = 100
	testEstimate = 10
	testViewport = 50
)

func at(ms uint64) *uint64 {
	return &ms
}

func newScenario(steps ...Step) *Scenario {
	return &Scenario{
		Name:     "test",
		Viewport: testViewport,
		List:     List{Count: testCount, Estimate: testEstimate},
		Steps:    steps,
	}
}

func run(t *testing.T, sc *Scenario, opts ...Option) (*Runner, []Frame) {
	t.Helper()

	r := NewRunner(sc, opts...)

	frames, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, frames, len(sc.Steps))

	return r, frames
}

// TestRunner_ScrollAndDebounce verifies scroll frames and the is-scrolling reset.
func TestRunner_ScrollAndDebounce(t *testing.T) {
	t.Parallel()

	_, frames := run(t, newScenario(
		Step{Op: OpScroll, Offset: 100, At: at(0)},
		Step{Op: OpTick, At: at(100)},
		Step{Op: OpTick, At: at(200)},
	))

	first := frames[0]
	assert.Equal(t, uint64(100), first.Offset)
	assert.Equal(t, int64(100), first.OffsetDelta)
	assert.Equal(t, virtualizer.Range{Start: 10, End: 15}, first.Visible)
	assert.Equal(t, virtualizer.Range{Start: 9, End: 16}, first.Virtual)
	assert.Equal(t, 7, first.Rendered)
	assert.Equal(t, uint64(1000), first.TotalSize)
	assert.True(t, first.Scrolling)

	assert.True(t, frames[1].Scrolling)
	assert.False(t, frames[2].Scrolling)
	assert.Equal(t, uint64(200), frames[2].AtMS)
	assert.Zero(t, frames[2].OffsetDelta)
}

// TestRunner_MeasureAboveViewportCompensates verifies resize compensation frames.
func TestRunner_MeasureAboveViewportCompensates(t *testing.T) {
	t.Parallel()

	r, frames := run(t, newScenario(
		Step{Op: OpScroll, Offset: 100, At: at(0)},
		Step{Op: OpResize, Index: 5, Size: 30},
		Step{Op: OpResize, Index: 50, Size: 20},
	))

	assert.Equal(t, uint64(120), frames[1].Offset)
	assert.Equal(t, int64(20), frames[1].OffsetDelta)
	assert.Equal(t, uint64(1020), frames[1].TotalSize)
	assert.Equal(t, virtualizer.Range{Start: 10, End: 15}, frames[1].Visible)

	assert.Zero(t, frames[2].OffsetDelta, "item below the viewport")
	assert.Equal(t, uint64(1030), frames[2].TotalSize)
	assert.True(t, r.Virtualizer().IsMeasured(50))
}

func TestRunner_MeasureVisible(t *testing.T) {
	t.Parallel()

	sc := newScenario(Step{Op: OpMeasureVisible})
	sc.List.Sizes = []uint32{20}

	r, frames := run(t, sc)

	assert.Equal(t, uint64(6*20+94*10), frames[0].TotalSize)
	assert.Equal(t, 6, r.Virtualizer().MeasurementCacheLen())
}

// TestRunner_PrependKeepsAnchor verifies prepended history does not move the view.
func TestRunner_PrependKeepsAnchor(t *testing.T) {
	t.Parallel()

	r, frames := run(t, newScenario(
		Step{Op: OpScroll, Offset: 500, At: at(0)},
		Step{Op: OpPrepend, Count: 10},
	))

	v := r.Virtualizer()
	last := frames[1]

	assert.Equal(t, 110, last.Count)
	assert.Equal(t, uint64(600), last.Offset)
	assert.Equal(t, int64(100), last.OffsetDelta)
	assert.Equal(t, 60, last.Visible.Start)
	assert.Equal(t, uint64(firstKey+50), v.KeyFor(last.Visible.Start))
	assert.NotEqual(t, v.KeyFor(0), v.KeyFor(9))
}

// TestRunner_ReorderFollowsKeys verifies measurements travel with their keys.
func TestRunner_ReorderFollowsKeys(t *testing.T) {
	t.Parallel()

	r, _ := run(t, newScenario(
		Step{Op: OpMeasure, Index: 0, Size: 30},
		Step{Op: OpReorder},
	))

	v := r.Virtualizer()

	size, ok := v.ItemSize(testCount - 1)
	require.True(t, ok)
	assert.Equal(t, uint32(30), size)

	size, ok = v.ItemSize(0)
	require.True(t, ok)
	assert.Equal(t, uint32(testEstimate), size)
}

func TestRunner_CacheExportImport(t *testing.T) {
	t.Parallel()

	_, frames := run(t, newScenario(
		Step{Op: OpMeasure, Index: 3, Size: 40},
		Step{Op: OpExportCache},
		Step{Op: OpResetMeasurements},
		Step{Op: OpImportCache},
	))

	assert.Equal(t, uint64(1030), frames[1].TotalSize)
	assert.Equal(t, uint64(1000), frames[2].TotalSize)
	assert.Equal(t, uint64(1030), frames[3].TotalSize)
}

func TestRunner_TweenAndScrollTo(t *testing.T) {
	t.Parallel()

	_, frames := run(t, newScenario(
		Step{Op: OpScrollTo, Index: 99, Align: "end", At: at(0)},
		Step{Op: OpTweenTo, Index: 50, Align: "start", DurationMS: 100, Easing: "linear", At: at(1000)},
		Step{Op: OpTick, At: at(1050)},
		Step{Op: OpTick, At: at(1100)},
	))

	assert.Equal(t, uint64(950), frames[0].Offset)
	assert.Equal(t, virtualizer.Range{Start: 95, End: 100}, frames[0].Visible)

	assert.True(t, frames[1].Animating)
	assert.Equal(t, uint64(950), frames[1].Offset)

	assert.Equal(t, uint64(725), frames[2].Offset)
	assert.True(t, frames[2].Scrolling)

	assert.Equal(t, uint64(500), frames[3].Offset)
	assert.False(t, frames[3].Animating)
	assert.False(t, frames[3].Scrolling)
}

func TestRunner_CountAppendDisable(t *testing.T) {
	t.Parallel()

	_, frames := run(t, newScenario(
		Step{Op: OpAppend, Count: 10},
		Step{Op: OpCount, Count: 50},
		Step{Op: OpCount, Count: 60},
		Step{Op: OpScroll, Offset: 40, At: at(0)},
		Step{Op: OpDisable},
		Step{Op: OpEnable},
		Step{Op: OpViewport, Size: 20},
	))

	assert.Equal(t, 110, frames[0].Count)
	assert.Equal(t, uint64(1100), frames[0].TotalSize)
	assert.Equal(t, 50, frames[1].Count)
	assert.Equal(t, uint64(600), frames[2].TotalSize)

	disabled := frames[4]
	assert.Zero(t, disabled.Offset)
	assert.True(t, disabled.Visible.Empty())
	assert.Zero(t, disabled.Rendered)
	assert.Zero(t, disabled.TotalSize)

	enabled := frames[5]
	assert.Equal(t, virtualizer.Range{Start: 0, End: 5}, enabled.Visible)

	assert.Equal(t, virtualizer.Range{Start: 0, End: 2}, frames[6].Visible)
}

func TestRunner_ScenarioOptions(t *testing.T) {
	t.Parallel()

	gap, pad, margin := uint32(2), uint32(5), uint32(3)
	overscan := 0
	delay := uint64(10)

	sc := newScenario(
		Step{Op: OpScroll, Offset: 0, At: at(0)},
		Step{Op: OpTick, At: at(10)},
	)
	sc.List.Gap = &gap
	sc.List.PaddingStart = &pad
	sc.List.ScrollMargin = &margin
	sc.List.Overscan = &overscan
	sc.List.ResetDelayMS = &delay
	sc.List.Pinned = []int{99}

	r, frames := run(t, sc, WithEngineDefaults(config.EngineConfig{Overscan: 4, PaddingEnd: 7}))

	cfg := r.Virtualizer().Config()
	assert.Equal(t, 0, cfg.Overscan)
	assert.Equal(t, uint32(7), cfg.PaddingEnd)
	assert.Equal(t, uint32(5), cfg.PaddingStart)
	assert.Equal(t, uint64(5+100*10+99*2+7), frames[0].TotalSize)
	assert.Equal(t, frames[0].Virtual.Len()+1, frames[0].Rendered, "pinned tail item")
	assert.False(t, frames[1].Scrolling)
}

// TestRunner_FileScenario runs the sample chat scenario end to end with
// logging and metrics wired.
func TestRunner_FileScenario(t *testing.T) {
	t.Parallel()

	sc, err := Load(filepath.Join("testdata", "chat.yaml"))
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	sm, err := observability.NewStepMetrics(mp.Meter("test"))
	require.NoError(t, err)

	var logs bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r, frames := run(t, sc, WithLogger(logger), WithStepMetrics(sm))

	v := r.Virtualizer()
	assert.Equal(t, 110, v.Count())
	assert.Zero(t, frames[len(frames)-1].Offset)
	assert.False(t, frames[len(frames)-1].Animating)
	assert.Equal(t, frames[7].TotalSize, frames[9].TotalSize, "import restores exported sizes")
	assert.Contains(t, logs.String(), "scenario finished")

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)
}

func TestRunner_Spans(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	run(t, newScenario(Step{Op: OpTick, At: at(1)}, Step{Op: OpReorder}), WithTracer(tp.Tracer("test")))

	names := make([]string, 0, 3)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.ElementsMatch(t, []string{"scenario.step", "scenario.step", "scenario.run"}, names)
}

func TestRunner_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	frames, err := NewRunner(newScenario(Step{Op: OpTick, At: at(1)})).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, frames)
}

func TestRunner_UnknownOp(t *testing.T) {
	t.Parallel()

	_, err := NewRunner(newScenario(Step{Op: "warp"})).Run(context.Background())
	require.ErrorIs(t, err, ErrInvalidScenario)
}
