package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/virtualizer/pkg/adapter"
	"github.com/Sumatoshi-tech/virtualizer/pkg/config"
	"github.com/Sumatoshi-tech/virtualizer/pkg/measure"
	"github.com/Sumatoshi-tech/virtualizer/pkg/observability"
	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// firstKey is the key of the first item of a fresh scenario list. Appended
// keys count up from there; prepended keys count down from math.MaxUint64.
const firstKey = 1

// Frame is the engine state observed after one step.
type Frame struct {
	Step        int               `json:"step"         yaml:"step"`
	Op          Op                `json:"op"           yaml:"op"`
	AtMS        uint64            `json:"at_ms"        yaml:"at_ms"`
	Count       int               `json:"count"        yaml:"count"`
	Offset      uint64            `json:"offset"       yaml:"offset"`
	OffsetDelta int64             `json:"offset_delta" yaml:"offset_delta"`
	Visible     virtualizer.Range `json:"visible"      yaml:"visible"`
	Virtual     virtualizer.Range `json:"virtual"      yaml:"virtual"`
	Rendered    int               `json:"rendered"     yaml:"rendered"`
	TotalSize   uint64            `json:"total_size"   yaml:"total_size"`
	Scrolling   bool              `json:"scrolling"    yaml:"scrolling"`
	Animating   bool              `json:"animating"    yaml:"animating"`
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner and engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithTracer records one span per scenario run and per step.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) { r.tracer = tracer }
}

// WithStepMetrics records step counts and durations.
func WithStepMetrics(sm *observability.StepMetrics) Option {
	return func(r *Runner) { r.metrics = sm }
}

// WithEngineDefaults applies configured engine defaults before the
// scenario's own list options.
func WithEngineDefaults(e config.EngineConfig) Option {
	return func(r *Runner) { r.defaults = &e }
}

// Runner executes a scenario against a fresh engine.
type Runner struct {
	sc       *Scenario
	ctrl     *adapter.Controller[uint64]
	keys     []uint64
	nextKey  uint64
	prevKey  uint64
	now      uint64
	saved    []measure.Entry[uint64]
	rendered []int
	batch    []virtualizer.Measurement

	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *observability.StepMetrics
	defaults *config.EngineConfig
}

// NewRunner builds the engine described by sc.List and sizes the viewport.
func NewRunner(sc *Scenario, opts ...Option) *Runner {
	r := &Runner{
		sc:     sc,
		logger: slog.Default(),
		tracer: nooptrace.NewTracerProvider().Tracer(""),
	}

	for _, opt := range opts {
		opt(r)
	}

	count := max(sc.List.Count, 0)
	r.keys = make([]uint64, count)

	for i := range r.keys {
		r.keys[i] = firstKey + uint64(i)
	}

	r.nextKey = firstKey + uint64(count)

	r.ctrl = adapter.NewController(r.engineConfig())
	r.ctrl.OnViewportSize(sc.Viewport)

	return r
}

func (r *Runner) engineConfig() virtualizer.Config[uint64] {
	list := r.sc.List

	cfg := virtualizer.NewConfig(list.Count, virtualizer.FixedSize(list.Estimate), r.keyAt)
	if r.defaults != nil {
		cfg = config.ApplyEngine(*r.defaults, cfg)
	}

	if list.Overscan != nil {
		cfg = cfg.WithOverscan(*list.Overscan)
	}

	if list.Gap != nil {
		cfg = cfg.WithGap(*list.Gap)
	}

	cfg = cfg.WithPadding(orDefault(list.PaddingStart, cfg.PaddingStart), orDefault(list.PaddingEnd, cfg.PaddingEnd))

	if list.ScrollPadding != nil {
		cfg = cfg.WithScrollPadding(*list.ScrollPadding, *list.ScrollPadding)
	}

	if list.ScrollMargin != nil {
		cfg = cfg.WithScrollMargin(*list.ScrollMargin)
	}

	if list.ResetDelayMS != nil {
		cfg = cfg.WithScrollingResetDelay(*list.ResetDelayMS)
	}

	if len(list.Pinned) > 0 {
		cfg = cfg.WithRangeExtractor(virtualizer.PinnedExtractor(list.Pinned...))
	}

	return cfg.
		WithInitialRect(virtualizer.Rect{Main: r.sc.Viewport}).
		WithInitialOffset(list.InitialOffset).
		WithEnabled(!list.Disabled).
		WithLogger(r.logger)
}

func orDefault[T any](p *T, def T) T {
	if p == nil {
		return def
	}

	return *p
}

func (r *Runner) keyAt(index int) uint64 {
	return r.keys[index]
}

// Virtualizer returns the engine driven by the runner.
func (r *Runner) Virtualizer() *virtualizer.Virtualizer[uint64] {
	return r.ctrl.Virtualizer()
}

// Run executes every step and returns one frame per step.
func (r *Runner) Run(ctx context.Context) ([]Frame, error) {
	ctx, span := r.tracer.Start(ctx, "scenario.run",
		trace.WithAttributes(
			attribute.String("scenario.name", r.sc.Name),
			attribute.Int("scenario.steps", len(r.sc.Steps)),
		))
	defer span.End()

	frames := make([]Frame, 0, len(r.sc.Steps))

	for i, st := range r.sc.Steps {
		err := ctx.Err()
		if err != nil {
			return frames, fmt.Errorf("scenario step %d: %w", i, err)
		}

		frame, err := r.runStep(ctx, i, st)
		if err != nil {
			span.RecordError(err)

			return frames, err
		}

		frames = append(frames, frame)
	}

	r.logger.DebugContext(ctx, "scenario finished",
		"name", r.sc.Name, "steps", len(frames), "stats", r.Virtualizer().Stats())

	return frames, nil
}

func (r *Runner) runStep(ctx context.Context, i int, st Step) (Frame, error) {
	ctx, span := r.tracer.Start(ctx, "scenario.step",
		trace.WithAttributes(attribute.Int("step", i), attribute.String("op", string(st.Op))))
	defer span.End()

	if st.At != nil {
		r.now = max(r.now, *st.At)
	}

	before := r.Virtualizer().ScrollOffset()
	start := time.Now()

	err := r.apply(st)

	if r.metrics != nil {
		r.metrics.RecordStep(ctx, string(st.Op), time.Since(start), err != nil)
	}

	if err != nil {
		return Frame{}, fmt.Errorf("scenario step %d (%s): %w", i, st.Op, err)
	}

	frame := r.frame(i, st.Op)
	frame.OffsetDelta = safeconv.Delta(before, frame.Offset)

	r.logger.DebugContext(ctx, "scenario step",
		"step", i, "op", st.Op, "offset", frame.Offset, "visible", frame.Visible)

	return frame, nil
}

//nolint:cyclop // one case per op
func (r *Runner) apply(st Step) error {
	v := r.Virtualizer()

	switch st.Op {
	case OpScroll:
		r.ctrl.OnScroll(st.Offset, r.now)
	case OpViewport:
		r.ctrl.OnViewportSize(st.Size)
	case OpMeasure:
		v.Measure(st.Index, st.Size)
	case OpMeasureVisible:
		r.measureVisible()
	case OpResize:
		v.ResizeItem(st.Index, st.Size)
	case OpCount:
		r.setCount(st.Count)
	case OpAppend:
		r.append(st.Count)
	case OpPrepend:
		r.prepend(st.Count)
	case OpReorder:
		slices.Reverse(r.keys)
		v.SyncItemKeys()
	case OpScrollTo:
		r.ctrl.ScrollToIndex(st.Index, st.align(), r.now)
	case OpTweenTo:
		r.ctrl.StartTweenToIndex(st.Index, st.align(), r.now, st.DurationMS, st.easing())
	case OpTick:
		r.ctrl.Tick(r.now)
	case OpEnable:
		v.SetEnabled(true)
	case OpDisable:
		r.ctrl.CancelAnimation()
		v.SetEnabled(false)
	case OpResetMeasurements:
		v.ResetMeasurements()
	case OpExportCache:
		r.saved = v.ExportMeasurementCache()
	case OpImportCache:
		v.ImportMeasurementCache(r.saved)
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidScenario, st.Op)
	}

	return nil
}

// measureVisible reports the true size of every rendered item, taken from
// List.Sizes by key so sizes follow items across reorders.
func (r *Runner) measureVisible() {
	sizes := r.sc.List.Sizes
	if len(sizes) == 0 {
		return
	}

	v := r.Virtualizer()
	r.rendered = v.AppendVirtualIndexes(r.rendered[:0])
	r.batch = r.batch[:0]

	for _, index := range r.rendered {
		key := r.keys[index]
		r.batch = append(r.batch, virtualizer.Measurement{
			Index: index,
			Size:  sizes[key%uint64(len(sizes))],
		})
	}

	v.MeasureMany(r.batch)
}

func (r *Runner) setCount(count int) {
	count = max(count, 0)
	v := r.Virtualizer()

	if count <= len(r.keys) {
		r.keys = r.keys[:count]
		v.TruncateItems(count)

		return
	}

	r.append(count - len(r.keys))
}

func (r *Runner) append(n int) {
	if n <= 0 {
		return
	}

	for range n {
		r.keys = append(r.keys, r.nextKey)
		r.nextKey++
	}

	r.Virtualizer().AppendItems(n)
}

// prepend inserts n new items at the head and keeps the first visible item
// in place, as a chat history loader would.
func (r *Runner) prepend(n int) {
	if n <= 0 {
		return
	}

	anchor, anchored := r.ctrl.CaptureFirstVisibleAnchor()

	head := make([]uint64, n)
	for i := range head {
		r.prevKey--
		head[n-1-i] = r.prevKey
	}

	r.keys = append(head, r.keys...)
	v := r.Virtualizer()
	v.SetCount(len(r.keys))

	if anchored {
		r.ctrl.ApplyAnchor(anchor, adapter.IndexMap(v))
	}
}

func (r *Runner) frame(i int, op Op) Frame {
	v := r.Virtualizer()
	r.rendered = v.AppendVirtualIndexes(r.rendered[:0])

	return Frame{
		Step:      i,
		Op:        op,
		AtMS:      r.now,
		Count:     v.Count(),
		Offset:    v.ScrollOffset(),
		Visible:   v.VisibleRange(),
		Virtual:   v.VirtualRange(),
		Rendered:  len(r.rendered),
		TotalSize: v.TotalSize(),
		Scrolling: v.IsScrolling(),
		Animating: r.ctrl.Animating(),
	}
}
