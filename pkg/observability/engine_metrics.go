package observability

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

const (
	metricRebuilds          = "vlist.engine.rebuilds"
	metricIndexRebuilds     = "vlist.engine.index_rebuilds"
	metricNotifications     = "vlist.engine.notifications"
	metricMeasurements      = "vlist.engine.measurements"
	metricScrollAdjustments = "vlist.engine.scroll_adjustments"
	metricDroppedIndexes    = "vlist.engine.dropped_indexes"
	metricItemCount         = "vlist.engine.items"
	metricTotalSize         = "vlist.engine.total_size"
	metricCachedSizes       = "vlist.engine.cached_measurements"

	attrEngine = "engine"
)

// StatsSource exposes engine activity counters. Stats must be safe to call
// from the collecting goroutine.
type StatsSource interface {
	Stats() virtualizer.Stats
}

// GeometrySource exposes the engine state published as gauges.
type GeometrySource interface {
	Count() int
	TotalSize() uint64
	MeasurementCacheLen() int
}

// EngineMetrics publishes one engine's counters and gauges. Counters are read
// at collection time; gauges hold the values passed to the last Observe call
// so collection never touches engine state outside its owner goroutine.
type EngineMetrics struct {
	src   StatsSource
	attrs metric.MeasurementOption

	items  atomic.Int64
	total  atomic.Int64
	cached atomic.Int64

	registration metric.Registration
}

// RegisterEngineMetrics creates the engine instruments on mt and registers a
// collection callback reading src. name labels the engine.
func RegisterEngineMetrics(mt metric.Meter, name string, src StatsSource) (*EngineMetrics, error) {
	b := newMetricBuilder(mt)

	rebuilds := b.observableCounter(metricRebuilds, "Full size rebuilds", "{rebuild}")
	indexRebuilds := b.observableCounter(metricIndexRebuilds, "Prefix index rebuilds", "{rebuild}")
	notifications := b.observableCounter(metricNotifications, "Change notifications", "{notification}")
	measurements := b.observableCounter(metricMeasurements, "Accepted measurements", "{measurement}")
	adjustments := b.observableCounter(metricScrollAdjustments, "Resize scroll compensations", "{adjustment}")
	dropped := b.observableCounter(metricDroppedIndexes, "Range extractor indices dropped", "{index}")
	items := b.gauge(metricItemCount, "Item count", "{item}")
	total := b.gauge(metricTotalSize, "Total scrollable size", "{px}")
	cached := b.gauge(metricCachedSizes, "Measurement cache entries", "{entry}")

	if b.err != nil {
		return nil, b.err
	}

	m := &EngineMetrics{
		src:   src,
		attrs: metric.WithAttributes(attribute.String(attrEngine, name)),
	}

	reg, err := mt.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		s := m.src.Stats()

		o.ObserveInt64(rebuilds, safeconv.U64ToI64(s.Rebuilds), m.attrs)
		o.ObserveInt64(indexRebuilds, safeconv.U64ToI64(s.IndexRebuilds), m.attrs)
		o.ObserveInt64(notifications, safeconv.U64ToI64(s.Notifications), m.attrs)
		o.ObserveInt64(measurements, safeconv.U64ToI64(s.Measurements), m.attrs)
		o.ObserveInt64(adjustments, safeconv.U64ToI64(s.ScrollAdjustments), m.attrs)
		o.ObserveInt64(dropped, safeconv.U64ToI64(s.DroppedIndexes), m.attrs)
		o.ObserveInt64(items, m.items.Load(), m.attrs)
		o.ObserveInt64(total, m.total.Load(), m.attrs)
		o.ObserveInt64(cached, m.cached.Load(), m.attrs)

		return nil
	}, rebuilds, indexRebuilds, notifications, measurements, adjustments, dropped, items, total, cached)
	if err != nil {
		return nil, err
	}

	m.registration = reg

	return m, nil
}

// Observe records the gauge values of g. Call it from the goroutine that owns the engine.
func (m *EngineMetrics) Observe(g GeometrySource) {
	m.items.Store(int64(g.Count()))
	m.total.Store(safeconv.U64ToI64(g.TotalSize()))
	m.cached.Store(int64(g.MeasurementCacheLen()))
}

// Unregister removes the collection callback.
func (m *EngineMetrics) Unregister() error {
	return m.registration.Unregister()
}
