package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricStepsTotal   = "vlist.scenario.steps.total"
	metricStepDuration = "vlist.scenario.step.duration.seconds"
	metricStepErrors   = "vlist.scenario.step.errors.total"

	attrOp = "op"
)

// stepBucketBoundaries covers 1µs to 100ms; engine steps are in-memory.
var stepBucketBoundaries = []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 5e-4, 1e-3, 5e-3, 1e-2, 1e-1}

// StepMetrics holds rate, error and duration instruments for scenario steps.
type StepMetrics struct {
	steps    metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
}

// NewStepMetrics creates the step instruments from mt.
func NewStepMetrics(mt metric.Meter) (*StepMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &StepMetrics{
		steps:    b.counter(metricStepsTotal, "Scenario steps executed", "{step}"),
		duration: b.histogram(metricStepDuration, "Scenario step duration", "s", stepBucketBoundaries...),
		errors:   b.counter(metricStepErrors, "Scenario steps that failed", "{step}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// RecordStep records one executed step.
func (sm *StepMetrics) RecordStep(ctx context.Context, op string, duration time.Duration, failed bool) {
	attrs := metric.WithAttributes(attribute.String(attrOp, op))

	sm.steps.Add(ctx, 1, attrs)
	sm.duration.Record(ctx, duration.Seconds(), attrs)

	if failed {
		sm.errors.Add(ctx, 1, attrs)
	}
}
