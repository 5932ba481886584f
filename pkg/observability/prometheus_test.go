package observability_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/Sumatoshi-tech/virtualizer/pkg/observability"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// TestWriteText verifies the text dump carries engine metrics.
func TestWriteText(t *testing.T) {
	t.Parallel()

	exporter, registry, err := observability.NewPrometheusReader()
	require.NoError(t, err)

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	t.Cleanup(func() { require.NoError(t, mp.Shutdown(context.Background())) })

	v := virtualizer.New(virtualizer.NewIndexConfig(3, virtualizer.FixedSize(1)))

	em, err := observability.RegisterEngineMetrics(mp.Meter("test"), "demo", v)
	require.NoError(t, err)

	em.Observe(v)

	var buf bytes.Buffer

	require.NoError(t, observability.WriteText(&buf, registry))
	assert.Contains(t, buf.String(), "target_info")
	assert.Regexp(t, `vlist[._]engine[._]items`, buf.String())
	assert.Contains(t, buf.String(), `engine="demo"`)
}
