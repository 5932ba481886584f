package config

import "github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"

// Engine defaults.
const (
	DefaultEngineOverscan           = virtualizer.DefaultOverscan
	DefaultEngineGap                = 0
	DefaultEnginePaddingStart       = 0
	DefaultEnginePaddingEnd         = 0
	DefaultEngineScrollPaddingStart = 0
	DefaultEngineScrollPaddingEnd   = 0
	DefaultEngineScrollMargin       = 0
	DefaultEngineResetDelayMS       = virtualizer.DefaultScrollingResetDelayMS
	DefaultEngineUseScrollEndEvent  = false
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = FormatText
)

// Telemetry defaults.
const (
	DefaultTelemetryOTLPEndpoint = ""
	DefaultTelemetryOTLPInsecure = false
	DefaultTelemetryOTLPHeaders  = ""
	DefaultTelemetrySampleRatio  = 1.0
	DefaultTelemetryPrometheus   = false
)

// Output defaults.
const (
	DefaultOutputColor     = true
	DefaultOutputPlotTheme = "dark"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)
