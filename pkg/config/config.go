// Package config provides YAML and environment configuration for the vlist tool.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Sumatoshi-tech/virtualizer/pkg/observability"
)

// Config is the root vlist configuration.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Output    OutputConfig    `mapstructure:"output"`
}

// EngineConfig holds the defaults applied to every engine the tool builds.
type EngineConfig struct {
	Overscan           int    `mapstructure:"overscan"`
	Gap                uint32 `mapstructure:"gap"`
	PaddingStart       uint32 `mapstructure:"padding_start"`
	PaddingEnd         uint32 `mapstructure:"padding_end"`
	ScrollPaddingStart uint32 `mapstructure:"scroll_padding_start"`
	ScrollPaddingEnd   uint32 `mapstructure:"scroll_padding_end"`
	ScrollMargin       uint32 `mapstructure:"scroll_margin"`
	ResetDelayMS       uint64 `mapstructure:"is_scrolling_reset_delay_ms"`
	UseScrollEndEvent  bool   `mapstructure:"use_scrollend_event"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	Prometheus   bool    `mapstructure:"prometheus"`
}

// OutputConfig holds terminal and chart rendering settings.
type OutputConfig struct {
	PlotTheme string `mapstructure:"plot_theme"`
	Color     bool   `mapstructure:"color"`
}

// Sentinel validation errors.
var (
	// ErrInvalidOverscan indicates a negative overscan.
	ErrInvalidOverscan = errors.New("engine.overscan must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
	// ErrInvalidLogFormat indicates an unknown log format.
	ErrInvalidLogFormat = errors.New("logging.format must be text or json")
	// ErrInvalidSampleRatio indicates a sample ratio outside [0,1].
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
)

// Validate checks all sections.
func (c *Config) Validate() error {
	if c.Engine.Overscan < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOverscan, c.Engine.Overscan)
	}

	_, err := c.Logging.SlogLevel()
	if err != nil {
		return err
	}

	if c.Logging.Format != FormatText && c.Logging.Format != FormatJSON {
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Telemetry.SampleRatio)
	}

	return nil
}

// SlogLevel parses the configured level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(strings.ToLower(l.Level)))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, l.Level)
	}

	return level, nil
}

// Observability converts the logging and telemetry sections into an
// observability configuration for the given mode.
func (c *Config) Observability(mode observability.AppMode, version string) observability.Config {
	oc := observability.DefaultConfig()
	oc.ServiceVersion = version
	oc.Mode = mode
	oc.OTLPEndpoint = c.Telemetry.OTLPEndpoint
	oc.OTLPHeaders = observability.ParseOTLPHeaders(c.Telemetry.OTLPHeaders)
	oc.OTLPInsecure = c.Telemetry.OTLPInsecure
	oc.SampleRatio = c.Telemetry.SampleRatio
	oc.Prometheus = c.Telemetry.Prometheus
	oc.LogJSON = c.Logging.Format == FormatJSON

	level, err := c.Logging.SlogLevel()
	if err == nil {
		oc.LogLevel = level
	}

	return oc
}
