package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = "vlist"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for vlist settings.
const envPrefix = "VLIST"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise vlist.yaml is searched in the working directory, ./config and
// $HOME/.config/vlist. A missing config file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(filepath.Join(home, ".config", configName))
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// Default returns the configuration used when nothing is configured.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Overscan:           DefaultEngineOverscan,
			Gap:                DefaultEngineGap,
			PaddingStart:       DefaultEnginePaddingStart,
			PaddingEnd:         DefaultEnginePaddingEnd,
			ScrollPaddingStart: DefaultEngineScrollPaddingStart,
			ScrollPaddingEnd:   DefaultEngineScrollPaddingEnd,
			ScrollMargin:       DefaultEngineScrollMargin,
			ResetDelayMS:       DefaultEngineResetDelayMS,
			UseScrollEndEvent:  DefaultEngineUseScrollEndEvent,
		},
		Logging: LoggingConfig{Level: DefaultLoggingLevel, Format: DefaultLoggingFormat},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: DefaultTelemetryOTLPEndpoint,
			OTLPHeaders:  DefaultTelemetryOTLPHeaders,
			SampleRatio:  DefaultTelemetrySampleRatio,
			OTLPInsecure: DefaultTelemetryOTLPInsecure,
			Prometheus:   DefaultTelemetryPrometheus,
		},
		Output: OutputConfig{PlotTheme: DefaultOutputPlotTheme, Color: DefaultOutputColor},
	}
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("engine.overscan", DefaultEngineOverscan)
	viperCfg.SetDefault("engine.gap", DefaultEngineGap)
	viperCfg.SetDefault("engine.padding_start", DefaultEnginePaddingStart)
	viperCfg.SetDefault("engine.padding_end", DefaultEnginePaddingEnd)
	viperCfg.SetDefault("engine.scroll_padding_start", DefaultEngineScrollPaddingStart)
	viperCfg.SetDefault("engine.scroll_padding_end", DefaultEngineScrollPaddingEnd)
	viperCfg.SetDefault("engine.scroll_margin", DefaultEngineScrollMargin)
	viperCfg.SetDefault("engine.is_scrolling_reset_delay_ms", DefaultEngineResetDelayMS)
	viperCfg.SetDefault("engine.use_scrollend_event", DefaultEngineUseScrollEndEvent)

	viperCfg.SetDefault("logging.level", DefaultLoggingLevel)
	viperCfg.SetDefault("logging.format", DefaultLoggingFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", DefaultTelemetryOTLPEndpoint)
	viperCfg.SetDefault("telemetry.otlp_insecure", DefaultTelemetryOTLPInsecure)
	viperCfg.SetDefault("telemetry.otlp_headers", DefaultTelemetryOTLPHeaders)
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultTelemetrySampleRatio)
	viperCfg.SetDefault("telemetry.prometheus", DefaultTelemetryPrometheus)

	viperCfg.SetDefault("output.color", DefaultOutputColor)
	viperCfg.SetDefault("output.plot_theme", DefaultOutputPlotTheme)
}
