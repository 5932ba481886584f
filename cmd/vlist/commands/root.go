// Package commands implements the vlist CLI commands.
package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/virtualizer/pkg/config"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	noColor    bool
}

// NewRootCommand creates the vlist command tree.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "vlist",
		Short: "vlist - headless list virtualization toolkit",
		Long: `vlist drives the list virtualization engine outside of any UI.

Commands:
  simulate      Replay a scenario file and print per-step frames
  bench         Time the engine's hot paths on a synthetic list
  cache         Inspect persisted measurement cache snapshots
  schema        Print the scenario JSON Schema
  version       Show version information`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Config file (default: vlist.yaml in ., ./config, ~/.config/vlist)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(newSimulateCommand(opts))
	cmd.AddCommand(newBenchCommand(opts))
	cmd.AddCommand(newCacheCommand(opts))
	cmd.AddCommand(newSchemaCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// load reads the configuration file and applies flag overrides.
func (o *globalOptions) load() (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return nil, err
	}

	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel

		err = cfg.Validate()
		if err != nil {
			return nil, fmt.Errorf("--log-level: %w", err)
		}
	}

	if o.noColor {
		cfg.Output.Color = false
	}

	return cfg, nil
}

// palette colors terminal output. Colors are disabled per instance rather
// than through the color.NoColor global.
type palette struct {
	ok    *color.Color
	warn  *color.Color
	bad   *color.Color
	info  *color.Color
	faint *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		ok:    color.New(color.FgGreen),
		warn:  color.New(color.FgYellow),
		bad:   color.New(color.FgRed),
		info:  color.New(color.FgCyan),
		faint: color.New(color.Faint),
	}

	if !enabled {
		for _, c := range []*color.Color{p.ok, p.warn, p.bad, p.info, p.faint} {
			c.DisableColor()
		}
	}

	return p
}
