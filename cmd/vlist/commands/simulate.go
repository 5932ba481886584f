package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/virtualizer/pkg/config"
	"github.com/Sumatoshi-tech/virtualizer/pkg/observability"
	"github.com/Sumatoshi-tech/virtualizer/pkg/persist"
	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
	"github.com/Sumatoshi-tech/virtualizer/pkg/scenario"
	"github.com/Sumatoshi-tech/virtualizer/pkg/version"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// Output formats for simulate.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const (
	goldenFileMode = 0o644
	cacheDirMode   = 0o755
)

var (
	// ErrUnknownFormat indicates an unsupported --format value.
	ErrUnknownFormat = errors.New("unknown output format")
	// ErrGoldenMismatch indicates the recorded frames differ from the golden file.
	ErrGoldenMismatch = errors.New("frames differ from golden file")
)

type simulateCommand struct {
	global *globalOptions

	format       string
	plot         string
	theme        string
	golden       string
	updateGolden bool
	metrics      bool
	saveCache    string
	loadCache    string
	cacheDir     string
}

func newSimulateCommand(global *globalOptions) *cobra.Command {
	sc := &simulateCommand{global: global}

	cmd := &cobra.Command{
		Use:   "simulate <scenario>",
		Short: "Replay a scenario file against the engine",
		Long: `Replay a YAML or JSON scenario against a fresh engine and print one frame per step.

The scenario is validated against the embedded JSON Schema (see "vlist schema").`,
		Args: cobra.ExactArgs(1),
		RunE: sc.run,
	}

	cmd.Flags().StringVarP(&sc.format, "format", "f", formatTable, "Output format: table, json, yaml")
	cmd.Flags().StringVar(&sc.plot, "plot", "", "Write an HTML timeline chart to this path")
	cmd.Flags().StringVar(&sc.theme, "theme", "", "Chart theme: light, dark (default: output.plot_theme)")
	cmd.Flags().StringVar(&sc.golden, "golden", "", "Compare frames with this YAML golden file")
	cmd.Flags().BoolVar(&sc.updateGolden, "update-golden", false, "Rewrite the golden file instead of comparing")
	cmd.Flags().BoolVar(&sc.metrics, "metrics", false, "Print engine and step metrics in Prometheus text format")
	cmd.Flags().StringVar(&sc.saveCache, "save-cache", "", "Save the final measurement cache (.json, .yaml, optionally .lz4)")
	cmd.Flags().StringVar(&sc.loadCache, "load-cache", "", "Seed the measurement cache from a snapshot before the first step")
	cmd.Flags().StringVar(&sc.cacheDir, "cache-dir", "", "Keep a per-scenario measurement cache in this directory across runs")

	return cmd
}

func (sc *simulateCommand) run(cmd *cobra.Command, args []string) error {
	cfg, err := sc.global.load()
	if err != nil {
		return err
	}

	scn, err := scenario.Load(args[0])
	if err != nil {
		return err
	}

	obsCfg := cfg.Observability(observability.ModeSimulate, version.Get().Version)
	if sc.metrics {
		obsCfg.Prometheus = true
	}

	ctx := cmd.Context()

	providers, err := observability.Init(ctx, obsCfg)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.Background())
		if shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	runner, err := newRunner(scn, cfg, providers)
	if err != nil {
		return err
	}

	v := runner.Virtualizer()

	err = sc.seedCache(v, args[0], providers.Logger)
	if err != nil {
		return err
	}

	engine, err := observability.RegisterEngineMetrics(providers.Meter, scn.Name, v)
	if err != nil {
		return fmt.Errorf("engine metrics: %w", err)
	}

	defer func() {
		unregErr := engine.Unregister()
		if unregErr != nil {
			providers.Logger.Warn("engine metrics unregister failed", "error", unregErr)
		}
	}()

	frames, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	engine.Observe(v)

	out := cmd.OutOrStdout()
	pal := newPalette(cfg.Output.Color)

	err = writeFrames(out, sc.format, scn.Name, frames, pal)
	if err != nil {
		return err
	}

	if sc.plot != "" {
		err = sc.writePlot(scn.Name, frames, cfg)
		if err != nil {
			return err
		}
	}

	if sc.saveCache != "" {
		err = saveCache(sc.saveCache, v)
		if err != nil {
			return err
		}
	}

	if sc.cacheDir != "" {
		err = os.MkdirAll(sc.cacheDir, cacheDirMode)
		if err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}

		err = cachePersister(args[0]).Save(sc.cacheDir, persist.TakeSnapshot(v))
		if err != nil {
			return err
		}
	}

	if sc.metrics {
		err = observability.WriteText(out, providers.Registry)
		if err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	if sc.golden != "" {
		return checkGolden(out, sc.golden, frames, sc.updateGolden, pal)
	}

	return nil
}

func newRunner(scn *scenario.Scenario, cfg *config.Config, providers observability.Providers) (*scenario.Runner, error) {
	steps, err := observability.NewStepMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("step metrics: %w", err)
	}

	return scenario.NewRunner(scn,
		scenario.WithLogger(providers.Logger),
		scenario.WithTracer(providers.Tracer),
		scenario.WithStepMetrics(steps),
		scenario.WithEngineDefaults(cfg.Engine),
	), nil
}

func (sc *simulateCommand) writePlot(title string, frames []scenario.Frame, cfg *config.Config) error {
	theme := sc.theme
	if theme == "" {
		theme = cfg.Output.PlotTheme
	}

	f, err := os.Create(sc.plot)
	if err != nil {
		return fmt.Errorf("create plot: %w", err)
	}

	err = scenario.RenderChart(f, title, frames, scenario.Theme(theme))
	if err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

// seedCache restores measurements from --load-cache, then from the
// scenario's entry in --cache-dir when one exists.
func (sc *simulateCommand) seedCache(v *virtualizer.Virtualizer[uint64], scenarioPath string, logger *slog.Logger) error {
	if sc.loadCache != "" {
		snap, _, err := readSnapshot(sc.loadCache)
		if err != nil {
			return err
		}

		err = snap.Restore(v)
		if err != nil {
			return err
		}

		logger.Debug("measurement cache seeded", "path", sc.loadCache, "entries", len(snap.Entries))
	}

	if sc.cacheDir == "" {
		return nil
	}

	p := cachePersister(scenarioPath)

	snap, err := p.Load(sc.cacheDir)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Debug("no cached measurements yet", "path", p.Path(sc.cacheDir))

		return nil
	}

	if err != nil {
		return err
	}

	return snap.Restore(v)
}

// cachePersister names the cache entry after the scenario file.
func cachePersister(scenarioPath string) *persist.Persister[persist.CacheSnapshot[uint64]] {
	base := filepath.Base(scenarioPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	return persist.NewCachePersister[uint64](base, persist.NewLZ4Codec(persist.NewJSONCodec()))
}

func saveCache(path string, v *virtualizer.Virtualizer[uint64]) error {
	codec, err := persist.CodecForPath(path)
	if err != nil {
		return err
	}

	return persist.WriteFile(path, codec, persist.TakeSnapshot(v))
}

func writeFrames(w io.Writer, format, name string, frames []scenario.Frame, pal palette) error {
	switch format {
	case formatTable:
		return writeFrameTable(w, name, frames, pal)
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(frames)
	case formatYAML:
		return encodeYAML(w, frames)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func encodeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(v)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	return enc.Close()
}

func writeFrameTable(w io.Writer, name string, frames []scenario.Frame, pal palette) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Format.Footer = text.FormatDefault
	tbl.SetTitle(name)
	tbl.AppendHeader(table.Row{"#", "op", "at", "count", "offset", "delta", "visible", "virtual", "rendered", "total", "state"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 9, Align: text.AlignRight},
		{Number: 10, Align: text.AlignRight},
	})

	for _, f := range frames {
		tbl.AppendRow(table.Row{
			f.Step,
			pal.info.Sprint(string(f.Op)),
			f.AtMS,
			humanize.Comma(int64(f.Count)),
			humanize.Comma(safeconv.U64ToI64(f.Offset)),
			formatDelta(f.OffsetDelta, pal),
			formatRange(f.Visible),
			formatRange(f.Virtual),
			f.Rendered,
			humanize.Comma(safeconv.U64ToI64(f.TotalSize)),
			formatState(f, pal),
		})
	}

	if len(frames) > 0 {
		last := frames[len(frames)-1]
		tbl.AppendFooter(table.Row{
			"", fmt.Sprintf("%d steps", len(frames)), "", "", "", "", "", "", "",
			humanize.Comma(safeconv.U64ToI64(last.TotalSize)), "",
		})
	}

	tbl.Render()

	return nil
}

func formatDelta(d int64, pal palette) string {
	switch {
	case d > 0:
		return pal.ok.Sprint("+" + strconv.FormatInt(d, 10))
	case d < 0:
		return pal.bad.Sprint(strconv.FormatInt(d, 10))
	default:
		return pal.faint.Sprint("0")
	}
}

func formatRange(r virtualizer.Range) string {
	if r.Empty() {
		return "-"
	}

	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

func formatState(f scenario.Frame, pal palette) string {
	switch {
	case f.Animating:
		return pal.info.Sprint("animating")
	case f.Scrolling:
		return pal.warn.Sprint("scrolling")
	default:
		return pal.faint.Sprint("idle")
	}
}

// checkGolden compares frames with the YAML golden file at path, or rewrites
// it when update is set.
func checkGolden(w io.Writer, path string, frames []scenario.Frame, update bool, pal palette) error {
	var buf bytes.Buffer

	err := encodeYAML(&buf, frames)
	if err != nil {
		return err
	}

	if update {
		err = os.WriteFile(path, buf.Bytes(), goldenFileMode)
		if err != nil {
			return fmt.Errorf("write golden: %w", err)
		}

		pal.ok.Fprintf(w, "golden file updated: %s\n", path)

		return nil
	}

	want, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read golden: %w", err)
	}

	got := buf.String()
	if string(want) == got {
		pal.ok.Fprintf(w, "golden file matches: %s\n", path)

		return nil
	}

	writeDiff(w, string(want), got, pal)

	return fmt.Errorf("%w: %s", ErrGoldenMismatch, path)
}

// writeDiff prints a line diff from want to got.
func writeDiff(w io.Writer, want, got string, pal palette) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		for line := range strings.SplitSeq(strings.TrimSuffix(d.Text, "\n"), "\n") {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				pal.ok.Fprintf(w, "+ %s\n", line)
			case diffmatchpatch.DiffDelete:
				pal.bad.Fprintf(w, "- %s\n", line)
			case diffmatchpatch.DiffEqual:
			}
		}
	}
}
