package commands

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/virtualizer/pkg/measure"
	"github.com/Sumatoshi-tech/virtualizer/pkg/persist"
	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
)

const defaultInspectEntries = 10

func newCacheCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Work with persisted measurement cache snapshots",
	}

	cmd.AddCommand(newCacheInspectCommand(global))

	return cmd
}

func newCacheInspectCommand(global *globalOptions) *cobra.Command {
	var entries int

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Summarize a cache snapshot written by simulate --save-cache",
		Long: `Summarize a measurement cache snapshot.

The codec is chosen by extension: .json, .yaml or .yml, each optionally followed by .lz4.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}

			return inspectCache(cmd.OutOrStdout(), args[0], entries, newPalette(cfg.Output.Color))
		},
	}

	cmd.Flags().IntVarP(&entries, "entries", "e", defaultInspectEntries, "Number of entries to list (0 = none, -1 = all)")

	return cmd
}

// readSnapshot decodes and validates the cache snapshot at path.
func readSnapshot(path string) (*persist.CacheSnapshot[uint64], persist.Codec, error) {
	codec, err := persist.CodecForPath(path)
	if err != nil {
		return nil, nil, err
	}

	var snap persist.CacheSnapshot[uint64]

	err = persist.ReadFile(path, codec, &snap)
	if err != nil {
		return nil, nil, err
	}

	err = snap.Validate()
	if err != nil {
		return nil, nil, err
	}

	return &snap, codec, nil
}

func inspectCache(w io.Writer, path string, limit int, pal palette) error {
	snap, codec, err := readSnapshot(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat cache: %w", err)
	}

	summary := table.NewWriter()
	summary.SetOutputMirror(w)
	summary.SetStyle(table.StyleLight)
	summary.SetTitle(path)
	summary.AppendRows([]table.Row{
		{"codec", codec.Extension()},
		{"file size", humanize.Bytes(uint64(max(info.Size(), 0)))},
		{"version", snap.Version},
		{"list count", humanize.Comma(int64(snap.Count))},
		{"gap", snap.Gap},
		{"entries", humanize.Comma(int64(len(snap.Entries)))},
		{"measured total", humanize.Comma(safeconv.U64ToI64(snap.TotalMeasured()))},
	})

	if len(snap.Entries) > 0 {
		lo, hi := sizeBounds(snap.Entries)
		summary.AppendRow(table.Row{"size range", fmt.Sprintf("%d..%d", lo, hi)})
	}

	summary.Render()

	if limit < 0 || limit > len(snap.Entries) {
		limit = len(snap.Entries)
	}

	if limit == 0 {
		return nil
	}

	list := table.NewWriter()
	list.SetOutputMirror(w)
	list.SetStyle(table.StyleLight)
	list.Style().Format.Footer = text.FormatDefault
	list.AppendHeader(table.Row{"key", "size"})

	for _, e := range snap.Entries[:limit] {
		list.AppendRow(table.Row{e.Key, e.Size})
	}

	if rest := len(snap.Entries) - limit; rest > 0 {
		list.AppendFooter(table.Row{pal.faint.Sprintf("%d more", rest), ""})
	}

	list.Render()

	return nil
}

func sizeBounds(entries []measure.Entry[uint64]) (lo, hi uint32) {
	bySize := func(a, b measure.Entry[uint64]) int {
		return cmp.Compare(a.Size, b.Size)
	}

	return slices.MinFunc(entries, bySize).Size, slices.MaxFunc(entries, bySize).Size
}
