package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/virtualizer/pkg/alg/fenwick"
	"github.com/Sumatoshi-tech/virtualizer/pkg/alg/stats"
	"github.com/Sumatoshi-tech/virtualizer/pkg/config"
	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// Bench defaults.
const (
	defaultBenchCount    = 100_000
	defaultBenchQueries  = 10_000
	defaultBenchEstimate = 40
	defaultBenchViewport = 800

	// benchSizeSpread is the range of synthetic measured sizes above the estimate.
	benchSizeSpread = 64
)

// ErrInvalidBench indicates non-positive bench parameters.
var ErrInvalidBench = errors.New("count, queries and estimate must be positive")

// benchResult is the timing of one benchmarked operation.
type benchResult struct {
	Name    string
	Ops     int
	Elapsed time.Duration
	Latency stats.Summary
}

// PerOp returns the mean time per operation.
func (r benchResult) PerOp() time.Duration {
	if r.Ops == 0 {
		return 0
	}

	return r.Elapsed / time.Duration(r.Ops)
}

// OpsPerSec returns the throughput, or 0 when nothing was timed.
func (r benchResult) OpsPerSec() int64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return int64(float64(r.Ops) / r.Elapsed.Seconds())
}

type benchParams struct {
	count    int
	queries  int
	estimate uint32
	viewport uint32
}

func newBenchCommand(global *globalOptions) *cobra.Command {
	params := benchParams{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time the engine's hot paths on a synthetic list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := global.load()
			if err != nil {
				return err
			}

			results, err := runBench(params, cfg.Engine)
			if err != nil {
				return err
			}

			writeBenchTable(cmd.OutOrStdout(), params, results)

			return nil
		},
	}

	cmd.Flags().IntVarP(&params.count, "count", "n", defaultBenchCount, "Number of items in the synthetic list")
	cmd.Flags().IntVarP(&params.queries, "queries", "q", defaultBenchQueries, "Operations per benchmark")
	cmd.Flags().Uint32Var(&params.estimate, "estimate", defaultBenchEstimate, "Estimated item size")
	cmd.Flags().Uint32Var(&params.viewport, "viewport", defaultBenchViewport, "Viewport size")

	return cmd
}

// runBench times index construction, measurement, range queries and tail
// growth. Offsets and sizes come from a fixed xorshift sequence so runs are
// comparable.
func runBench(p benchParams, engine config.EngineConfig) ([]benchResult, error) {
	if p.count <= 0 || p.queries <= 0 || p.estimate == 0 {
		return nil, ErrInvalidBench
	}

	sizes := make([]uint32, p.count)
	for i := range sizes {
		sizes[i] = p.estimate
	}

	results := make([]benchResult, 0, 8)
	rng := xorshift(0x9e3779b97f4a7c15)

	results = append(results, timeOp("fenwick build", 1, func(int) {
		fenwick.FromSizes(sizes, engine.Gap)
	}))

	tree := fenwick.FromSizes(sizes, engine.Gap)
	total := tree.Total()

	results = append(results, timeOp("fenwick lower bound", p.queries, func(int) {
		tree.LowerBound(rng.next() % max(total, 1))
	}))

	var v *virtualizer.Virtualizer[virtualizer.ItemKey]

	results = append(results, timeOp("engine build", 1, func(int) {
		cfg := config.ApplyEngine(engine, virtualizer.NewIndexConfig(p.count, virtualizer.FixedSize(p.estimate)))
		v = virtualizer.New(cfg)
	}))

	v.SetViewportSize(p.viewport)

	results = append(results, timeOp("measure", p.queries, func(int) {
		v.Measure(rng.index(p.count), p.estimate+safeconv.U64ToU32(rng.next()%benchSizeSpread))
	}))

	results = append(results, timeOp("resize above viewport", p.queries, func(i int) {
		v.SetScrollOffset(v.MaxScrollOffset() / 2)
		v.ResizeItem(i%p.count, p.estimate+safeconv.U64ToU32(rng.next()%benchSizeSpread))
	}))

	limit := max(v.MaxScrollOffset(), 1)
	rendered := make([]int, 0, 64)

	results = append(results, timeOp("scroll + virtual indexes", p.queries, func(int) {
		v.SetScrollOffset(rng.next() % limit)
		rendered = v.AppendVirtualIndexes(rendered[:0])
	}))

	results = append(results, timeOp("scroll to index", p.queries, func(int) {
		v.ScrollToIndex(rng.index(p.count), virtualizer.AlignCenter)
	}))

	results = append(results, timeOp("append item", p.queries, func(int) {
		v.AppendItems(1)
	}))

	return results, nil
}

// timeOp runs fn ops times, timing the whole loop and every call.
func timeOp(name string, ops int, fn func(i int)) benchResult {
	samples := make([]time.Duration, ops)
	start := time.Now()

	for i := range ops {
		opStart := time.Now()
		fn(i)
		samples[i] = time.Since(opStart)
	}

	return benchResult{Name: name, Ops: ops, Elapsed: time.Since(start), Latency: stats.Summarize(samples)}
}

// xorshift is a deterministic xorshift64 generator.
type xorshift uint64

func (x *xorshift) next() uint64 {
	s := uint64(*x)
	s ^= s << 13
	s ^= s >> 7
	s ^= s << 17
	*x = xorshift(s)

	return s
}

// index returns a pseudo-random index in [0, n).
func (x *xorshift) index(n int) int {
	return safeconv.U64ToInt(x.next() % safeconv.IntToU64(n))
}

func writeBenchTable(w io.Writer, p benchParams, results []benchResult) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(fmt.Sprintf("%s items, estimate %d, viewport %d",
		humanize.Comma(int64(p.count)), p.estimate, p.viewport))
	tbl.AppendHeader(table.Row{"operation", "ops", "total", "per op", "p50", "p99", "max", "ops/sec"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
		{Number: 8, Align: text.AlignRight},
	})

	for _, r := range results {
		tbl.AppendRow(table.Row{
			r.Name,
			humanize.Comma(int64(r.Ops)),
			r.Elapsed.Round(time.Microsecond),
			r.PerOp(),
			r.Latency.P50,
			r.Latency.P99,
			r.Latency.Max,
			humanize.Comma(r.OpsPerSec()),
		})
	}

	tbl.Render()
}
