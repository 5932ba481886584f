package commands

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/virtualizer/pkg/config"
	"github.com/Sumatoshi-tech/virtualizer/pkg/measure"
	"github.com/Sumatoshi-tech/virtualizer/pkg/persist"
	"github.com/Sumatoshi-tech/virtualizer/pkg/scenario"
)

const (
	testScenario  = "testdata/scroll.yaml"
	testSteps     = 3
	testTotalSize = 1070
)

// writeTestConfig writes a config that disables color and quiets logging.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "vlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  color: false\nlogging:\n  level: error\n"), 0o600))

	return path
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := NewRootCommand()
	cmd.SetArgs(append([]string{"--config", writeTestConfig(t)}, args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	err := cmd.Execute()

	return out.String(), err
}

func TestSimulate_Table(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "simulate", testScenario)
	require.NoError(t, err)

	assert.Contains(t, out, "scroll and measure")
	assert.Contains(t, out, "measure_visible")
	assert.Contains(t, out, "[10,15)")
	assert.Contains(t, out, "1,070")
	assert.Contains(t, out, "3 steps")
	assert.Contains(t, out, "idle")
}

func TestSimulate_JSON(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "simulate", "--format", "json", testScenario)
	require.NoError(t, err)

	var frames []scenario.Frame

	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, testSteps)

	assert.Equal(t, uint64(100), frames[0].Offset)
	assert.True(t, frames[0].Scrolling)
	assert.Equal(t, uint64(testTotalSize), frames[2].TotalSize)
	assert.False(t, frames[2].Scrolling)
}

func TestSimulate_Errors(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "simulate", "--format", "xml", testScenario)
	require.ErrorIs(t, err, ErrUnknownFormat)

	_, err = execute(t, "simulate", "testdata/missing.yaml")
	require.Error(t, err)

	_, err = execute(t, "--log-level", "chatty", "simulate", testScenario)
	require.ErrorIs(t, err, config.ErrInvalidLogLevel)

	_, err = execute(t, "simulate")
	require.Error(t, err)
}

// TestSimulate_Golden verifies the update, match and mismatch paths.
func TestSimulate_Golden(t *testing.T) {
	t.Parallel()

	golden := filepath.Join(t.TempDir(), "scroll.golden.yaml")

	out, err := execute(t, "simulate", "--format", "yaml", "--golden", golden, "--update-golden", testScenario)
	require.NoError(t, err)
	assert.Contains(t, out, "golden file updated")

	out, err = execute(t, "simulate", "--golden", golden, testScenario)
	require.NoError(t, err)
	assert.Contains(t, out, "golden file matches")

	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "total_size: 1070")

	edited := strings.Replace(string(data), "total_size: 1070", "total_size: 999", 1)
	require.NoError(t, os.WriteFile(golden, []byte(edited), 0o600))

	out, err = execute(t, "simulate", "--golden", golden, testScenario)
	require.ErrorIs(t, err, ErrGoldenMismatch)
	assert.Contains(t, out, "- ")
	assert.Contains(t, out, "total_size: 999")
	assert.Contains(t, out, "+ ")
}

func TestSimulate_PlotAndCache(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	plot := filepath.Join(dir, "timeline.html")
	cache := filepath.Join(dir, "cache.json.lz4")

	_, err := execute(t, "simulate", "--plot", plot, "--theme", "light", "--save-cache", cache, testScenario)
	require.NoError(t, err)

	html, err := os.ReadFile(plot)
	require.NoError(t, err)
	assert.Contains(t, string(html), "echarts")

	codec, err := persist.CodecForPath(cache)
	require.NoError(t, err)

	var snap persist.CacheSnapshot[uint64]

	require.NoError(t, persist.ReadFile(cache, codec, &snap))
	assert.Equal(t, 100, snap.Count)
	assert.Len(t, snap.Entries, 7)

	out, err := execute(t, "cache", "inspect", cache)
	require.NoError(t, err)
	assert.Contains(t, out, ".json.lz4")
	assert.Contains(t, out, "20..20")
}

// TestSimulate_LoadCache verifies a snapshot seeds sizes before the first step.
func TestSimulate_LoadCache(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	snap := persist.CacheSnapshot[uint64]{
		Version: persist.SnapshotVersion,
		Count:   100,
		Entries: []measure.Entry[uint64]{{Key: 1, Size: 30}, {Key: 2, Size: 30}},
	}

	require.NoError(t, persist.WriteFile(path, persist.NewYAMLCodec(), &snap))

	out, err := execute(t, "simulate", "--format", "json", "--load-cache", path, testScenario)
	require.NoError(t, err)

	var frames []scenario.Frame

	require.NoError(t, json.Unmarshal([]byte(out), &frames))
	require.Len(t, frames, testSteps)
	assert.Equal(t, uint64(1040), frames[0].TotalSize)

	_, err = execute(t, "simulate", "--load-cache", filepath.Join(t.TempDir(), "missing.json"), testScenario)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

// TestSimulate_CacheDir verifies a second run starts from the first run's measurements.
func TestSimulate_CacheDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "cache")

	out, err := execute(t, "simulate", "--format", "json", "--cache-dir", dir, testScenario)
	require.NoError(t, err)

	var first []scenario.Frame

	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, uint64(1000), first[0].TotalSize)
	assert.FileExists(t, filepath.Join(dir, "scroll.json.lz4"))

	out, err = execute(t, "simulate", "--format", "json", "--cache-dir", dir, testScenario)
	require.NoError(t, err)

	var second []scenario.Frame

	require.NoError(t, json.Unmarshal([]byte(out), &second))
	assert.Equal(t, uint64(testTotalSize), second[0].TotalSize)
}

func TestSimulate_Metrics(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "simulate", "--format", "json", "--metrics", testScenario)
	require.NoError(t, err)

	assert.Regexp(t, `vlist[._]engine[._]items`, out)
	assert.Regexp(t, `vlist[._]scenario[._]steps`, out)
}

func TestCacheInspect(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.yaml")
	snap := persist.CacheSnapshot[uint64]{
		Version: persist.SnapshotVersion,
		Count:   50,
		Gap:     4,
		Entries: []measure.Entry[uint64]{{Key: 1, Size: 12}, {Key: 7, Size: 30}, {Key: 3, Size: 5}},
	}

	require.NoError(t, persist.WriteFile(path, persist.NewYAMLCodec(), &snap))

	out, err := execute(t, "cache", "inspect", "--entries", "1", path)
	require.NoError(t, err)

	assert.Contains(t, out, "5..30")
	assert.Contains(t, out, "47")
	assert.Contains(t, out, "2 more")
}

func TestCacheInspect_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := execute(t, "cache", "inspect", filepath.Join(dir, "cache.bin"))
	require.ErrorIs(t, err, persist.ErrUnknownCodec)

	path := filepath.Join(dir, "old.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 9, "entries": []}`), 0o600))

	_, err = execute(t, "cache", "inspect", path)
	require.ErrorIs(t, err, persist.ErrSnapshotVersion)
}

func TestBench(t *testing.T) {
	t.Parallel()

	results, err := runBench(benchParams{count: 200, queries: 20, estimate: 10, viewport: 50}, config.Default().Engine)
	require.NoError(t, err)
	require.Len(t, results, 8)

	for _, r := range results {
		assert.Positive(t, r.Ops, r.Name)
		assert.GreaterOrEqual(t, r.Elapsed, r.PerOp(), r.Name)
		assert.Equal(t, r.Ops, r.Latency.Count, r.Name)
		assert.LessOrEqual(t, r.Latency.P50, r.Latency.Max, r.Name)
	}

	_, err = runBench(benchParams{count: 0, queries: 1, estimate: 1}, config.EngineConfig{})
	require.ErrorIs(t, err, ErrInvalidBench)

	out, err := execute(t, "bench", "-n", "100", "-q", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "fenwick build")
	assert.Contains(t, out, "append item")
}

func TestBenchResult(t *testing.T) {
	t.Parallel()

	r := benchResult{Name: "x", Ops: 4, Elapsed: 2 * time.Second}

	assert.Equal(t, 500*time.Millisecond, r.PerOp())
	assert.Equal(t, int64(2), r.OpsPerSec())
	assert.Zero(t, benchResult{}.PerOp())
	assert.Zero(t, benchResult{}.OpsPerSec())
}

func TestXorshift_Deterministic(t *testing.T) {
	t.Parallel()

	a, b := xorshift(42), xorshift(42)

	for range 100 {
		assert.Equal(t, a.next(), b.next())
		assert.Less(t, a.index(10), 10)
		b.index(10)
	}
}

func TestVersionAndSchema(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "vlist "))

	out, err = execute(t, "version", "--json")
	require.NoError(t, err)

	var info map[string]string

	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.NotEmpty(t, info["version"])

	out, err = execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"$schema"`)
}
