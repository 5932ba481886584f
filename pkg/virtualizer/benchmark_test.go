package virtualizer

import "testing"

// Benchmark constants.
const (
	benchCount    = 1_000_000
	benchSize     = 24
	benchViewport = 800
)

func benchEngine() *Virtualizer[ItemKey] {
	v := New(NewIndexConfig(benchCount, FixedSize(benchSize)).WithOverscan(4).WithGap(1))
	v.SetViewportSize(benchViewport)

	return v
}

func BenchmarkNew(b *testing.B) {
	cfg := NewIndexConfig(benchCount, FixedSize(benchSize))

	b.ResetTimer()

	for range b.N {
		New(cfg)
	}
}

func BenchmarkVirtualItems(b *testing.B) {
	v := benchEngine()
	maxOffset := v.MaxScrollOffset()
	buf := make([]VirtualItem, 0, 64)

	b.ResetTimer()

	var offset uint64
	for range b.N {
		v.SetScrollOffset(offset % maxOffset)
		buf = v.AppendVirtualItems(buf[:0])
		offset += 7919
	}
}

func BenchmarkResizeItem(b *testing.B) {
	v := benchEngine()
	v.SetScrollOffset(v.MaxScrollOffset() / 2)

	b.ResetTimer()

	i := 0
	for range b.N {
		v.ResizeItem(i%benchCount, benchSize+uint32(i%5))
		i += 104729
	}
}

func BenchmarkIndexAtOffset(b *testing.B) {
	v := benchEngine()
	total := v.TotalSize()

	b.ResetTimer()

	var offset uint64
	for range b.N {
		v.IndexAtOffset(offset % total)
		offset += 15485863
	}
}
