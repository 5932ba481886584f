package fenwick

import "testing"

// Benchmark constants.
const (
	benchItems = 1_000_000
	benchSize  = 24
)

func benchSizes() []uint32 {
	sizes := make([]uint32, benchItems)
	for i := range sizes {
		sizes[i] = benchSize + uint32(i%7)
	}

	return sizes
}

func BenchmarkFromSizes(b *testing.B) {
	sizes := benchSizes()

	b.ResetTimer()

	for range b.N {
		FromSizes(sizes, 1)
	}
}

func BenchmarkAdd(b *testing.B) {
	tree := FromSizes(benchSizes(), 1)

	b.ResetTimer()

	i := 0
	for range b.N {
		tree.Add(i%benchItems, 1)
		i += 7919
	}
}

func BenchmarkLowerBound(b *testing.B) {
	tree := FromSizes(benchSizes(), 1)
	total := tree.Total()

	b.ResetTimer()

	var target uint64
	for range b.N {
		tree.LowerBound(target % total)
		target += 104729
	}
}
