package virtualizer

import (
	"log/slog"
	"slices"
)

// Contract violation messages.
const (
	msgOutOfBounds = "out-of-bounds index"
	msgUnsorted    = "indexes must be emitted in ascending order"
)

// IndexEmitter helps a RangeExtractor honor its contract: out-of-bounds and
// out-of-order indices are dropped with a warning, duplicates are ignored.
type IndexEmitter struct {
	r    ExtractorRange
	last int
	emit func(int)
}

// NewIndexEmitter wraps the emit function handed to a RangeExtractor.
func NewIndexEmitter(r ExtractorRange, emit func(int)) IndexEmitter {
	return IndexEmitter{r: r, last: -1, emit: emit}
}

// Range returns the extractor input.
func (e *IndexEmitter) Range() ExtractorRange {
	return e.r
}

// Emit forwards index if it keeps the output ascending and in bounds.
func (e *IndexEmitter) Emit(index int) {
	if index < 0 || index >= e.r.Count {
		e.violation(msgOutOfBounds, index)

		return
	}

	if index == e.last {
		return
	}

	if index < e.last {
		e.violation(msgUnsorted, index)

		return
	}

	e.last = index
	e.emit(index)
}

func (e *IndexEmitter) violation(msg string, index int) {
	if e.r.report != nil {
		e.r.report(msg, index, e.last, e.r.Count)

		return
	}

	slog.Warn("index emitter: "+msg, "index", index, "prev", e.last, "count", e.r.Count)
	contractViolation(msg, index, e.last, e.r.Count)
}

// EmitPinned emits an index that must always be rendered, such as a sticky header.
func (e *IndexEmitter) EmitPinned(index int) {
	e.Emit(index)
}

// EmitRange emits [start, end) clamped to the item count.
func (e *IndexEmitter) EmitRange(start, end int) {
	end = min(end, e.r.Count)

	for i := max(start, 0); i < end; i++ {
		e.Emit(i)
	}
}

// EmitVisible emits the strictly visible range.
func (e *IndexEmitter) EmitVisible() {
	e.EmitRange(e.r.VisibleStart, e.r.VisibleEnd)
}

// EmitOverscanned emits the visible range grown by overscan.
func (e *IndexEmitter) EmitOverscanned() {
	r := e.r.Overscanned()
	e.EmitRange(r.Start, r.End)
}

// PinnedExtractor returns a RangeExtractor that always includes the given
// indices alongside the overscanned window, merged in ascending order.
func PinnedExtractor(pinned ...int) RangeExtractor {
	sorted := slices.Clone(pinned)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	return func(r ExtractorRange, emit func(int)) {
		e := NewIndexEmitter(r, emit)
		window := r.Overscanned()

		p := 0
		for ; p < len(sorted) && sorted[p] < window.Start; p++ {
			e.EmitPinned(sorted[p])
		}

		e.EmitRange(window.Start, window.End)

		for ; p < len(sorted) && sorted[p] < r.Count; p++ {
			if sorted[p] >= window.End {
				e.EmitPinned(sorted[p])
			}
		}
	}
}

// extract runs the configured extractor, enforcing its contract before
// forwarding indices to yield.
func (v *Virtualizer[K]) extract(visible Range, yield func(int) bool) {
	count := v.cfg.Count
	r := ExtractorRange{
		VisibleStart: visible.Start,
		VisibleEnd:   visible.End,
		Overscan:     v.cfg.Overscan,
		Count:        count,
		report:       v.dropIndex,
	}

	prev := -1
	stopped := false

	v.cfg.callbacks().extractor(r, func(i int) {
		switch {
		case stopped, i == prev && i >= 0:
			return
		case i < 0 || i >= count:
			v.dropIndex(msgOutOfBounds, i, prev, count)

			return
		case i < prev:
			v.dropIndex(msgUnsorted, i, prev, count)

			return
		}

		prev = i

		if !yield(i) {
			stopped = true
		}
	})
}

func (v *Virtualizer[K]) dropIndex(msg string, index, prev, count int) {
	v.stats.dropped.Add(1)
	v.cfg.log().Warn("range extractor: "+msg, "index", index, "prev", prev, "count", count)
	contractViolation(msg, index, prev, count)
}
