package virtualizer

import (
	"iter"

	"github.com/Sumatoshi-tech/virtualizer/pkg/measure"
	"github.com/Sumatoshi-tech/virtualizer/pkg/safeconv"
)

// Measurement is a reported item size.
type Measurement struct {
	Index int    `json:"index" yaml:"index"`
	Size  uint32 `json:"size"  yaml:"size"`
}

// Measure records the real size of the item at index and caches it under
// the item's key. Out-of-range indices are ignored.
func (v *Virtualizer[K]) Measure(index int, size uint32) {
	if index < 0 || index >= v.cfg.Count {
		return
	}

	v.MeasureKeyed(index, v.cfg.key(index), size)
}

// MeasureKeyed is Measure with a caller-supplied key, for adapters that
// already hold the item identity. Without a key function the key is ignored.
func (v *Virtualizer[K]) MeasureKeyed(index int, key K, size uint32) {
	if index < 0 || index >= v.cfg.Count {
		return
	}

	if _, changed := v.setItemSize(index, key, size); changed {
		v.notify()
	}
}

// ResizeItem is Measure plus scroll-jump compensation. When the size
// changes and the compensation rule agrees, the scroll offset moves by the
// same delta. It returns the applied adjustment, or 0.
func (v *Virtualizer[K]) ResizeItem(index int, size uint32) int64 {
	if index < 0 || index >= v.cfg.Count {
		return 0
	}

	return v.ResizeItemKeyed(index, v.cfg.key(index), size)
}

// ResizeItemKeyed is ResizeItem with a caller-supplied key.
func (v *Virtualizer[K]) ResizeItemKeyed(index int, key K, size uint32) int64 {
	if index < 0 || index >= v.cfg.Count {
		return 0
	}

	before := v.item(index)

	delta, changed := v.setItemSize(index, key, size)
	if delta == 0 {
		if changed {
			v.notify()
		}

		return 0
	}

	if !v.shouldAdjust(before, delta) {
		v.notify()

		return 0
	}

	prev := v.scrollOffset
	v.scrollOffset = safeconv.AddSigned(prev, delta)

	applied := safeconv.Delta(prev, v.scrollOffset)
	if applied != 0 {
		v.stats.adjustments.Add(1)
	}

	v.notify()

	return applied
}

func (v *Virtualizer[K]) shouldAdjust(before VirtualItem, delta int64) bool {
	if fn := v.cfg.callbacks().adjust; fn != nil {
		return fn(v, before, delta)
	}

	return before.Start < v.scrollOffset
}

// setItemSize stores size for index and key. It returns the signed size
// delta and whether any observable state changed.
func (v *Virtualizer[K]) setItemSize(index int, key K, size uint32) (int64, bool) {
	v.stats.measurements.Add(1)

	changed := !v.measured[index] || v.sizes[index] != size

	if v.cfg.keyed() {
		cached, ok := v.cache.Get(key)
		changed = changed || !ok || cached != size

		v.cache.Set(key, size)
	}

	v.measured[index] = true

	cur := v.sizes[index]
	if cur == size {
		return 0, changed
	}

	v.sizes[index] = size
	delta := int64(size) - int64(cur)
	v.sums.Add(index, delta)

	return delta, true
}

// MeasureMany records several measurements with one notification.
func (v *Virtualizer[K]) MeasureMany(ms []Measurement) {
	changed := false

	for _, m := range ms {
		if m.Index < 0 || m.Index >= v.cfg.Count {
			continue
		}

		if _, c := v.setItemSize(m.Index, v.cfg.key(m.Index), m.Size); c {
			changed = true
		}
	}

	if changed {
		v.notify()
	}
}

// ResizeItemMany resizes several items in one batch and returns the sum of
// the applied scroll adjustments.
func (v *Virtualizer[K]) ResizeItemMany(ms []Measurement) int64 {
	var applied int64

	v.BatchUpdate(func(v *Virtualizer[K]) {
		for _, m := range ms {
			applied = safeconv.AddInt64(applied, v.ResizeItem(m.Index, m.Size))
		}
	})

	return applied
}

// IsMeasured reports whether index holds a real measurement rather than an estimate.
func (v *Virtualizer[K]) IsMeasured(index int) bool {
	return index >= 0 && index < len(v.measured) && v.measured[index]
}

// SyncItemKeys re-derives every size from the current key function and the
// measurement cache without changing the count. Call it after reordering
// the underlying data in place.
func (v *Virtualizer[K]) SyncItemKeys() {
	v.rebuildEstimates()
	v.notify()
}

// ResetMeasurements clears the measurement cache and falls back to estimates.
func (v *Virtualizer[K]) ResetMeasurements() {
	v.cache.Clear()
	clear(v.measured)
	v.rebuildEstimates()
	v.notify()
}

// MeasurementCacheLen returns the number of cached measurements.
func (v *Virtualizer[K]) MeasurementCacheLen() int {
	return v.cache.Len()
}

// CachedSizes iterates over cached key to size pairs.
func (v *Virtualizer[K]) CachedSizes() iter.Seq2[K, uint32] {
	return v.cache.All()
}

// ExportMeasurementCache returns a copy of the measurement cache for persistence.
func (v *Virtualizer[K]) ExportMeasurementCache() []measure.Entry[K] {
	return v.cache.Export()
}

// ImportMeasurementCache replaces the measurement cache and re-derives sizes.
func (v *Virtualizer[K]) ImportMeasurementCache(entries []measure.Entry[K]) {
	n := v.cache.Import(entries)
	v.cfg.log().Debug("measurement cache imported", "entries", n)
	v.rebuildEstimates()
	v.notify()
}
