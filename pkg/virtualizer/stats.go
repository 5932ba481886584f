package virtualizer

import "sync/atomic"

// Stats is a snapshot of engine activity counters.
type Stats struct {
	// Rebuilds counts full size-array rebuilds.
	Rebuilds uint64
	// IndexRebuilds counts prefix index rebuilds, including those done by a full rebuild.
	IndexRebuilds uint64
	// Notifications counts change notifications emitted, with or without a callback.
	Notifications uint64
	// Measurements counts accepted measure and resize calls.
	Measurements uint64
	// ScrollAdjustments counts resizes that shifted the scroll offset.
	ScrollAdjustments uint64
	// DroppedIndexes counts indices a range extractor emitted out of contract.
	DroppedIndexes uint64
}

// counters are atomic so metric exporters may read them from another goroutine.
type counters struct {
	rebuilds      atomic.Uint64
	indexRebuilds atomic.Uint64
	notifications atomic.Uint64
	measurements  atomic.Uint64
	adjustments   atomic.Uint64
	dropped       atomic.Uint64
}

// Stats returns the current activity counters. It is safe to call
// concurrently with engine use.
func (v *Virtualizer[K]) Stats() Stats {
	return Stats{
		Rebuilds:          v.stats.rebuilds.Load(),
		IndexRebuilds:     v.stats.indexRebuilds.Load(),
		Notifications:     v.stats.notifications.Load(),
		Measurements:      v.stats.measurements.Load(),
		ScrollAdjustments: v.stats.adjustments.Load(),
		DroppedIndexes:    v.stats.dropped.Load(),
	}
}
