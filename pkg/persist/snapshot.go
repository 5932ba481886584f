package persist

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/virtualizer/pkg/measure"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// SnapshotVersion is the current cache snapshot format version.
const SnapshotVersion = 1

// ErrSnapshotVersion is returned when a snapshot has an unsupported version.
var ErrSnapshotVersion = errors.New("unsupported snapshot version")

// CacheSnapshot is the persisted form of an engine's measurement cache.
type CacheSnapshot[K comparable] struct {
	Version int                `json:"version" yaml:"version"`
	Count   int                `json:"count"   yaml:"count"`
	Gap     uint32             `json:"gap"     yaml:"gap"`
	Entries []measure.Entry[K] `json:"entries" yaml:"entries"`
}

// TakeSnapshot captures v's measurement cache together with the list shape
// it was measured against.
func TakeSnapshot[K comparable](v *virtualizer.Virtualizer[K]) *CacheSnapshot[K] {
	cfg := v.Config()

	return &CacheSnapshot[K]{
		Version: SnapshotVersion,
		Count:   cfg.Count,
		Gap:     cfg.Gap,
		Entries: v.ExportMeasurementCache(),
	}
}

// Validate checks the snapshot version.
func (s *CacheSnapshot[K]) Validate() error {
	if s.Version != SnapshotVersion {
		return fmt.Errorf("%w: %d", ErrSnapshotVersion, s.Version)
	}

	return nil
}

// TotalMeasured sums the sizes of all cached entries.
func (s *CacheSnapshot[K]) TotalMeasured() uint64 {
	var total uint64
	for _, e := range s.Entries {
		total += uint64(e.Size)
	}

	return total
}

// Restore imports the snapshot entries into v. Count and gap are left to the
// caller since the dataset may have changed since the snapshot was taken.
func (s *CacheSnapshot[K]) Restore(v *virtualizer.Virtualizer[K]) error {
	err := s.Validate()
	if err != nil {
		return err
	}

	v.ImportMeasurementCache(s.Entries)

	return nil
}

// NewCachePersister returns a persister for cache snapshots keyed by K.
func NewCachePersister[K comparable](basename string, codec Codec) *Persister[CacheSnapshot[K]] {
	return NewPersister[CacheSnapshot[K]](basename, codec)
}
