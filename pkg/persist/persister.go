package persist

import "path/filepath"

// Persister keeps one state value per directory under a fixed basename, so
// callers only deal in directories.
type Persister[T any] struct {
	basename string
	codec    Codec
}

// NewPersister creates a persister with the given basename and codec.
func NewPersister[T any](basename string, codec Codec) *Persister[T] {
	return &Persister[T]{
		basename: basename,
		codec:    codec,
	}
}

// Path returns the file the persister uses inside dir.
func (p *Persister[T]) Path(dir string) string {
	return filepath.Join(dir, p.basename+p.codec.Extension())
}

// Save writes state into dir. dir must exist.
func (p *Persister[T]) Save(dir string, state *T) error {
	return WriteFile(p.Path(dir), p.codec, state)
}

// Load reads state from dir. A missing file yields an error matching
// fs.ErrNotExist.
func (p *Persister[T]) Load(dir string) (*T, error) {
	var state T

	err := ReadFile(p.Path(dir), p.codec, &state)
	if err != nil {
		return nil, err
	}

	return &state, nil
}
