package persist

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// SaveState writes state to path on fs, creating parent directories.
func SaveState(fs afero.Fs, path string, codec Codec, state any) error {
	dir := filepath.Dir(path)

	err := fs.MkdirAll(dir, dirPerm)
	if err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create state file: %w", err)
	}
	defer file.Close()

	err = codec.Encode(file, state)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	return nil
}

// LoadState reads state from path on fs. The state parameter must be a
// pointer to the target value.
func LoadState(fs afero.Fs, path string, codec Codec, state any) error {
	file, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("open state file: %w", err)
	}
	defer file.Close()

	err = codec.Decode(file, state)
	if err != nil {
		return fmt.Errorf("decode state: %w", err)
	}

	return nil
}

const dirPerm = 0o755

// Persister handles I/O for a specific state type using a Codec.
type Persister[T any] struct {
	fs    afero.Fs
	codec Codec
}

// NewPersister creates a persister writing through fs with codec.
func NewPersister[T any](fs afero.Fs, codec Codec) *Persister[T] {
	return &Persister[T]{fs: fs, codec: codec}
}

// Save writes state to path.
func (p *Persister[T]) Save(path string, state *T) error {
	return SaveState(p.fs, path, p.codec, state)
}

// Load reads a state from path.
func (p *Persister[T]) Load(path string) (*T, error) {
	var state T

	err := LoadState(p.fs, path, p.codec, &state)
	if err != nil {
		return nil, err
	}

	return &state, nil
}
