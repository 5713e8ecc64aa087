// Package dataset reads query lists and writes the aggregated artifacts the
// site consumes.
package dataset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
)

// ErrInputNotArray is returned when an input file is not a JSON array.
var ErrInputNotArray = errors.New("input is not a JSON array")

// LoadQueries reads a JSON array of queries. Unknown fields are ignored.
func LoadQueries[Q any](path string) ([]Q, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read input %s: %w", path, err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: %s", ErrInputNotArray, path)
	}

	var queries []Q
	if err := json.Unmarshal(trimmed, &queries); err != nil {
		return nil, fmt.Errorf("failed to parse input %s: %w", path, err)
	}

	if queries == nil {
		queries = []Q{}
	}

	return queries, nil
}

// ReadTree decodes an arbitrary JSON document into maps, slices and scalars.
func ReadTree(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return tree, nil
}

// WriteAggregate writes {collection: items} to path, replacing any previous
// file. A nil slice is written as [].
func WriteAggregate[N any](path, collection string, items []N, pretty bool) error {
	if items == nil {
		items = []N{}
	}

	return writeFile(path, map[string][]N{collection: items}, pretty)
}

// WriteJSON writes v as pretty printed JSON to path.
func WriteJSON(path string, v any) error {
	return writeFile(path, v, true)
}

func writeFile(path string, v any, pretty bool) error {
	var (
		data []byte
		err  error
	)

	if pretty {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()

		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
