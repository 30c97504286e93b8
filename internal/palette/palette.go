package palette

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Entry maps one rendered voxel color ("R,G,B") to a block identifier.
type Entry struct {
	Color string `json:"color"`
	Block string `json:"block"`
}

// Map is keyed by the canonical color string produced by vox.Scene.ColorKey.
type Map map[string]string

func (m Map) Lookup(color string) (string, bool) {
	b, ok := m[color]
	return b, ok
}

// ConfigurationError reports a palette source that is missing or malformed.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("palette: %v", e.Err)
	}
	return fmt.Sprintf("palette %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func Load(path string) (Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		var ce *ConfigurationError
		if errors.As(err, &ce) {
			ce.Path = path
			return nil, ce
		}
		return nil, &ConfigurationError{Path: path, Err: err}
	}
	return m, nil
}

// Decode reads a JSON array of entries. Duplicate colors keep the last block.
func Decode(r io.Reader) (Map, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	m := make(Map, len(entries))
	for i, e := range entries {
		color := strings.TrimSpace(e.Color)
		block := strings.TrimSpace(e.Block)
		if color == "" || block == "" {
			return nil, &ConfigurationError{Err: fmt.Errorf("entry %d: color and block must not be empty", i)}
		}
		m[color] = block
	}
	return m, nil
}
