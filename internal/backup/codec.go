package backup

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/halvard/skald/internal/apperr"
)

// Encode serializes the bundle as indented JSON.
func (b *Bundle) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("backup: encode bundle: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteFile writes the encoded bundle to path.
func (b *Bundle) WriteFile(path string) error {
	data, err := b.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("backup: write export file: %w", err)
	}
	return nil
}

// Decode parses a bundle from an in-memory blob, e.g. a clipboard payload.
// JSON is tried first, then YAML. A blob that parses as neither fails with
// ErrMalformed before any data reaches the store.
func Decode(data []byte) (*Bundle, error) {
	var b Bundle
	if err := json.Unmarshal(data, &b); err == nil {
		return &b, nil
	}
	// YAML fallback goes through an any-typed document and a JSON
	// round-trip because yaml.v3 does not honor TextUnmarshaler for the
	// uuid-keyed maps.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("backup: %w: not valid JSON or YAML", apperr.ErrMalformed)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("backup: %w: %v", apperr.ErrMalformed, err)
	}
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("backup: %w: %v", apperr.ErrMalformed, err)
	}
	return &b, nil
}

// ReadFile loads and decodes a bundle from a file path.
func ReadFile(path string) (*Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("backup: read import file: %w", err)
	}
	return Decode(data)
}
