package store

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
)

type presetDoc struct {
	Presets []PresetRecord `toml:"noise_presets"`
}

// ExportPresets writes presets as [[noise_presets]] tables, the same shape
// they have in the library file. Ids are left out.
func ExportPresets(w io.Writer, presets []PresetRecord) error {
	doc := presetDoc{Presets: make([]PresetRecord, len(presets))}
	for i, p := range presets {
		p.ID = 0
		doc.Presets[i] = p
	}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	return nil
}

// ImportPresets reads [[noise_presets]] tables written by ExportPresets or
// copied out of a library file.
func ImportPresets(r io.Reader) ([]PresetRecord, error) {
	var doc presetDoc
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}
	return doc.Presets, nil
}
