package ann

import (
	"encoding/json"
	"fmt"
	"os"
)

// IDMapping translates index ordinals to record ids. Position i holds
// the id of the vector with ordinal i, so the mapping must be exactly
// as long as the index it was built with.
//
// The artifact is a bare JSON array of ids, shared with the ingestion
// pipeline that emits it.
type IDMapping []int64

// LoadMapping reads an id-mapping artifact from path.
func LoadMapping(path string) (IDMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading id mapping file: %w", err)
	}

	var ids IDMapping
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadMappingFile, err)
	}
	return ids, nil
}

// Save writes the mapping to path as a JSON array.
func (m IDMapping) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding id mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing id mapping file: %w", err)
	}
	return nil
}

// ID returns the record id for an ordinal. Ordinals outside the mapping
// indicate a corrupt or mismatched artifact pair.
func (m IDMapping) ID(ordinal int) (int64, error) {
	if ordinal < 0 || ordinal >= len(m) {
		return 0, fmt.Errorf("%w: ordinal %d, mapping length %d", ErrOrdinalRange, ordinal, len(m))
	}
	return m[ordinal], nil
}
