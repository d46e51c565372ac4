package model

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SetCounts maps a bonus-set name to how many pieces of it a build carries.
// It has no fixed key set and is stored as JSON text next to the scalar
// columns.
type SetCounts map[string]int

// Encode serializes the map to its stored JSON form. A nil map encodes as {}.
func (s SetCounts) Encode() ([]byte, error) {
	if s == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(map[string]int(s))
	if err != nil {
		return nil, fmt.Errorf("encode sets: %w", err)
	}
	return b, nil
}

// Validate checks the invariants of an inbound tag map.
func (s SetCounts) Validate() error {
	for name, count := range s {
		if name == "" {
			return fmt.Errorf("sets: empty set name")
		}
		if count < 0 {
			return fmt.Errorf("sets: negative count %d for %q", count, name)
		}
	}
	return nil
}

// DecodeSetCounts parses the stored JSON form. JSON null and empty input decode
// to an empty map.
func DecodeSetCounts(raw []byte) (SetCounts, error) {
	if len(raw) == 0 {
		return SetCounts{}, nil
	}
	var m map[string]int
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode sets: %w", err)
	}
	if m == nil {
		return SetCounts{}, nil
	}
	return SetCounts(m), nil
}

// DecodeSetCountsLenient is DecodeSetCounts with the read-path policy applied:
// an undecodable blob yields an empty map together with the decode error, so
// callers can log it and carry on with the row.
func DecodeSetCountsLenient(raw []byte) (SetCounts, error) {
	sets, err := DecodeSetCounts(raw)
	if err != nil {
		return SetCounts{}, err
	}
	return sets, nil
}
