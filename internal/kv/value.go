package kv

import (
	"encoding/json"
	"fmt"
)

// Marshal encodes a value for storage.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return b, nil
}

// Unmarshal decodes the value of an existing entry. ok is false when the
// entry does not exist.
func Unmarshal[T any](e Entry) (v T, ok bool, err error) {
	if !e.Exists() {
		return v, false, nil
	}
	if err := json.Unmarshal(e.Value, &v); err != nil {
		return v, false, fmt.Errorf("unmarshal %s: %w", e.Key, err)
	}
	return v, true, nil
}
