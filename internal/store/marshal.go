package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/ormminus/internal/model"
)

// marshalNames converts a string list to canonical JSON TEXT for storage.
func marshalNames(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := model.MarshalCanonical(names)
	if err != nil {
		return "", fmt.Errorf("marshal names: %w", err)
	}
	return string(data), nil
}

// unmarshalNames parses a JSON TEXT list. Empty input yields an empty list.
func unmarshalNames(data string) ([]string, error) {
	out := []string{}
	if data == "" || data == "[]" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal names: %w", err)
	}
	return out, nil
}
