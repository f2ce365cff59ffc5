package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/swapcheck/internal/ir"
)

// canonicalizer is implemented by every ir type the store persists.
type canonicalizer interface {
	Canonical() map[string]any
}

// marshalCanonical converts v to canonical JSON TEXT for storage.
func marshalCanonical(what string, v canonicalizer) (string, error) {
	data, err := ir.MarshalCanonical(v.Canonical())
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", what, err)
	}
	return string(data), nil
}

// unmarshalJSON parses canonical JSON TEXT into out. Canonical keys equal
// the ir JSON tags and enums decode from their names.
func unmarshalJSON(what, data string, out any) error {
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}

func unmarshalResult(data string) (ir.CompatibilityResult, error) {
	result := ir.NewResult()
	if err := unmarshalJSON("result", data, &result); err != nil {
		return ir.CompatibilityResult{}, err
	}
	return result, nil
}
