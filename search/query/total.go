package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParseTotal reads a hit count reported either as a bare number or as an
// object with a value field. A missing total reads as zero.
func ParseTotal(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return parseNumber(n)
	}

	var obj struct {
		Value json.Number `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return 0, fmt.Errorf("unrecognised total %s: %w", raw, err)
	}
	if obj.Value == "" {
		return 0, nil
	}
	return parseNumber(obj.Value)
}

func parseNumber(n json.Number) (int64, error) {
	if v, err := n.Int64(); err == nil {
		return v, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, fmt.Errorf("invalid total %q: %w", n, err)
	}
	return int64(f), nil
}
