package state

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"strconv"
	"strings"
)

// Vars maps variable names to numbers. Documents written by older tools
// sometimes store numbers as strings, so decoding accepts numeric strings
// and treats null as 0.
type Vars map[string]float64

// UnmarshalJSON decodes a JSON object of numbers or numeric strings.
func (v *Vars) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("variables: %w", err)
	}
	if raw == nil {
		*v = nil
		return nil
	}

	out := make(Vars, len(raw))
	for name, msg := range raw {
		n, err := decodeNumber(msg)
		if err != nil {
			return fmt.Errorf("variable %q: %w", name, err)
		}
		out[name] = n
	}
	*v = out
	return nil
}

// MarshalJSON encodes the variables. Effects never store NaN or ±Inf;
// should one be set directly it is written as null.
func (v Vars) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	out := make(map[string]any, len(v))
	for name, n := range v {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			out[name] = nil
			continue
		}
		out[name] = n
	}
	return json.Marshal(out)
}

// Clone returns a copy that shares nothing with v.
func (v Vars) Clone() Vars {
	if v == nil {
		return Vars{}
	}
	return maps.Clone(v)
}

func decodeNumber(msg json.RawMessage) (float64, error) {
	var n *float64
	if err := json.Unmarshal(msg, &n); err == nil {
		if n == nil {
			return 0, nil
		}
		return *n, nil
	}

	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return 0, fmt.Errorf("must be a number, got %s", string(msg))
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("must be a finite number, got %q", s)
	}
	return f, nil
}
