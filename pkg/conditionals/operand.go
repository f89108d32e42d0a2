package conditionals

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Operand is the "val" field of a condition or effect. Authoring tools
// write it either as a JSON number or as a string, so it keeps the raw
// text and remembers which form it arrived in.
type Operand struct {
	raw    string
	number bool
}

// String returns an operand holding s as text.
func String(s string) Operand {
	return Operand{raw: s}
}

// Number returns an operand holding f as a JSON number.
func Number(f float64) Operand {
	return Operand{raw: strconv.FormatFloat(f, 'f', -1, 64), number: true}
}

// String returns the raw text of the operand.
func (o Operand) String() string {
	return o.raw
}

// IsNumber reports whether the operand was written as a JSON number.
func (o Operand) IsNumber() bool {
	return o.number
}

// Float parses the operand the way the story runtime always has: leading
// whitespace is skipped and the longest numeric prefix wins, so "5 gold"
// is 5. It returns NaN when no number can be read.
func (o Operand) Float() float64 {
	return ParseFloat(o.raw)
}

// Valid reports whether Float yields a number rather than NaN.
func (o Operand) Valid() bool {
	return !math.IsNaN(o.Float())
}

// UnmarshalJSON accepts a string, a number, a boolean or null.
func (o *Operand) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*o = Operand{}
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*o = Operand{raw: s}
		return nil
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*o = Operand{raw: string(data)}
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("val must be a string or number: %w", err)
	}
	*o = Operand{raw: n.String(), number: true}
	return nil
}

// MarshalJSON writes the operand back in the form it was read.
func (o Operand) MarshalJSON() ([]byte, error) {
	if o.number {
		return []byte(o.raw), nil
	}
	return json.Marshal(o.raw)
}

var numericPrefix = regexp.MustCompile(`^[+-]?(Infinity|(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?)`)

// ParseFloat reads the longest numeric prefix of s after leading whitespace.
// It mirrors JavaScript's parseFloat: "12abc" is 12, "Infinity" is +Inf and
// anything without a leading number is NaN.
func ParseFloat(s string) float64 {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
	prefix := numericPrefix.FindString(s)
	if prefix == "" {
		return math.NaN()
	}

	// Overflow yields ±Inf together with ErrRange, which is what we want.
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}
