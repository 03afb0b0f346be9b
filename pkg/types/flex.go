package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// The Fler API is loose about JSON scalar types: numbers, flags and ids may
// arrive as JSON numbers or as quoted strings. The types below accept either.

var jsonNull = []byte("null")

// scalarText returns the text of a JSON number or string literal.
// A JSON null yields ("", true).
func scalarText(data []byte) (string, bool, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, jsonNull) {
		return "", true, nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", false, err
		}
		return strings.TrimSpace(s), false, nil
	}
	return string(data), false, nil
}

// Number is a float64 that decodes from a JSON number or numeric string.
// Empty strings and null decode as zero.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	text, _, err := scalarText(data)
	if err != nil {
		return err
	}
	if text == "" {
		*n = 0
		return nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("decoding number %q: %w", text, err)
	}
	*n = Number(f)
	return nil
}

// Int returns the value truncated to an integer.
func (n Number) Int() int64 {
	return int64(n)
}

// Flag is a boolean that decodes from true/false, 0/1 or their quoted forms.
type Flag bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	text, _, err := scalarText(data)
	if err != nil {
		return err
	}
	switch strings.ToLower(text) {
	case "", "0", "false", "n", "no":
		*f = false
	case "1", "true", "y", "yes":
		*f = true
	default:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("decoding flag %q: %w", text, err)
		}
		*f = v != 0
	}
	return nil
}

// Int returns 1 for true and 0 for false.
func (f Flag) Int() int {
	if f {
		return 1
	}
	return 0
}

// ID is an identifier that decodes from a JSON number or string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(data []byte) error {
	text, _, err := scalarText(data)
	if err != nil {
		return err
	}
	*id = ID(text)
	return nil
}

// String implements fmt.Stringer.
func (id ID) String() string {
	return string(id)
}
