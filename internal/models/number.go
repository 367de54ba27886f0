package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Number is a leniently decoded numeric field. Documents written by older
// clients store marks as strings, numbers or null; anything unparsable is 0.
type Number float64

// Float returns the value as float64.
func (n Number) Float() float64 {
	return float64(n)
}

// UnmarshalJSON accepts JSON numbers, numeric strings, booleans and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		*n = 0
		return nil
	}
	*n = Number(ParseNumber(raw))
	return nil
}

// MarshalJSON writes the value as a plain JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(float64(n), 'f', -1, 64)), nil
}

// ParseNumber converts loosely typed values to float64, defaulting to 0.
func ParseNumber(raw interface{}) float64 {
	if s, ok := raw.(string); ok {
		return parseLeadingFloat(s)
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return 0
	}
	return v
}

// parseLeadingFloat reads the numeric prefix of s, so "20 marks" yields 20.
func parseLeadingFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if v, err := cast.ToFloat64E(s); err == nil {
		return v
	}
	end := 0
	seenDot := false
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			end = i + 1
		case r == '.' && !seenDot:
			seenDot = true
		case (r == '-' || r == '+') && i == 0:
		default:
			break scan
		}
	}
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return v
}
