package silver

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// flex holds one raw JSON value and coerces it on demand. Every accessor returns nil
// (or "") instead of failing, so a malformed field never drops the row.
type flex []byte

func (f *flex) UnmarshalJSON(b []byte) error {
	*f = append((*f)[:0], b...)
	return nil
}

func (f flex) isNull() bool {
	trimmed := bytes.TrimSpace(f)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Str returns strings as-is and numbers as their literal text.
func (f flex) Str() string {
	if f.isNull() {
		return ""
	}
	var s string
	if err := json.Unmarshal(f, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(f, &n); err == nil {
		return n.String()
	}
	return ""
}

// StrPtr is Str with null for missing or empty values.
func (f flex) StrPtr() *string {
	s := f.Str()
	if s == "" {
		return nil
	}
	return &s
}

func (f flex) Float() *float64 {
	if f.isNull() {
		return nil
	}
	var v float64
	if err := json.Unmarshal(f, &v); err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	var s string
	if err := json.Unmarshal(f, &s); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsNaN(parsed) && !math.IsInf(parsed, 0) {
			return &parsed
		}
	}
	return nil
}

// Int accepts integral floats ("5.0") but not fractional ones.
func (f flex) Int() *int64 {
	v := f.Float()
	if v == nil || *v != math.Trunc(*v) || math.Abs(*v) > math.MaxInt64/2 {
		return nil
	}
	i := int64(*v)
	return &i
}

// Bool follows truthiness: numbers are true when non-zero, strings when "true", "1" or "y".
func (f flex) Bool() *bool {
	if f.isNull() {
		return nil
	}
	var b bool
	if err := json.Unmarshal(f, &b); err == nil {
		return &b
	}
	if v := f.Float(); v != nil {
		out := *v != 0
		return &out
	}
	var s string
	if err := json.Unmarshal(f, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1", "y", "yes":
			t := true
			return &t
		case "false", "0", "n", "no", "":
			fl := false
			return &fl
		}
	}
	return nil
}
