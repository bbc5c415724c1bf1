package form

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Inputs is a flat map of parameter id to entered value. Values arrive from
// JSON bodies (float64, bool, string) or from the CLI as strings.
type Inputs map[string]interface{}

// Lookup returns the raw value for id.
func (in Inputs) Lookup(id string) (interface{}, bool) {
	v, ok := in[id]
	return v, ok
}

// Has reports whether id carries a non-null, non-empty value.
func (in Inputs) Has(id string) bool {
	v, ok := in[id]
	if !ok || v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) != ""
	}
	return true
}

// Number returns the numeric value of id, or 0 when absent or not numeric.
func (in Inputs) Number(id string) float64 {
	f, _ := in.Float(id)
	return f
}

// Float returns the numeric value of id and whether it could be read as one.
// NaN and infinities are not numbers here.
func (in Inputs) Float(id string) (float64, bool) {
	f, ok := in.rawFloat(id)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func (in Inputs) rawFloat(id string) (float64, bool) {
	switch v := in[id].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Bool returns the boolean value of id, or false when absent.
func (in Inputs) Bool(id string) bool {
	switch v := in[id].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "on":
			return true
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	}
	return false
}

// String returns the value of id rendered as a string.
func (in Inputs) String(id string) string {
	switch v := in[id].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case json.Number:
		return v.String()
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}

// Clone returns a shallow copy.
func (in Inputs) Clone() Inputs {
	out := make(Inputs, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Merge returns a copy of in overlaid with other.
func (in Inputs) Merge(other Inputs) Inputs {
	out := in.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

// ParseValue converts a raw string (CLI flag, query string) into the most
// specific value it represents: bool, number or trimmed string.
func ParseValue(raw string) interface{} {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "true", "yes":
		return true
	case "false", "no":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}
