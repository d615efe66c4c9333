// Package coerce converts loosely typed upstream JSON values into canonical
// Go types. None of its functions fail: malformed input degrades to the zero
// value (or to "absent") instead of returning an error.
//
// Values are expected to come from encoding/json decoding into any, ideally
// with Decoder.UseNumber so that numbers arrive as json.Number.
package coerce

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToFloat converts v to a float64. nil, empty strings, unparsable strings,
// non-finite results and unsupported types all yield 0.
func ToFloat(v any) float64 {
	var f float64
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case uint64:
		f = float64(x)
	case json.Number:
		f = parseNumeric(string(x))
	case string:
		f = parseNumeric(x)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// parseNumeric strips whitespace and thousands separators before parsing.
func parseNumeric(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseEmbeddedJSON unwraps fields that upstream sometimes ships as a
// JSON-encoded string (e.g. "[\"Yes\",\"No\"]"). Structured values are returned
// as-is. The second result is false when the field is absent or the string is
// not valid JSON.
func ParseEmbeddedJSON(v any) (any, bool) {
	switch x := v.(type) {
	case nil:
		return nil, false
	case string:
		dec := json.NewDecoder(strings.NewReader(x))
		dec.UseNumber()
		var out any
		if err := dec.Decode(&out); err != nil {
			return nil, false
		}
		// Trailing garbage after the first value is a parse failure.
		if dec.More() {
			return nil, false
		}
		if out == nil {
			return nil, false
		}
		return out, true
	default:
		return v, true
	}
}

// Strings converts a decoded JSON array into a slice of strings. Numbers keep
// their textual form, nulls are dropped. Non-array input yields nil, false.
func Strings(v any) ([]string, bool) {
	items, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := Text(item); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// Text renders a scalar as a string: strings verbatim, numbers in their JSON
// form, booleans as "true"/"false". Objects, arrays and nil are rejected.
func Text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return "", false
	}
}

// OptString returns a pointer to the textual form of v, or nil when v is
// absent or not a scalar.
func OptString(v any) *string {
	s, ok := Text(v)
	if !ok {
		return nil
	}
	return &s
}

// OptBool returns a pointer to v interpreted as a boolean. Upstream sends
// flags either as JSON booleans or as "true"/"false" strings; anything else
// is treated as absent.
func OptBool(v any) *bool {
	switch x := v.(type) {
	case bool:
		return &x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return nil
		}
		return &b
	default:
		return nil
	}
}

// DecodeObject decodes raw into a generic JSON object, keeping numbers as
// json.Number. It reports false for anything that is not a JSON object.
func DecodeObject(raw []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}
