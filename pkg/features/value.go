// Package features turns raw per-family incident inputs into named feature
// mappings that the model layer projects onto a schema.
package features

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Value is a single feature value: a number or a categorical string.
type Value struct {
	num  float64
	str  string
	text bool
}

// Number returns a numeric Value.
func Number(f float64) Value { return Value{num: f} }

// String returns a categorical Value.
func String(s string) Value { return Value{str: s, text: true} }

// Bool returns 1 for true and 0 for false.
func Bool(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

// IsString reports whether v holds a categorical value.
func (v Value) IsString() bool { return v.text }

// Float returns the numeric reading of v. Strings are parsed; anything
// unparseable reads as 0.
func (v Value) Float() float64 {
	if !v.text {
		return v.num
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
	if err != nil {
		return 0
	}
	return f
}

// Text returns the categorical reading of v. Numbers use the shortest
// decimal form.
func (v Value) Text() string {
	if v.text {
		return v.str
	}
	return strconv.FormatFloat(v.num, 'f', -1, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.text {
		return json.Marshal(v.str)
	}
	return json.Marshal(v.num)
}

// Mapping is the output of an extractor: feature name to value. It carries no
// order and may be missing names a model expects.
type Mapping map[string]Value

// Floats returns the numeric reading of every entry.
func (m Mapping) Floats() map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v.Float()
	}
	return out
}

// Keys returns the mapping's names in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
