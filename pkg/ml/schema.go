package ml

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"

	"rakshak/pkg/features"
)

// SlotKind tells projection how to coerce and default a slot.
type SlotKind int

const (
	Numeric SlotKind = iota
	Categorical
)

func (k SlotKind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Slot is one named position in a feature vector.
type Slot struct {
	Name string
	Kind SlotKind
}

// FeatureSchema is the ordered list of inputs a model expects.
type FeatureSchema struct {
	slots []Slot
	index map[string]int
}

// NewFeatureSchema builds a schema. Slot names must be unique.
func NewFeatureSchema(slots []Slot) (*FeatureSchema, error) {
	s := &FeatureSchema{slots: make([]Slot, len(slots)), index: make(map[string]int, len(slots))}
	for i, sl := range slots {
		if sl.Name == "" {
			return nil, fmt.Errorf("slot %d has no name", i)
		}
		if _, dup := s.index[sl.Name]; dup {
			return nil, fmt.Errorf("duplicate slot %q", sl.Name)
		}
		s.slots[i] = sl
		s.index[sl.Name] = i
	}
	return s, nil
}

// NumericSchema builds a schema of numeric slots.
func NumericSchema(names []string) (*FeatureSchema, error) {
	slots := make([]Slot, len(names))
	for i, n := range names {
		slots[i] = Slot{Name: n, Kind: Numeric}
	}
	return NewFeatureSchema(slots)
}

func (s *FeatureSchema) Len() int { return len(s.slots) }

func (s *FeatureSchema) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

func (s *FeatureSchema) Names() []string {
	out := make([]string, len(s.slots))
	for i, sl := range s.slots {
		out[i] = sl.Name
	}
	return out
}

// Index returns the position of name, or -1.
func (s *FeatureSchema) Index(name string) int {
	if i, ok := s.index[name]; ok {
		return i
	}
	return -1
}

// Project lays m out in schema order. Missing names take the slot default
// (0 or "unknown"), values are coerced to the slot kind and names the
// schema does not know are dropped.
func (s *FeatureSchema) Project(m features.Mapping) FeatureVector {
	values := make([]features.Value, len(s.slots))
	for i, sl := range s.slots {
		v, ok := m[sl.Name]
		switch {
		case !ok && sl.Kind == Categorical:
			values[i] = features.String(features.Unknown)
		case !ok:
			values[i] = features.Number(0)
		case sl.Kind == Categorical:
			values[i] = features.String(v.Text())
		default:
			values[i] = features.Number(v.Float())
		}
	}
	return FeatureVector{schema: s, values: values}
}

// FeatureVector is a schema-ordered set of values. Every slot is populated.
type FeatureVector struct {
	schema *FeatureSchema
	values []features.Value
}

func (v FeatureVector) Schema() *FeatureSchema { return v.schema }
func (v FeatureVector) Len() int { return len(v.values) }
func (v FeatureVector) At(i int) features.Value { return v.values[i] }

// Lookup returns the value of the named slot.
func (v FeatureVector) Lookup(name string) (features.Value, bool) {
	if v.schema == nil {
		return features.Value{}, false
	}
	i := v.schema.Index(name)
	if i < 0 {
		return features.Value{}, false
	}
	return v.values[i], true
}

// Dense returns the numeric reading of every slot.
func (v FeatureVector) Dense() []float64 {
	out := make([]float64, len(v.values))
	for i, val := range v.values {
		out[i] = val.Float()
	}
	return out
}

// Digest is a stable hash of the vector's names and values.
func (v FeatureVector) Digest() string {
	h := sha256.New()
	var buf [8]byte
	for i, val := range v.values {
		if v.schema != nil {
			h.Write([]byte(v.schema.slots[i].Name))
		}
		h.Write([]byte{0})
		if val.IsString() {
			h.Write([]byte{'s'})
			h.Write([]byte(val.Text()))
		} else {
			h.Write([]byte{'n'})
			binary.BigEndian.PutUint64(buf[:], math.Float64bits(val.Float()))
			h.Write(buf[:])
		}
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
