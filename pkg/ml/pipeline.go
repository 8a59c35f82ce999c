package ml

import (
	"fmt"

	"rakshak/pkg/features"
)

// Transformer maps named input columns to a block of dense outputs.
type Transformer interface {
	Name() string
	Columns() []string
	InputKind() SlotKind
	OutputWidth() int
	transform(x FeatureVector, dst []float64)
}

// OneHotEncoder emits one indicator per known category per column. Unknown
// categories encode as all zeros.
type OneHotEncoder struct {
	ID         string
	Cols       []string
	Categories [][]string
	lookup     []map[string]int
}

func NewOneHotEncoder(id string, cols []string, categories [][]string) (*OneHotEncoder, error) {
	if len(cols) != len(categories) {
		return nil, fmt.Errorf("one_hot %q: %d columns, %d category lists", id, len(cols), len(categories))
	}
	e := &OneHotEncoder{ID: id, Cols: cols, Categories: categories, lookup: make([]map[string]int, len(cols))}
	for i, cats := range categories {
		e.lookup[i] = make(map[string]int, len(cats))
		for j, c := range cats {
			e.lookup[i][c] = j
		}
	}
	return e, nil
}

func (e *OneHotEncoder) Name() string        { return e.ID }
func (e *OneHotEncoder) Columns() []string   { return e.Cols }
func (e *OneHotEncoder) InputKind() SlotKind { return Categorical }

func (e *OneHotEncoder) OutputWidth() int {
	n := 0
	for _, c := range e.Categories {
		n += len(c)
	}
	return n
}

func (e *OneHotEncoder) transform(x FeatureVector, dst []float64) {
	off := 0
	for i, col := range e.Cols {
		v := lookupOr(x, col, features.String(features.Unknown))
		if j, ok := e.lookup[i][v.Text()]; ok {
			dst[off+j] = 1
		}
		off += len(e.Categories[i])
	}
}

// StandardScaler centers and scales numeric columns. A zero scale is
// treated as 1.
type StandardScaler struct {
	ID    string
	Cols  []string
	Mean  []float64
	Scale []float64
}

func NewStandardScaler(id string, cols []string, mean, scale []float64) (*StandardScaler, error) {
	if mean == nil {
		mean = make([]float64, len(cols))
	}
	if scale == nil {
		scale = make([]float64, len(cols))
		for i := range scale {
			scale[i] = 1
		}
	}
	if len(mean) != len(cols) || len(scale) != len(cols) {
		return nil, fmt.Errorf("standard_scaler %q: %d columns, %d means, %d scales", id, len(cols), len(mean), len(scale))
	}
	return &StandardScaler{ID: id, Cols: cols, Mean: mean, Scale: scale}, nil
}

func (s *StandardScaler) Name() string        { return s.ID }
func (s *StandardScaler) Columns() []string   { return s.Cols }
func (s *StandardScaler) InputKind() SlotKind { return Numeric }
func (s *StandardScaler) OutputWidth() int    { return len(s.Cols) }

func (s *StandardScaler) transform(x FeatureVector, dst []float64) {
	for i, col := range s.Cols {
		v := lookupOr(x, col, features.Number(0)).Float()
		scale := s.Scale[i]
		if scale == 0 {
			scale = 1
		}
		dst[i] = (v - s.Mean[i]) / scale
	}
}

// Passthrough copies numeric columns unchanged.
type Passthrough struct {
	ID   string
	Cols []string
}

func (p *Passthrough) Name() string        { return p.ID }
func (p *Passthrough) Columns() []string   { return p.Cols }
func (p *Passthrough) InputKind() SlotKind { return Numeric }
func (p *Passthrough) OutputWidth() int    { return len(p.Cols) }

func (p *Passthrough) transform(x FeatureVector, dst []float64) {
	for i, col := range p.Cols {
		dst[i] = lookupOr(x, col, features.Number(0)).Float()
	}
}

func lookupOr(x FeatureVector, name string, def features.Value) features.Value {
	if v, ok := x.Lookup(name); ok {
		return v
	}
	return def
}

// ColumnTransformer concatenates the outputs of its transformers in order.
type ColumnTransformer struct {
	Transformers []Transformer
}

func (ct *ColumnTransformer) OutputWidth() int {
	n := 0
	for _, t := range ct.Transformers {
		n += t.OutputWidth()
	}
	return n
}

// InputSchema lists every consumed column once, in transformer order, typed
// by the transformer that reads it first.
func (ct *ColumnTransformer) InputSchema() (*FeatureSchema, error) {
	seen := map[string]bool{}
	var slots []Slot
	for _, t := range ct.Transformers {
		for _, c := range t.Columns() {
			if seen[c] {
				continue
			}
			seen[c] = true
			slots = append(slots, Slot{Name: c, Kind: t.InputKind()})
		}
	}
	return NewFeatureSchema(slots)
}

func (ct *ColumnTransformer) Transform(x FeatureVector) []float64 {
	out := make([]float64, ct.OutputWidth())
	off := 0
	for _, t := range ct.Transformers {
		w := t.OutputWidth()
		t.transform(x, out[off:off+w])
		off += w
	}
	return out
}

// Pipeline runs a column transformer in front of an estimator. It consumes
// named, mixed-type slots.
type Pipeline struct {
	Preprocessor *ColumnTransformer
	Estimator    Estimator
}

func NewPipeline(pre *ColumnTransformer, est Estimator) (*Pipeline, error) {
	if pre == nil || est == nil {
		return nil, fmt.Errorf("pipeline needs a preprocessor and an estimator")
	}
	if n := est.NumFeatures(); n > 0 && n != pre.OutputWidth() {
		return nil, fmt.Errorf("%w: preprocessor emits %d, estimator wants %d", ErrWidthMismatch, pre.OutputWidth(), n)
	}
	return &Pipeline{Preprocessor: pre, Estimator: est}, nil
}

func (p *Pipeline) Classes() []string { return p.Estimator.Classes() }

func (p *Pipeline) PredictProba(x FeatureVector) ([]float64, error) {
	return p.Estimator.PredictProbaDense(p.Preprocessor.Transform(x))
}
