package ml

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ArtifactFormat identifies the on-disk model encoding.
const ArtifactFormat = "rakshak.model/v1"

// ArtifactDoc is the JSON document a trained model is exported to.
type ArtifactDoc struct {
	Format        string           `json:"format"`
	Family        string           `json:"family,omitempty"`
	PositiveClass string           `json:"positive_class,omitempty"`
	FeatureNames  []string         `json:"feature_names,omitempty"`
	Preprocessor  *PreprocessorDoc `json:"preprocessor,omitempty"`
	Estimator     EstimatorDoc     `json:"estimator"`
}

type PreprocessorDoc struct {
	Transformers []TransformerDoc `json:"transformers"`
}

type TransformerDoc struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Columns    []string   `json:"columns"`
	Categories [][]string `json:"categories,omitempty"`
	Mean       []float64  `json:"mean,omitempty"`
	Scale      []float64  `json:"scale,omitempty"`
}

type EstimatorDoc struct {
	Type      string         `json:"type"`
	Classes   []string       `json:"classes"`
	NFeatures int            `json:"n_features,omitempty"`
	Trees     []DecisionTree `json:"trees,omitempty"`
	Coef      [][]float64    `json:"coef,omitempty"`
	Intercept []float64      `json:"intercept,omitempty"`
}

// Estimator and transformer type names.
const (
	EstimatorRandomForest       = "random_forest"
	EstimatorLogisticRegression = "logistic_regression"
	TransformerOneHot           = "one_hot"
	TransformerStandardScaler   = "standard_scaler"
	TransformerPassthrough      = "passthrough"
)

// Artifact is a decoded, validated model.
type Artifact struct {
	Family        Family
	Classifier    Classifier
	PositiveClass string
	// Schema is derived from the preprocessor or feature_names. Nil when the
	// document carries neither.
	Schema *FeatureSchema
}

// ParseArtifact decodes and validates a model document.
func ParseArtifact(data []byte) (*Artifact, error) {
	var doc ArtifactDoc
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode artifact: %w", err)
	}
	return doc.Build()
}

// Build validates the document and assembles its classifier.
func (d *ArtifactDoc) Build() (*Artifact, error) {
	if d.Format != ArtifactFormat {
		return nil, fmt.Errorf("unsupported artifact format %q", d.Format)
	}
	est, err := d.Estimator.build()
	if err != nil {
		return nil, err
	}
	a := &Artifact{Family: Family(d.Family), PositiveClass: d.PositiveClass}

	if d.Preprocessor != nil {
		pre, err := d.Preprocessor.build()
		if err != nil {
			return nil, err
		}
		p, err := NewPipeline(pre, est)
		if err != nil {
			return nil, err
		}
		if a.Schema, err = pre.InputSchema(); err != nil {
			return nil, fmt.Errorf("preprocessor columns: %w", err)
		}
		a.Classifier = p
	} else {
		a.Classifier = &DenseClassifier{Estimator: est}
		if len(d.FeatureNames) > 0 {
			if n := est.NumFeatures(); n > 0 && n != len(d.FeatureNames) {
				return nil, fmt.Errorf("%w: %d feature names, estimator wants %d", ErrWidthMismatch, len(d.FeatureNames), n)
			}
			if a.Schema, err = NumericSchema(d.FeatureNames); err != nil {
				return nil, fmt.Errorf("feature_names: %w", err)
			}
		}
	}

	if a.PositiveClass != "" && indexOf(est.Classes(), a.PositiveClass) < 0 {
		return nil, fmt.Errorf("positive class %q not among %v", a.PositiveClass, est.Classes())
	}
	return a, nil
}

func (d EstimatorDoc) build() (Estimator, error) {
	switch d.Type {
	case EstimatorRandomForest:
		return NewRandomForest(d.Classes, d.NFeatures, d.Trees)
	case EstimatorLogisticRegression:
		return NewLogisticRegression(d.Classes, d.Coef, d.Intercept)
	default:
		return nil, fmt.Errorf("unknown estimator type %q", d.Type)
	}
}

func (d *PreprocessorDoc) build() (*ColumnTransformer, error) {
	if len(d.Transformers) == 0 {
		return nil, fmt.Errorf("preprocessor has no transformers")
	}
	ct := &ColumnTransformer{}
	for i, td := range d.Transformers {
		var (
			t   Transformer
			err error
		)
		switch td.Type {
		case TransformerOneHot:
			t, err = NewOneHotEncoder(td.Name, td.Columns, td.Categories)
		case TransformerStandardScaler:
			t, err = NewStandardScaler(td.Name, td.Columns, td.Mean, td.Scale)
		case TransformerPassthrough:
			t = &Passthrough{ID: td.Name, Cols: td.Columns}
		default:
			err = fmt.Errorf("unknown transformer type %q", td.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("transformer %d: %w", i, err)
		}
		ct.Transformers = append(ct.Transformers, t)
	}
	return ct, nil
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
