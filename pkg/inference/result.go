// Package inference adapts a family's registry entry to a uniform
// prediction: extract, project, classify, label. Failures never escape as Go
// errors; they come back as error-carrying results.
package inference

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
)

var (
	ErrModelUnavailable  = ml.ErrModelUnavailable
	ErrFeatureExtraction = errors.New("feature extraction failed")
	ErrInference         = errors.New("inference failed")
)

// ErrorKind classifies a failed prediction.
type ErrorKind string

const (
	KindModelUnavailable  ErrorKind = "model_unavailable"
	KindFeatureExtraction ErrorKind = "feature_extraction_failed"
	KindInference         ErrorKind = "inference_failed"
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindModelUnavailable:
		return ErrModelUnavailable
	case KindFeatureExtraction:
		return ErrFeatureExtraction
	default:
		return ErrInference
	}
}

// PredictionResult is one model's verdict on one input. A failed result has
// ErrorKind set and no label.
type PredictionResult struct {
	Family        ml.Family          `json:"family"`
	Label         string             `json:"label,omitempty"`
	Confidence    float64            `json:"confidence"`
	Positive      bool               `json:"positive"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	Features      map[string]float64 `json:"features,omitempty"`
	Error         string             `json:"error,omitempty"`
	ErrorKind     ErrorKind          `json:"error_kind,omitempty"`
}

func (r PredictionResult) Failed() bool { return r.ErrorKind != "" }

// Err returns nil for a successful result, otherwise an error matching the
// kind's sentinel under errors.Is.
func (r PredictionResult) Err() error {
	if !r.Failed() {
		return nil
	}
	return fmt.Errorf("%w: %s", r.ErrorKind.sentinel(), r.Error)
}

func (r PredictionResult) outcome() string {
	switch r.ErrorKind {
	case "":
		return metrics.OutcomeOK
	case KindModelUnavailable:
		return metrics.OutcomeModelUnavailable
	case KindFeatureExtraction:
		return metrics.OutcomeExtractionFailed
	default:
		return metrics.OutcomeInferenceFailed
	}
}

func failed(family ml.Family, kind ErrorKind, err error) PredictionResult {
	return PredictionResult{Family: family, Error: err.Error(), ErrorKind: kind}
}

// Round4 rounds half away from zero to four decimal places. NaN and
// infinities are returned unchanged.
func Round4(p float64) float64 {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return p
	}
	return decimal.NewFromFloat(p).Round(4).InexactFloat64()
}
