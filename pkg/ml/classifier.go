package ml

import (
	"errors"
	"fmt"
)

// Classifier is a loaded model artifact. PredictProba returns one
// probability per entry of Classes, in the same order.
type Classifier interface {
	Classes() []string
	PredictProba(x FeatureVector) ([]float64, error)
}

// Estimator is a model over a dense numeric input of fixed width.
type Estimator interface {
	Classes() []string
	NumFeatures() int
	PredictProbaDense(x []float64) ([]float64, error)
}

var ErrWidthMismatch = errors.New("feature width mismatch")

// DenseClassifier feeds the schema-ordered numeric vector straight into an
// estimator.
type DenseClassifier struct {
	Estimator Estimator
}

func (c *DenseClassifier) Classes() []string { return c.Estimator.Classes() }

func (c *DenseClassifier) PredictProba(x FeatureVector) ([]float64, error) {
	dense := x.Dense()
	if n := c.Estimator.NumFeatures(); n > 0 && n != len(dense) {
		return nil, fmt.Errorf("%w: estimator wants %d, got %d", ErrWidthMismatch, n, len(dense))
	}
	return c.Estimator.PredictProbaDense(dense)
}
