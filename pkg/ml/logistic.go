package ml

import (
	"fmt"
	"math"
)

// LogisticRegression covers the binary (one coefficient row, sigmoid) and
// multinomial (one row per class, softmax) cases.
type LogisticRegression struct {
	ClassLabels []string
	Coef        [][]float64
	Intercept   []float64
}

func NewLogisticRegression(classes []string, coef [][]float64, intercept []float64) (*LogisticRegression, error) {
	switch {
	case len(classes) < 2:
		return nil, fmt.Errorf("logistic regression: need at least 2 classes, got %d", len(classes))
	case len(coef) == 0:
		return nil, fmt.Errorf("logistic regression: no coefficients")
	case len(coef) != len(intercept):
		return nil, fmt.Errorf("logistic regression: %d coefficient rows, %d intercepts", len(coef), len(intercept))
	case len(classes) == 2 && len(coef) != 1:
		return nil, fmt.Errorf("logistic regression: binary model needs 1 coefficient row, got %d", len(coef))
	case len(classes) > 2 && len(coef) != len(classes):
		return nil, fmt.Errorf("logistic regression: %d classes, %d coefficient rows", len(classes), len(coef))
	}
	width := len(coef[0])
	for i, row := range coef {
		if len(row) != width {
			return nil, fmt.Errorf("logistic regression: row %d has %d weights, want %d", i, len(row), width)
		}
	}
	return &LogisticRegression{ClassLabels: classes, Coef: coef, Intercept: intercept}, nil
}

func (m *LogisticRegression) Classes() []string { return m.ClassLabels }
func (m *LogisticRegression) NumFeatures() int  { return len(m.Coef[0]) }

func (m *LogisticRegression) PredictProbaDense(x []float64) ([]float64, error) {
	if len(x) != m.NumFeatures() {
		return nil, fmt.Errorf("%w: logistic regression wants %d, got %d", ErrWidthMismatch, m.NumFeatures(), len(x))
	}
	z := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		z[i] = m.Intercept[i]
		for j, w := range row {
			z[i] += w * x[j]
		}
	}
	if len(z) == 1 {
		p := sigmoid(z[0])
		return []float64{1 - p, p}, nil
	}
	return softmax(z), nil
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func softmax(z []float64) []float64 {
	max := math.Inf(-1)
	for _, v := range z {
		if v > max {
			max = v
		}
	}
	out := make([]float64, len(z))
	sum := 0.0
	for i, v := range z {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
