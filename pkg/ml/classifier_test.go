package ml

import (
	"errors"
	"math"
	"testing"
)

const eps = 1e-9

func approxEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-4 {
			return false
		}
	}
	return true
}

// stump splits on feature 0 at 0.5.
func stump(left, right []float64) DecisionTree {
	return DecisionTree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{0, -2, -2},
		Threshold:     []float64{0.5, -2, -2},
		Value:         [][]float64{{0, 0}, left, right},
	}
}

func leafOnly(v []float64) DecisionTree {
	return DecisionTree{
		ChildrenLeft:  []int{-1},
		ChildrenRight: []int{-1},
		Feature:       []int{-2},
		Threshold:     []float64{-2},
		Value:         [][]float64{v},
	}
}

func TestRandomForest_PredictProbaDense(t *testing.T) {
	rf, err := NewRandomForest([]string{"0", "1"}, 1, []DecisionTree{
		stump([]float64{8, 2}, []float64{1, 9}),
		leafOnly([]float64{5, 5}),
	})
	if err != nil {
		t.Fatalf("NewRandomForest: %v", err)
	}

	tests := []struct {
		x    []float64
		want []float64
	}{
		{[]float64{0}, []float64{0.65, 0.35}},
		{[]float64{1}, []float64{0.3, 0.7}},
	}
	for _, tt := range tests {
		got, err := rf.PredictProbaDense(tt.x)
		if err != nil {
			t.Fatalf("PredictProbaDense(%v): %v", tt.x, err)
		}
		if !approxEqual(got, tt.want) {
			t.Errorf("PredictProbaDense(%v) = %v, want %v", tt.x, got, tt.want)
		}
	}

	if _, err := rf.PredictProbaDense([]float64{1, 2}); !errors.Is(err, ErrWidthMismatch) {
		t.Errorf("expected width mismatch, got %v", err)
	}
}

func TestRandomForest_SingleClass(t *testing.T) {
	rf, err := NewRandomForest([]string{"1"}, 1, []DecisionTree{leafOnly([]float64{4})})
	if err != nil {
		t.Fatalf("NewRandomForest: %v", err)
	}
	got, err := rf.PredictProbaDense([]float64{3})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || math.Abs(got[0]-1) > eps {
		t.Errorf("got %v, want [1]", got)
	}
}

func TestRandomForest_RejectsMalformedTrees(t *testing.T) {
	bad := stump([]float64{1, 0}, []float64{0, 1})
	bad.ChildrenLeft[0] = 0 // self loop
	if _, err := NewRandomForest([]string{"0", "1"}, 1, []DecisionTree{bad}); err == nil {
		t.Error("expected error for cyclic tree")
	}

	short := stump([]float64{1}, []float64{0, 1})
	if _, err := NewRandomForest([]string{"0", "1"}, 1, []DecisionTree{short}); err == nil {
		t.Error("expected error for short leaf")
	}

	wide := stump([]float64{1, 0}, []float64{0, 1})
	wide.Feature[0] = 3
	if _, err := NewRandomForest([]string{"0", "1"}, 2, []DecisionTree{wide}); err == nil {
		t.Error("expected error for out-of-range feature")
	}
}

func TestLogisticRegression(t *testing.T) {
	bin, err := NewLogisticRegression([]string{"0", "1"}, [][]float64{{2}}, []float64{0})
	if err != nil {
		t.Fatal(err)
	}
	got, _ := bin.PredictProbaDense([]float64{0})
	if !approxEqual(got, []float64{0.5, 0.5}) {
		t.Errorf("binary = %v", got)
	}
	got, _ = bin.PredictProbaDense([]float64{1})
	if !approxEqual(got, []float64{0.1192, 0.8808}) {
		t.Errorf("binary = %v", got)
	}

	multi, err := NewLogisticRegression([]string{"high", "low", "medium"}, [][]float64{{1}, {0}, {-1}}, []float64{0, 0, 0})
	if err != nil {
		t.Fatal(err)
	}
	got, _ = multi.PredictProbaDense([]float64{0})
	if !approxEqual(got, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}) {
		t.Errorf("multinomial = %v", got)
	}
	got, _ = multi.PredictProbaDense([]float64{5})
	if got[0] <= got[1] || got[1] <= got[2] {
		t.Errorf("expected descending probabilities, got %v", got)
	}
	sum := got[0] + got[1] + got[2]
	if math.Abs(sum-1) > eps {
		t.Errorf("probabilities sum to %v", sum)
	}

	if _, err := NewLogisticRegression([]string{"a", "b", "c"}, [][]float64{{1}}, []float64{0}); err == nil {
		t.Error("expected row count error")
	}
}
