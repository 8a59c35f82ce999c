package ml

import (
	"fmt"
)

// DecisionTree is a fitted CART tree in flat array form. Node i is a leaf
// when ChildrenLeft[i] == -1; Value[i] holds per-class sample weights.
type DecisionTree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

const leafNode = -1

func (t *DecisionTree) validate(nClasses, nFeatures int) error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree arrays disagree in length")
	}
	for i := 0; i < n; i++ {
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		if l == leafNode {
			if len(t.Value[i]) != nClasses {
				return fmt.Errorf("leaf %d has %d class weights, want %d", i, len(t.Value[i]), nClasses)
			}
			continue
		}
		// children always follow their parent in fitted trees; this also rules out cycles
		if l <= i || r <= i || l >= n || r >= n {
			return fmt.Errorf("node %d has invalid children (%d, %d)", i, l, r)
		}
		if f := t.Feature[i]; f < 0 || (nFeatures > 0 && f >= nFeatures) {
			return fmt.Errorf("node %d splits on feature %d", i, f)
		}
	}
	return nil
}

// leaf walks x down to a leaf and returns its normalized distribution.
func (t *DecisionTree) leaf(x []float64) []float64 {
	i := 0
	for t.ChildrenLeft[i] != leafNode {
		if x[t.Feature[i]] <= t.Threshold[i] {
			i = t.ChildrenLeft[i]
		} else {
			i = t.ChildrenRight[i]
		}
	}
	return t.Value[i]
}

// RandomForest averages the leaf distributions of its trees.
type RandomForest struct {
	ClassLabels []string
	Trees       []DecisionTree
	Width       int
}

func NewRandomForest(classes []string, width int, trees []DecisionTree) (*RandomForest, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("random forest: no classes")
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("random forest: no trees")
	}
	for i := range trees {
		if err := trees[i].validate(len(classes), width); err != nil {
			return nil, fmt.Errorf("random forest: tree %d: %w", i, err)
		}
	}
	return &RandomForest{ClassLabels: classes, Trees: trees, Width: width}, nil
}

func (f *RandomForest) Classes() []string { return f.ClassLabels }
func (f *RandomForest) NumFeatures() int  { return f.Width }

func (f *RandomForest) PredictProbaDense(x []float64) ([]float64, error) {
	if f.Width > 0 && len(x) != f.Width {
		return nil, fmt.Errorf("%w: forest wants %d, got %d", ErrWidthMismatch, f.Width, len(x))
	}
	out := make([]float64, len(f.ClassLabels))
	for i := range f.Trees {
		t := &f.Trees[i]
		if f.Width == 0 {
			for _, feat := range t.Feature {
				if feat >= len(x) {
					return nil, fmt.Errorf("%w: tree %d reads feature %d of %d", ErrWidthMismatch, i, feat, len(x))
				}
			}
		}
		dist := t.leaf(x)
		total := 0.0
		for _, w := range dist {
			total += w
		}
		if total <= 0 {
			continue
		}
		for c, w := range dist {
			out[c] += w / total
		}
	}
	n := float64(len(f.Trees))
	for c := range out {
		out[c] /= n
	}
	return out, nil
}
