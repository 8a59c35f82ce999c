// Package mltest writes small, hand-built model artifacts for tests.
package mltest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"rakshak/pkg/features"
	"rakshak/pkg/ml"
)

// Spec returns the default layout entry for family.
func Spec(family ml.Family) ml.ArtifactSpec {
	for _, s := range ml.DefaultLayout() {
		if s.Family == family {
			return s
		}
	}
	return ml.ArtifactSpec{Family: family, Dir: string(family), Model: string(family) + ".json"}
}

// Write stores doc (and featureNames, when the layout entry has a feature list)
// under root following spec.
func Write(t testing.TB, root string, spec ml.ArtifactSpec, doc ml.ArtifactDoc, featureNames []string) {
	t.Helper()
	dir := filepath.Join(root, spec.Dir, "models")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	writeJSON(t, filepath.Join(dir, spec.Model), doc)
	if spec.Features != "" && featureNames != nil {
		writeJSON(t, filepath.Join(dir, spec.Features), featureNames)
	}
}

// WriteRaw stores arbitrary bytes as the family's model file.
func WriteRaw(t testing.TB, root string, spec ml.ArtifactSpec, data []byte) {
	t.Helper()
	dir := filepath.Join(root, spec.Dir, "models")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, spec.Model), data, 0o644))
}

// WriteFamilies writes the stock fixture for each family under root using
// the default layout.
func WriteFamilies(t testing.TB, root string, families ...ml.Family) {
	t.Helper()
	for _, f := range families {
		doc, names := Doc(f)
		Write(t, root, Spec(f), doc, names)
	}
}

// Registry builds a registry holding the stock fixtures for families.
func Registry(t testing.TB, families ...ml.Family) *ml.Registry {
	t.Helper()
	root := t.TempDir()
	WriteFamilies(t, root, families...)
	layout := make([]ml.ArtifactSpec, 0, len(families))
	for _, f := range families {
		layout = append(layout, Spec(f))
	}
	return ml.LoadAll(root, layout)
}

// Doc returns the stock fixture for family and, where the family uses a
// feature list, the list.
func Doc(f ml.Family) (ml.ArtifactDoc, []string) {
	switch f {
	case ml.Phishing:
		return PhishingDoc()
	case ml.Malware:
		return MalwareDoc()
	case ml.Ransomware:
		return RansomwareDoc(), nil
	case ml.Network:
		return NetworkDoc(), nil
	case ml.ZeroDay:
		return ZeroDayDoc(), nil
	}
	panic("mltest: unknown family " + string(f))
}

// PhishingDoc scores 0.9 when the input mentions login and the URL host is
// an IP literal, 0.6 for login alone and 0.1 otherwise.
func PhishingDoc() (ml.ArtifactDoc, []string) {
	names := features.PhishingFeatureNames()
	login := indexOf(names, "contains_login")
	ip := indexOf(names, "has_ip_address")
	return ml.ArtifactDoc{
		Format: ml.ArtifactFormat,
		Family: string(ml.Phishing),
		Estimator: ml.EstimatorDoc{
			Type:      ml.EstimatorRandomForest,
			Classes:   []string{"0", "1"},
			NFeatures: len(names),
			Trees: []ml.DecisionTree{{
				ChildrenLeft:  []int{1, -1, 3, -1, -1},
				ChildrenRight: []int{2, -1, 4, -1, -1},
				Feature:       []int{login, -2, ip, -2, -2},
				Threshold:     []float64{0.5, -2, 0.5, -2, -2},
				Value:         [][]float64{{0, 0}, {9, 1}, {0, 0}, {4, 6}, {1, 9}},
			}},
		},
	}, names
}

// MalwareDoc flags processes with more than 1000 voluntary context
// switches at 0.8.
func MalwareDoc() (ml.ArtifactDoc, []string) {
	names := []string{"millisecond", "state", "nvcsw", "total_vm", "map_count"}
	return ml.ArtifactDoc{
		Format: ml.ArtifactFormat,
		Family: string(ml.Malware),
		Estimator: ml.EstimatorDoc{
			Type:      ml.EstimatorRandomForest,
			Classes:   []string{"0", "1"},
			NFeatures: len(names),
			Trees: []ml.DecisionTree{{
				ChildrenLeft:  []int{1, -1, -1},
				ChildrenRight: []int{2, -1, -1},
				Feature:       []int{2, -2, -2},
				Threshold:     []float64{1000, -2, -2},
				Value:         [][]float64{{0, 0}, {7, 3}, {2, 8}},
			}},
		},
	}, names
}

// RansomwareDoc is a pipeline whose logit grows with bitcoin addresses and
// malicious files.
func RansomwareDoc() ml.ArtifactDoc {
	return ml.ArtifactDoc{
		Format: ml.ArtifactFormat,
		Family: string(ml.Ransomware),
		Preprocessor: &ml.PreprocessorDoc{Transformers: []ml.TransformerDoc{
			{Name: "cat", Type: ml.TransformerOneHot, Columns: []string{"Machine"}, Categories: [][]string{{"332", "34404"}}},
			{Name: "num", Type: ml.TransformerStandardScaler, Columns: []string{"BitcoinAddresses", "files_malicious"}, Mean: []float64{0, 0}, Scale: []float64{1, 1}},
		}},
		Estimator: ml.EstimatorDoc{
			Type:      ml.EstimatorLogisticRegression,
			Classes:   []string{"0", "1"},
			Coef:      [][]float64{{0, 0, 2, 1}},
			Intercept: []float64{-2},
		},
	}
}

// NetworkDoc flags SYN-error heavy connections with a low same-service
// rate as anomalies at 0.9.
func NetworkDoc() ml.ArtifactDoc {
	return ml.ArtifactDoc{
		Format: ml.ArtifactFormat,
		Family: string(ml.Network),
		Preprocessor: &ml.PreprocessorDoc{Transformers: []ml.TransformerDoc{
			{Name: "cat", Type: ml.TransformerOneHot,
				Columns:    []string{"protocol_type", "service", "flag"},
				Categories: [][]string{{"icmp", "tcp", "udp"}, {"http", "private"}, {"S0", "SF"}}},
			{Name: "num", Type: ml.TransformerStandardScaler,
				Columns: []string{"serror_rate", "same_srv_rate"}, Mean: []float64{0, 0}, Scale: []float64{1, 1}},
		}},
		Estimator: ml.EstimatorDoc{
			Type:      ml.EstimatorRandomForest,
			Classes:   []string{"0", "1"},
			NFeatures: 9,
			Trees: []ml.DecisionTree{{
				ChildrenLeft:  []int{1, -1, 3, -1, -1},
				ChildrenRight: []int{2, -1, 4, -1, -1},
				Feature:       []int{7, -2, 8, -2, -2},
				Threshold:     []float64{0.5, -2, 0.5, -2, -2},
				Value:         [][]float64{{0, 0}, {9, 1}, {0, 0}, {1, 9}, {6, 4}},
			}},
		},
	}
}

// ZeroDayDoc is a three-class threat-level model driven by the anomaly
// score.
func ZeroDayDoc() ml.ArtifactDoc {
	return ml.ArtifactDoc{
		Format: ml.ArtifactFormat,
		Family: string(ml.ZeroDay),
		Preprocessor: &ml.PreprocessorDoc{Transformers: []ml.TransformerDoc{
			{Name: "cat", Type: ml.TransformerOneHot, Columns: []string{"protocol"}, Categories: [][]string{{"tcp", "udp"}}},
			{Name: "num", Type: ml.TransformerStandardScaler, Columns: []string{"anomaly score"}, Mean: []float64{0.5}, Scale: []float64{0.1}},
		}},
		Estimator: ml.EstimatorDoc{
			Type:      ml.EstimatorLogisticRegression,
			Classes:   []string{"High", "Low", "Medium"},
			Coef:      [][]float64{{0, 0, 1}, {0, 0, -1}, {0, 0, 0}},
			Intercept: []float64{0, 0, 0.5},
		},
	}
}

func writeJSON(t testing.TB, path string, v any) {
	t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}
