package inference

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rakshak/pkg/features"
	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
	"rakshak/pkg/structlog"
)

const probabilityTolerance = 1e-6

// Adapter produces PredictionResults for one family. It is safe for
// concurrent use.
type Adapter struct {
	profile    Profile
	profileKey string
	registry   *ml.Registry
	cache      Cache
	log        *structlog.Logger
	metrics    *metrics.Inference
	tracer     trace.Tracer
}

type AdapterOption func(*Adapter)

func WithCache(c Cache) AdapterOption {
	return func(a *Adapter) {
		if c != nil {
			a.cache = c
		}
	}
}

func WithLogger(l *structlog.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

func WithMetrics(m *metrics.Inference) AdapterOption { return func(a *Adapter) { a.metrics = m } }

// WithNegativeClasses overrides the benign class names of a multi-class
// profile.
func WithNegativeClasses(classes []string) AdapterOption {
	return func(a *Adapter) {
		if a.profile.MultiClass && len(classes) > 0 {
			a.profile.NegativeClasses = append([]string(nil), classes...)
		}
	}
}

func NewAdapter(reg *ml.Registry, profile Profile, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		profile:  profile,
		registry: reg,
		cache:    NopCache{},
		log:      structlog.Nop(),
		tracer:   otel.Tracer("rakshak/inference"),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.profileKey = a.profile.fingerprint()
	a.log = a.log.WithFields(structlog.Fields{"component": "inference", "family": string(profile.Family)})
	return a
}

// NewAdapters builds an adapter for every default profile.
func NewAdapters(reg *ml.Registry, opts ...AdapterOption) map[ml.Family]*Adapter {
	out := make(map[ml.Family]*Adapter)
	for _, p := range DefaultProfiles() {
		out[p.Family] = NewAdapter(reg, p, opts...)
	}
	return out
}

func (a *Adapter) Family() ml.Family { return a.profile.Family }

// PredictFields decodes fields into the family's input, applying defaults,
// and predicts.
func (a *Adapter) PredictFields(ctx context.Context, fields map[string]any) PredictionResult {
	in, err := features.Decode(string(a.profile.Family), fields)
	if err != nil {
		return a.finish(ctx, time.Now(), failed(a.profile.Family, KindFeatureExtraction, fmt.Errorf("%w: %w", ErrFeatureExtraction, err)))
	}
	return a.Predict(ctx, in)
}

// Predict runs the family's model on in. It never panics and never returns
// a Go error; failures are reported in the result.
func (a *Adapter) Predict(ctx context.Context, in features.RawInput) PredictionResult {
	start := time.Now()
	ctx, span := a.tracer.Start(ctx, "inference.Predict",
		trace.WithAttributes(attribute.String("rakshak.family", string(a.profile.Family))))
	defer span.End()
	return a.finish(ctx, start, a.predict(ctx, in))
}

func (a *Adapter) predict(ctx context.Context, in features.RawInput) PredictionResult {
	family := a.profile.Family

	entry, err := a.registry.Get(family)
	if err != nil {
		return failed(family, KindModelUnavailable, err)
	}

	if in == nil || in.Kind() != string(family) {
		return failed(family, KindFeatureExtraction, fmt.Errorf("%w: %T is not a %s input", ErrFeatureExtraction, in, family))
	}
	mapping, err := safeExtract(in)
	if err != nil {
		return failed(family, KindFeatureExtraction, fmt.Errorf("%w: %w", ErrFeatureExtraction, err))
	}
	vec := entry.Schema.Project(mapping)

	key := cacheKey(family, entry.Checksum, a.profileKey, vec.Digest())
	res, hit := a.lookup(ctx, key)
	if !hit {
		proba, err := safePredict(entry.Classifier, vec)
		if err != nil {
			return failed(family, KindInference, fmt.Errorf("%w: %w", ErrInference, err))
		}
		res, err = a.interpret(entry, proba)
		if err != nil {
			return failed(family, KindInference, fmt.Errorf("%w: %w", ErrInference, err))
		}
		a.store(ctx, key, res)
	}
	if a.profile.IncludeFeatures {
		res.Features = mapping.Floats()
	}
	return res
}

func (a *Adapter) finish(ctx context.Context, start time.Time, res PredictionResult) PredictionResult {
	span := trace.SpanFromContext(ctx)
	outcome := res.outcome()
	span.SetAttributes(attribute.String("rakshak.outcome", outcome))
	log := a.log.WithContext(ctx)
	if res.Failed() {
		span.SetStatus(codes.Error, res.Error)
		log.Warn("prediction failed", structlog.Fields{"error_kind": string(res.ErrorKind), "error": res.Error})
	} else if log.Enabled(structlog.LevelDebug) {
		log.Debug("prediction", structlog.Fields{"label": res.Label, "confidence": res.Confidence})
	}
	a.metrics.ObservePrediction(string(a.profile.Family), outcome, time.Since(start))
	return res
}

// interpret turns a probability row into a labeled result.
func (a *Adapter) interpret(entry ml.Entry, proba []float64) (PredictionResult, error) {
	classes := entry.Classifier.Classes()
	if len(proba) == 0 || len(proba) != len(classes) {
		return PredictionResult{}, fmt.Errorf("model returned %d probabilities for %d classes", len(proba), len(classes))
	}
	for i, p := range proba {
		if math.IsNaN(p) || p < -probabilityTolerance || p > 1+probabilityTolerance {
			return PredictionResult{}, fmt.Errorf("probability %v for class %q out of range", p, classes[i])
		}
	}
	if a.profile.MultiClass {
		return a.interpretMultiClass(classes, proba), nil
	}
	return a.interpretBinary(entry.PositiveClass, classes, proba), nil
}

func (a *Adapter) interpretBinary(positive string, classes []string, proba []float64) PredictionResult {
	if positive == "" {
		positive = DefaultPositiveClass
	}
	var p float64
	if len(classes) == 1 {
		// a one-column output only describes the class the model saw in training
		if classes[0] == positive {
			p = proba[0]
		} else {
			p = 1 - proba[0]
		}
	} else {
		idx := indexOf(classes, positive)
		if idx < 0 {
			idx = 1
		}
		p = proba[idx]
	}
	conf := Round4(clamp01(p))
	res := PredictionResult{
		Family:     a.profile.Family,
		Label:      a.profile.NegativeLabel,
		Confidence: conf,
		Probabilities: map[string]float64{
			a.profile.PositiveLabel: conf,
			a.profile.NegativeLabel: Round4(1 - conf),
		},
	}
	if conf >= 0.5 {
		res.Label = a.profile.PositiveLabel
		res.Positive = true
	}
	return res
}

func (a *Adapter) interpretMultiClass(classes []string, proba []float64) PredictionResult {
	best := 0
	for i := 1; i < len(proba); i++ {
		if proba[i] > proba[best] {
			best = i
		}
	}
	probs := make(map[string]float64, len(classes))
	for i, c := range classes {
		probs[c] = Round4(clamp01(proba[i]))
	}
	label := classes[best]
	return PredictionResult{
		Family:        a.profile.Family,
		Label:         label,
		Confidence:    probs[label],
		Positive:      !a.profile.isNegativeClass(label),
		Probabilities: probs,
	}
}

func safeExtract(in features.RawInput) (m features.Mapping, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return in.Extract()
}

func safePredict(clf ml.Classifier, vec ml.FeatureVector) (p []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("classifier panic: %v", r)
		}
	}()
	return clf.PredictProba(vec)
}

func clamp01(p float64) float64 {
	return math.Max(0, math.Min(1, p))
}

func indexOf(list []string, s string) int {
	for i, v := range list {
		if v == s {
			return i
		}
	}
	return -1
}

// SortedClasses returns the probability map's keys by descending
// probability, ties broken by name.
func SortedClasses(probs map[string]float64) []string {
	out := make([]string, 0, len(probs))
	for k := range probs {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if probs[out[i]] != probs[out[j]] {
			return probs[out[i]] > probs[out[j]]
		}
		return out[i] < out[j]
	})
	return out
}
