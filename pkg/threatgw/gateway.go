// Package threatgw is the single call surface of the inference stack: it
// routes an incident to the models its category names, then scores the
// findings.
package threatgw

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rakshak/pkg/inference"
	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
	"rakshak/pkg/risk"
	"rakshak/pkg/structlog"
)

// ErrNoAdapter means the dispatch table names a family nobody can predict.
// It is a wiring bug, never a model failure.
var ErrNoAdapter = errors.New("no adapter for family")

var assessmentNamespace = uuid.MustParse("3b0e6c5a-52d4-4f8e-9c1d-7a2f5e9b8d40")

// Incident is the free-form part of an analysis request. Telemetry carries
// the structured record for families that need one; unknown keys are
// ignored.
type Incident struct {
	Title        string         `json:"title,omitempty"`
	Description  string         `json:"description,omitempty"`
	EvidenceText string         `json:"evidence_text,omitempty"`
	EvidenceURL  string         `json:"evidence_url,omitempty"`
	Telemetry    map[string]any `json:"telemetry,omitempty"`
}

func (in Incident) text() string {
	return strings.Join([]string{in.Title, in.Description, in.EvidenceText}, "\n")
}

// Predictor is the part of an inference adapter the gateway uses.
type Predictor interface {
	PredictFields(ctx context.Context, fields map[string]any) inference.PredictionResult
}

// DefaultDispatch routes each family's own category to its model. Other
// categories run heuristics only.
func DefaultDispatch() map[string][]ml.Family {
	out := make(map[string][]ml.Family)
	for _, f := range ml.Families() {
		out[string(f)] = []ml.Family{f}
	}
	return out
}

type Gateway struct {
	registry   *ml.Registry
	predictors map[ml.Family]Predictor
	dispatch   map[string][]ml.Family
	aggregator *risk.Aggregator
	log        *structlog.Logger
	metrics    *metrics.Inference
	tracer     trace.Tracer
	known      map[string]bool

	adapterOpts []inference.AdapterOption
	overrides   map[ml.Family]Predictor
}

type Option func(*Gateway)

func WithLogger(l *structlog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.log = l
		}
	}
}

func WithMetrics(m *metrics.Inference) Option { return func(g *Gateway) { g.metrics = m } }

func WithAggregator(a *risk.Aggregator) Option {
	return func(g *Gateway) {
		if a != nil {
			g.aggregator = a
		}
	}
}

// WithDispatch replaces the category routing table. Keys are matched
// case-insensitively.
func WithDispatch(d map[string][]ml.Family) Option {
	return func(g *Gateway) {
		g.dispatch = make(map[string][]ml.Family, len(d))
		for k, v := range d {
			g.dispatch[normalizeCategory(k)] = append([]ml.Family(nil), v...)
		}
	}
}

// WithAdapterOptions is applied to every adapter the gateway builds.
func WithAdapterOptions(opts ...inference.AdapterOption) Option {
	return func(g *Gateway) { g.adapterOpts = append(g.adapterOpts, opts...) }
}

// WithPredictor replaces the adapter for one family.
func WithPredictor(f ml.Family, p Predictor) Option {
	return func(g *Gateway) { g.overrides[f] = p }
}

func New(reg *ml.Registry, opts ...Option) *Gateway {
	agg, err := risk.NewAggregator(risk.DefaultPolicy())
	if err != nil {
		panic(err)
	}
	g := &Gateway{
		registry:   reg,
		dispatch:   DefaultDispatch(),
		aggregator: agg,
		log:        structlog.Nop(),
		tracer:     otel.Tracer("rakshak/threatgw"),
		overrides:  make(map[ml.Family]Predictor),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.registry == nil {
		g.registry = ml.NewRegistry()
	}
	g.log = g.log.WithFields(structlog.Fields{"component": "gateway"})

	base := []inference.AdapterOption{inference.WithLogger(g.log), inference.WithMetrics(g.metrics)}
	g.predictors = make(map[ml.Family]Predictor)
	for f, a := range inference.NewAdapters(g.registry, append(base, g.adapterOpts...)...) {
		g.predictors[f] = a
	}
	for f, p := range g.overrides {
		g.predictors[f] = p
	}

	g.known = make(map[string]bool)
	for c := range g.dispatch {
		g.known[c] = true
	}
	for c := range g.aggregator.Policy().CategoryTiers {
		g.known[normalizeCategory(c)] = true
	}
	return g
}

func (g *Gateway) Registry() *ml.Registry { return g.registry }

// Analyze runs every model the category routes to and scores the results.
// Model problems never fail the call; the only error is ErrNoAdapter.
func (g *Gateway) Analyze(ctx context.Context, category string, in Incident) (*risk.Assessment, error) {
	cat := normalizeCategory(category)
	ctx, span := g.tracer.Start(ctx, "threatgw.Analyze",
		trace.WithAttributes(attribute.String("rakshak.category", cat)))
	defer span.End()

	families := g.dispatch[cat]
	for _, f := range families {
		if _, ok := g.predictors[f]; !ok {
			err := fmt.Errorf("%w: %s (category %q)", ErrNoAdapter, f, cat)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}

	start := time.Now()
	findings := make([]inference.PredictionResult, 0, len(families))
	for _, f := range families {
		findings = append(findings, g.predictors[f].PredictFields(ctx, fieldsFor(f, in)))
	}

	a := g.aggregator.Assess(cat, in.text(), findings)
	a.ID = assessmentID(cat, in)

	span.SetAttributes(
		attribute.String("rakshak.severity", a.Severity.String()),
		attribute.Float64("rakshak.risk_score", a.RiskScore),
	)
	g.metrics.ObserveAssessment(g.metricCategory(cat), a.Severity.String())

	log := g.log.WithContext(ctx)
	fields := structlog.Fields{
		"assessment_id": a.ID,
		"category":      cat,
		"risk_score":    a.RiskScore,
		"severity":      a.Severity.String(),
		"findings":      len(a.Findings),
		"duration_ms":   time.Since(start).Milliseconds(),
	}
	if a.Severity == risk.TierCritical {
		log.SecurityEvent("critical_assessment", fields)
	} else {
		log.Info("assessment complete", fields)
	}
	return &a, nil
}

// Predict runs one family's adapter on a raw record.
func (g *Gateway) Predict(ctx context.Context, f ml.Family, fields map[string]any) (inference.PredictionResult, error) {
	p, ok := g.predictors[f]
	if !ok {
		return inference.PredictionResult{}, fmt.Errorf("%w: %s", ErrNoAdapter, f)
	}
	return p.PredictFields(ctx, fields), nil
}

func (g *Gateway) metricCategory(cat string) string {
	if g.known[cat] {
		return cat
	}
	if cat == "" {
		return ""
	}
	return "other"
}

// normalizeCategory lowercases and trims, and maps family aliases such as
// "networking" onto the canonical family name.
func normalizeCategory(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	if f, err := ml.ParseFamily(c); err == nil {
		return string(f)
	}
	return c
}

// fieldsFor builds the raw record for f. Phishing is filled from the
// incident's own text where telemetry leaves a field empty.
func fieldsFor(f ml.Family, in Incident) map[string]any {
	out := make(map[string]any, len(in.Telemetry)+3)
	for k, v := range in.Telemetry {
		out[k] = v
	}
	if f != ml.Phishing {
		return out
	}
	fill := func(key, val string) {
		if v, ok := out[key]; ok && v != nil && v != "" {
			return
		}
		out[key] = val
	}
	fill("subject", in.Title)
	fill("body", strings.TrimSpace(in.Description+" "+in.EvidenceText))
	fill("url", in.EvidenceURL)
	return out
}

// assessmentID is a name-based UUID of the canonical request, so identical
// requests get identical ids.
func assessmentID(cat string, in Incident) string {
	canon, err := json.Marshal(struct {
		Category string   `json:"category"`
		Incident Incident `json:"incident"`
	}{cat, in})
	if err != nil {
		canon = []byte(fmt.Sprintf("%s|%#v", cat, in))
	}
	return uuid.NewSHA1(assessmentNamespace, canon).String()
}
