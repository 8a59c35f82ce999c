package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prediction outcomes.
const (
	OutcomeOK               = "ok"
	OutcomeModelUnavailable = "model_unavailable"
	OutcomeExtractionFailed = "feature_extraction_failed"
	OutcomeInferenceFailed  = "inference_failed"
)

// Prediction cache lookup results.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Inference tracks model loading, predictions and assessments. A nil
// *Inference is valid and records nothing.
type Inference struct {
	predictions  *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	modelsLoaded *prometheus.GaugeVec
	assessments  *prometheus.CounterVec
	cache        *prometheus.CounterVec
}

func NewInference(reg prometheus.Registerer) *Inference {
	return &Inference{
		predictions: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "predictions_total",
			Help:      "Predictions by model family and outcome.",
		}, []string{"family", "outcome"})),
		duration: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "duration_seconds",
			Help:      "Time spent in extraction and model evaluation.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5},
		}, []string{"family"})),
		modelsLoaded: register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "model_loaded",
			Help:      "1 when the family's artifact loaded, 0 otherwise.",
		}, []string{"family"})),
		assessments: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "assessments_total",
			Help:      "Risk assessments by incident category and severity.",
		}, []string{"category", "severity"})),
		cache: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inference",
			Name:      "cache_requests_total",
			Help:      "Prediction cache lookups by result.",
		}, []string{"result"})),
	}
}

func (m *Inference) ObservePrediction(family, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(family, outcome).Inc()
	m.duration.WithLabelValues(family).Observe(d.Seconds())
}

func (m *Inference) SetModelLoaded(family string, loaded bool) {
	if m == nil {
		return
	}
	v := 0.0
	if loaded {
		v = 1
	}
	m.modelsLoaded.WithLabelValues(family).Set(v)
}

func (m *Inference) ObserveAssessment(category, severity string) {
	if m == nil {
		return
	}
	if category == "" {
		category = "none"
	}
	m.assessments.WithLabelValues(category, severity).Inc()
}

func (m *Inference) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cache.WithLabelValues(result).Inc()
}
