package threatgw

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rakshak/pkg/inference"
	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
	"rakshak/pkg/ml/mltest"
	"rakshak/pkg/risk"
	"rakshak/pkg/structlog"
)

func adviceFor(t *testing.T, name string) string {
	t.Helper()
	for _, r := range risk.DefaultRules() {
		if r.Name == name {
			return r.Advice
		}
	}
	t.Fatalf("no rule %q", name)
	return ""
}

func TestAnalyze_RansomwareKeywordWithoutModel(t *testing.T) {
	g := New(mltest.Registry(t, ml.Phishing))

	a, err := g.Analyze(context.Background(), "ransomware", Incident{
		Title:       "File server encrypted",
		Description: "Shares were encrypted by ransomware overnight",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.9, a.RiskScore)
	assert.Equal(t, risk.TierCritical, a.Severity)
	require.Len(t, a.Findings, 1)
	assert.Equal(t, ml.Ransomware, a.Findings[0].Family)
	assert.Equal(t, inference.KindModelUnavailable, a.Findings[0].ErrorKind)
	assert.Empty(t, a.Findings[0].Label)
	assert.Contains(t, a.Recommendations, adviceFor(t, "ransomware_playbook"))
	assert.Contains(t, a.Recommendations, adviceFor(t, "law_enforcement"))
}

func TestAnalyze_PhishingOnly(t *testing.T) {
	g := New(mltest.Registry(t, ml.Phishing))

	a, err := g.Analyze(context.Background(), "Phishing", Incident{
		Title:       "Account verification",
		EvidenceURL: "http://secure-login-account-verification.com",
	})
	require.NoError(t, err)

	require.Len(t, a.Findings, 1)
	f := a.Findings[0]
	assert.Equal(t, ml.Phishing, f.Family)
	assert.Equal(t, "phishing", f.Label)
	assert.Equal(t, 0.6, f.Confidence)
	assert.Equal(t, 1.0, f.Features["contains_login"])
	assert.Equal(t, 0.0, f.Features["has_https"])
	assert.Equal(t, inference.Round4(0.5*f.Confidence), a.RiskScore)
	assert.Equal(t, risk.TierMedium, a.Severity)
	assert.Equal(t, "phishing", a.Category)
}

func TestAnalyze_NetworkAnomaly(t *testing.T) {
	g := New(mltest.Registry(t, ml.Network))

	a, err := g.Analyze(context.Background(), "networking", Incident{
		Telemetry: map[string]any{"serror_rate": 1.0, "same_srv_rate": 0.05, "flag": "S0"},
	})
	require.NoError(t, err)

	assert.Equal(t, "network-intrusion", a.Category)
	require.Len(t, a.Findings, 1)
	assert.Equal(t, "anomaly", a.Findings[0].Label)
	assert.Greater(t, a.Findings[0].Confidence, 0.5)
	assert.Contains(t, a.Recommendations, adviceFor(t, "network_block"))
}

func TestAnalyze_CategoryWithoutAdapter(t *testing.T) {
	g := New(mltest.Registry(t, ml.Families()...))

	a, err := g.Analyze(context.Background(), "fraud", Incident{Description: "caller asked for gift cards"})
	require.NoError(t, err)
	assert.Empty(t, a.Findings)
	assert.NotNil(t, a.Findings)
	assert.Equal(t, 0.0, a.RiskScore)
	assert.Empty(t, a.Recommendations)
	assert.Equal(t, risk.TierLow, a.Severity)
}

func TestAnalyze_EmptyRegistryNeverFails(t *testing.T) {
	g := New(ml.NewRegistry())
	cats := []string{"phishing", "malware", "ransomware", "network-intrusion", "zero-day", "fraud", "", "  OPSEC "}
	for _, c := range cats {
		a, err := g.Analyze(context.Background(), c, Incident{Telemetry: map[string]any{"nvcsw": "not a number"}})
		require.NoError(t, err, c)
		for _, f := range a.Findings {
			assert.True(t, f.Failed())
		}
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	g := New(mltest.Registry(t, ml.Families()...))
	in := Incident{
		Title:        "Suspicious beacon",
		Description:  "Possible APT activity after a confidential document leak",
		EvidenceText: "see attached pcap",
		Telemetry:    map[string]any{"anomaly score": 0.93, "protocol": "tcp"},
	}

	first, err := g.Analyze(context.Background(), "zero-day", in)
	require.NoError(t, err)
	second, err := g.Analyze(context.Background(), "zero-day", in)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated analysis differs (-first +second):\n%s", diff)
	}
	assert.NotEmpty(t, first.ID)

	other, err := g.Analyze(context.Background(), "zero-day", Incident{Title: "Suspicious beacon"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestAnalyze_ConcurrentCalls(t *testing.T) {
	g := New(mltest.Registry(t, ml.Families()...))
	want, err := g.Analyze(context.Background(), "malware", Incident{Telemetry: map[string]any{"nvcsw": 5000}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := g.Analyze(context.Background(), "malware", Incident{Telemetry: map[string]any{"nvcsw": 5000}})
			assert.NoError(t, err)
			assert.True(t, cmp.Equal(want, got))
		}()
	}
	wg.Wait()
}

func TestAnalyze_DispatchToMissingAdapter(t *testing.T) {
	g := New(ml.NewRegistry(), WithDispatch(map[string][]ml.Family{"Fraud": {"credit-card"}}))

	_, err := g.Analyze(context.Background(), "fraud", Incident{})
	assert.ErrorIs(t, err, ErrNoAdapter)

	_, err = g.Predict(context.Background(), "credit-card", nil)
	assert.ErrorIs(t, err, ErrNoAdapter)
}

type recordingPredictor struct {
	mu     sync.Mutex
	fields []map[string]any
}

func (p *recordingPredictor) PredictFields(_ context.Context, fields map[string]any) inference.PredictionResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fields = append(p.fields, fields)
	return inference.PredictionResult{Family: ml.Phishing, Label: "phishing", Confidence: 1, Positive: true}
}

func TestAnalyze_PhishingFieldsFromIncident(t *testing.T) {
	rec := &recordingPredictor{}
	g := New(ml.NewRegistry(), WithPredictor(ml.Phishing, rec))

	in := Incident{
		Title:        "Reset your password",
		Description:  "Mail asks to log in",
		EvidenceText: "From: it-support@example.org",
		EvidenceURL:  "http://example.org/reset",
		Telemetry:    map[string]any{"url": "http://override.example/login", "subject": ""},
	}
	a, err := g.Analyze(context.Background(), "phishing", in)
	require.NoError(t, err)
	assert.Equal(t, 0.5, a.RiskScore)

	require.Len(t, rec.fields, 1)
	assert.Equal(t, map[string]any{
		"subject": "Reset your password",
		"body":    "Mail asks to log in From: it-support@example.org",
		"url":     "http://override.example/login",
	}, rec.fields[0])
	assert.Equal(t, "", in.Telemetry["subject"], "incident telemetry must not be mutated")
}

func TestAnalyze_MetricsAndSecurityLog(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	g := New(ml.NewRegistry(),
		WithMetrics(metrics.NewInference(reg)),
		WithLogger(structlog.NewLogger("test", structlog.LevelInfo, &logs)),
	)

	_, err := g.Analyze(context.Background(), "espionage", Incident{Description: "nation-state actor"})
	require.NoError(t, err)
	_, err = g.Analyze(context.Background(), "made-up-category-1", Incident{})
	require.NoError(t, err)
	_, err = g.Analyze(context.Background(), "made-up-category-2", Incident{})
	require.NoError(t, err)

	n, err := testutil.GatherAndCount(reg, "rakshak_gateway_assessments_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "unknown categories share one label")
	assert.Contains(t, logs.String(), "SECURITY: critical_assessment")
	assert.Contains(t, logs.String(), "assessment complete")
}

func TestAnalyze_CustomAggregator(t *testing.T) {
	p := risk.DefaultPolicy()
	p.CriticalKeywords = []string{"wiper"}
	agg, err := risk.NewAggregator(p)
	require.NoError(t, err)

	g := New(ml.NewRegistry(), WithAggregator(agg))
	a, err := g.Analyze(context.Background(), "fraud", Incident{EvidenceText: "a WIPER was found"})
	require.NoError(t, err)
	assert.Equal(t, []string{"wiper"}, a.MatchedKeywords)
	assert.Equal(t, risk.TierCritical, a.Severity)
}
