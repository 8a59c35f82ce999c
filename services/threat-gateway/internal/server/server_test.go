package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
	"rakshak/pkg/ml/mltest"
	"rakshak/pkg/threatgw"
)

func newTestServer(t *testing.T, reg *ml.Registry, opts Options) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(threatgw.New(reg), opts).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestAnalyze(t *testing.T) {
	ts := newTestServer(t, mltest.Registry(t, ml.Phishing), Options{})

	resp, out := post(t, ts.URL+"/analyze", `{"category":"phishing","title":"verify now",
		"evidence_url":"http://secure-login-account-verification.com","unknown":true}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "phishing", out["category"])
	assert.Equal(t, 0.3, out["risk_score"])
	assert.Equal(t, "Medium", out["severity"])
	findings := out["findings"].([]any)
	require.Len(t, findings, 1)
	assert.Equal(t, "phishing", findings[0].(map[string]any)["label"])
	assert.NotEmpty(t, resp.Header.Get(correlationIDHeader))
}

func TestAnalyze_BadJSON(t *testing.T) {
	ts := newTestServer(t, ml.NewRegistry(), Options{})
	resp, out := post(t, ts.URL+"/analyze", `{"category":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, out["error"], "invalid JSON")
}

type panicClassifier struct{}

func (panicClassifier) Classes() []string { return []string{"0", "1"} }
func (panicClassifier) PredictProba(ml.FeatureVector) ([]float64, error) {
	panic("shape mismatch")
}

func TestPredict_StatusCodes(t *testing.T) {
	schema, err := ml.NumericSchema([]string{"DllCharacteristics"})
	require.NoError(t, err)
	reg := mltest.Registry(t, ml.Network, ml.Malware)
	entries := []ml.Entry{ml.NewEntry(ml.Ransomware, panicClassifier{}, schema)}
	for _, f := range []ml.Family{ml.Network, ml.Malware} {
		e, err := reg.Get(f)
		require.NoError(t, err)
		entries = append(entries, e)
	}
	ts := newTestServer(t, ml.NewRegistry(entries...), Options{})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		label  string
	}{
		{"network anomaly", "/predict/networking", `{"serror_rate":1.0,"same_srv_rate":0.05}`, http.StatusOK, "anomaly"},
		{"empty body uses defaults", "/predict/malware", ``, http.StatusOK, "benign"},
		{"unknown family", "/predict/fraud", `{}`, http.StatusNotFound, ""},
		{"model unavailable", "/predict/phishing", `{"url":"http://x"}`, http.StatusServiceUnavailable, ""},
		{"extraction failure", "/predict/malware", `{"nvcsw":"many"}`, http.StatusBadRequest, ""},
		{"inference failure", "/predict/ransomware", `{}`, http.StatusUnprocessableEntity, ""},
		{"bad JSON", "/predict/malware", `[1,`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, out := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			if tt.label != "" {
				assert.Equal(t, tt.label, out["label"])
			}
			if tt.status != http.StatusOK {
				assert.NotEmpty(t, out["error"])
			}
		})
	}
}

func TestModelsAndHealth(t *testing.T) {
	ts := newTestServer(t, mltest.Registry(t, ml.Phishing), Options{})

	resp, err := http.Get(ts.URL + "/models")
	require.NoError(t, err)
	defer resp.Body.Close()
	var models struct {
		Models []ml.Status `json:"models"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&models))
	require.Len(t, models.Models, 1)
	assert.True(t, models.Models[0].Loaded)
	assert.Equal(t, ml.Phishing, models.Models[0].Family)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "degraded", health["status"])
	assert.Equal(t, 1.0, health["models_loaded"])
	assert.Equal(t, 5.0, health["models_total"])
}

func TestMetricsEndpoint(t *testing.T) {
	reg := metrics.NewRegistry()
	ts := newTestServer(t, ml.NewRegistry(), Options{Metrics: reg, ServiceName: "tg"})

	post(t, ts.URL+"/predict/malware", `{}`)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `rakshak_http_requests_total{code="503",method="POST",path="/predict/{family}",service="tg"} 1`)
}

func TestCorrelationIDEchoed(t *testing.T) {
	ts := newTestServer(t, ml.NewRegistry(), Options{})
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(correlationIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(correlationIDHeader))
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, ml.NewRegistry(), Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestClientLimiter_PerClientBuckets(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newClientLimiter(1, 2)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		ok, _ := l.reserve("10.0.0.1")
		assert.True(t, ok)
	}
	ok, wait := l.reserve("10.0.0.1")
	assert.False(t, ok)
	assert.Equal(t, time.Second, wait)

	ok, _ = l.reserve("10.0.0.2")
	assert.True(t, ok, "other clients have their own bucket")

	now = now.Add(time.Second)
	ok, _ = l.reserve("10.0.0.1")
	assert.True(t, ok)

	now = now.Add(idleClientTTL + time.Minute)
	l.mu.Lock()
	l.sweepLocked(now)
	n := len(l.clients)
	l.mu.Unlock()
	assert.Zero(t, n)
}
