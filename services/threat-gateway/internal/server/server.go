// Package server exposes the threat gateway over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"rakshak/pkg/inference"
	"rakshak/pkg/metrics"
	"rakshak/pkg/ml"
	otelobs "rakshak/pkg/observability/otel"
	"rakshak/pkg/structlog"
	"rakshak/pkg/threatgw"
)

const (
	maxBodyBytes        = 1 << 20
	correlationIDHeader = "X-Correlation-ID"
)

type Options struct {
	ServiceName string
	Logger      *structlog.Logger
	// Metrics is served on /metrics. Nil creates a fresh registry.
	Metrics *prometheus.Registry
	// RateLimitRPS <= 0 disables per-client limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

type Server struct {
	gw      *threatgw.Gateway
	log     *structlog.Logger
	handler http.Handler
}

func New(gw *threatgw.Gateway, opts Options) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = "threat-gateway"
	}
	if opts.Logger == nil {
		opts.Logger = structlog.Nop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewRegistry()
	}
	s := &Server{gw: gw, log: opts.Logger.WithFields(structlog.Fields{"component": "http"})}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /analyze", s.handleAnalyze)
	mux.HandleFunc("POST /predict/{family}", s.handlePredict)
	mux.HandleFunc("GET /models", s.handleModels)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler(opts.Metrics))

	h := metrics.NewHTTPMetrics(opts.Metrics, opts.ServiceName).Middleware(mux)
	if opts.RateLimitRPS > 0 {
		h = newClientLimiter(opts.RateLimitRPS, opts.RateLimitBurst).middleware(h)
	}
	h = otelobs.AccessLog(s.log)(h)
	h = withCorrelationID(h)
	s.handler = otelobs.WrapHTTPHandler(opts.ServiceName, h)
	return s
}

func (s *Server) Handler() http.Handler { return s.handler }

func withCorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id := r.Header.Get(correlationIDHeader)
		if id == "" {
			id = structlog.NewCorrelationID()
		}
		ctx = structlog.ContextWithCorrelationID(ctx, id)
		w.Header().Set(correlationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type analyzeRequest struct {
	Category string `json:"category"`
	threatgw.Incident
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	a, err := s.gw.Analyze(r.Context(), req.Category, req.Incident)
	if err != nil {
		s.log.WithContext(r.Context()).Error("analyze failed", structlog.Fields{"error": err, "category": req.Category})
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	family, err := ml.ParseFamily(r.PathValue("family"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	var fields map[string]any
	if err := decodeBody(w, r, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	res, err := s.gw.Predict(r.Context(), family, fields)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, predictStatus(res), res)
}

func predictStatus(res inference.PredictionResult) int {
	switch res.ErrorKind {
	case "":
		return http.StatusOK
	case inference.KindModelUnavailable:
		return http.StatusServiceUnavailable
	case inference.KindFeatureExtraction:
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"models": s.gw.Registry().Status()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	loaded, total := s.gw.Registry().Ready(), len(ml.Families())
	status := "ok"
	if loaded < total {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        status,
		"models_loaded": loaded,
		"models_total":  total,
	})
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
