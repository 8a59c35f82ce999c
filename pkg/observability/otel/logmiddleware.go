package otelobs

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"rakshak/pkg/structlog"
)

// AccessLog writes one structured line per request carrying the trace and
// correlation ids, and echoes the trace ids as Trace-Id and Span-Id
// response headers.
func AccessLog(log *structlog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			traceID, spanID := "-", "-"
			if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
				traceID = sc.TraceID().String()
				spanID = sc.SpanID().String()
				w.Header().Set("Trace-Id", traceID)
				w.Header().Set("Span-Id", spanID)
			}
			sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sr, r)
			log.WithContext(r.Context()).Info("access", structlog.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   sr.status,
				"dur_ms":   time.Since(start).Milliseconds(),
				"trace_id": traceID,
				"span_id":  spanID,
			})
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}
