// Package otelobs wires OpenTelemetry tracing. The default build is a
// no-op; build with -tags otelotlp to export spans over OTLP/HTTP.
package otelobs

// TracerConfig selects the exporter endpoint and sampling.
type TracerConfig struct {
	ServiceName string
	// Endpoint empty disables export even in otelotlp builds.
	Endpoint     string
	SamplingRate float64
}
