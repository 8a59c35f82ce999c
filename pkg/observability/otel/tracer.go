//go:build !otelotlp

package otelobs

import (
	"context"

	"rakshak/pkg/structlog"
)

// InitTracer is a no-op by default to keep builds free of exporter deps.
func InitTracer(_ TracerConfig, _ *structlog.Logger) func(context.Context) error {
	return func(context.Context) error { return nil }
}
