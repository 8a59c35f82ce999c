//go:build !otelotlp

package otelobs

import "net/http"

// WrapHTTPHandler is a no-op by default. Build with -tags otelotlp to enable tracing.
func WrapHTTPHandler(_ string, h http.Handler) http.Handler { return h }
