package structlog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]interface{}
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelFilteringAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger("gw", LevelInfo, &buf).WithFields(Fields{"component": "registry"})

	log.Debug("hidden", nil)
	log.Info("loaded", Fields{"family": "phishing"})
	log.Error("failed", Fields{"error": errors.New("boom")})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "loaded", lines[0]["message"])
	assert.Equal(t, "registry", lines[0]["component"])
	assert.Equal(t, "phishing", lines[0]["family"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "boom", lines[1]["error"])
	assert.Contains(t, lines[1], "caller")
}

func TestLogger_SanitizesSensitiveKeys(t *testing.T) {
	var buf bytes.Buffer
	NewLogger("gw", LevelDebug, &buf).Info("x", Fields{"redis_password": "hunter2", "family": "malware"})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "MASKED", lines[0]["redis_password"])
	assert.Equal(t, "malware", lines[0]["family"])
}

func TestCorrelationID(t *testing.T) {
	ctx, id := GetOrCreateCorrelationID(context.Background())
	require.NotEmpty(t, id)

	ctx2, id2 := GetOrCreateCorrelationID(ctx)
	assert.Equal(t, id, id2)
	assert.Equal(t, ctx, ctx2)

	var buf bytes.Buffer
	NewLogger("gw", LevelInfo, &buf).WithContext(ctx).Info("req", nil)
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, id, lines[0]["correlation_id"])
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"WARN":    LevelWarn,
		" error ": LevelError,
		"":        LevelInfo,
		"verbose": LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNop(t *testing.T) {
	l := Nop()
	assert.False(t, l.Enabled(LevelError))
	l.Error("dropped", nil)
}
