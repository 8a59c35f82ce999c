package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rakshak/pkg/ml"
	"rakshak/pkg/risk"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rakshak.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RAKSHAK_CONFIG", "")
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8088", cfg.ListenAddr)
	assert.Equal(t, "./models", cfg.ModelsRoot)
	assert.Equal(t, 10*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 50.0, cfg.RateLimit.RPS)
	assert.Equal(t, 100, cfg.RateLimit.Burst)
	assert.Equal(t, risk.DefaultPolicy(), cfg.Risk)

	layout, err := cfg.ArtifactLayout()
	require.NoError(t, err)
	assert.Equal(t, ml.DefaultLayout(), layout)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":9000"
models_root: /srv/models
redis:
  addr: redis:6379
  cache_ttl: 30s
layout:
  - family: networking
    dir: net
    model: kdd_forest.json
zero_day_negative_classes: [Low, Benign]
risk:
  model_weight: 0.6
  tier_floors:
    Critical: 0.95
`)
	t.Setenv("RAKSHAK_CONFIG", path)
	t.Setenv("RAKSHAK_LISTEN_ADDR", ":9100")
	t.Setenv("RAKSHAK_RATE_LIMIT_RPS", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9100", cfg.ListenAddr)
	assert.Equal(t, "/srv/models", cfg.ModelsRoot)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, []string{"Low", "Benign"}, cfg.ZeroDayNegativeClasses)

	assert.Equal(t, 0.6, cfg.Risk.ModelWeight)
	assert.Equal(t, 0.95, cfg.Risk.TierFloors[risk.TierCritical])
	assert.Equal(t, 0.7, cfg.Risk.TierFloors[risk.TierHigh], "unset floors keep defaults")
	assert.Equal(t, risk.DefaultPolicy().CriticalKeywords, cfg.Risk.CriticalKeywords)

	layout, err := cfg.ArtifactLayout()
	require.NoError(t, err)
	for _, s := range layout {
		if s.Family == ml.Network {
			assert.Equal(t, ml.ArtifactSpec{Family: ml.Network, Dir: "net", Model: "kdd_forest.json"}, s)
		}
	}
	assert.Len(t, layout, len(ml.DefaultLayout()))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{name: "bad ttl", env: map[string]string{"RAKSHAK_CACHE_TTL": "soon"}},
		{name: "bad rps", env: map[string]string{"RAKSHAK_RATE_LIMIT_RPS": "fast"}},
		{name: "zero burst", env: map[string]string{"RAKSHAK_RATE_LIMIT_BURST": "0"}},
		{name: "unknown family", file: "layout:\n  - family: fraud\n    dir: x\n    model: y.json\n"},
		{name: "bad policy", file: "risk:\n  monitor_threshold: 0.9\n"},
		{name: "nan floor", file: "risk:\n  tier_floors:\n    High: .nan\n"},
		{name: "nan weight", file: "risk:\n  model_weight: .nan\n"},
		{name: "bad tier", file: "risk:\n  category_tiers:\n    fraud: Severe\n"},
		{name: "invalid yaml", file: "listen_addr: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RAKSHAK_CONFIG", "")
			if tt.file != "" {
				t.Setenv("RAKSHAK_CONFIG", writeConfig(t, tt.file))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("RAKSHAK_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}
