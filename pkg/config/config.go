// Package config loads service settings from an optional YAML file and the
// environment. Environment variables win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"rakshak/pkg/ml"
	"rakshak/pkg/risk"
)

// Get returns an environment variable or default value.
func Get(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type RedisConfig struct {
	// Addr empty disables the prediction cache.
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type RateLimitConfig struct {
	// RPS <= 0 disables limiting.
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type TracingConfig struct {
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

type Config struct {
	ServiceName string          `yaml:"service_name"`
	ListenAddr  string          `yaml:"listen_addr"`
	ModelsRoot  string          `yaml:"models_root"`
	LogLevel    string          `yaml:"log_level"`
	Redis       RedisConfig     `yaml:"redis"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Tracing     TracingConfig   `yaml:"tracing"`
	// Layout entries replace the default entry of the same family.
	Layout                 []ml.ArtifactSpec `yaml:"layout"`
	ZeroDayNegativeClasses []string          `yaml:"zero_day_negative_classes"`
	Risk                   risk.Policy       `yaml:"risk"`
}

func Default() *Config {
	return &Config{
		ServiceName: "threat-gateway",
		ListenAddr:  ":8088",
		ModelsRoot:  "./models",
		LogLevel:    "info",
		Redis:       RedisConfig{CacheTTL: 10 * time.Minute},
		RateLimit:   RateLimitConfig{RPS: 50, Burst: 100},
		Tracing:     TracingConfig{SamplingRate: 0.1},
		Risk:        risk.DefaultPolicy(),
	}
}

// Load reads RAKSHAK_CONFIG (when set) over the defaults, then applies the
// environment.
func Load() (*Config, error) {
	cfg := Default()
	if path := Get("RAKSHAK_CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.ServiceName = Get("RAKSHAK_SERVICE_NAME", c.ServiceName)
	c.ListenAddr = Get("RAKSHAK_LISTEN_ADDR", c.ListenAddr)
	c.ModelsRoot = Get("RAKSHAK_MODELS_ROOT", c.ModelsRoot)
	c.LogLevel = Get("RAKSHAK_LOG_LEVEL", c.LogLevel)
	c.Redis.Addr = Get("RAKSHAK_REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = Get("RAKSHAK_REDIS_PASSWORD", c.Redis.Password)
	c.Tracing.Endpoint = Get("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)

	var errs []error
	if v := Get("RAKSHAK_CACHE_TTL", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RAKSHAK_CACHE_TTL: %w", err))
		}
		c.Redis.CacheTTL = d
	}
	if v := Get("RAKSHAK_RATE_LIMIT_RPS", ""); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("RAKSHAK_RATE_LIMIT_RPS: %w", err))
		}
		c.RateLimit.RPS = f
	}
	if v := Get("RAKSHAK_RATE_LIMIT_BURST", ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("RAKSHAK_RATE_LIMIT_BURST: %w", err))
		}
		c.RateLimit.Burst = n
	}
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen_addr is empty"))
	}
	if c.ModelsRoot == "" {
		errs = append(errs, errors.New("models_root is empty"))
	}
	if c.Redis.Addr != "" && c.Redis.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl %s must be positive", c.Redis.CacheTTL))
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst < 1 {
		errs = append(errs, fmt.Errorf("rate_limit burst %d must be at least 1", c.RateLimit.Burst))
	}
	if _, err := c.ArtifactLayout(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Risk.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("risk: %w", err))
	}
	return errors.Join(errs...)
}

// ArtifactLayout is the default layout with the configured entries applied.
func (c *Config) ArtifactLayout() ([]ml.ArtifactSpec, error) {
	layout := ml.DefaultLayout()
	for _, o := range c.Layout {
		f, err := ml.ParseFamily(string(o.Family))
		if err != nil {
			return nil, fmt.Errorf("layout: %w", err)
		}
		if o.Dir == "" || o.Model == "" {
			return nil, fmt.Errorf("layout: %s needs dir and model", f)
		}
		o.Family = f
		for i := range layout {
			if layout[i].Family == f {
				layout[i] = o
			}
		}
	}
	return layout, nil
}
