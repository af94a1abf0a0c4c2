package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yanqian/branch-forecast/internal/domain/forecast"
)

// Config aggregates runtime configuration used across the service.
type Config struct {
	HTTP          HTTPConfig        `yaml:"http"`
	Forecast      ForecastConfig    `yaml:"forecast"`
	Branches      []forecast.Branch `yaml:"branches"`
	DefaultBranch string            `yaml:"defaultBranch"`
	Diagnostics   DiagnosticsConfig `yaml:"diagnostics"`
	Chart         ChartConfig       `yaml:"chart"`
}

// HTTPConfig controls server level behavior.
type HTTPConfig struct {
	Address        string        `yaml:"address"`
	ReadTimeout    time.Duration `yaml:"readTimeout"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	AllowedOrigins []string      `yaml:"allowedOrigins"`
}

// ForecastConfig points at the external prediction endpoint.
type ForecastConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	Periods   int           `yaml:"periods"`
	Frequency string        `yaml:"frequency"`
	Timeout   time.Duration `yaml:"timeout"`
}

// DiagnosticsConfig controls where dropped points are recorded.
type DiagnosticsConfig struct {
	AnomalyCapacity int          `yaml:"anomalyCapacity"`
	Valkey          ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig contains connection information for the anomaly log.
type ValkeyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
	Prefix  string `yaml:"prefix"`
}

// ChartConfig sizes rendered PNG charts.
type ChartConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Load reads configuration from .env, a YAML file and environment variables, in that order.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := hydrateFromFile(cfg, path); err != nil {
			return nil, err
		}
	} else if _, err := os.Stat("configs/config.yaml"); err == nil {
		if err := hydrateFromFile(cfg, "configs/config.yaml"); err != nil {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func hydrateFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("FORECAST_ENDPOINT"); v != "" {
		cfg.Forecast.Endpoint = v
	}
	if v := os.Getenv("FORECAST_PERIODS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Forecast.Periods = parsed
		}
	}
	if v := os.Getenv("FORECAST_FREQUENCY"); v != "" {
		cfg.Forecast.Frequency = v
	}
	if v := os.Getenv("FORECAST_TIMEOUT"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			cfg.Forecast.Timeout = parsed
		}
	}
	if v := os.Getenv("DEFAULT_BRANCH"); v != "" {
		cfg.DefaultBranch = v
	}
	if v := os.Getenv("ANOMALY_CAPACITY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			cfg.Diagnostics.AnomalyCapacity = parsed
		}
	}
	if v := os.Getenv("VALKEY_ENABLED"); v != "" {
		cfg.Diagnostics.Valkey.Enabled = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("VALKEY_ADDR"); v != "" {
		cfg.Diagnostics.Valkey.Addr = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   30 * time.Second,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Forecast: ForecastConfig{
			Endpoint:  "http://localhost:8000/api/predict",
			Periods:   30,
			Frequency: string(forecast.Daily),
			Timeout:   15 * time.Second,
		},
		Branches: []forecast.Branch{
			{ID: "Zurich", Name: "Zurich"},
			{ID: "Geneva", Name: "Geneva Lake View"},
			{ID: "Lausanne", Name: "Lausanne Main"},
		},
		DefaultBranch: "Zurich",
		Diagnostics: DiagnosticsConfig{
			AnomalyCapacity: 200,
			Valkey: ValkeyConfig{
				Prefix: "forecast",
			},
		},
		Chart: ChartConfig{
			Width:  1024,
			Height: 576,
		},
	}
}

// Validate ensures the configuration is safe to use.
func (c *Config) Validate() error {
	if c.HTTP.Address == "" {
		return errors.New("http.address cannot be empty")
	}
	if strings.TrimSpace(c.Forecast.Endpoint) == "" {
		return errors.New("forecast.endpoint cannot be empty")
	}
	if c.Forecast.Periods <= 0 {
		return errors.New("forecast.periods must be positive")
	}
	if _, ok := forecast.ParseFrequency(c.Forecast.Frequency); !ok {
		return fmt.Errorf("forecast.frequency %q is not one of D, W, M", c.Forecast.Frequency)
	}
	if c.Forecast.Timeout < 0 {
		return errors.New("forecast.timeout cannot be negative")
	}
	if len(c.Branches) == 0 {
		return errors.New("branches cannot be empty")
	}
	seen := make(map[forecast.BranchID]struct{}, len(c.Branches))
	for _, b := range c.Branches {
		if !b.ID.Valid() {
			return errors.New("branches[].id cannot be empty")
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate branch id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	if c.DefaultBranch != "" {
		if _, ok := seen[forecast.BranchID(c.DefaultBranch)]; !ok {
			return fmt.Errorf("defaultBranch %q is not a configured branch", c.DefaultBranch)
		}
	}
	if c.Diagnostics.AnomalyCapacity < 0 {
		return errors.New("diagnostics.anomalyCapacity cannot be negative")
	}
	if c.Diagnostics.Valkey.Enabled && strings.TrimSpace(c.Diagnostics.Valkey.Addr) == "" {
		return errors.New("diagnostics.valkey.addr cannot be empty when valkey is enabled")
	}
	return nil
}

// ForecastDefaults converts the forecast section into controller settings.
func (c *Config) ForecastDefaults() forecast.Config {
	freq, _ := forecast.ParseFrequency(c.Forecast.Frequency)
	return forecast.Config{
		Periods:   c.Forecast.Periods,
		Frequency: freq,
		Timeout:   c.Forecast.Timeout,
	}
}

// Branch looks up a configured branch by id.
func (c *Config) Branch(id forecast.BranchID) (forecast.Branch, bool) {
	for _, b := range c.Branches {
		if b.ID == id {
			return b, true
		}
	}
	return forecast.Branch{}, false
}
