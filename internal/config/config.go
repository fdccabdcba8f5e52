package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dusk-indust/insightflow/internal/orchestrator"
	"gopkg.in/yaml.v3"
)

// Config holds settings loaded from insightflow.yml, layered over Defaults.
type Config struct {
	BaseURL           string                   `yaml:"baseURL,omitempty"`
	RequestTimeout    time.Duration            `yaml:"requestTimeout,omitempty"`
	ProbeTimeout      time.Duration            `yaml:"probeTimeout,omitempty"`
	PollInterval      time.Duration            `yaml:"pollInterval,omitempty"`
	ListenAddr        string                   `yaml:"listenAddr,omitempty"`
	StubAddr          string                   `yaml:"stubAddr,omitempty"`
	Model             string                   `yaml:"model,omitempty"`
	DefaultMaxResults int                      `yaml:"defaultMaxResults,omitempty"`
	MinMaxResults     int                      `yaml:"minMaxResults,omitempty"`
	MaxMaxResults     int                      `yaml:"maxMaxResults,omitempty"`
	StageHolds        map[string]time.Duration `yaml:"stageHolds,omitempty"`
	Log               LogConfig                `yaml:"log,omitempty"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:           "http://localhost:8000",
		RequestTimeout:    60 * time.Second,
		ProbeTimeout:      2 * time.Second,
		PollInterval:      5 * time.Second,
		ListenAddr:        ":8080",
		StubAddr:          ":8000",
		Model:             orchestrator.DefaultModel,
		DefaultMaxResults: orchestrator.DefaultMaxResults,
		MinMaxResults:     3,
		MaxMaxResults:     10,
		Log:               LogConfig{Level: "info", Format: "text"},
	}
}

// Load attempts to read insightflow.yml or insightflow.yaml from the given
// directory and layers it over Defaults. Returns the defaults (not an
// error) if no config file exists.
func Load(dir string) (*Config, error) {
	cfg := Defaults()
	for _, name := range []string{"insightflow.yml", "insightflow.yaml"} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", name, err)
		}
		break
	}
	return &cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BaseURL) == "" {
		errs = append(errs, errors.New("baseURL is empty"))
	}
	for name, d := range map[string]time.Duration{
		"requestTimeout": c.RequestTimeout,
		"probeTimeout":   c.ProbeTimeout,
		"pollInterval":   c.PollInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", name, d))
		}
	}
	if c.MinMaxResults < 1 || c.MaxMaxResults < c.MinMaxResults {
		errs = append(errs, fmt.Errorf("max results bounds [%d,%d] are invalid", c.MinMaxResults, c.MaxMaxResults))
	} else if err := c.CheckMaxResults(c.DefaultMaxResults); err != nil {
		errs = append(errs, fmt.Errorf("defaultMaxResults: %w", err))
	}
	if _, err := c.Stages(); err != nil {
		errs = append(errs, err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// CheckMaxResults reports whether n lies within the configured bounds.
func (c *Config) CheckMaxResults(n int) error {
	if n < c.MinMaxResults || n > c.MaxMaxResults {
		return fmt.Errorf("max_results %d out of range [%d,%d]", n, c.MinMaxResults, c.MaxMaxResults)
	}
	return nil
}

// Stages returns the default stage sequence with configured hold overrides.
func (c *Config) Stages() ([]orchestrator.Stage, error) {
	return orchestrator.WithHolds(orchestrator.DefaultStages(), c.StageHolds)
}

// NewLogger builds the process logger described by Log, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
