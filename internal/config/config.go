// Package config resolves runtime configuration from environment variables
// with an optional YAML file layered underneath, following the same
// env-wins-over-file precedence the example pack's process/tool configs use.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/flowcoreio/flowcore/pkg/domain"
)

// Config holds every knob the flowcore binary needs to boot.
type Config struct {
	Neo4jURI      string `yaml:"neo4jUri"`
	Neo4jUser     string `yaml:"neo4jUser"`
	Neo4jPassword string `yaml:"neo4jPassword"`

	HTTPAddr string `yaml:"httpAddr"`
	LogLevel string `yaml:"logLevel"`

	DefaultVariableTimeoutMs int `yaml:"defaultVariableTimeoutMs"`
	DefaultEvalTimeoutMs     int `yaml:"defaultEvalTimeoutMs"`
	RowCap                   int `yaml:"rowCap"`
}

// defaults returns a Config seeded with the package-level defaults from
// pkg/domain, before any file or environment overrides are applied.
func defaults() Config {
	return Config{
		Neo4jURI:                 "bolt://localhost:7687",
		Neo4jUser:                "neo4j",
		Neo4jPassword:            "",
		HTTPAddr:                 ":8080",
		LogLevel:                 "info",
		DefaultVariableTimeoutMs: domain.DefaultVariableTimeoutMs,
		DefaultEvalTimeoutMs:     domain.DefaultEvalTimeoutMs,
		RowCap:                   domain.DefaultRowCap,
	}
}

// Load resolves configuration in three layers: package defaults, an
// optional YAML file at path (silently skipped if it does not exist), then
// environment variables, each layer overriding the last.
func Load(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("config: read %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if cfg.Neo4jURI == "" {
		return Config{}, fmt.Errorf("config: neo4j URI is required")
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FLOWCORE_NEO4J_URI"); v != "" {
		cfg.Neo4jURI = v
	}
	if v := os.Getenv("FLOWCORE_NEO4J_USER"); v != "" {
		cfg.Neo4jUser = v
	}
	if v := os.Getenv("FLOWCORE_NEO4J_PASSWORD"); v != "" {
		cfg.Neo4jPassword = v
	}
	if v := os.Getenv("FLOWCORE_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("FLOWCORE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v, ok := envInt("FLOWCORE_DEFAULT_VARIABLE_TIMEOUT_MS"); ok {
		cfg.DefaultVariableTimeoutMs = v
	}
	if v, ok := envInt("FLOWCORE_DEFAULT_EVAL_TIMEOUT_MS"); ok {
		cfg.DefaultEvalTimeoutMs = v
	}
	if v, ok := envInt("FLOWCORE_ROW_CAP"); ok {
		cfg.RowCap = v
	}
}

func envInt(name string) (int, bool) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SlogLevel parses LogLevel into a slog.Level, defaulting to Info on an
// unrecognised value.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
