package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Server     ServerConfig
	Engine     EngineConfig
	Model      ModelConfig
	Generation GenerationConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	Debug          bool
	CORSOrigins    string
	MaxBodyBytes   int
	MaxConnections int
}

type EngineConfig struct {
	Backend        string
	BaseURL        string
	UseGPU         bool
	MaxConcurrency int
	PullMissing    bool
	LoadTimeout    string
}

type ModelConfig struct {
	ID string
}

// GenerationConfig holds the fixed sampling parameters applied to every
// generate call. Callers cannot override them per request.
type GenerationConfig struct {
	MaxLength          int
	Temperature        float64
	TopP               float64
	DoSample           bool
	NumReturnSequences int
}

type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5000,
			CORSOrigins:  "*",
			MaxBodyBytes: 1 << 20,
		},
		Engine: EngineConfig{
			Backend:        "ollama",
			BaseURL:        "http://localhost:11434",
			MaxConcurrency: 1,
			PullMissing:    true,
			LoadTimeout:    "10m",
		},
		Model: ModelConfig{
			ID: "deepseek-r1",
		},
		Generation: GenerationConfig{
			MaxLength:          500,
			Temperature:        0.7,
			TopP:               0.9,
			DoSample:           true,
			NumReturnSequences: 1,
		},
		Log: LogConfig{
			Level:      "info",
			File:       "ai_model.log",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Load reads configuration from the config file backend and environment
// variables. Environment variables override file values; the file overrides
// built-in defaults.
//
// The config file is $MODELSERVER_CONFIG when set, otherwise
// $XDG_CONFIG_HOME/modelserver/config.yaml. A missing file is not an error.
func Load() (Config, error) {
	b, err := newFileBackend(ConfigFilePath())
	if err != nil {
		return Config{}, err
	}
	return loadWith(b)
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid config: server.max_body_bytes must be positive")
	}
	if c.Server.MaxConnections < 0 {
		return fmt.Errorf("invalid config: server.max_connections must not be negative")
	}
	if c.Model.ID == "" {
		return fmt.Errorf("missing required config: model.id")
	}
	if c.Engine.MaxConcurrency < 1 {
		return fmt.Errorf("invalid config: engine.max_concurrency must be at least 1")
	}
	if _, err := time.ParseDuration(c.Engine.LoadTimeout); err != nil {
		return fmt.Errorf("invalid config: engine.load_timeout: %w", err)
	}
	return nil
}

// LoadTimeoutDuration returns the parsed engine load timeout.
func (c EngineConfig) LoadTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.LoadTimeout)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// Addr returns the host:port the HTTP server listens on.
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ConfigFilePath returns the path of the YAML config file.
func ConfigFilePath() string {
	if p := os.Getenv("MODELSERVER_CONFIG"); p != "" {
		return p
	}
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "modelserver", "config.yaml")
}
