package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

// specs lists every config key. AI_MODEL_PORT, USE_GPU and FLASK_DEBUG keep
// the names deployments already export.
var specs = []keySpec{
	{
		key: "server.host", typ: kString, env: "MODELSERVER_HOST",
		apply:   func(cfg *Config, v any) { cfg.Server.Host = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Host },
	},
	{
		key: "server.port", typ: kInt, env: "AI_MODEL_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.debug", typ: kBool, env: "FLASK_DEBUG",
		apply:   func(cfg *Config, v any) { cfg.Server.Debug = v.(bool) },
		extract: func(cfg Config) any { return cfg.Server.Debug },
	},
	{
		key: "server.cors_origins", typ: kString, env: "MODELSERVER_CORS_ORIGINS",
		apply:   func(cfg *Config, v any) { cfg.Server.CORSOrigins = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.CORSOrigins },
	},
	{
		key: "server.max_body_bytes", typ: kInt, env: "MODELSERVER_MAX_BODY_BYTES",
		apply:   func(cfg *Config, v any) { cfg.Server.MaxBodyBytes = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MaxBodyBytes },
	},
	{
		key: "server.max_connections", typ: kInt, env: "MODELSERVER_MAX_CONNECTIONS",
		apply:   func(cfg *Config, v any) { cfg.Server.MaxConnections = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MaxConnections },
	},
	{
		key: "engine.backend", typ: kString, env: "MODELSERVER_ENGINE_BACKEND",
		apply:   func(cfg *Config, v any) { cfg.Engine.Backend = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.Backend },
	},
	{
		key: "engine.base_url", typ: kString, env: "MODELSERVER_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Engine.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.BaseURL },
	},
	{
		key: "engine.use_gpu", typ: kBool, env: "USE_GPU",
		apply:   func(cfg *Config, v any) { cfg.Engine.UseGPU = v.(bool) },
		extract: func(cfg Config) any { return cfg.Engine.UseGPU },
	},
	{
		key: "engine.max_concurrency", typ: kInt, env: "MODELSERVER_ENGINE_MAX_CONCURRENCY",
		apply:   func(cfg *Config, v any) { cfg.Engine.MaxConcurrency = v.(int) },
		extract: func(cfg Config) any { return cfg.Engine.MaxConcurrency },
	},
	{
		key: "engine.pull_missing", typ: kBool, env: "MODELSERVER_ENGINE_PULL_MISSING",
		apply:   func(cfg *Config, v any) { cfg.Engine.PullMissing = v.(bool) },
		extract: func(cfg Config) any { return cfg.Engine.PullMissing },
	},
	{
		key: "engine.load_timeout", typ: kString, env: "MODELSERVER_ENGINE_LOAD_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Engine.LoadTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Engine.LoadTimeout },
	},
	{
		key: "model.id", typ: kString, env: "MODELSERVER_MODEL_ID",
		apply:   func(cfg *Config, v any) { cfg.Model.ID = v.(string) },
		extract: func(cfg Config) any { return cfg.Model.ID },
	},
	{
		key: "generation.max_length", typ: kInt, env: "MODELSERVER_MAX_LENGTH",
		apply:   func(cfg *Config, v any) { cfg.Generation.MaxLength = v.(int) },
		extract: func(cfg Config) any { return cfg.Generation.MaxLength },
	},
	{
		key: "generation.temperature", typ: kFloat, env: "MODELSERVER_TEMPERATURE",
		apply:   func(cfg *Config, v any) { cfg.Generation.Temperature = v.(float64) },
		extract: func(cfg Config) any { return cfg.Generation.Temperature },
	},
	{
		key: "generation.top_p", typ: kFloat, env: "MODELSERVER_TOP_P",
		apply:   func(cfg *Config, v any) { cfg.Generation.TopP = v.(float64) },
		extract: func(cfg Config) any { return cfg.Generation.TopP },
	},
	{
		key: "generation.do_sample", typ: kBool, env: "MODELSERVER_DO_SAMPLE",
		apply:   func(cfg *Config, v any) { cfg.Generation.DoSample = v.(bool) },
		extract: func(cfg Config) any { return cfg.Generation.DoSample },
	},
	{
		key: "generation.num_return_sequences", typ: kInt, env: "MODELSERVER_NUM_RETURN_SEQUENCES",
		apply:   func(cfg *Config, v any) { cfg.Generation.NumReturnSequences = v.(int) },
		extract: func(cfg Config) any { return cfg.Generation.NumReturnSequences },
	},
	{
		key: "log.level", typ: kString, env: "MODELSERVER_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		// "-" disables the file log; empty env values are ignored.
		key: "log.file", typ: kString, env: "MODELSERVER_LOG_FILE",
		apply:   func(cfg *Config, v any) { cfg.Log.File = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.File },
	},
	{
		key: "log.max_size_mb", typ: kInt, env: "MODELSERVER_LOG_MAX_SIZE_MB",
		apply:   func(cfg *Config, v any) { cfg.Log.MaxSizeMB = v.(int) },
		extract: func(cfg Config) any { return cfg.Log.MaxSizeMB },
	},
	{
		key: "log.max_backups", typ: kInt, env: "MODELSERVER_LOG_MAX_BACKUPS",
		apply:   func(cfg *Config, v any) { cfg.Log.MaxBackups = v.(int) },
		extract: func(cfg Config) any { return cfg.Log.MaxBackups },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
