package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend struct {
	strs map[string]string
	ints map[string]int
}

func newMapBackend() *mapBackend {
	return &mapBackend{strs: map[string]string{}, ints: map[string]int{}}
}

func (m *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := m.strs[key]
	return v, ok, nil
}

func (m *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.ints[key]
	return v, ok, nil
}

func (m *mapBackend) SetString(key, val string) error { m.strs[key] = val; return nil }
func (m *mapBackend) SetInt(key string, val int) error { m.ints[key] = val; return nil }
func (m *mapBackend) Delete(key string) error {
	delete(m.strs, key)
	delete(m.ints, key)
	return nil
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, s := range specs {
		t.Setenv(s.env, "")
	}
}

// TestDefaults verifies all default values are applied when nothing is configured.
func TestDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := loadWith(newMapBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "0.0.0.0")
	}
	if cfg.Server.Debug {
		t.Error("Server.Debug = true, want false")
	}
	if cfg.Engine.UseGPU {
		t.Error("Engine.UseGPU = true, want false")
	}
	if cfg.Engine.MaxConcurrency != 1 {
		t.Errorf("Engine.MaxConcurrency = %d, want 1", cfg.Engine.MaxConcurrency)
	}
	if cfg.Model.ID != "deepseek-r1" {
		t.Errorf("Model.ID = %q, want %q", cfg.Model.ID, "deepseek-r1")
	}
	if cfg.Generation.MaxLength != 500 {
		t.Errorf("Generation.MaxLength = %d, want 500", cfg.Generation.MaxLength)
	}
	if cfg.Generation.Temperature != 0.7 {
		t.Errorf("Generation.Temperature = %v, want 0.7", cfg.Generation.Temperature)
	}
	if cfg.Generation.TopP != 0.9 {
		t.Errorf("Generation.TopP = %v, want 0.9", cfg.Generation.TopP)
	}
	if !cfg.Generation.DoSample {
		t.Error("Generation.DoSample = false, want true")
	}
	if cfg.Generation.NumReturnSequences != 1 {
		t.Errorf("Generation.NumReturnSequences = %d, want 1", cfg.Generation.NumReturnSequences)
	}
	if cfg.Log.File != "ai_model.log" {
		t.Errorf("Log.File = %q, want %q", cfg.Log.File, "ai_model.log")
	}
	if cfg.Log.MaxSizeMB != 10 || cfg.Log.MaxBackups != 5 {
		t.Errorf("Log rotation = %dMB/%d, want 10MB/5", cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	}
}

// TestEnvOverride verifies the deployment env vars override file values.
func TestEnvOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_MODEL_PORT", "8081")
	t.Setenv("USE_GPU", "true")
	t.Setenv("FLASK_DEBUG", "1")

	b := newMapBackend()
	b.ints["server.port"] = 7000

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("Server.Port = %d, want 8081", cfg.Server.Port)
	}
	if !cfg.Engine.UseGPU {
		t.Error("Engine.UseGPU = false, want true")
	}
	if !cfg.Server.Debug {
		t.Error("Server.Debug = false, want true")
	}
}

func TestEnvOverride_InvalidValuesKeepDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_MODEL_PORT", "not-a-port")
	t.Setenv("USE_GPU", "maybe")

	cfg, err := loadWith(newMapBackend())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
	if cfg.Engine.UseGPU {
		t.Error("Engine.UseGPU = true, want false")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		set  func(b *mapBackend)
		want string
	}{
		{"port out of range", func(b *mapBackend) { b.ints["server.port"] = 70000 }, "server.port"},
		{"empty model", func(b *mapBackend) { b.strs["model.id"] = "" }, "model.id"},
		{"zero concurrency", func(b *mapBackend) { b.ints["engine.max_concurrency"] = 0 }, "max_concurrency"},
		{"bad timeout", func(b *mapBackend) { b.strs["engine.load_timeout"] = "soon" }, "load_timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			b := newMapBackend()
			tt.set(b)
			_, err := loadWith(b)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.want)
			}
		})
	}
}

// TestYAMLParsing verifies that all sections are read from a YAML config file.
func TestYAMLParsing(t *testing.T) {
	clearEnv(t)
	content := `
server:
  host: 127.0.0.1
  port: 6000
  debug: true
engine:
  base_url: http://gpu-box:11434
  use_gpu: true
  max_concurrency: 2
model:
  id: llama3.2
generation:
  max_length: 256
  temperature: 1.2
  top_p: 0.5
  do_sample: false
log:
  file: /tmp/modelserver.log
  max_backups: 3
`
	b, err := newFileBackend(writeTempConfig(t, content))
	if err != nil {
		t.Fatalf("newFileBackend: %v", err)
	}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:6000" {
		t.Errorf("Server.Addr() = %q", cfg.Server.Addr())
	}
	if !cfg.Server.Debug {
		t.Error("Server.Debug = false, want true")
	}
	if cfg.Engine.BaseURL != "http://gpu-box:11434" {
		t.Errorf("Engine.BaseURL = %q", cfg.Engine.BaseURL)
	}
	if !cfg.Engine.UseGPU {
		t.Error("Engine.UseGPU = false, want true")
	}
	if cfg.Engine.MaxConcurrency != 2 {
		t.Errorf("Engine.MaxConcurrency = %d", cfg.Engine.MaxConcurrency)
	}
	if cfg.Model.ID != "llama3.2" {
		t.Errorf("Model.ID = %q", cfg.Model.ID)
	}
	if cfg.Generation.MaxLength != 256 {
		t.Errorf("Generation.MaxLength = %d", cfg.Generation.MaxLength)
	}
	if cfg.Generation.Temperature != 1.2 {
		t.Errorf("Generation.Temperature = %v", cfg.Generation.Temperature)
	}
	if cfg.Generation.TopP != 0.5 {
		t.Errorf("Generation.TopP = %v", cfg.Generation.TopP)
	}
	if cfg.Generation.DoSample {
		t.Error("Generation.DoSample = true, want false")
	}
	if cfg.Log.File != "/tmp/modelserver.log" {
		t.Errorf("Log.File = %q", cfg.Log.File)
	}
	if cfg.Log.MaxBackups != 3 {
		t.Errorf("Log.MaxBackups = %d", cfg.Log.MaxBackups)
	}
}

func TestMissingConfigFile(t *testing.T) {
	clearEnv(t)
	b, err := newFileBackend(filepath.Join(t.TempDir(), "nope", "config.yaml"))
	if err != nil {
		t.Fatalf("newFileBackend: %v", err)
	}
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want 5000", cfg.Server.Port)
	}
}

func TestSetKey_RoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "modelserver", "config.yaml")
	b, err := newFileBackend(path)
	if err != nil {
		t.Fatalf("newFileBackend: %v", err)
	}

	if err := setKeyWith(b, "server.port", "9000"); err != nil {
		t.Fatalf("setKeyWith port: %v", err)
	}
	if err := setKeyWith(b, "engine.use_gpu", "true"); err != nil {
		t.Fatalf("setKeyWith use_gpu: %v", err)
	}

	reread, err := newFileBackend(path)
	if err != nil {
		t.Fatalf("re-reading: %v", err)
	}
	cfg, err := loadWith(reread)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if !cfg.Engine.UseGPU {
		t.Error("Engine.UseGPU = false, want true")
	}
}

func TestSetKey_Errors(t *testing.T) {
	b := newMapBackend()
	if err := setKeyWith(b, "nope.key", "x"); err == nil || !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("unknown key: err = %v", err)
	}
	if err := setKeyWith(b, "server.port", "abc"); err == nil {
		t.Error("expected error for non-integer port")
	}
	if err := setKeyWith(b, "server.debug", "sometimes"); err == nil {
		t.Error("expected error for non-bool debug")
	}
}

func TestShowAll(t *testing.T) {
	keys := ShowAll(defaults())
	if len(keys) != len(ValidKeys()) {
		t.Fatalf("ShowAll returned %d keys, ValidKeys %d", len(keys), len(ValidKeys()))
	}
	found := false
	for _, k := range keys {
		if k.Key == "server.port" {
			found = true
			if k.EnvVar != "AI_MODEL_PORT" || k.Value != "5000" {
				t.Errorf("server.port = %+v", k)
			}
		}
	}
	if !found {
		t.Error("server.port missing from ShowAll")
	}
}

func TestUnsetKey(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	b, err := newFileBackend(path)
	if err != nil {
		t.Fatalf("newFileBackend: %v", err)
	}
	if err := setKeyWith(b, "server.port", "9000"); err != nil {
		t.Fatalf("setKeyWith: %v", err)
	}
	if err := setKeyWith(b, "model.id", "llama3.2"); err != nil {
		t.Fatalf("setKeyWith: %v", err)
	}
	if err := unsetKeyWith(b, "server.port"); err != nil {
		t.Fatalf("unsetKeyWith: %v", err)
	}
	if err := unsetKeyWith(b, "model.id"); err != nil {
		t.Fatalf("unsetKeyWith: %v", err)
	}
	if err := unsetKeyWith(b, "nope.key"); err == nil {
		t.Error("expected error for unknown key")
	}

	reread, err := newFileBackend(path)
	if err != nil {
		t.Fatalf("re-reading: %v", err)
	}
	cfg, err := loadWith(reread)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want default 5000", cfg.Server.Port)
	}
	if cfg.Model.ID != "deepseek-r1" {
		t.Errorf("Model.ID = %q, want default", cfg.Model.ID)
	}
}

func TestEnvOverride_LogFileDisabled(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODELSERVER_LOG_FILE", "-")

	b := newMapBackend()
	b.strs["log.file"] = "/var/log/modelserver.log"

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.File != "-" {
		t.Errorf("Log.File = %q, want %q", cfg.Log.File, "-")
	}
}
