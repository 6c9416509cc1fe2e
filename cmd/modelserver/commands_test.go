package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kalambet/modelserver/internal/config"
	"github.com/kalambet/modelserver/internal/engine"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

type testServer struct {
	server   *httptest.Server
	requests []recordedRequest
}

func newTestServer(t *testing.T, responses map[string]string, status int) *testServer {
	t.Helper()
	ts := &testServer{}

	ts.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)

		ts.requests = append(ts.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.RequestURI(),
			Body:   body.String(),
		})

		key := r.Method + " " + r.URL.Path
		if resp, ok := responses[key]; ok {
			w.Header().Set("Content-Type", "application/json")
			if status != 0 {
				w.WriteHeader(status)
			}
			w.Write([]byte(resp))
			return
		}

		w.WriteHeader(404)
		w.Write([]byte(`{"error":"Not found"}`))
	}))

	t.Cleanup(ts.server.Close)
	return ts
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.Execute()
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /generate": `{"response":"Goroutines are lightweight threads.","status":"success"}`,
	}, 0)

	out, err := execute(t, "generate", "--addr", ts.server.URL, "Explain", "goroutines")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.TrimSpace(out) != "Goroutines are lightweight threads." {
		t.Errorf("output = %q", out)
	}

	if len(ts.requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(ts.requests))
	}
	r := ts.requests[0]
	if r.Method != "POST" || r.Path != "/generate" {
		t.Errorf("request = %s %s", r.Method, r.Path)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(r.Body), &body); err != nil {
		t.Fatalf("body parse error: %v", err)
	}
	if body["messages"] != "Explain goroutines" {
		t.Errorf("body.messages = %v", body["messages"])
	}
}

func TestGenerateCommand_ServerError(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /generate": `{"error":"Failed to generate response","details":"internal error (request_id=abc)"}`,
	}, http.StatusInternalServerError)

	_, err := execute(t, "generate", "--addr", ts.server.URL, "Hello")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "request_id=abc") {
		t.Errorf("error = %q, want status and details", err.Error())
	}
}

func TestGenerateCommand_MissingArgs(t *testing.T) {
	_, err := execute(t, "generate")
	if err == nil {
		t.Fatal("expected error for missing prompt")
	}
}

func TestHealthCommand(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"GET /health": `{"status":"healthy","model":"deepseek-r1"}`,
	}, 0)

	if _, err := execute(t, "health", "--addr", ts.server.URL); err != nil {
		t.Fatalf("health: %v", err)
	}
	if len(ts.requests) != 1 || ts.requests[0].Path != "/health" {
		t.Errorf("requests = %+v", ts.requests)
	}
}

func TestHealthCommand_ServerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := execute(t, "health", "--addr", srv.URL)
	if err == nil {
		t.Fatal("expected error for stopped server")
	}
	if !strings.Contains(err.Error(), "not reachable") {
		t.Errorf("error = %q, want it to mention 'not reachable'", err.Error())
	}
}

func TestDecodeJSON_ValidationError(t *testing.T) {
	ts := newTestServer(t, map[string]string{
		"POST /generate": `{"error":"Messages must be a string","kind":"InvalidFieldType"}`,
	}, http.StatusBadRequest)

	client, err := newAPIClient(ts.server.URL)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := client.post(t.Context(), "/generate", map[string]any{"messages": 42})
	if err != nil {
		t.Fatal(err)
	}
	var v map[string]any
	err = decodeJSON(resp, &v)
	if err == nil || !strings.Contains(err.Error(), "InvalidFieldType") {
		t.Errorf("err = %v, want it to carry the kind", err)
	}
}

func TestClientAddr(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"0.0.0.0", "127.0.0.1:5000"},
		{"", "127.0.0.1:5000"},
		{"10.1.2.3", "10.1.2.3:5000"},
		{"::1", "[::1]:5000"},
	}
	for _, tt := range tests {
		if got := clientAddr(config.ServerConfig{Host: tt.host, Port: 5000}); got != tt.want {
			t.Errorf("clientAddr(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestNewAPIClient_AddsScheme(t *testing.T) {
	c, err := newAPIClient("localhost:5000/")
	if err != nil {
		t.Fatal(err)
	}
	if c.baseURL != "http://localhost:5000" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
}

func TestGenerationParams(t *testing.T) {
	p := generationParams(config.GenerationConfig{
		MaxLength: 500, Temperature: 0.7, TopP: 0.9, DoSample: true, NumReturnSequences: 1,
	})
	if p != engine.DefaultParams() {
		t.Errorf("params = %+v, want defaults", p)
	}
}

func TestConfigKeysCommand(t *testing.T) {
	out, err := execute(t, "config", "keys")
	if err != nil {
		t.Fatalf("config keys: %v", err)
	}
	for _, want := range []string{"server.port", "AI_MODEL_PORT", "engine.use_gpu", "USE_GPU", "server.debug", "FLASK_DEBUG"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestConsole(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	var buf bytes.Buffer
	c := console{w: &buf}

	noColor = true
	c.done("Set %s = %s", "server.port", "9000")
	c.note("Restart the server")
	c.field("Model", "deepseek-r1")
	out := buf.String()
	for _, want := range []string{"✓ Set server.port = 9000\n", "! Restart the server\n", "Model:", "deepseek-r1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("output contains ANSI codes with noColor: %q", out)
	}

	buf.Reset()
	noColor = false
	c.fail("boom")
	if !strings.Contains(buf.String(), ansiRed) {
		t.Errorf("fail output %q not red", buf.String())
	}
}

func TestConfigSetCommand_WritesToCommandStderr(t *testing.T) {
	t.Setenv("MODELSERVER_CONFIG", filepath.Join(t.TempDir(), "config.yaml"))
	old := noColor
	noColor = true
	defer func() { noColor = old }()

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	defer rootCmd.SetErr(nil)

	if _, err := execute(t, "config", "set", "server.port", "9000"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if !strings.Contains(stderr.String(), "✓ Set server.port = 9000") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestNoColorFlag(t *testing.T) {
	old := noColor
	defer func() { noColor = old }()

	noColor = true
	result := style(ansiGreen, "test message")
	if strings.Contains(result, "\033[") {
		t.Errorf("style with noColor=true should not contain ANSI codes, got %q", result)
	}
	if result != "test message" {
		t.Errorf("result = %q, want %q", result, "test message")
	}

	noColor = false
	result = style(ansiGreen, "test message")
	if !strings.Contains(result, "\033[") {
		t.Errorf("style with noColor=false should contain ANSI codes, got %q", result)
	}
}
