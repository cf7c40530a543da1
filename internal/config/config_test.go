package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var allKeys = []string{
	"LEAFCHECK_BACKEND", "LEAFCHECK_ENDPOINT", "LEAFCHECK_TIMEOUT",
	"LEAFCHECK_MODEL_PATH", "LEAFCHECK_LABELS_PATH", "LEAFCHECK_ORT_LIBRARY",
	"LEAFCHECK_THREADS", "LEAFCHECK_IMAGE_SIZE", "LEAFCHECK_SOFTMAX", "LEAFCHECK_TOP_K",
	"LEAFCHECK_KNOWLEDGE_PATH", "LEAFCHECK_OUTPUT", "LEAFCHECK_OUTPUT_PRETTY",
	"LEAFCHECK_VERBOSITY", "LEAFCHECK_LOCALE", "LEAFCHECK_OUTPUT_FILE",
	"LEAFCHECK_OUTPUT_FILE_MAX_SIZE", "LEAFCHECK_WEBHOOK_URL",
	"LEAFCHECK_LOG_LEVEL", "LEAFCHECK_LOG_FILE",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.Inference.Backend != "remote" {
		t.Fatalf("expected default backend 'remote', got %q", cfg.Inference.Backend)
	}
	if cfg.Inference.Endpoint != "http://localhost:5000/predict" {
		t.Fatalf("unexpected default endpoint %q", cfg.Inference.Endpoint)
	}
	if cfg.Inference.Timeout != 30*time.Second {
		t.Fatalf("expected default timeout 30s, got %v", cfg.Inference.Timeout)
	}
	if cfg.Inference.TopK != 5 {
		t.Fatalf("expected default TopK=5, got %d", cfg.Inference.TopK)
	}
	if cfg.Inference.ImageSize != 224 {
		t.Fatalf("expected default ImageSize=224, got %d", cfg.Inference.ImageSize)
	}
	if cfg.Inference.Softmax {
		t.Fatal("expected default Softmax=false")
	}
	if cfg.Output.Format != "text" || cfg.Output.Verbosity != "standard" {
		t.Fatalf("unexpected output defaults: %+v", cfg.Output)
	}
	if cfg.Knowledge.Path != "" {
		t.Fatalf("expected embedded knowledge by default, got %q", cfg.Knowledge.Path)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.Log.Level)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("LEAFCHECK_BACKEND", "local")
	t.Setenv("LEAFCHECK_TIMEOUT", "45s")
	t.Setenv("LEAFCHECK_THREADS", "4")
	t.Setenv("LEAFCHECK_SOFTMAX", "true")
	t.Setenv("LEAFCHECK_TOP_K", "3")
	t.Setenv("LEAFCHECK_OUTPUT", "json")
	t.Setenv("LEAFCHECK_OUTPUT_PRETTY", "1")
	t.Setenv("LEAFCHECK_OUTPUT_FILE_MAX_SIZE", "1048576")

	cfg := Load()

	if cfg.Inference.Backend != "local" {
		t.Errorf("Backend = %q", cfg.Inference.Backend)
	}
	if cfg.Inference.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v", cfg.Inference.Timeout)
	}
	if cfg.Inference.Threads != 4 {
		t.Errorf("Threads = %d", cfg.Inference.Threads)
	}
	if !cfg.Inference.Softmax {
		t.Error("Softmax = false")
	}
	if cfg.Inference.TopK != 3 {
		t.Errorf("TopK = %d", cfg.Inference.TopK)
	}
	if cfg.Output.Format != "json" || !cfg.Output.Pretty {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Output.FileMaxSize != 1<<20 {
		t.Errorf("FileMaxSize = %d", cfg.Output.FileMaxSize)
	}
}

func TestGetenvDuration(t *testing.T) {
	tests := []struct {
		val  string
		want time.Duration
	}{
		{"", 7 * time.Second},
		{"2m", 2 * time.Minute},
		{"90", 90 * time.Second},
		{"0", 0},
		{"1.5", 1500 * time.Millisecond},
		{"soon", 7 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("LEAFCHECK_TEST_DURATION", tt.val)
		if got := getenvDuration("LEAFCHECK_TEST_DURATION", 7*time.Second); got != tt.want {
			t.Errorf("getenvDuration(%q) = %v, want %v", tt.val, got, tt.want)
		}
	}
}

func TestGetenvIntAndBoolFallback(t *testing.T) {
	t.Setenv("LEAFCHECK_TEST_INT", "many")
	if got := getenvInt("LEAFCHECK_TEST_INT", 9); got != 9 {
		t.Errorf("getenvInt fallback = %d, want 9", got)
	}
	t.Setenv("LEAFCHECK_TEST_BOOL", "perhaps")
	if got := getenvBool("LEAFCHECK_TEST_BOOL", true); !got {
		t.Error("getenvBool fallback = false, want true")
	}
}

// validConfig returns a Config that passes validation, using temp files for
// anything that must exist on disk.
func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "model.onnx")
	os.WriteFile(model, []byte("fake"), 0o644)

	return Config{
		Inference: InferenceConfig{
			Backend:   "remote",
			Endpoint:  "http://localhost:5000/predict",
			Timeout:   30 * time.Second,
			ModelPath: model,
			ImageSize: 224,
			TopK:      5,
		},
		Output: OutputConfig{Format: "text", Verbosity: "standard"},
		Log:    LogConfig{Level: "info"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected nil error for valid config, got: %v", err)
	}
	cfg.Inference.Backend = "local"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected nil error for valid local config, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown backend", func(c *Config) { c.Inference.Backend = "cloud" }, "backend"},
		{"missing endpoint", func(c *Config) { c.Inference.Endpoint = "" }, "LEAFCHECK_ENDPOINT"},
		{"missing model", func(c *Config) {
			c.Inference.Backend = "local"
			c.Inference.ModelPath = "/nonexistent/model.onnx"
		}, "model"},
		{"negative timeout", func(c *Config) { c.Inference.Timeout = -time.Second }, "timeout"},
		{"negative threads", func(c *Config) { c.Inference.Threads = -1 }, "threads"},
		{"zero image size", func(c *Config) { c.Inference.ImageSize = 0 }, "image size"},
		{"negative top-k", func(c *Config) { c.Inference.TopK = -2 }, "top-k"},
		{"missing knowledge", func(c *Config) { c.Knowledge.Path = "/nonexistent/kb.yaml" }, "knowledge"},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }, "format"},
		{"bad verbosity", func(c *Config) { c.Output.Verbosity = "verbose" }, "verbosity"},
		{"negative max size", func(c *Config) { c.Output.FileMaxSize = -1 }, "max size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error to mention %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Inference.Endpoint = ""
	cfg.Inference.TopK = -1
	cfg.Output.Verbosity = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple bad fields")
	}
	for _, want := range []string{"LEAFCHECK_ENDPOINT", "top-k", "verbosity"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got: %v", want, err)
		}
	}
}

func TestVersion_IsSet(t *testing.T) {
	if Version == "" {
		t.Fatal("expected non-empty Version constant")
	}
}
