package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Version is the leafcheck release.
const Version = "0.3.0"

// Config holds all leafcheck configuration.
type Config struct {
	Inference InferenceConfig
	Knowledge KnowledgeConfig
	Output    OutputConfig
	Log       LogConfig
}

// InferenceConfig selects and configures the classification backend.
type InferenceConfig struct {
	Backend     string        // "remote" or "local"
	Endpoint    string        // remote prediction URL
	Timeout     time.Duration // remote request timeout; 0 waits forever
	ModelPath   string
	LabelsPath  string // empty means labels.json next to the model
	LibraryPath string // ONNX Runtime shared library; empty means platform default
	Threads     int    // intra-op threads; 0 lets the runtime decide
	ImageSize   int    // fallback input size for models with dynamic dims
	Softmax     bool   // apply softmax to raw model outputs
	TopK        int
}

// KnowledgeConfig locates the description/recommendation table.
type KnowledgeConfig struct {
	Path string // empty means the embedded table
}

// OutputConfig holds output destination settings.
type OutputConfig struct {
	Format      string // "json" or "text"
	Pretty      bool
	Verbosity   string // "minimal", "standard", "full"
	Locale      string // BCP 47 tag for text percentages
	FilePath    string // NDJSON copy of every diagnosis; empty disables
	FileMaxSize int64  // rotation threshold in bytes; 0 disables
	WebhookURL  string // empty disables
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string
	File  string // empty means stderr
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Inference: InferenceConfig{
			Backend:     getenv("LEAFCHECK_BACKEND", "remote"),
			Endpoint:    getenv("LEAFCHECK_ENDPOINT", "http://localhost:5000/predict"),
			Timeout:     getenvDuration("LEAFCHECK_TIMEOUT", 30*time.Second),
			ModelPath:   getenv("LEAFCHECK_MODEL_PATH", "models/model.onnx"),
			LabelsPath:  os.Getenv("LEAFCHECK_LABELS_PATH"),
			LibraryPath: os.Getenv("LEAFCHECK_ORT_LIBRARY"),
			Threads:     getenvInt("LEAFCHECK_THREADS", 0),
			ImageSize:   getenvInt("LEAFCHECK_IMAGE_SIZE", 224),
			Softmax:     getenvBool("LEAFCHECK_SOFTMAX", false),
			TopK:        getenvInt("LEAFCHECK_TOP_K", 5),
		},
		Knowledge: KnowledgeConfig{
			Path: os.Getenv("LEAFCHECK_KNOWLEDGE_PATH"),
		},
		Output: OutputConfig{
			Format:      getenv("LEAFCHECK_OUTPUT", "text"),
			Pretty:      getenvBool("LEAFCHECK_OUTPUT_PRETTY", false),
			Verbosity:   getenv("LEAFCHECK_VERBOSITY", "standard"),
			Locale:      getenv("LEAFCHECK_LOCALE", "en"),
			FilePath:    os.Getenv("LEAFCHECK_OUTPUT_FILE"),
			FileMaxSize: int64(getenvInt("LEAFCHECK_OUTPUT_FILE_MAX_SIZE", 0)),
			WebhookURL:  os.Getenv("LEAFCHECK_WEBHOOK_URL"),
		},
		Log: LogConfig{
			Level: getenv("LEAFCHECK_LOG_LEVEL", "info"),
			File:  os.Getenv("LEAFCHECK_LOG_FILE"),
		},
	}
}

// Validate checks the configuration and returns every problem found.
func (c Config) Validate() error {
	var errs []error

	switch c.Inference.Backend {
	case "remote":
		if c.Inference.Endpoint == "" {
			errs = append(errs, errors.New("LEAFCHECK_ENDPOINT is required for the remote backend"))
		}
	case "local":
		if _, err := os.Stat(c.Inference.ModelPath); err != nil {
			errs = append(errs, fmt.Errorf("model file: %w", err))
		}
	default:
		errs = append(errs, fmt.Errorf("backend must be remote or local, got %q", c.Inference.Backend))
	}
	if c.Inference.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must be >= 0, got %v", c.Inference.Timeout))
	}
	if c.Inference.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads must be >= 0, got %d", c.Inference.Threads))
	}
	if c.Inference.ImageSize <= 0 {
		errs = append(errs, fmt.Errorf("image size must be > 0, got %d", c.Inference.ImageSize))
	}
	if c.Inference.TopK < 0 {
		errs = append(errs, fmt.Errorf("top-k must be >= 0, got %d", c.Inference.TopK))
	}

	if c.Knowledge.Path != "" {
		if _, err := os.Stat(c.Knowledge.Path); err != nil {
			errs = append(errs, fmt.Errorf("knowledge file: %w", err))
		}
	}

	switch c.Output.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("output format must be json or text, got %q", c.Output.Format))
	}
	switch strings.ToLower(c.Output.Verbosity) {
	case "minimal", "standard", "full":
	default:
		errs = append(errs, fmt.Errorf("verbosity must be minimal, standard or full, got %q", c.Output.Verbosity))
	}
	if c.Output.FileMaxSize < 0 {
		errs = append(errs, fmt.Errorf("output file max size must be >= 0, got %d", c.Output.FileMaxSize))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// getenvDuration accepts Go durations ("45s") or plain seconds ("45").
func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return fallback
}
