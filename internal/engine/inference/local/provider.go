package local

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/crimson-sun/leafcheck/internal/engine/inference"
	"github.com/crimson-sun/leafcheck/internal/engine/ranking"
	"github.com/crimson-sun/leafcheck/internal/model"
)

const (
	defaultTopK      = 5
	defaultImageSize = 224
)

func init() {
	inference.Register("local", func(cfg inference.Config) (inference.Provider, error) {
		return Open(Config{
			ModelPath:   cfg.ModelPath,
			LabelsPath:  cfg.LabelsPath,
			LibraryPath: cfg.LibraryPath,
			Threads:     cfg.Threads,
			ImageSize:   cfg.ImageSize,
			Softmax:     cfg.Softmax,
			TopK:        cfg.TopK,
		})
	})
}

// Config is the explicit initialization input for a local Provider.
type Config struct {
	ModelPath   string
	LabelsPath  string
	LibraryPath string // defaults to libonnxruntime.so next to the model
	Threads     int    // intra-op threads; 0 lets ONNX Runtime decide
	ImageSize   int    // used when the model input has dynamic height/width
	Softmax     bool   // apply softmax to the raw output
	TopK        int    // entries kept per prediction; default 5
}

// Provider runs an ONNX image classifier in-process.
type Provider struct {
	sess    *session
	labels  []string
	softmax bool
	topK    int
}

// Open loads the label file and the model. Any failure is wrapped in
// inference.ErrInitialization; callers should not retry.
func Open(cfg Config) (*Provider, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("local: %w: model path is required", inference.ErrInitialization)
	}
	if cfg.LabelsPath == "" {
		cfg.LabelsPath = filepath.Join(filepath.Dir(cfg.ModelPath), "labels.json")
	}
	if cfg.LibraryPath == "" {
		cfg.LibraryPath = filepath.Join(filepath.Dir(cfg.ModelPath), defaultLibraryName())
	}
	if cfg.ImageSize <= 0 {
		cfg.ImageSize = defaultImageSize
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaultTopK
	}

	labels, err := loadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, fmt.Errorf("local: %w: %w", inference.ErrInitialization, err)
	}

	if err := initRuntime(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("local: %w: %w", inference.ErrInitialization, err)
	}

	sess, err := newSession(cfg.ModelPath, cfg.Threads, cfg.ImageSize)
	if err != nil {
		return nil, fmt.Errorf("local: %w: %w", inference.ErrInitialization, err)
	}

	if sess.outShape != nil && int(sess.outShape.FlattenedSize()) != len(labels) {
		slog.Warn("label count does not match model output",
			"labels", len(labels), "outputs", sess.outShape.FlattenedSize())
	}

	slog.Info("local model loaded",
		"model", cfg.ModelPath, "labels", len(labels),
		"input", fmt.Sprintf("%dx%d", sess.width, sess.height))

	return &Provider{
		sess:    sess,
		labels:  labels,
		softmax: cfg.Softmax,
		topK:    cfg.TopK,
	}, nil
}

// Name implements inference.Provider.
func (p *Provider) Name() string { return "local" }

// Labels returns the class vocabulary in model output order.
func (p *Provider) Labels() []string {
	out := make([]string, len(p.labels))
	copy(out, p.labels)
	return out
}

// Classify runs one inference call and returns the top K labels. Failures
// are wrapped in inference.ErrInference and leave the provider usable.
func (p *Provider) Classify(ctx context.Context, img model.Image) (model.Prediction, error) {
	if err := ctx.Err(); err != nil {
		return model.Prediction{}, err
	}

	pixels, err := preprocess(img.Data, p.sess.width, p.sess.height, p.sess.layout)
	if err != nil {
		return model.Prediction{}, fmt.Errorf("local: %w: %w", inference.ErrInference, err)
	}

	raw, err := p.sess.infer(pixels, len(p.labels))
	if err != nil {
		return model.Prediction{}, fmt.Errorf("local: %w: %w", inference.ErrInference, err)
	}

	var scores []float64
	if p.softmax {
		scores = softmax(raw)
	} else {
		scores = widen(raw)
	}

	ranked := ranking.TopK(pair(p.labels, scores), p.topK)
	return model.Prediction{Class: ranked.Top().Label, Ranked: ranked}, nil
}

// Close releases the ONNX session.
func (p *Provider) Close() error {
	return p.sess.close()
}

// pair attaches each label to the score at the same index. Labels without a
// score get 0; scores without a label are dropped.
func pair(labels []string, scores []float64) []model.Entry {
	entries := make([]model.Entry, len(labels))
	for i, label := range labels {
		entries[i] = model.Entry{Label: label}
		if i < len(scores) {
			entries[i].Probability = scores[i]
		}
	}
	return entries
}

func defaultLibraryName() string {
	switch runtime.GOOS {
	case "darwin":
		return "libonnxruntime.dylib"
	case "windows":
		return "onnxruntime.dll"
	default:
		return "libonnxruntime.so"
	}
}
