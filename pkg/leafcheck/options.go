package leafcheck

import (
	"path/filepath"
	"time"
)

type options struct {
	backend       string
	endpoint      string
	timeout       time.Duration
	modelPath     string
	labelsPath    string
	libraryPath   string
	threads       int
	softmax       bool
	topK          int
	knowledgePath string
}

// Option configures a Leafcheck instance.
type Option func(*options)

// WithEndpoint sets the remote prediction URL. Default: http://localhost:5000/predict.
func WithEndpoint(url string) Option {
	return func(o *options) {
		o.backend = "remote"
		o.endpoint = url
	}
}

// WithTimeout bounds each remote request. 0 waits forever. Default: 30s.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLocalModel switches to in-process inference using dir/model.onnx and
// dir/labels.json. The ONNX Runtime library is looked up in dir as well.
func WithLocalModel(dir string) Option {
	return func(o *options) {
		o.backend = "local"
		o.modelPath = filepath.Join(dir, "model.onnx")
		o.labelsPath = filepath.Join(dir, "labels.json")
	}
}

// WithModelPaths sets explicit local model, label and runtime library paths.
// Empty labels or library fall back to files next to the model.
func WithModelPaths(model, labels, library string) Option {
	return func(o *options) {
		o.backend = "local"
		o.modelPath = model
		o.labelsPath = labels
		o.libraryPath = library
	}
}

// WithThreads sets the ONNX Runtime intra-op thread count.
func WithThreads(n int) Option {
	return func(o *options) { o.threads = n }
}

// WithSoftmax applies softmax to the local model's raw outputs.
func WithSoftmax(on bool) Option {
	return func(o *options) { o.softmax = on }
}

// WithTopK sets how many entries a local diagnosis keeps. Default: 5.
func WithTopK(k int) Option {
	return func(o *options) { o.topK = k }
}

// WithKnowledgeFile replaces the built-in knowledge base with a YAML file.
func WithKnowledgeFile(path string) Option {
	return func(o *options) { o.knowledgePath = path }
}

func defaultOptions() options {
	return options{
		backend:  "remote",
		endpoint: "http://localhost:5000/predict",
		timeout:  30 * time.Second,
		topK:     5,
	}
}
