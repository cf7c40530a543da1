package inference

import (
	"context"
	"errors"
	"time"

	"github.com/crimson-sun/leafcheck/internal/model"
)

// Provider classifies a single image. Remote and local backends both
// implement it so the rest of the system does not care where inference runs.
type Provider interface {
	// Name identifies the backend ("remote", "local").
	Name() string

	// Classify runs one inference call for img.
	Classify(ctx context.Context, img model.Image) (model.Prediction, error)

	// Close releases backend resources.
	Close() error
}

var (
	// ErrTransport marks network failures and non-2xx responses.
	ErrTransport = errors.New("transport failure")

	// ErrInitialization marks model or label loading failures. A provider
	// that failed to initialize is unusable for the rest of the session.
	ErrInitialization = errors.New("initialization failure")

	// ErrInference marks failures of a single local inference call.
	ErrInference = errors.New("inference failure")
)

// Config holds the settings of every backend. Each backend reads only the
// fields it needs.
type Config struct {
	// Remote backend.
	Endpoint string
	Timeout  time.Duration
	Labels   []string // class order of the remote probability vector

	// Local backend.
	ModelPath   string
	LabelsPath  string
	LibraryPath string
	Threads     int
	ImageSize   int  // fallback when the model input has dynamic spatial dims
	Softmax     bool // apply softmax to raw model outputs
	TopK        int
}
