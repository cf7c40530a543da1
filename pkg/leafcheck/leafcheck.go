package leafcheck

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/crimson-sun/leafcheck/internal/engine"
	"github.com/crimson-sun/leafcheck/internal/engine/inference"
	"github.com/crimson-sun/leafcheck/internal/engine/knowledge"
	"github.com/crimson-sun/leafcheck/internal/model"

	_ "github.com/crimson-sun/leafcheck/internal/engine/inference/local"
	_ "github.com/crimson-sun/leafcheck/internal/engine/inference/remote"
)

// Errors callers can match with errors.Is.
var (
	ErrTransport      = inference.ErrTransport
	ErrInitialization = inference.ErrInitialization
	ErrInference      = inference.ErrInference
)

// Leafcheck classifies leaf images. Safe for concurrent use.
type Leafcheck struct {
	engine    *engine.Engine
	knowledge *knowledge.Base
}

// New creates a Leafcheck. With the local backend this loads the model,
// which is expensive; create once and reuse.
func New(opts ...Option) (*Leafcheck, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	kb := knowledge.Default()
	if o.knowledgePath != "" {
		var err error
		if kb, err = knowledge.LoadFile(o.knowledgePath); err != nil {
			return nil, fmt.Errorf("leafcheck: %w", err)
		}
	}

	prov, err := inference.Open(o.backend, inference.Config{
		Endpoint:    o.endpoint,
		Timeout:     o.timeout,
		Labels:      kb.Labels(),
		ModelPath:   o.modelPath,
		LabelsPath:  o.labelsPath,
		LibraryPath: o.libraryPath,
		Threads:     o.threads,
		Softmax:     o.softmax,
		TopK:        o.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("leafcheck: %w", err)
	}

	return &Leafcheck{engine: engine.New(prov, kb), knowledge: kb}, nil
}

// Diagnose classifies one image given its file name and encoded bytes.
func (l *Leafcheck) Diagnose(ctx context.Context, name string, data []byte) (Diagnosis, error) {
	d, err := l.engine.Diagnose(ctx, model.Image{Name: name, Data: data})
	if err != nil {
		return Diagnosis{}, fmt.Errorf("leafcheck: %w", err)
	}
	d.RequestID = uuid.NewString()
	return fromModel(d), nil
}

// DiagnoseFile reads and classifies the image at path.
func (l *Leafcheck) DiagnoseFile(ctx context.Context, path string) (Diagnosis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Diagnosis{}, fmt.Errorf("leafcheck: %w", err)
	}
	return l.Diagnose(ctx, filepath.Base(path), data)
}

// Labels returns the knowledge-base class keys in lookup order.
func (l *Leafcheck) Labels() []string {
	return l.knowledge.Labels()
}

// Backend reports which inference backend is in use ("remote" or "local").
func (l *Leafcheck) Backend() string {
	return l.engine.Backend()
}

// Close releases backend resources.
func (l *Leafcheck) Close() error {
	return l.engine.Close()
}

func fromModel(d model.Diagnosis) Diagnosis {
	ranked := make([]Entry, len(d.Ranked))
	for i, e := range d.Ranked {
		ranked[i] = Entry{Label: e.Label, Probability: e.Probability}
	}
	return Diagnosis{
		RequestID:      d.RequestID,
		Backend:        d.Backend,
		Image:          d.Image,
		Class:          d.Class,
		Score:          d.Score,
		Description:    d.Knowledge.Description,
		Recommendation: d.Knowledge.Recommendation,
		Ranked:         ranked,
		Timestamp:      d.Timestamp,
	}
}
