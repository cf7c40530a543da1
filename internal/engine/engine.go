package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/crimson-sun/leafcheck/internal/engine/inference"
	"github.com/crimson-sun/leafcheck/internal/engine/knowledge"
	"github.com/crimson-sun/leafcheck/internal/model"
)

// Engine orchestrates the classify -> rank -> knowledge lookup pipeline for
// a single image.
type Engine struct {
	provider  inference.Provider
	knowledge *knowledge.Base
	now       func() time.Time
}

// New creates an Engine with the provided components.
func New(p inference.Provider, kb *knowledge.Base) *Engine {
	return &Engine{
		provider:  p,
		knowledge: kb,
		now:       time.Now,
	}
}

// Backend returns the name of the inference backend in use.
func (e *Engine) Backend() string {
	return e.provider.Name()
}

// Diagnose classifies img and attaches the knowledge record for the
// predicted class. Score is the highest probability in the ranked result.
// On error no partial diagnosis is returned.
func (e *Engine) Diagnose(ctx context.Context, img model.Image) (model.Diagnosis, error) {
	pred, err := e.provider.Classify(ctx, img)
	if err != nil {
		return model.Diagnosis{}, err
	}

	d := model.Diagnosis{
		Backend:   e.provider.Name(),
		Image:     img.Name,
		Class:     pred.Class,
		Score:     pred.Ranked.Top().Probability,
		Knowledge: e.knowledge.Lookup(pred.Class),
		Ranked:    pred.Ranked,
		Timestamp: e.now(),
	}

	slog.Debug("diagnosis",
		"backend", d.Backend, "image", d.Image,
		"class", d.Class, "score", d.Score)
	return d, nil
}

// Close releases the inference backend.
func (e *Engine) Close() error {
	return e.provider.Close()
}
