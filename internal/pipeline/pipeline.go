package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/crimson-sun/leafcheck/internal/model"
	"github.com/crimson-sun/leafcheck/internal/output"
)

// ErrSuperseded is returned by Submit when a newer submission started before
// this one finished. Its outcome is discarded.
var ErrSuperseded = errors.New("pipeline: superseded by a newer request")

// Diagnoser produces a diagnosis for one image. *engine.Engine implements it.
type Diagnoser interface {
	Diagnose(ctx context.Context, img model.Image) (model.Diagnosis, error)
	Backend() string
}

// Status is the phase of the most recent submission.
type Status int

const (
	Idle Status = iota
	Loading
	Done
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// State is a snapshot of the pipeline. It is always replaced as a whole.
type State struct {
	Status     Status
	Generation uint64
	Result     model.Diagnosis // set when Status == Done
	Message    string          // set when Status == Failed
}

// Pipeline runs one image at a time through a Diagnoser and writes results
// to an output. Concurrent submissions are resolved by generation: only the
// most recent one may change the state.
type Pipeline struct {
	diag  Diagnoser
	out   output.Output
	fatal error

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	state  State
}

// New creates a Pipeline. out may be nil.
func New(d Diagnoser, out output.Output) *Pipeline {
	return &Pipeline{diag: d, out: out}
}

// NewFailed creates a Pipeline whose backend could not be initialized. Every
// Submit returns err and the state stays Failed.
func NewFailed(err error) *Pipeline {
	return &Pipeline{
		fatal: err,
		state: State{Status: Failed, Message: "error initializing model: " + err.Error()},
	}
}

// Submit diagnoses img. Starting a submission cancels the one in flight.
// If a newer submission starts before this one finishes, Submit returns
// ErrSuperseded and leaves the state alone.
func (p *Pipeline) Submit(ctx context.Context, img model.Image) (model.Diagnosis, error) {
	if p.fatal != nil {
		return model.Diagnosis{}, p.fatal
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	p.cancel = cancel
	p.state = State{Status: Loading, Generation: gen}
	p.mu.Unlock()

	reqID := uuid.NewString()
	log := slog.With("request_id", reqID, "generation", gen, "image", img.Name)
	log.Debug("submit", "backend", p.diag.Backend(), "bytes", len(img.Data))

	d, err := p.diag.Diagnose(ctx, img)

	p.mu.Lock()
	if gen != p.gen {
		p.mu.Unlock()
		log.Debug("discarding stale result")
		return model.Diagnosis{}, ErrSuperseded
	}
	p.cancel = nil
	if err != nil {
		p.state = State{Status: Failed, Generation: gen, Message: "error processing image: " + err.Error()}
		p.mu.Unlock()
		log.Warn("diagnosis failed", "error", err)
		return model.Diagnosis{}, fmt.Errorf("pipeline diagnose: %w", err)
	}
	d.RequestID = reqID
	d.Generation = gen
	p.state = State{Status: Done, Generation: gen, Result: d}
	p.mu.Unlock()

	log.Info("diagnosis", "class", d.Class, "score", d.Score)

	if p.out != nil {
		if err := p.out.Write(ctx, d); err != nil {
			return d, fmt.Errorf("pipeline output: %w", err)
		}
	}
	return d, nil
}

// State returns a snapshot of the current state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Generation returns the generation of the latest submission.
func (p *Pipeline) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen
}

// Close cancels any in-flight submission and closes the output.
func (p *Pipeline) Close() error {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	if p.out == nil {
		return nil
	}
	return p.out.Close()
}
