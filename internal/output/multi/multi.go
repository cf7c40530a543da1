package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/leafcheck/internal/model"
	"github.com/crimson-sun/leafcheck/internal/output"
)

// Multi fans out diagnoses to several outputs in order. A failing output
// does not stop delivery to the rest.
type Multi struct {
	outputs []output.Output
}

// New creates a Multi over the given outputs. Nil outputs are skipped so
// callers can pass optional destinations directly.
func New(outputs ...output.Output) *Multi {
	m := &Multi{}
	for _, o := range outputs {
		if o != nil {
			m.outputs = append(m.outputs, o)
		}
	}
	return m
}

// Len reports the number of wrapped outputs.
func (m *Multi) Len() int { return len(m.outputs) }

// Write delivers d to every wrapped output and joins their errors.
func (m *Multi) Write(ctx context.Context, d model.Diagnosis) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
