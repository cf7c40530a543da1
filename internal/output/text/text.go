// Package text writes diagnoses as a human-readable report.
package text

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/crimson-sun/leafcheck/internal/model"
	"github.com/crimson-sun/leafcheck/internal/output"
)

// DefaultLocale formats percentages when no locale is configured.
const DefaultLocale = "en"

// Output writes one report block per diagnosis.
type Output struct {
	mu        sync.Mutex
	w         io.Writer
	p         *message.Printer
	verbosity output.Verbosity
}

// New creates a text Output on stdout.
func New(verbosity output.Verbosity, locale string) (*Output, error) {
	return NewWriter(os.Stdout, verbosity, locale)
}

// NewWriter creates a text Output on w. locale is a BCP 47 tag that controls
// number formatting; empty means DefaultLocale.
func NewWriter(w io.Writer, verbosity output.Verbosity, locale string) (*Output, error) {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return nil, fmt.Errorf("text output: locale %q: %w", locale, err)
	}
	return &Output{w: w, p: message.NewPrinter(tag), verbosity: verbosity}, nil
}

func (o *Output) Write(_ context.Context, d model.Diagnosis) error {
	report := o.Format(output.FormatDiagnosis(d, o.verbosity))
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, err := io.WriteString(o.w, report); err != nil {
		return fmt.Errorf("text output: %w", err)
	}
	return nil
}

func (o *Output) Close() error { return nil }

// Percent formats a probability in [0,1] as a percentage with one decimal.
func (o *Output) Percent(p float64) string {
	return o.p.Sprintf("%.1f%%", p*100)
}

// Format renders d without applying verbosity.
func (o *Output) Format(d model.Diagnosis) string {
	var b strings.Builder
	if d.Image != "" {
		fmt.Fprintf(&b, "%s\n", d.Image)
	}
	fmt.Fprintf(&b, "  %-15s %s\n", "Class:", output.DisplayLabel(d.Class))
	fmt.Fprintf(&b, "  %-15s %s\n", "Confidence:", o.Percent(d.Score))
	if d.Knowledge.Description != "" {
		fmt.Fprintf(&b, "  %-15s %s\n", "Description:", d.Knowledge.Description)
	}
	if d.Knowledge.Recommendation != "" {
		fmt.Fprintf(&b, "  %-15s %s\n", "Recommendation:", d.Knowledge.Recommendation)
	}
	if len(d.Ranked) > 0 {
		width := 0
		for _, e := range d.Ranked {
			width = max(width, len(output.DisplayLabel(e.Label)))
		}
		b.WriteString("  Breakdown:\n")
		for _, e := range d.Ranked {
			fmt.Fprintf(&b, "    %-*s %8s\n", width, output.DisplayLabel(e.Label), o.Percent(e.Probability))
		}
	}
	b.WriteString("\n")
	return b.String()
}
