package output

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/leafcheck/internal/model"
)

// Verbosity controls how much of a diagnosis is written.
type Verbosity int

const (
	Minimal  Verbosity = iota // class and score only
	Standard                  // adds knowledge and the top of the breakdown
	Full                      // everything
)

// StandardBreakdown is the number of ranked entries kept at Standard.
const StandardBreakdown = 5

func (v Verbosity) String() string {
	switch v {
	case Minimal:
		return "minimal"
	case Standard:
		return "standard"
	case Full:
		return "full"
	default:
		return fmt.Sprintf("Verbosity(%d)", int(v))
	}
}

// ParseVerbosity maps a config string to a Verbosity. Empty means Standard.
func ParseVerbosity(s string) (Verbosity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minimal":
		return Minimal, nil
	case "", "standard":
		return Standard, nil
	case "full":
		return Full, nil
	default:
		return Standard, fmt.Errorf("output: unknown verbosity %q", s)
	}
}

// FormatDiagnosis returns a copy of d with fields stripped according to verbosity.
// At Minimal: Knowledge and Ranked are dropped (omitted from JSON).
// At Standard: Ranked is truncated to StandardBreakdown entries.
// At Full: all fields preserved.
func FormatDiagnosis(d model.Diagnosis, verbosity Verbosity) model.Diagnosis {
	switch verbosity {
	case Minimal:
		d.Knowledge = model.KnowledgeRecord{}
		d.Ranked = nil
	case Standard:
		if len(d.Ranked) > StandardBreakdown {
			d.Ranked = d.Ranked[:StandardBreakdown:StandardBreakdown]
		}
	}
	return d
}

// DisplayLabel renders a class label for people: every underscore becomes a
// space.
func DisplayLabel(label string) string {
	return strings.ReplaceAll(label, "_", " ")
}
