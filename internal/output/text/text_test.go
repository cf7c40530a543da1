package text

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/crimson-sun/leafcheck/internal/model"
	"github.com/crimson-sun/leafcheck/internal/output"
)

func testDiagnosis() model.Diagnosis {
	return model.Diagnosis{
		Image: "leaf.jpg",
		Class: "Apple___Black_rot",
		Score: 0.7,
		Knowledge: model.KnowledgeRecord{
			Description:    "Podredumbre negra en frutos y ramas de manzano.",
			Recommendation: "Eliminar frutos momificados y ramas infectadas.",
		},
		Ranked: model.RankedResult{
			{Label: "Apple___Black_rot", Probability: 0.7},
			{Label: "Apple___Apple_scab", Probability: 0.2},
			{Label: "Apple___healthy", Probability: 0.1},
		},
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	out, err := NewWriter(&buf, output.Full, "en")
	if err != nil {
		t.Fatalf("NewWriter error: %v", err)
	}
	if err := out.Write(context.Background(), testDiagnosis()); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	s := buf.String()
	for _, want := range []string{
		"leaf.jpg",
		"Apple   Black rot",
		"70.0%",
		"Podredumbre negra",
		"Eliminar frutos",
		"Breakdown:",
		"20.0%",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("report missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "_") {
		t.Errorf("report should not contain underscores:\n%s", s)
	}
}

func TestMinimalOmitsKnowledge(t *testing.T) {
	var buf bytes.Buffer
	out, _ := NewWriter(&buf, output.Minimal, "")
	out.Write(context.Background(), testDiagnosis())

	s := buf.String()
	if strings.Contains(s, "Description:") || strings.Contains(s, "Breakdown:") {
		t.Errorf("minimal report should only carry class and confidence:\n%s", s)
	}
	if !strings.Contains(s, "Confidence:") {
		t.Errorf("minimal report missing confidence:\n%s", s)
	}
}

func TestPercentLocalized(t *testing.T) {
	tests := []struct {
		locale string
		p      float64
		want   string
	}{
		{"en", 0.7, "70.0%"},
		{"en", 0, "0.0%"},
		{"en", 0.12345, "12.3%"},
		{"es", 0.7, "70,0%"},
	}
	for _, tt := range tests {
		out, err := NewWriter(&bytes.Buffer{}, output.Standard, tt.locale)
		if err != nil {
			t.Fatalf("NewWriter(%q) error: %v", tt.locale, err)
		}
		if got := out.Percent(tt.p); got != tt.want {
			t.Errorf("Percent(%v) in %s = %q, want %q", tt.p, tt.locale, got, tt.want)
		}
	}
}

func TestInvalidLocale(t *testing.T) {
	if _, err := NewWriter(&bytes.Buffer{}, output.Standard, "not a locale!"); err == nil {
		t.Fatal("expected error for invalid locale")
	}
}
