package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/crimson-sun/leafcheck/internal/model"
	"github.com/crimson-sun/leafcheck/internal/output"
	"github.com/crimson-sun/leafcheck/internal/pipeline"
)

// Submitter is the TUI-facing subset of the pipeline.
type Submitter interface {
	Submit(ctx context.Context, img model.Image) (model.Diagnosis, error)
}

// resultMsg carries the outcome of one submission back to Update.
type resultMsg struct {
	gen uint64
	d   model.Diagnosis
	err error
}

// Model is the Bubble Tea model for the interactive viewer.
type Model struct {
	svc     Submitter
	fatal   error
	printer *message.Printer

	input   textinput.Model
	spinner spinner.Model
	bar     progress.Model

	gen     uint64 // generation of the latest submission
	loading bool
	result  *model.Diagnosis
	errMsg  string
	width   int
}

// New creates the viewer. A non-nil fatal error means the backend failed to
// initialize: it is shown permanently and input is disabled.
func New(svc Submitter, fatal error, locale string) Model {
	ti := textinput.New()
	ti.Prompt = "image> "
	ti.Placeholder = "path to a leaf photo (jpg/png), Enter to classify"
	ti.CharLimit = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}

	m := Model{
		svc:     svc,
		fatal:   fatal,
		printer: message.NewPrinter(tag),
		input:   ti,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(40), progress.WithoutPercentage()),
		width:   80,
	}
	if fatal == nil {
		m.input.Focus()
	}
	return m
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window, spinner and result messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.bar.Width = min(40, max(10, msg.Width-30))
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case resultMsg:
		// Results of older submissions never overwrite newer state.
		if msg.gen != m.gen || errors.Is(msg.err, pipeline.ErrSuperseded) {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.errMsg = "error processing image: " + msg.err.Error()
			return m, nil
		}
		d := msg.d
		m.result = &d
		return m, nil
	}

	if m.fatal != nil {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit starts a new generation for the path in the input box, clearing
// the previous result and error.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.fatal != nil {
		return m, nil
	}
	path := strings.TrimSpace(m.input.Value())
	if path == "" {
		return m, nil
	}
	m.gen++
	m.loading = true
	m.result = nil
	m.errMsg = ""
	return m, tea.Batch(m.spinner.Tick, m.classify(m.gen, path))
}

// classify reads the image and submits it off the UI goroutine.
func (m Model) classify(gen uint64, path string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return resultMsg{gen: gen, err: fmt.Errorf("read image: %w", err)}
		}
		d, err := svc.Submit(context.Background(), model.Image{Name: filepath.Base(path), Data: data})
		return resultMsg{gen: gen, d: d, err: err}
	}
}

func (m Model) percent(p float64) string {
	return m.printer.Sprintf("%.1f%%", p*100)
}

// View renders the header, input, and the current result or error.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("leafcheck · plant disease classifier"))
	b.WriteString("\n\n")

	if m.fatal != nil {
		b.WriteString(errorStyle.Render("error initializing model: " + m.fatal.Error()))
		b.WriteString("\n")
		b.WriteString(hintStyle.Render("esc to quit"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(inputBoxStyle.Render(m.input.View()))
	b.WriteString("\n")

	switch {
	case m.loading:
		b.WriteString(m.spinner.View() + " classifying...\n")
	case m.errMsg != "":
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	case m.result != nil:
		b.WriteString(m.renderResult(*m.result))
	}

	b.WriteString(hintStyle.Render("enter classify · esc quit"))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderResult(d model.Diagnosis) string {
	var b strings.Builder
	b.WriteString(classStyle.Render(output.DisplayLabel(d.Class)))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(d.Score))
	b.WriteString(" Confidence: " + m.percent(d.Score) + "\n\n")

	if d.Knowledge.Description != "" {
		b.WriteString(labelStyle.Render("Description") + "\n")
		b.WriteString(wrapStyle.Width(max(20, m.width-4)).Render(d.Knowledge.Description) + "\n")
	}
	if d.Knowledge.Recommendation != "" {
		b.WriteString(labelStyle.Render("Recommendation") + "\n")
		b.WriteString(wrapStyle.Width(max(20, m.width-4)).Render(d.Knowledge.Recommendation) + "\n")
	}

	if len(d.Ranked) > 0 {
		b.WriteString("\n" + labelStyle.Render("Breakdown") + "\n")
		width := 0
		for _, e := range d.Ranked {
			width = max(width, len(output.DisplayLabel(e.Label)))
		}
		small := m.bar
		small.Width = min(20, m.bar.Width)
		for _, e := range d.Ranked {
			name := fmt.Sprintf("%-*s", width, output.DisplayLabel(e.Label))
			if e.Label == d.Class {
				name = highlightStyle.Render(name)
			}
			b.WriteString("  " + name + " " + small.ViewAs(e.Probability) + " " + m.percent(e.Probability) + "\n")
		}
	}
	return boxStyle.Render(b.String()) + "\n"
}
