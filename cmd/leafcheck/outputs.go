package main

import (
	"github.com/crimson-sun/leafcheck/internal/config"
	"github.com/crimson-sun/leafcheck/internal/output"
	"github.com/crimson-sun/leafcheck/internal/output/async"
	"github.com/crimson-sun/leafcheck/internal/output/file"
	"github.com/crimson-sun/leafcheck/internal/output/multi"
	"github.com/crimson-sun/leafcheck/internal/output/stdout"
	"github.com/crimson-sun/leafcheck/internal/output/text"
	"github.com/crimson-sun/leafcheck/internal/output/webhook"
)

// outputs wraps the fan-out so Close is safe to call more than once.
type outputs struct {
	*multi.Multi
	closed bool
}

func (o *outputs) Close() error {
	if o.closed {
		return nil
	}
	o.closed = true
	return o.Multi.Close()
}

// buildOutput assembles the configured destinations. In interactive mode
// the terminal belongs to the viewer, so nothing is written to stdout.
func buildOutput(cfg config.OutputConfig, interactive bool) (*outputs, error) {
	verbosity, err := output.ParseVerbosity(cfg.Verbosity)
	if err != nil {
		return nil, err
	}

	var dests []output.Output
	if !interactive {
		switch cfg.Format {
		case "json":
			dests = append(dests, stdout.New(verbosity, cfg.Pretty))
		default:
			t, err := text.New(verbosity, cfg.Locale)
			if err != nil {
				return nil, err
			}
			dests = append(dests, t)
		}
	}

	if cfg.FilePath != "" {
		f, err := file.New(cfg.FilePath, output.Full, file.WithMaxSize(cfg.FileMaxSize))
		if err != nil {
			return nil, err
		}
		dests = append(dests, f)
	}

	if cfg.WebhookURL != "" {
		wh := webhook.New(cfg.WebhookURL, webhook.WithVerbosity(verbosity))
		dests = append(dests, async.New(wh, async.WithDropOnFull()))
	}

	return &outputs{Multi: multi.New(dests...)}, nil
}
