package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/crimson-sun/leafcheck/internal/config"
	"github.com/crimson-sun/leafcheck/internal/engine"
	"github.com/crimson-sun/leafcheck/internal/engine/inference"
	"github.com/crimson-sun/leafcheck/internal/engine/knowledge"
	"github.com/crimson-sun/leafcheck/internal/logging"
	"github.com/crimson-sun/leafcheck/internal/model"
	"github.com/crimson-sun/leafcheck/internal/pipeline"
	"github.com/crimson-sun/leafcheck/internal/tui"

	// Register inference backends.
	_ "github.com/crimson-sun/leafcheck/internal/engine/inference/local"
	_ "github.com/crimson-sun/leafcheck/internal/engine/inference/remote"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	var (
		interactive bool
		showVersion bool
	)
	flag.BoolVar(&interactive, "tui", false, "open the interactive viewer")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&cfg.Inference.Backend, "backend", cfg.Inference.Backend, "inference backend: remote or local")
	flag.StringVar(&cfg.Inference.Endpoint, "endpoint", cfg.Inference.Endpoint, "remote prediction endpoint")
	flag.DurationVar(&cfg.Inference.Timeout, "timeout", cfg.Inference.Timeout, "remote request timeout (0 waits forever)")
	flag.StringVar(&cfg.Inference.ModelPath, "model", cfg.Inference.ModelPath, "ONNX model for the local backend")
	flag.StringVar(&cfg.Knowledge.Path, "knowledge", cfg.Knowledge.Path, "YAML knowledge base (default: embedded)")
	flag.StringVar(&cfg.Output.Format, "format", cfg.Output.Format, "output format: text or json")
	flag.StringVar(&cfg.Output.Verbosity, "verbosity", cfg.Output.Verbosity, "minimal, standard or full")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: leafcheck [flags] image...\n       leafcheck -tui\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if showVersion {
		fmt.Println("leafcheck " + config.Version)
		return
	}
	images := flag.Args()
	if !interactive && len(images) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration:\n%v", err)
	}

	level := logging.ParseLevel(cfg.Log.Level)
	switch {
	case interactive && cfg.Log.File != "":
		closeLog, err := logging.InitFile(cfg.Log.File, level)
		if err != nil {
			log.Fatalf("failed to open log file: %v", err)
		}
		defer closeLog()
	case interactive:
		// The viewer owns the terminal.
		logging.Discard()
	default:
		logging.Init(cfg.Output.Format == "json", level)
	}

	kb, err := loadKnowledge(cfg.Knowledge)
	if err != nil {
		log.Fatalf("failed to load knowledge base: %v", err)
	}

	out, err := buildOutput(cfg.Output, interactive)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}

	p, initErr := buildPipeline(cfg.Inference, kb, out)
	defer p.Close()

	if interactive {
		m := tui.New(p, initErr, cfg.Output.Locale)
		if _, err := tea.NewProgram(m).Run(); err != nil {
			log.Fatal(err)
		}
		return
	}
	if initErr != nil {
		log.Fatalf("failed to initialize %s backend: %v", cfg.Inference.Backend, initErr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if failed := classifyAll(ctx, p, images); failed > 0 {
		p.Close()
		os.Exit(1)
	}
}

func loadKnowledge(cfg config.KnowledgeConfig) (*knowledge.Base, error) {
	if cfg.Path == "" {
		return knowledge.Default(), nil
	}
	return knowledge.LoadFile(cfg.Path)
}

// buildPipeline opens the configured backend. An initialization failure
// yields a pipeline that rejects every submission, plus the error.
func buildPipeline(cfg config.InferenceConfig, kb *knowledge.Base, out *outputs) (*pipeline.Pipeline, error) {
	prov, err := inference.Open(cfg.Backend, inference.Config{
		Endpoint:    cfg.Endpoint,
		Timeout:     cfg.Timeout,
		Labels:      kb.Labels(),
		ModelPath:   cfg.ModelPath,
		LabelsPath:  cfg.LabelsPath,
		LibraryPath: cfg.LibraryPath,
		Threads:     cfg.Threads,
		ImageSize:   cfg.ImageSize,
		Softmax:     cfg.Softmax,
		TopK:        cfg.TopK,
	})
	if err != nil {
		slog.Error("backend initialization failed", "backend", cfg.Backend, "error", err)
		out.Close()
		return pipeline.NewFailed(err), err
	}
	slog.Info("leafcheck ready", "backend", prov.Name(), "version", config.Version)
	return pipeline.New(engine.New(prov, kb), out), nil
}

// classifyAll submits each image in turn and returns the number of failures.
func classifyAll(ctx context.Context, p *pipeline.Pipeline, paths []string) int {
	failed := 0
	for _, path := range paths {
		if ctx.Err() != nil {
			return failed + 1
		}
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
			failed++
			continue
		}
		_, err = p.Submit(ctx, model.Image{Name: filepath.Base(path), Data: data})
		if err == nil || errors.Is(err, pipeline.ErrSuperseded) {
			continue
		}
		failed++
		if s := p.State(); s.Status == pipeline.Failed {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, s.Message)
		} else {
			fmt.Fprintf(os.Stderr, "%s: %v\n", path, err)
		}
	}
	return failed
}
