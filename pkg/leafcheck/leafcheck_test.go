package leafcheck

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

const testModelDir = "../../models"

func skipWithoutModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(filepath.Join(testModelDir, "model.onnx")); os.IsNotExist(err) {
		t.Skip("ONNX model not available, skipping integration test")
	}
}

// predictServer answers every request with body and records the uploaded
// file name.
func predictServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var mu sync.Mutex
	var filename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			if fh := r.MultipartForm.File["image"]; len(fh) == 1 {
				mu.Lock()
				filename = fh[0].Filename
				mu.Unlock()
			}
		}
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &filename
}

func TestDiagnoseRemote(t *testing.T) {
	srv, filename := predictServer(t, http.StatusOK,
		`{"class":"Apple___Black_rot","probabilities":[0.1,0.7,0.05,0.05,0.1]}`)

	lc, err := New(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	d, err := lc.Diagnose(context.Background(), "leaf.jpg", []byte{0xff, 0xd8, 0xff})
	if err != nil {
		t.Fatalf("Diagnose() error: %v", err)
	}

	if d.Class != "Apple___Black_rot" || d.Score != 0.7 {
		t.Errorf("Class/Score = %q/%v", d.Class, d.Score)
	}
	if d.Description != "Podredumbre negra en frutos y ramas de manzano." {
		t.Errorf("Description = %q", d.Description)
	}
	if d.Recommendation == "" {
		t.Error("Recommendation is empty")
	}
	if len(d.Ranked) != 5 || d.Ranked[0].Label != "Apple___Black_rot" {
		t.Errorf("Ranked = %v", d.Ranked)
	}
	if d.RequestID == "" || d.Backend != "remote" || d.Timestamp.IsZero() {
		t.Errorf("metadata not set: %+v", d)
	}
	if *filename != "leaf.jpg" {
		t.Errorf("uploaded filename = %q, want leaf.jpg", *filename)
	}
}

func TestDiagnoseFile(t *testing.T) {
	srv, filename := predictServer(t, http.StatusOK, `{"class":"Tomato___healthy","probabilities":[]}`)
	lc, err := New(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	path := filepath.Join(t.TempDir(), "tomato.png")
	os.WriteFile(path, []byte("\x89PNG"), 0o644)

	d, err := lc.DiagnoseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("DiagnoseFile() error: %v", err)
	}
	if d.Image != "tomato.png" || *filename != "tomato.png" {
		t.Errorf("Image = %q, uploaded = %q", d.Image, *filename)
	}
	if d.Score != 0 {
		t.Errorf("Score = %v, want 0 for empty probabilities", d.Score)
	}
	if d.Description != "Tomatera saludable, sin signos de enfermedad." {
		t.Errorf("Description = %q", d.Description)
	}
}

func TestDiagnoseFileMissing(t *testing.T) {
	lc, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	if _, err := lc.DiagnoseFile(context.Background(), filepath.Join(t.TempDir(), "nope.jpg")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}

func TestDiagnoseServerError(t *testing.T) {
	srv, _ := predictServer(t, http.StatusInternalServerError, `model crashed`)
	lc, err := New(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	d, err := lc.Diagnose(context.Background(), "leaf.jpg", []byte("x"))
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if d.Class != "" || d.Ranked != nil {
		t.Errorf("expected no partial diagnosis, got %+v", d)
	}
}

func TestDiagnoseTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	lc, err := New(WithEndpoint(srv.URL), WithTimeout(50*time.Millisecond))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	if _, err := lc.Diagnose(context.Background(), "leaf.jpg", []byte("x")); !errors.Is(err, ErrTransport) {
		t.Fatalf("expected ErrTransport on timeout, got %v", err)
	}
}

func TestLabels(t *testing.T) {
	lc, err := New()
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	want := []string{"Apple___Apple_scab", "Apple___Black_rot", "Apple___Cedar_apple_rust", "Apple___healthy", "Tomato___healthy"}
	got := lc.Labels()
	if len(got) != len(want) {
		t.Fatalf("Labels() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Labels()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if lc.Backend() != "remote" {
		t.Errorf("Backend() = %q, want remote", lc.Backend())
	}
}

func TestWithKnowledgeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	os.WriteFile(path, []byte(`
Grape___Black_rot:
  description: Black rot on grape leaves.
  recommendation: Prune infected shoots.
default:
  description: Unknown.
  recommendation: Ask an agronomist.
`), 0o644)

	srv, _ := predictServer(t, http.StatusOK, `{"class":"Grape___Black_rot","probabilities":[0.88]}`)
	lc, err := New(WithEndpoint(srv.URL), WithKnowledgeFile(path))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	d, err := lc.Diagnose(context.Background(), "grape.jpg", []byte("x"))
	if err != nil {
		t.Fatalf("Diagnose() error: %v", err)
	}
	if d.Description != "Black rot on grape leaves." || d.Score != 0.88 {
		t.Errorf("diagnosis = %+v", d)
	}
}

func TestWithKnowledgeFileMissingDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	os.WriteFile(path, []byte("Apple___healthy:\n  description: ok\n  recommendation: ok\n"), 0o644)

	if _, err := New(WithKnowledgeFile(path)); err == nil {
		t.Fatal("expected error for knowledge base without default")
	}
}

func TestNewBadModelPathReturnsError(t *testing.T) {
	_, err := New(WithLocalModel("/nonexistent/path"))
	if !errors.Is(err, ErrInitialization) {
		t.Fatalf("expected ErrInitialization, got %v", err)
	}
}

func TestConcurrentDiagnose(t *testing.T) {
	srv, _ := predictServer(t, http.StatusOK, `{"class":"Apple___healthy","probabilities":[0,0,0,1,0]}`)
	lc, err := New(WithEndpoint(srv.URL))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := lc.Diagnose(context.Background(), "leaf.jpg", []byte("x"))
			if err == nil && d.Class != "Apple___healthy" {
				err = errors.New("unexpected class " + d.Class)
			}
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Error(err)
		}
	}
}

func TestLocalModel(t *testing.T) {
	skipWithoutModel(t)

	lc, err := New(WithLocalModel(testModelDir))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer lc.Close()

	matches, _ := filepath.Glob(filepath.Join(testModelDir, "*.jpg"))
	if len(matches) == 0 {
		t.Skip("no sample images next to the model")
	}
	d, err := lc.DiagnoseFile(context.Background(), matches[0])
	if err != nil {
		t.Fatalf("DiagnoseFile() error: %v", err)
	}
	if len(d.Ranked) == 0 || len(d.Ranked) > 5 {
		t.Errorf("expected 1..5 ranked entries, got %d", len(d.Ranked))
	}
	if d.Backend != "local" {
		t.Errorf("Backend = %q, want local", d.Backend)
	}
}

