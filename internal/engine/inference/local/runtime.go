package local

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv tracks the ONNX Runtime environment. onnxruntime_go keeps a single
// environment per process, so the first library path wins and later callers
// must agree with it.
var ortEnv struct {
	mu      sync.Mutex
	libPath string
	ready   bool
}

// initRuntime initializes the ONNX Runtime environment from libPath. Calling
// it again with the same path is a no-op; a different path is an error.
func initRuntime(libPath string) error {
	ortEnv.mu.Lock()
	defer ortEnv.mu.Unlock()

	if ortEnv.ready {
		if libPath != ortEnv.libPath {
			return fmt.Errorf("onnx runtime already initialized from %s", ortEnv.libPath)
		}
		return nil
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	ortEnv.libPath = libPath
	ortEnv.ready = true
	return nil
}

// newSessionOptions builds per-session options from explicit settings.
func newSessionOptions(threads int) (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("create session options: %w", err)
	}
	if threads > 0 {
		if err := opts.SetIntraOpNumThreads(threads); err != nil {
			opts.Destroy()
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}
	if err := opts.SetInterOpNumThreads(1); err != nil {
		opts.Destroy()
		return nil, fmt.Errorf("set inter-op threads: %w", err)
	}
	return opts, nil
}
