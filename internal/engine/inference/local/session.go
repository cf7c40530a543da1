package local

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// layout is the memory order the model expects for image input.
type layout int

const (
	nchw layout = iota // [batch, channels, height, width]
	nhwc               // [batch, height, width, channels]
)

// session wraps a DynamicAdvancedSession for a single-input image
// classifier with one score output.
type session struct {
	mu         sync.Mutex
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	layout     layout
	height     int64
	width      int64
	outShape   ort.Shape // nil when the class dimension is dynamic
}

// newSession inspects the model's tensors and creates an inference session.
// imageSize is used for spatial dimensions the model leaves dynamic.
func newSession(modelPath string, threads, imageSize int) (*session, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("read model info: %w", err)
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("model has no inputs")
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("model has no outputs")
	}

	in := inputs[0]
	dims := in.Dimensions
	if len(dims) != 4 {
		return nil, fmt.Errorf("expected 4D image input %q, got %v", in.Name, dims)
	}

	s := &session{inputName: in.Name, outputName: outputs[0].Name}
	if dims[3] == 3 {
		s.layout = nhwc
		s.height, s.width = dims[1], dims[2]
	} else {
		s.layout = nchw
		s.height, s.width = dims[2], dims[3]
	}
	if s.height <= 0 {
		s.height = int64(imageSize)
	}
	if s.width <= 0 {
		s.width = int64(imageSize)
	}

	s.outShape = staticOutputShape(outputs[0].Dimensions)

	opts, err := newSessionOptions(threads)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	sess, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{s.inputName}, []string{s.outputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.session = sess
	return s, nil
}

// staticOutputShape resolves the output shape for a batch of one. A dynamic
// batch dimension becomes 1; any other dynamic dimension makes the shape
// unknown until the label count is known, and nil is returned.
func staticOutputShape(dims ort.Shape) ort.Shape {
	if len(dims) == 0 {
		return nil
	}
	shape := make(ort.Shape, len(dims))
	copy(shape, dims)
	if len(shape) > 1 && shape[0] <= 0 {
		shape[0] = 1
	}
	for _, d := range shape {
		if d <= 0 {
			return nil
		}
	}
	return shape
}

// inputShape returns the tensor shape for a single image.
func (s *session) inputShape() ort.Shape {
	if s.layout == nhwc {
		return ort.NewShape(1, s.height, s.width, 3)
	}
	return ort.NewShape(1, 3, s.height, s.width)
}

// infer runs one forward pass. pixels must match inputShape. classes is
// the output width to allocate when the model does not declare one.
func (s *session) infer(pixels []float32, classes int) ([]float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tIn, err := ort.NewTensor(s.inputShape(), pixels)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer tIn.Destroy()

	outShape := s.outShape
	if outShape == nil {
		outShape = ort.NewShape(1, int64(classes))
	}
	tOut, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.session.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}

	// Copy data out before the tensor is destroyed.
	src := tOut.GetData()
	out := make([]float32, len(src))
	copy(out, src)
	return out, nil
}

// close releases the ONNX session.
func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}
