//go:build onnx

package engine

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// deepfakeOrtInitOnce guards global ONNX Runtime environment initialization,
// shared with any other onnx-tagged engine in this package.
var (
	deepfakeOrtInitOnce sync.Once
	deepfakeOrtInitErr  error
)

// OnnxDeepfakeEngine classifies fixed-length audio windows with a
// third-party ONNX model trained to discriminate synthetic from organic
// speech. It holds the model path rather than embedding model bytes: unlike
// the Silero VAD model, deepfake classifiers are actively retrained and
// swapped as new generators emerge, so baking one into the binary would
// force a rebuild on every model update.
type OnnxDeepfakeEngine struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// DeepfakeNativeAvailable reports that the onnx classifier backend is
// compiled in.
func DeepfakeNativeAvailable() bool { return true }

// NewDeepfakeEngine loads the ONNX model at modelPath and allocates the
// fixed input/output tensors for DeepfakeWindowSamples-length windows.
func NewDeepfakeEngine(modelPath string) (DeepfakeEngine, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeepfakeModelUnavailable, err)
	}

	deepfakeOrtInitOnce.Do(func() {
		libPath, err := resolveDeepfakeORTLibPath()
		if err != nil {
			deepfakeOrtInitErr = fmt.Errorf("resolve ORT lib: %w", err)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		deepfakeOrtInitErr = ort.InitializeEnvironment()
	})
	if deepfakeOrtInitErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeepfakeModelUnavailable, deepfakeOrtInitErr)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, DeepfakeWindowSamples))
	if err != nil {
		return nil, fmt.Errorf("deepfake: create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("deepfake: create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input"},
		[]string{"output"},
		[]ort.Value{inputTensor},
		[]ort.Value{outputTensor},
		nil,
	)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("deepfake: create session: %w", err)
	}

	return &OnnxDeepfakeEngine{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Classify runs inference on exactly DeepfakeWindowSamples samples. Callers
// are responsible for padding or truncating to that length; the sensor
// wrapper (internal/sensor/catalog/hf_deepfake.go) does this.
func (e *OnnxDeepfakeEngine) Classify(window []float32) (float32, error) {
	if len(window) != DeepfakeWindowSamples {
		return 0, fmt.Errorf("deepfake: window has %d samples, want %d", len(window), DeepfakeWindowSamples)
	}
	copy(e.inputTensor.GetData(), window)
	if err := e.session.Run(); err != nil {
		return 0, fmt.Errorf("deepfake: inference: %w", err)
	}
	return e.outputTensor.GetData()[0], nil
}

// Close releases ONNX Runtime resources. Safe to call multiple times.
func (e *OnnxDeepfakeEngine) Close() error {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	if e.inputTensor != nil {
		e.inputTensor.Destroy()
		e.inputTensor = nil
	}
	if e.outputTensor != nil {
		e.outputTensor.Destroy()
		e.outputTensor = nil
	}
	return nil
}
