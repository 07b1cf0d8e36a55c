package stage

import (
	"os"

	"github.com/veridianvoice/deepfake-core/internal/engine"
)

// NeuralStage delegates to the same optional ONNX classifier backend as the
// HFDeepfake sensor (internal/sensor/catalog), but at the stage level: when
// the backend is unavailable the stage reports Success = false so the
// fusion engine renormalizes the remaining stage weights, rather than
// treating an unconfigured model as a sensor abstention.
type NeuralStage struct {
	eng engine.DeepfakeEngine
}

// NewNeuralStage probes the backend and constructs the engine once, at
// pipeline construction time, matching the eager catalog.NewHFDeepfake
// pattern (spec §9: "runtime analysis never initializes sensors"). eng is
// left nil when the backend is unavailable; Analyze reports that as a
// failed stage rather than attempting construction again per call.
func NewNeuralStage() *NeuralStage {
	s := &NeuralStage{}
	if !engine.DeepfakeNativeAvailable() {
		return s
	}
	modelPath := os.Getenv("VOXFUSION_DEEPFAKE_MODEL_PATH")
	if modelPath == "" {
		return s
	}
	if eng, err := engine.NewDeepfakeEngine(modelPath); err == nil {
		s.eng = eng
	}
	return s
}

func (*NeuralStage) Name() string { return "neural" }

func (s *NeuralStage) Analyze(in Input) Result {
	if s.eng == nil {
		return Result{Name: "neural", Success: false, Diagnostics: map[string]any{"reason": "classifier backend unavailable"}}
	}

	window := fitWindow(in.Buffer.Samples, engine.DeepfakeWindowSamples)
	prob, err := s.eng.Classify(window)
	if err != nil {
		return Result{Name: "neural", Success: false, Diagnostics: map[string]any{"reason": err.Error()}}
	}
	return Result{Name: "neural", Success: true, Score: float64(prob)}
}

// fitWindow centers samples within a fixed-length window, matching
// internal/sensor/catalog.fitWindow's padding/truncation convention.
func fitWindow(samples []float32, size int) []float32 {
	out := make([]float32, size)
	if len(samples) >= size {
		start := (len(samples) - size) / 2
		copy(out, samples[start:start+size])
		return out
	}
	offset := (size - len(samples)) / 2
	copy(out[offset:], samples)
	return out
}
