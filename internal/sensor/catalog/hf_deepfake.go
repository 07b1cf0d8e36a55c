package catalog

import (
	"os"

	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/engine"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// HFDeepfake wraps an optional ONNX-backed neural classifier (spec §4.2:
// "at least one sensor may delegate to a trained model rather than a
// closed-form measurement"). It fails open: when the backend is not
// compiled in, or no model file is configured or loadable, NewHFDeepfake
// returns nil and Build leaves the sensor out, so it emits no result at all
// rather than an abstention. Analyze on a value without an engine abstains
// with ReasonModelUnavailable (spec §7 "model unavailable").
type HFDeepfake struct {
	eng       engine.DeepfakeEngine
	threshold float64
}

// NewHFDeepfake returns nil when no usable backend is available, so the
// catalog should not register this sensor at all in that case, matching
// the teacher's NativeAvailable gating pattern for the VAD engine.
func NewHFDeepfake(cfg config.Config) *HFDeepfake {
	if !engine.DeepfakeNativeAvailable() {
		return nil
	}
	modelPath := os.Getenv("VOXFUSION_DEEPFAKE_MODEL_PATH")
	if modelPath == "" {
		return nil
	}
	eng, err := engine.NewDeepfakeEngine(modelPath)
	if err != nil {
		return nil
	}
	return &HFDeepfake{
		eng:       eng,
		threshold: threshold(cfg, "HFDeepfake", "synthetic_probability", 0.5),
	}
}

func (s *HFDeepfake) Name() string              { return "HFDeepfake" }
func (s *HFDeepfake) Category() sensor.Category { return sensor.Prosecution }
func (s *HFDeepfake) MinSamples() int           { return 1 }

func (s *HFDeepfake) Analyze(samples []float32, _ int, _ sensor.Context) sensor.Result {
	if s.eng == nil {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonModelUnavailable, "deepfake classifier backend not available")
	}

	window := fitWindow(samples, engine.DeepfakeWindowSamples)
	prob, err := s.eng.Classify(window)
	if err != nil {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonNumericalFailure, err.Error())
	}

	score := float64(prob)
	passed := sensor.PassedTrue
	if score > s.threshold {
		passed = sensor.PassedFalse
	}
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     score,
		Threshold: s.threshold,
	}
}

// fitWindow centers samples within a fixed-length window: keeping the
// centered size-sample segment if samples is longer, or zero-padding
// silence on both sides if shorter.
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
