package catalog

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// FormantTrajectory checks that the first formant moves smoothly from
// frame to frame, the way a real vocal tract's continuous articulator
// motion produces. Concatenative or frame-independent synthesis can
// produce formants that jump discontinuously between frames.
type FormantTrajectory struct {
	maxJumpHz float64
}

const (
	formantFrameMs = 25.0
	formantHopMs   = 10.0
	formantOrder   = 14
)

func NewFormantTrajectory(cfg config.Config) *FormantTrajectory {
	return &FormantTrajectory{maxJumpHz: threshold(cfg, "FormantTrajectory", "max_jump_hz", 400.0)}
}

func (s *FormantTrajectory) Name() string              { return "FormantTrajectory" }
func (s *FormantTrajectory) Category() sensor.Category { return sensor.Defense }
func (s *FormantTrajectory) MinSamples() int           { return int(0.3 * 16000) }

func (s *FormantTrajectory) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	frameSize := int(formantFrameMs / 1000.0 * float64(sampleRate))
	hopSize := int(formantHopMs / 1000.0 * float64(sampleRate))
	frames := dsp.Frame(samples, frameSize, hopSize)
	if len(frames) < 3 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames to track formant trajectory")
	}

	var f1Track []float64
	for _, f := range frames {
		formants := dsp.LPCFormants(f, sampleRate, formantOrder)
		if len(formants) > 0 {
			f1Track = append(f1Track, formants[0])
		}
	}
	if len(f1Track) < 3 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "not enough resolvable formants to track a trajectory")
	}

	maxJump := 0.0
	for i := 1; i < len(f1Track); i++ {
		jump := f1Track[i] - f1Track[i-1]
		if jump < 0 {
			jump = -jump
		}
		if jump > maxJump {
			maxJump = jump
		}
	}

	// Defense sensor: passing (smooth trajectory) is evidence of natural
	// speech, so the risk-domain score is low when the jump is small.
	passed := sensor.PassedTrue
	if maxJump > s.maxJumpHz {
		passed = sensor.PassedFalse
	}
	score := dsp.Clamp01(maxJump / (2 * s.maxJumpHz))
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     maxJump,
		Threshold: s.maxJumpHz,
		Metadata:  map[string]any{"unit": "hz", "frames_resolved": len(f1Track)},
	}
}
