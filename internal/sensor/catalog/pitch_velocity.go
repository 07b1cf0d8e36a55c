package catalog

import (
	"math"

	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// PitchVelocity flags fundamental-frequency movement that exceeds what a
// human larynx can physically produce. Real pitch contours are bounded by
// muscle response time; some pitch-shifted or vocoded synthetic speech
// exhibits frame-to-frame jumps no larynx could make.
type PitchVelocity struct {
	maxSemitonesPerSec float64
}

const (
	pitchFrameMs = 30.0
	pitchHopMs   = 10.0
	pitchMinHz   = 60.0
	pitchMaxHz   = 500.0
)

func NewPitchVelocity(cfg config.Config) *PitchVelocity {
	return &PitchVelocity{maxSemitonesPerSec: threshold(cfg, "PitchVelocity", "max_semitones_per_sec", 90.0)}
}

func (s *PitchVelocity) Name() string              { return "PitchVelocity" }
func (s *PitchVelocity) Category() sensor.Category { return sensor.Prosecution }
func (s *PitchVelocity) MinSamples() int           { return int(0.3 * 16000) }

func (s *PitchVelocity) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	frameSize := int(pitchFrameMs / 1000.0 * float64(sampleRate))
	hopSize := int(pitchHopMs / 1000.0 * float64(sampleRate))
	frames := dsp.Frame(samples, frameSize, hopSize)
	if len(frames) < 2 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames to track pitch velocity")
	}

	var lastHz float64
	haveLast := false
	maxVelocity := 0.0
	voicedPairs := 0
	for _, f := range frames {
		hz, voiced := dsp.EstimatePitchHz(f, sampleRate, pitchMinHz, pitchMaxHz)
		if !voiced {
			haveLast = false
			continue
		}
		if haveLast {
			semitones := 12 * math.Log2(hz/lastHz)
			velocity := math.Abs(semitones) / (pitchHopMs / 1000.0)
			if velocity > maxVelocity {
				maxVelocity = velocity
			}
			voicedPairs++
		}
		lastHz = hz
		haveLast = true
	}

	if voicedPairs == 0 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "no sustained voiced segment to measure pitch velocity")
	}

	flagged := maxVelocity > s.maxSemitonesPerSec
	score := dsp.Clamp01(maxVelocity / (2 * s.maxSemitonesPerSec))
	passed := sensor.PassedTrue
	if flagged {
		passed = sensor.PassedFalse
	}
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     maxVelocity,
		Threshold: s.maxSemitonesPerSec,
		Metadata:  map[string]any{"unit": "semitones_per_sec", "voiced_pairs": voicedPairs},
	}
}
