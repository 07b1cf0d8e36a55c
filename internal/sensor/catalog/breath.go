package catalog

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// Breath checks for the presence of breath-noise segments: broadband,
// aperiodic, low-amplitude energy between voiced phrases, present in
// essentially all natural recordings of speech longer than a few seconds.
// Many TTS systems never synthesize it.
type Breath struct {
	minBreathRatio float64
}

const (
	breathFrameMs  = 25.0
	breathHopMs    = 10.0
	breathMinFloor = 0.01
	breathMaxFloor = 0.2
)

func NewBreath(cfg config.Config) *Breath {
	return &Breath{minBreathRatio: threshold(cfg, "Breath", "min_breath_ratio", 0.01)}
}

func (s *Breath) Name() string              { return "Breath" }
func (s *Breath) Category() sensor.Category { return sensor.Defense }
func (s *Breath) MinSamples() int           { return int(1.0 * 16000) }

func (s *Breath) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	frameSize := int(breathFrameMs / 1000.0 * float64(sampleRate))
	hopSize := int(breathHopMs / 1000.0 * float64(sampleRate))
	frames := dsp.Frame(samples, frameSize, hopSize)
	if len(frames) < 10 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames to look for breath noise")
	}

	peak := 0.0
	rmsValues := make([]float64, len(frames))
	for i, f := range frames {
		rmsValues[i] = dsp.RMS(f)
		if rmsValues[i] > peak {
			peak = rmsValues[i]
		}
	}
	if peak < 1e-6 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "buffer is silent")
	}

	breathFrames := 0
	for i, f := range frames {
		rel := rmsValues[i] / peak
		if rel < breathMinFloor || rel > breathMaxFloor {
			continue
		}
		if _, voiced := dsp.EstimatePitchHz(f, sampleRate, pitchMinHz, pitchMaxHz); !voiced {
			breathFrames++
		}
	}
	ratio := float64(breathFrames) / float64(len(frames))

	passed := sensor.PassedTrue
	if ratio < s.minBreathRatio {
		passed = sensor.PassedFalse
	}
	score := dsp.Clamp01(1 - ratio/(2*s.minBreathRatio))
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     ratio,
		Threshold: s.minBreathRatio,
		Metadata:  map[string]any{"breath_frames": breathFrames, "total_frames": len(frames)},
	}
}
