package catalog

import (
	"math"

	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// ProsodicContinuity flags pitch contours that are too smooth: natural
// prosody carries constant micro-jitter from breathing and neuromuscular
// noise, while some TTS pitch contours are generated as a smooth curve with
// almost no frame-to-frame variation.
type ProsodicContinuity struct {
	minJitterSemitones float64
}

func NewProsodicContinuity(cfg config.Config) *ProsodicContinuity {
	return &ProsodicContinuity{minJitterSemitones: threshold(cfg, "ProsodicContinuity", "min_jitter_semitones", 0.05)}
}

func (s *ProsodicContinuity) Name() string              { return "ProsodicContinuity" }
func (s *ProsodicContinuity) Category() sensor.Category { return sensor.Prosecution }
func (s *ProsodicContinuity) MinSamples() int           { return int(0.5 * 16000) }

func (s *ProsodicContinuity) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	frameSize := int(pitchFrameMs / 1000.0 * float64(sampleRate))
	hopSize := int(pitchHopMs / 1000.0 * float64(sampleRate))
	frames := dsp.Frame(samples, frameSize, hopSize)
	if len(frames) < 6 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames to measure prosodic jitter")
	}

	var contour []float64
	for _, f := range frames {
		if hz, voiced := dsp.EstimatePitchHz(f, sampleRate, pitchMinHz, pitchMaxHz); voiced {
			contour = append(contour, hz)
		}
	}
	if len(contour) < 6 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "not enough voiced frames to measure prosodic jitter")
	}

	var deltas []float64
	for i := 1; i < len(contour); i++ {
		semitoneDelta := 12 * math.Log2(contour[i]/contour[i-1])
		deltas = append(deltas, semitoneDelta)
	}
	jitter := dsp.StdDev(deltas)

	flagged := jitter < s.minJitterSemitones
	score := dsp.Clamp01(1 - jitter/(2*s.minJitterSemitones))
	passed := sensor.PassedTrue
	if flagged {
		passed = sensor.PassedFalse
	}
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     jitter,
		Threshold: s.minJitterSemitones,
		Metadata:  map[string]any{"unit": "semitones_stddev", "voiced_frames": len(contour)},
	}
}
