package catalog

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// Coarticulation checks that the second formant's movement across the
// utterance is consistent with articulators blending adjacent phonemes
// rather than switching between independently generated segments. It
// measures the second formant's total path length relative to its overall
// range: natural coarticulated speech traces a comparatively direct path,
// while per-segment synthesis can produce a choppy, back-and-forth trace.
type Coarticulation struct {
	maxRoughness float64
}

func NewCoarticulation(cfg config.Config) *Coarticulation {
	return &Coarticulation{maxRoughness: threshold(cfg, "Coarticulation", "max_roughness", 3.5)}
}

func (s *Coarticulation) Name() string              { return "Coarticulation" }
func (s *Coarticulation) Category() sensor.Category { return sensor.Defense }
func (s *Coarticulation) MinSamples() int           { return int(0.3 * 16000) }

func (s *Coarticulation) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	frameSize := int(formantFrameMs / 1000.0 * float64(sampleRate))
	hopSize := int(formantHopMs / 1000.0 * float64(sampleRate))
	frames := dsp.Frame(samples, frameSize, hopSize)
	if len(frames) < 4 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames to measure coarticulation")
	}

	var f2Track []float64
	for _, f := range frames {
		formants := dsp.LPCFormants(f, sampleRate, formantOrder)
		if len(formants) >= 2 {
			f2Track = append(f2Track, formants[1])
		}
	}
	if len(f2Track) < 4 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "not enough resolvable F2 frames")
	}

	pathLength := 0.0
	lo, hi := f2Track[0], f2Track[0]
	for i := 1; i < len(f2Track); i++ {
		delta := f2Track[i] - f2Track[i-1]
		if delta < 0 {
			delta = -delta
		}
		pathLength += delta
		if f2Track[i] < lo {
			lo = f2Track[i]
		}
		if f2Track[i] > hi {
			hi = f2Track[i]
		}
	}
	rangeHz := hi - lo
	if rangeHz < 1 {
		rangeHz = 1
	}
	roughness := pathLength / rangeHz

	passed := sensor.PassedTrue
	if roughness > s.maxRoughness {
		passed = sensor.PassedFalse
	}
	score := dsp.Clamp01(roughness / (2 * s.maxRoughness))
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     roughness,
		Threshold: s.maxRoughness,
		Metadata:  map[string]any{"frames_resolved": len(f2Track)},
	}
}
