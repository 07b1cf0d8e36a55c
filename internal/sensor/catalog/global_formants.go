package catalog

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// GlobalFormants checks that the utterance's average first and second
// formants fall within the plausible human vowel space. Some voice-cloning
// pipelines drift outside that space when the source and target speakers'
// vocal tract lengths differ enough that the model extrapolates.
type GlobalFormants struct {
	minF1, maxF1 float64
	minF2, maxF2 float64
}

func NewGlobalFormants(cfg config.Config) *GlobalFormants {
	return &GlobalFormants{
		minF1: threshold(cfg, "GlobalFormants", "min_f1_hz", 150.0),
		maxF1: threshold(cfg, "GlobalFormants", "max_f1_hz", 1100.0),
		minF2: threshold(cfg, "GlobalFormants", "min_f2_hz", 500.0),
		maxF2: threshold(cfg, "GlobalFormants", "max_f2_hz", 3200.0),
	}
}

func (s *GlobalFormants) Name() string              { return "GlobalFormants" }
func (s *GlobalFormants) Category() sensor.Category { return sensor.Defense }
func (s *GlobalFormants) MinSamples() int           { return int(0.3 * 16000) }

func (s *GlobalFormants) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	frameSize := int(formantFrameMs / 1000.0 * float64(sampleRate))
	hopSize := int(formantHopMs / 1000.0 * float64(sampleRate))
	frames := dsp.Frame(samples, frameSize, hopSize)
	if len(frames) == 0 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames to estimate global formants")
	}

	var f1s, f2s []float64
	for _, f := range frames {
		formants := dsp.LPCFormants(f, sampleRate, formantOrder)
		if len(formants) >= 2 {
			f1s = append(f1s, formants[0])
			f2s = append(f2s, formants[1])
		}
	}
	if len(f1s) == 0 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "no resolvable formant pairs")
	}

	meanF1 := dsp.Mean(f1s)
	meanF2 := dsp.Mean(f2s)

	outOfRange := meanF1 < s.minF1 || meanF1 > s.maxF1 || meanF2 < s.minF2 || meanF2 > s.maxF2
	passed := sensor.PassedTrue
	if outOfRange {
		passed = sensor.PassedFalse
	}

	deviation := formantRangeDeviation(meanF1, s.minF1, s.maxF1) + formantRangeDeviation(meanF2, s.minF2, s.maxF2)
	score := dsp.Clamp01(deviation)

	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     meanF1,
		Threshold: s.maxF1,
		Metadata: map[string]any{
			"mean_f1_hz":    meanF1,
			"mean_f2_hz":    meanF2,
			"frames_resolved": len(f1s),
		},
	}
}

// formantRangeDeviation returns 0 when v is inside [lo, hi], scaling up to
// 1 as v moves a full range-width past either edge.
func formantRangeDeviation(v, lo, hi float64) float64 {
	width := hi - lo
	if width <= 0 {
		return 0
	}
	if v < lo {
		return dsp.Clamp01((lo - v) / width)
	}
	if v > hi {
		return dsp.Clamp01((v - hi) / width)
	}
	return 0
}
