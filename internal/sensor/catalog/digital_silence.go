package catalog

import (
	"math"

	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// DigitalSilence flags runs of exact-zero (or near-zero) samples longer than
// a microphone's noise floor would plausibly sustain, characteristic of
// splicing or concatenative synthesis rather than a natural pause.
type DigitalSilence struct {
	maxNaturalRunMs float64
}

const digitalSilenceEpsilon = 1e-6

func NewDigitalSilence(cfg config.Config) *DigitalSilence {
	return &DigitalSilence{maxNaturalRunMs: threshold(cfg, "DigitalSilence", "max_natural_run_ms", 50.0)}
}

func (s *DigitalSilence) Name() string              { return "DigitalSilence" }
func (s *DigitalSilence) Category() sensor.Category { return sensor.Prosecution }
func (s *DigitalSilence) MinSamples() int           { return int(0.1 * 16000) }

func (s *DigitalSilence) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	longestRun := 0
	current := 0
	for _, v := range samples {
		if math.Abs(float64(v)) < digitalSilenceEpsilon {
			current++
			if current > longestRun {
				longestRun = current
			}
		} else {
			current = 0
		}
	}

	runMs := float64(longestRun) / float64(sampleRate) * 1000.0
	flagged := runMs > s.maxNaturalRunMs
	score := dsp.Clamp01(runMs / (2 * s.maxNaturalRunMs))
	passed := sensor.PassedTrue
	if flagged {
		passed = sensor.PassedFalse
	}
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     runMs,
		Threshold: s.maxNaturalRunMs,
		Metadata:  map[string]any{"unit": "ms"},
	}
}
