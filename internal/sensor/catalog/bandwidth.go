package catalog

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// Bandwidth reports the preprocessor's spectral-rolloff estimate for audit
// purposes only. It is Informational: its score must never enter risk or
// trust aggregation, and the physics stage must exclude it from weighted
// aggregation entirely (the historical bug this guards against fed the raw
// Hz value into a risk-domain sum). Score is fixed at 0 for exactly that
// reason — there is nothing for this sensor to accuse or defend.
type Bandwidth struct {
	narrowbandHz float64
}

func NewBandwidth(cfg config.Config) *Bandwidth {
	return &Bandwidth{narrowbandHz: config.NarrowbandRolloffHz}
}

func (s *Bandwidth) Name() string              { return "Bandwidth" }
func (s *Bandwidth) Category() sensor.Category { return sensor.Informational }
func (s *Bandwidth) MinSamples() int           { return 0 }

func (s *Bandwidth) Analyze(_ []float32, _ int, ctx sensor.Context) sensor.Result {
	passed := sensor.PassedTrue
	if ctx.RolloffHz < s.narrowbandHz {
		passed = sensor.PassedFalse
	}
	return sensor.Result{
		Category:  s.Category(),
		Score:     0,
		Passed:    passed,
		Value:     ctx.RolloffHz,
		Threshold: s.narrowbandHz,
		Metadata:  map[string]any{"unit": "hz"},
	}
}
