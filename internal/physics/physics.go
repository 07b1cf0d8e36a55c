// Package physics implements the physics analysis stage (spec §4.3):
// codec-aware fusion-profile selection followed by weighted aggregation of
// the sensor catalog's risk-domain scores into a single physics score.
package physics

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// Result is the physics stage's output: the selected profile, the weighted
// aggregate score, and the per-sensor weight actually applied (for audit).
type Result struct {
	ProfileName   string
	Score         float64
	SensorWeights map[string]float64
}

// SelectProfile applies spec §4.3 step 2: pick the narrowband profile when
// the preprocessor's bandwidth estimate falls below the narrowband
// threshold, otherwise the default profile.
func SelectProfile(cfg config.Config, rolloffHz float64) (string, config.Profile) {
	name := config.SelectProfileName(rolloffHz)
	return name, cfg.Profile(name)
}

// Analyze computes the weighted risk aggregate over every active,
// non-informational sensor result (spec §4.3 steps 3-5):
//
//  1. Informational sensors and abstentions are excluded entirely.
//  2. Each remaining sensor's risk-domain score is clamped to [0,1].
//  3. Scores are combined with the selected profile's per-sensor weights,
//     falling back to config.DefaultUnknownSensorWeight for any active
//     sensor absent from the profile's weight map.
//  4. The weighted sum is normalized by the total weight actually used, so
//     a profile missing weights for some sensors still yields a score on
//     [0,1] rather than silently under- or over-weighting the result.
func Analyze(cfg config.Config, results sensor.Results, rolloffHz float64) Result {
	profileName, profile := SelectProfile(cfg, rolloffHz)

	weights := make(map[string]float64)
	var weightedSum, totalWeight float64
	for _, name := range results.Order {
		r := results.ByName[name]
		if r.Category == sensor.Informational || r.Passed == sensor.PassedAbstain {
			continue
		}
		w, ok := profile.Weights[name]
		if !ok {
			w = config.DefaultUnknownSensorWeight
		}
		if w <= 0 {
			continue
		}
		weights[name] = w
		weightedSum += w * sensor.ClampScore(r.Score)
		totalWeight += w
	}

	score := 0.5
	if totalWeight > 0 {
		score = weightedSum / totalWeight
	}

	return Result{
		ProfileName:   profileName,
		Score:         sensor.ClampScore(score),
		SensorWeights: weights,
	}
}
