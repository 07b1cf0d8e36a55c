// Package fusion implements the fusion engine (spec §4.4): combining the
// auxiliary stage scores into a base score, then applying the adaptive
// two-tier prosecution veto before mapping the result to a verdict.
package fusion

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
	"github.com/veridianvoice/deepfake-core/internal/stage"
)

// Verdict is the closed set of final classifications (spec §4.4).
type Verdict string

const (
	VerdictSynthetic     Verdict = "synthetic"
	VerdictReal          Verdict = "real"
	VerdictIndeterminate Verdict = "indeterminate"
)

// DecisionLogic records which branch of the adaptive veto produced the
// final score, for audit (spec §4.4).
type DecisionLogic string

const (
	DecisionBase                 DecisionLogic = "base"
	DecisionVetoBlend            DecisionLogic = "veto_blend"
	DecisionVetoOverride         DecisionLogic = "veto_override"
	DecisionInsufficientEvidence DecisionLogic = "insufficient_evidence"
)

// vetoBlendBaseWeight and vetoBlendRiskWeight are the fixed blend ratio for
// the moderate-confidence veto tier (spec §4.4: "0.4/0.6 blend").
const (
	vetoBlendBaseWeight = 0.4
	vetoBlendRiskWeight = 0.6
)

// neutralScore is emitted when every stage has failed: there is no
// evidence to fuse, so the engine reports the midpoint of the score range
// rather than guessing (spec §4.4: "no exception propagates to the
// caller").
const neutralScore = 0.5

// Result is the fusion engine's final, top-level output (spec §4.4
// "FusionResult").
type Result struct {
	Verdict       Verdict                `json:"verdict"`
	Score         float64                `json:"score"`
	BaseScore     float64                `json:"base_score"`
	ProfileName   string                 `json:"profile"`
	DecisionLogic DecisionLogic          `json:"decision_logic"`
	MaxRisk       float64                `json:"max_prosecution_risk"`
	MeanTrust     float64                `json:"mean_defense_trust"`
	StageScores   map[string]float64     `json:"stage_scores"`
	SkippedStages []string               `json:"skipped_stages,omitempty"`
	Sensors       map[string]sensor.Result `json:"sensors"`
}

// Fuse combines stageResults (spec §4.4 steps 1-2: extraction and
// renormalization into a base score), then applies the adaptive two-tier
// veto driven directly by the active prosecution sensors' risk scores
// (steps 3-5), and finally maps the result to a verdict using the selected
// profile's thresholds (step 6). If every stage failed there is no
// evidence to fuse; Fuse reports that as an indeterminate result rather
// than an error (spec §4.4: "no exception propagates to the caller").
func Fuse(cfg config.Config, profileName string, stageResults map[string]stage.Result, sensors sensor.Results) (Result, error) {
	baseScore, stageScores, skipped, anySucceeded := combineStages(cfg, stageResults)
	if !anySucceeded {
		return Result{
			Verdict:       VerdictIndeterminate,
			Score:         neutralScore,
			BaseScore:     neutralScore,
			ProfileName:   profileName,
			DecisionLogic: DecisionInsufficientEvidence,
			MeanTrust:     neutralScore,
			StageScores:   stageScores,
			SkippedStages: skipped,
			Sensors:       sensors.ByName,
		}, nil
	}

	maxRisk, riskFound := maxProsecutionRisk(sensors)
	meanTrust := meanDefenseTrust(sensors)

	veto := cfg.Fusion.Veto
	score := baseScore
	logic := DecisionBase
	if riskFound {
		switch {
		case maxRisk > veto.HighConfidence:
			score = maxRisk
			logic = DecisionVetoOverride
		case maxRisk > veto.Moderate:
			score = vetoBlendBaseWeight*baseScore + vetoBlendRiskWeight*maxRisk
			logic = DecisionVetoBlend
		}
	}
	score = sensor.ClampScore(score)

	profile := cfg.Profile(profileName)
	verdict := mapVerdict(score, profile.Thresholds)

	return Result{
		Verdict:       verdict,
		Score:         score,
		BaseScore:     baseScore,
		ProfileName:   profileName,
		DecisionLogic: logic,
		MaxRisk:       maxRisk,
		MeanTrust:     meanTrust,
		StageScores:   stageScores,
		SkippedStages: skipped,
		Sensors:       sensors.ByName,
	}, nil
}

// combineStages renormalizes the configured stage weights over only the
// stages that succeeded (spec §4.4 step 2). The second return value is
// false when no stage succeeded, in which case the caller falls back to
// the neutral, insufficient-evidence result.
func combineStages(cfg config.Config, stageResults map[string]stage.Result) (float64, map[string]float64, []string, bool) {
	scores := make(map[string]float64, len(stageResults))
	var skipped []string
	var weightedSum, totalWeight float64

	for name, result := range stageResults {
		w := cfg.Fusion.StageWeights[name]
		if !result.Success {
			skipped = append(skipped, name)
			continue
		}
		scores[name] = sensor.ClampScore(result.Score)
		weightedSum += w * scores[name]
		totalWeight += w
	}

	if totalWeight <= 0 {
		return 0, scores, skipped, false
	}
	return weightedSum / totalWeight, scores, skipped, true
}

// maxProsecutionRisk returns the highest risk-domain score among active
// (non-abstaining) prosecution sensors, used to drive the veto (spec §4.4
// step 3: "a single prosecution sensor" triggers the veto).
func maxProsecutionRisk(results sensor.Results) (float64, bool) {
	max := 0.0
	found := false
	for _, name := range results.Order {
		r := results.ByName[name]
		if r.Category != sensor.Prosecution || r.Passed == sensor.PassedAbstain {
			continue
		}
		found = true
		if r.Score > max {
			max = r.Score
		}
	}
	return max, found
}

// meanDefenseTrust converts each active defense sensor's risk-domain score
// into a trust value (1 - score, spec §4.4: "probability of being real")
// and averages them. It is reported for audit but does not itself gate the
// veto; a future calibration may use it to temper DecisionVetoOverride.
func meanDefenseTrust(results sensor.Results) float64 {
	var sum float64
	var n int
	for _, name := range results.Order {
		r := results.ByName[name]
		if r.Category != sensor.Defense || r.Passed == sensor.PassedAbstain {
			continue
		}
		sum += 1 - r.Score
		n++
	}
	if n == 0 {
		return 0.5
	}
	return sum / float64(n)
}

func mapVerdict(score float64, thresholds config.VerdictThresholds) Verdict {
	switch {
	case score >= thresholds.Synthetic:
		return VerdictSynthetic
	case score <= thresholds.Real:
		return VerdictReal
	default:
		return VerdictIndeterminate
	}
}
