package fusion

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
	"github.com/veridianvoice/deepfake-core/internal/stage"
)

func baseStages(scores map[string]float64) map[string]stage.Result {
	out := make(map[string]stage.Result, len(scores))
	for name, score := range scores {
		out[name] = stage.Result{Name: name, Success: true, Score: score}
	}
	return out
}

func TestFuseReturnsInsufficientEvidenceWhenAllStagesFail(t *testing.T) {
	cfg := config.Default()
	stages := map[string]stage.Result{
		"physics": {Name: "physics", Success: false},
		"feature": {Name: "feature", Success: false},
	}
	got, err := Fuse(cfg, config.ProfileDefault, stages, sensor.Results{ByName: map[string]sensor.Result{}})
	require.NoError(t, err, "a total stage failure must not escape as an error")
	require.Equal(t, DecisionInsufficientEvidence, got.DecisionLogic)
	require.Equal(t, VerdictIndeterminate, got.Verdict)
	require.Equal(t, 0.5, got.Score)
}

func TestFuseHighConfidenceVetoOverridesBase(t *testing.T) {
	cfg := config.Default()
	stages := baseStages(map[string]float64{"physics": 0.1, "feature": 0.1, "temporal": 0.1, "artifact": 0.1, "neural": 0.1})
	results := sensor.Results{
		Order:  []string{"GlottalInertia"},
		ByName: map[string]sensor.Result{"GlottalInertia": {Category: sensor.Prosecution, Passed: sensor.PassedFalse, Score: 0.95}},
	}
	got, err := Fuse(cfg, config.ProfileDefault, stages, results)
	require.NoError(t, err)
	require.Equal(t, DecisionVetoOverride, got.DecisionLogic)
	require.Equal(t, 0.95, got.Score)
	require.Equal(t, VerdictSynthetic, got.Verdict)
}

func TestFuseModerateVetoBlends(t *testing.T) {
	cfg := config.Default()
	stages := baseStages(map[string]float64{"physics": 0.1, "feature": 0.1, "temporal": 0.1, "artifact": 0.1, "neural": 0.1})
	results := sensor.Results{
		Order:  []string{"PitchVelocity"},
		ByName: map[string]sensor.Result{"PitchVelocity": {Category: sensor.Prosecution, Passed: sensor.PassedFalse, Score: 0.8}},
	}
	got, err := Fuse(cfg, config.ProfileDefault, stages, results)
	require.NoError(t, err)
	require.Equal(t, DecisionVetoBlend, got.DecisionLogic)
	want := vetoBlendBaseWeight*0.1 + vetoBlendRiskWeight*0.8
	require.InDelta(t, want, got.Score, 1e-9)
}

func TestFuseSkipsFailedStagesAndRenormalizes(t *testing.T) {
	cfg := config.Default()
	stages := map[string]stage.Result{
		"physics":  {Name: "physics", Success: true, Score: 0.6},
		"feature":  {Name: "feature", Success: false},
		"temporal": {Name: "temporal", Success: false},
		"artifact": {Name: "artifact", Success: false},
		"neural":   {Name: "neural", Success: false},
	}
	got, err := Fuse(cfg, config.ProfileDefault, stages, sensor.Results{ByName: map[string]sensor.Result{}})
	require.NoError(t, err)
	require.Equal(t, 0.6, got.BaseScore, "only physics succeeded")
	require.Len(t, got.SkippedStages, 4)
}

// TestFuseScoreAlwaysBounded is a property-based check (spec §8 "fusion
// invariants"): for any combination of stage scores and a single
// prosecution sensor's risk, the fused score must stay within [0,1] and
// the verdict must be consistent with the profile's thresholds.
func TestFuseScoreAlwaysBounded(t *testing.T) {
	cfg := config.Default()
	rapid.Check(t, func(t *rapid.T) {
		baseGen := rapid.Float64Range(0, 1)
		stages := baseStages(map[string]float64{
			"physics":  baseGen.Draw(t, "physics"),
			"feature":  baseGen.Draw(t, "feature"),
			"temporal": baseGen.Draw(t, "temporal"),
			"artifact": baseGen.Draw(t, "artifact"),
			"neural":   baseGen.Draw(t, "neural"),
		})

		risk := rapid.Float64Range(0, 1).Draw(t, "risk")
		results := sensor.Results{
			Order:  []string{"GlottalInertia"},
			ByName: map[string]sensor.Result{"GlottalInertia": {Category: sensor.Prosecution, Passed: sensor.PassedFalse, Score: risk}},
		}

		got, err := Fuse(cfg, config.ProfileDefault, stages, results)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Score < 0 || got.Score > 1 {
			t.Fatalf("Score = %v, out of [0,1]", got.Score)
		}
		profile := cfg.Profile(config.ProfileDefault)
		switch got.Verdict {
		case VerdictSynthetic:
			if got.Score < profile.Thresholds.Synthetic {
				t.Fatalf("verdict synthetic but score %v < threshold %v", got.Score, profile.Thresholds.Synthetic)
			}
		case VerdictReal:
			if got.Score > profile.Thresholds.Real {
				t.Fatalf("verdict real but score %v > threshold %v", got.Score, profile.Thresholds.Real)
			}
		}
	})
}
