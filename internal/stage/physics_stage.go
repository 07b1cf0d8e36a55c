package stage

import "github.com/veridianvoice/deepfake-core/internal/physics"

// PhysicsStage adapts the physics analysis stage (internal/physics) to the
// uniform Stage contract so the fusion engine can combine it with the
// auxiliary stages via a single stage-weights map.
type PhysicsStage struct{}

func NewPhysicsStage() PhysicsStage { return PhysicsStage{} }

func (PhysicsStage) Name() string { return "physics" }

func (PhysicsStage) Analyze(in Input) Result {
	result := physics.Analyze(in.Config, in.Sensors, in.RolloffHz)
	return Result{
		Name:    "physics",
		Success: true,
		Score:   result.Score,
		Diagnostics: map[string]any{
			"profile":        result.ProfileName,
			"sensor_weights": result.SensorWeights,
		},
	}
}
