// Package stage implements the auxiliary detection stages (spec §4.3/§4.4):
// independent analyses that each contribute one bounded [0,1] score to the
// fusion engine's base score, alongside the physics analysis stage.
package stage

import (
	"github.com/veridianvoice/deepfake-core/internal/audioio"
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// Result is the uniform output of every stage (spec §4.4 "StageResult"). A
// stage that fails (insufficient data, a dependency unavailable) reports
// Success = false; the fusion engine excludes it and renormalizes the
// remaining stage weights rather than treating the pipeline run as failed.
type Result struct {
	Name        string
	Success     bool
	Score       float64
	Diagnostics map[string]any
}

// Input bundles everything a stage may need: the canonical audio buffer,
// the bandwidth estimate, the full sensor catalog's results (stages may
// reuse sensor measurements instead of recomputing them), and the
// configuration.
type Input struct {
	Buffer    audioio.Buffer
	RolloffHz float64
	Sensors   sensor.Results
	Config    config.Config
}

// Stage is the contract every auxiliary analysis implements.
type Stage interface {
	Name() string
	Analyze(in Input) Result
}

// RunAll executes every stage in order and returns their results keyed by
// name. Stages are pure functions of Input; order does not affect the
// result, but a stable order keeps output deterministic for audit logs.
func RunAll(stages []Stage, in Input) map[string]Result {
	out := make(map[string]Result, len(stages))
	for _, s := range stages {
		out[s.Name()] = s.Analyze(in)
	}
	return out
}
