// Package pipeline wires the audio preprocessor, sensor registry, physics
// stage, auxiliary stages, and fusion engine into the single entry point
// described in spec §6: Analyze(raw audio) -> a verdict.
package pipeline

import (
	"context"
	"fmt"

	"github.com/veridianvoice/deepfake-core/internal/audioio"
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/fusion"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
	"github.com/veridianvoice/deepfake-core/internal/sensor/catalog"
	"github.com/veridianvoice/deepfake-core/internal/stage"
)

// defaultConcurrency bounds how many sensors run in parallel per call.
// Sensors are CPU-bound pure functions, so this tracks typical small-host
// core counts without needing to probe runtime.NumCPU at construction.
const defaultConcurrency = 4

// Pipeline is the long-lived, concurrency-safe entry point constructed once
// per process from a validated Config (spec §7: "configuration errors are
// caught only at construction").
type Pipeline struct {
	cfg      config.Config
	registry *sensor.Registry
	stages   []stage.Stage
}

// New validates cfg and builds the sensor registry and stage set. It
// returns an error immediately if cfg is invalid, rather than deferring
// that failure to the first Analyze call.
func New(cfg config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("pipeline: invalid configuration: %w", err)
	}
	registry := sensor.NewRegistry(catalog.Build(cfg)...)
	stages := []stage.Stage{
		stage.NewPhysicsStage(),
		stage.NewFeatureStage(),
		stage.NewTemporalStage(),
		stage.NewArtifactStage(),
		stage.NewNeuralStage(),
	}
	return &Pipeline{cfg: cfg, registry: registry, stages: stages}, nil
}

// Analyze runs the full pipeline against raw, interleaved PCM audio at
// inputRate with the given channel count (spec §4.1-§4.4). ctx's deadline,
// if it has one, caps the soft per-sensor deadlines: it does not abort an
// in-flight sensor (Go cannot preempt a running goroutine) but shortens how
// long the registry waits for one before abstaining on its behalf.
// Cancelling ctx without a deadline does not shorten that wait.
func (p *Pipeline) Analyze(ctx context.Context, raw []float32, inputRate, channels int) (fusion.Result, error) {
	buf, rolloffHz, err := audioio.Prepare(raw, inputRate, channels)
	if err != nil {
		return fusion.Result{}, fmt.Errorf("pipeline: preprocessing: %w", err)
	}

	sensorCtx := sensor.Context{RolloffHz: rolloffHz, Deadline: ctx}
	results := p.registry.AnalyzeAll(buf.Samples, buf.SampleRate, sensorCtx, defaultConcurrency)

	stageInput := stage.Input{Buffer: buf, RolloffHz: rolloffHz, Sensors: results, Config: p.cfg}
	stageResults := stage.RunAll(p.stages, stageInput)

	profileName := config.SelectProfileName(rolloffHz)
	result, err := fusion.Fuse(p.cfg, profileName, stageResults, results)
	if err != nil {
		return fusion.Result{}, fmt.Errorf("pipeline: fusion: %w", err)
	}
	return result, nil
}
