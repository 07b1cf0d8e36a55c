// Package catalog implements the concrete sensor set required by the
// physics analysis stage (spec §4.2): the prosecution, defense, and
// informational detectors that the pipeline registers into
// internal/sensor.Registry.
//
// Every sensor here follows the same convention: Passed reports whether the
// audio passed that sensor's particular forensic check (PassedTrue = no
// anomaly found, PassedFalse = anomaly found), and Score is always a
// risk-domain value in [0,1] where 1 means this check argues strongly for
// synthetic audio. For defense sensors this means a passing check (natural
// behavior confirmed) corresponds to a low score; the fusion engine inverts
// defense scores into trust when it aggregates them.
package catalog

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// threshold looks up a calibrated raw-value threshold for sensorName/key,
// falling back to def when calibration has not yet populated it (spec §7:
// "configuration errors are caught only at construction" — an absent
// threshold before the first calibration run is not an error, it is the
// documented default).
func threshold(cfg config.Config, sensorName, key string, def float64) float64 {
	if v, ok := cfg.SensorThreshold(sensorName, key); ok {
		return v
	}
	return def
}

// Build constructs every catalog sensor against cfg. Sensors requiring an
// optional backend (HFDeepfake) are included only when that backend is
// compiled in and a model is available; see hf_deepfake.go and its
// build-tagged backends.
func Build(cfg config.Config) []sensor.Sensor {
	sensors := []sensor.Sensor{
		NewGlottalInertia(cfg),
		NewPitchVelocity(cfg),
		NewDigitalSilence(cfg),
		NewProsodicContinuity(cfg),
		NewFormantTrajectory(cfg),
		NewGlobalFormants(cfg),
		NewCoarticulation(cfg),
		NewBreath(cfg),
		NewDynamicRange(cfg),
		NewBandwidth(cfg),
	}
	if hf := NewHFDeepfake(cfg); hf != nil {
		sensors = append(sensors, hf)
	}
	return sensors
}
