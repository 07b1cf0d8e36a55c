// Package config loads and validates the pipeline's persisted configuration
// document: sensor thresholds, fusion profiles, veto thresholds, and stage
// weights produced by the calibration subsystem (internal/calibration).
package config

import (
	"fmt"
	"time"
)

const (
	// DefaultHighConfidenceVeto is the veto threshold above which a single
	// prosecution sensor overrides the base fusion score outright.
	DefaultHighConfidenceVeto = 0.85
	// DefaultModerateVeto is the veto threshold above which a prosecution
	// sensor blends into the base score rather than overriding it.
	DefaultModerateVeto = 0.75

	// DefaultUnknownSensorWeight is the weight assigned to a sensor present
	// in a profile's active set but absent from its weight map.
	DefaultUnknownSensorWeight = 0.05

	// ProfileDefault and ProfileNarrowband are the two profiles required by
	// spec §3.
	ProfileDefault    = "default"
	ProfileNarrowband = "narrowband"

	// NarrowbandRolloffHz is the bandwidth threshold below which the
	// narrowband profile is selected (spec §4.3 step 2).
	NarrowbandRolloffHz = 4000.0
)

// VerdictThresholds bounds the verdict mapping for a profile (spec §4.4).
type VerdictThresholds struct {
	Synthetic float64 `yaml:"synthetic"`
	Real      float64 `yaml:"real"`
}

// Profile is a named weights+thresholds bundle selected per call based on
// observed audio bandwidth (spec §3, "Fusion profile").
type Profile struct {
	Weights    map[string]float64 `yaml:"weights"`
	Thresholds VerdictThresholds  `yaml:"thresholds"`
}

// Veto holds the two-tier adaptive prosecution veto thresholds (spec §3).
type Veto struct {
	HighConfidence float64 `yaml:"high_confidence"`
	Moderate       float64 `yaml:"moderate"`
}

// Meta records calibration provenance (spec §4.5.4).
type Meta struct {
	CalibratedAt       time.Time `yaml:"calibrated_at"`
	DatasetFingerprint string    `yaml:"dataset_fingerprint"`
	CalibrationRunID   string    `yaml:"calibration_run_id,omitempty"`
}

// Fusion holds everything the fusion engine needs: per-profile weights and
// verdict thresholds, veto thresholds, and stage weights.
type Fusion struct {
	Profiles     map[string]Profile `yaml:"profiles"`
	Veto         Veto               `yaml:"veto"`
	StageWeights map[string]float64 `yaml:"stage_weights"`
}

// Config is the full persisted document described in spec §6.
type Config struct {
	// Sensors maps sensor name to a map of threshold-key -> scalar value,
	// e.g. Sensors["GlottalInertia"]["min_rise_ms"].
	Sensors map[string]map[string]float64 `yaml:"sensors"`
	Fusion  Fusion                        `yaml:"fusion"`
	Meta    Meta                          `yaml:"meta"`

	// LogLevel holds a log level name; Loader.Load overrides it from
	// VOXFUSION_LOG_LEVEL. The CLI entry points do not read it: they take
	// their zerolog level from that variable directly. Not
	// part of the calibration document proper, but persisted alongside it
	// for operational convenience (the teacher folds comparable runtime
	// knobs into the same Config struct).
	LogLevel string `yaml:"log_level,omitempty"`
}

// SensorThreshold returns the calibrated threshold value for a given sensor
// and key, and whether it was present.
func (c Config) SensorThreshold(sensorName, key string) (float64, bool) {
	keys, ok := c.Sensors[sensorName]
	if !ok {
		return 0, false
	}
	v, ok := keys[key]
	return v, ok
}

// Profile returns the named profile, falling back to ProfileDefault if name
// is unknown. The caller (physics stage) is expected to have already
// validated that ProfileDefault exists via Validate.
func (c Config) Profile(name string) Profile {
	if p, ok := c.Fusion.Profiles[name]; ok {
		return p
	}
	return c.Fusion.Profiles[ProfileDefault]
}

// SelectProfileName applies spec §4.3 step 2: narrowband below 4kHz rolloff.
func SelectProfileName(rolloffHz float64) string {
	if rolloffHz < NarrowbandRolloffHz {
		return ProfileNarrowband
	}
	return ProfileDefault
}

// Validate enforces spec §3/§7's configuration invariants. It is called once
// at pipeline construction (internal/pipeline) and never at analysis time.
func (c Config) Validate() error {
	if len(c.Fusion.Profiles) == 0 {
		return fmt.Errorf("%w: fusion.profiles", ErrMissingKey)
	}
	if _, ok := c.Fusion.Profiles[ProfileDefault]; !ok {
		return fmt.Errorf("%w: fusion.profiles.%s", ErrMissingKey, ProfileDefault)
	}
	if _, ok := c.Fusion.Profiles[ProfileNarrowband]; !ok {
		return fmt.Errorf("%w: fusion.profiles.%s", ErrMissingKey, ProfileNarrowband)
	}
	for name, p := range c.Fusion.Profiles {
		if err := validateProfile(name, p); err != nil {
			return err
		}
	}

	if len(c.Fusion.StageWeights) == 0 {
		return fmt.Errorf("%w: fusion.stage_weights", ErrMissingKey)
	}
	sum := 0.0
	for _, w := range c.Fusion.StageWeights {
		if w < 0 {
			return fmt.Errorf("%w: stage weight %v is negative", ErrInvalidValue, w)
		}
		sum += w
	}
	if diff := sum - 1.0; diff > 1e-6 || diff < -1e-6 {
		return fmt.Errorf("%w: fusion.stage_weights sums to %v, want 1.0 +/- 1e-6", ErrWeightsNotNormalized, sum)
	}

	if c.Fusion.Veto.Moderate <= 0 {
		return fmt.Errorf("%w: fusion.veto.moderate must be > 0", ErrInvalidValue)
	}
	if c.Fusion.Veto.HighConfidence > 1.0 {
		return fmt.Errorf("%w: fusion.veto.high_confidence must be <= 1.0", ErrInvalidValue)
	}
	if !(c.Fusion.Veto.Moderate < c.Fusion.Veto.HighConfidence) {
		return fmt.Errorf("%w: fusion.veto.moderate (%v) must be < fusion.veto.high_confidence (%v)",
			ErrInvalidValue, c.Fusion.Veto.Moderate, c.Fusion.Veto.HighConfidence)
	}

	return nil
}

func validateProfile(name string, p Profile) error {
	if !(p.Thresholds.Real < p.Thresholds.Synthetic) {
		return fmt.Errorf("%w: profile %q thresholds.real (%v) must be < thresholds.synthetic (%v)",
			ErrInvalidValue, name, p.Thresholds.Real, p.Thresholds.Synthetic)
	}
	sum := 0.0
	for sensorName, w := range p.Weights {
		if w < 0 {
			return fmt.Errorf("%w: profile %q weight for %q is negative", ErrInvalidValue, name, sensorName)
		}
		sum += w
	}
	// A profile with zero explicit weights is legal (it falls back entirely
	// to DefaultUnknownSensorWeight per sensor), so only reject a profile
	// that has weights but all of them are zero.
	if len(p.Weights) > 0 && sum <= 0 {
		return fmt.Errorf("%w: profile %q weights sum to %v, want > 0", ErrInvalidValue, name, sum)
	}
	return nil
}

// Default returns a minimal, valid configuration using the documented
// default veto thresholds and an empty (fallback-weighted) sensor set. It is
// used by the CLI and tests as a starting point before layering calibrated
// values on top.
func Default() Config {
	return Config{
		Sensors: map[string]map[string]float64{},
		Fusion: Fusion{
			Profiles: map[string]Profile{
				ProfileDefault: {
					Weights: map[string]float64{},
					Thresholds: VerdictThresholds{
						Synthetic: 0.65,
						Real:      0.35,
					},
				},
				ProfileNarrowband: {
					Weights: map[string]float64{
						"GlobalFormants": 0,
						"Coarticulation": 0,
					},
					Thresholds: VerdictThresholds{
						Synthetic: 0.6,
						Real:      0.3,
					},
				},
			},
			Veto: Veto{
				HighConfidence: DefaultHighConfidenceVeto,
				Moderate:       DefaultModerateVeto,
			},
			StageWeights: map[string]float64{
				"physics":  0.35,
				"feature":  0.2,
				"temporal": 0.15,
				"artifact": 0.15,
				"neural":   0.15,
			},
		},
	}
}
