// Package calibration implements the offline calibration subsystem (spec
// §4.5): deriving per-sensor thresholds, per-profile weights, and veto
// thresholds from a labeled corpus of organic and synthetic recordings, and
// persisting the result as a Config document.
package calibration

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/veridianvoice/deepfake-core/internal/audioio"
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
	"github.com/veridianvoice/deepfake-core/internal/sensor/catalog"
)

// higherIsRiskier records, per sensor, whether a larger raw Value argues
// for synthetic audio (true) or a smaller one does (false). This mirrors
// each sensor's internal Passed convention in internal/sensor/catalog and
// determines which tail of the organic distribution a calibrated threshold
// should sit at.
var higherIsRiskier = map[string]bool{
	"GlottalInertia":      false,
	"PitchVelocity":       true,
	"DigitalSilence":      true,
	"ProsodicContinuity":  false,
	"FormantTrajectory":   true,
	"Coarticulation":      true,
	"Breath":              false,
	"DynamicRange":        false,
}

// calibratablePercentile is how far into the organic tail a threshold is
// placed (spec §4.5.2: "P99 of the organic distribution"). For a
// lower-is-riskier sensor this is mirrored to P1.
const calibratablePercentile = 0.99

// observation is one sensor's raw Value on one labeled file.
type observation struct {
	value    float64
	synthetic bool
}

// Report summarizes a calibration run for operator review, alongside the
// Config it produced.
type Report struct {
	Config             config.Config
	PerSensorAccuracy  map[string]float64
	FilesProcessed     int
	FilesSkipped       int
}

// Run executes the full calibration pipeline against a labeled corpus
// directory (spec §4.5.1-4.5.4) and returns the resulting Config plus a
// diagnostic Report. It does not persist anything; call Persist separately.
func Run(dir string) (Report, error) {
	corpus, err := WalkCorpus(dir)
	if err != nil {
		return Report{}, err
	}

	baseline := sensor.NewRegistry(catalog.Build(config.Default())...)
	observations := make(map[string][]observation)
	filesProcessed, filesSkipped := 0, 0

	process := func(path string, synthetic bool) {
		raw, err := ReadPCMFile(path)
		if err != nil {
			filesSkipped++
			return
		}
		buf, rolloffHz, err := audioio.Prepare(raw, audioio.CanonicalSampleRate, 1)
		if err != nil {
			filesSkipped++
			return
		}
		results := baseline.AnalyzeAll(buf.Samples, buf.SampleRate, sensor.Context{RolloffHz: rolloffHz}, 1)
		for name, r := range results.ByName {
			if r.Passed == sensor.PassedAbstain {
				continue
			}
			observations[name] = append(observations[name], observation{value: r.Value, synthetic: synthetic})
		}
		filesProcessed++
	}
	for _, f := range corpus.Organic {
		process(f, false)
	}
	for _, f := range corpus.Synthetic {
		process(f, true)
	}

	sensorThresholds := make(map[string]map[string]float64)
	accuracy := make(map[string]float64)
	weights := make(map[string]float64)

	for name, obs := range observations {
		thresholdKey, ok := thresholdKeyFor(name)
		if !ok {
			continue
		}
		th := calibrateThreshold(name, obs)
		sensorThresholds[name] = map[string]float64{thresholdKey: th}

		acc := balancedAccuracy(name, obs, th)
		accuracy[name] = acc
		weights[name] = discriminationWeight(acc)
	}

	moderate, high := calibrateVeto(observations, sensorThresholds)

	cfg := config.Config{
		Sensors: sensorThresholds,
		Fusion: config.Fusion{
			Profiles: map[string]config.Profile{
				config.ProfileDefault: {
					Weights:    weights,
					Thresholds: config.VerdictThresholds{Synthetic: 0.65, Real: 0.35},
				},
				config.ProfileNarrowband: {
					Weights:    narrowbandWeights(weights),
					Thresholds: config.VerdictThresholds{Synthetic: 0.6, Real: 0.3},
				},
			},
			Veto:         config.Veto{HighConfidence: high, Moderate: moderate},
			StageWeights: config.Default().Fusion.StageWeights,
		},
		Meta: config.Meta{
			CalibratedAt:       time.Now(),
			DatasetFingerprint: corpus.Fingerprint(),
			CalibrationRunID:   uuid.New().String(),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Report{}, fmt.Errorf("calibration: produced an invalid config: %w", err)
	}

	return Report{
		Config:            cfg,
		PerSensorAccuracy: accuracy,
		FilesProcessed:    filesProcessed,
		FilesSkipped:      filesSkipped,
	}, nil
}

// narrowbandWeights zeroes out the formant-dependent sensors that a
// band-limited (narrowband) recording cannot measure reliably, mirroring
// config.Default's documented narrowband profile.
func narrowbandWeights(weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}
	out["GlobalFormants"] = 0
	out["Coarticulation"] = 0
	return out
}

func thresholdKeyFor(sensorName string) (string, bool) {
	switch sensorName {
	case "GlottalInertia":
		return "min_rise_ms", true
	case "PitchVelocity":
		return "max_semitones_per_sec", true
	case "DigitalSilence":
		return "max_natural_run_ms", true
	case "ProsodicContinuity":
		return "min_jitter_semitones", true
	case "FormantTrajectory":
		return "max_jump_hz", true
	case "Coarticulation":
		return "max_roughness", true
	case "Breath":
		return "min_breath_ratio", true
	case "DynamicRange":
		return "min_range_db", true
	default:
		return "", false
	}
}

// calibrateThreshold places the threshold at the organic distribution's
// P99 (or P1, for a lower-is-riskier sensor), so that only the most extreme
// tail of normal recordings would ever flag (spec §4.5.2).
func calibrateThreshold(name string, obs []observation) float64 {
	var organic []float64
	for _, o := range obs {
		if !o.synthetic {
			organic = append(organic, o.value)
		}
	}
	if len(organic) == 0 {
		return 0
	}
	sort.Float64s(organic)

	p := calibratablePercentile
	if !higherIsRiskier[name] {
		p = 1 - calibratablePercentile
	}
	return stat.Quantile(p, stat.Empirical, organic, nil)
}

// balancedAccuracy evaluates the calibrated threshold's Passed/Failed
// classification against the known labels, averaging sensitivity and
// specificity so a corpus with an unequal organic/synthetic split doesn't
// bias the result (spec §4.5.3).
func balancedAccuracy(name string, obs []observation, threshold float64) float64 {
	var tp, fn, tn, fp int
	riskier := higherIsRiskier[name]
	for _, o := range obs {
		flagged := o.value > threshold
		if !riskier {
			flagged = o.value < threshold
		}
		switch {
		case o.synthetic && flagged:
			tp++
		case o.synthetic && !flagged:
			fn++
		case !o.synthetic && !flagged:
			tn++
		default:
			fp++
		}
	}
	sensitivity := safeRatio(tp, tp+fn)
	specificity := safeRatio(tn, tn+fp)
	return (sensitivity + specificity) / 2
}

func safeRatio(num, denom int) float64 {
	if denom == 0 {
		return 0.5
	}
	return float64(num) / float64(denom)
}

// discriminationWeight maps balanced accuracy into a profile weight: a
// sensor no better than chance (accuracy <= 0.5) contributes nothing, and
// weight scales linearly up to a perfect discriminator.
func discriminationWeight(accuracy float64) float64 {
	if accuracy <= 0.5 {
		return 0
	}
	return (accuracy - 0.5) * 2
}

// vetoModerateCandidates and vetoHighCandidates bound the grid search (spec
// §4.5.4: "grid search").
var (
	vetoModerateCandidates = []float64{0.6, 0.65, 0.7, 0.75}
	vetoHighCandidates     = []float64{0.8, 0.85, 0.9, 0.95}
)

// calibrateVeto grid-searches the moderate veto threshold that maximizes
// balanced accuracy of "this normalized prosecution risk is above the
// threshold" against the known labels. Each sensor observation is scored on
// its own; observations are not grouped per file, so the search does not use
// the highest prosecution risk of each file. Only the moderate candidate is
// scored: high is set to the first entry of vetoHighCandidates above the
// chosen moderate. With no usable observations the config defaults are
// returned. The base score plays no part in the search.
func calibrateVeto(observations map[string][]observation, thresholds map[string]map[string]float64) (moderate, high float64) {
	moderate, high = config.DefaultModerateVeto, config.DefaultHighConfidenceVeto

	prosecutionSensors := []string{"GlottalInertia", "PitchVelocity", "DigitalSilence", "ProsodicContinuity"}
	risks := normalizedProsecutionRisks(observations, thresholds, prosecutionSensors)
	if len(risks) == 0 {
		return moderate, high
	}

	best := -1.0
	for _, m := range vetoModerateCandidates {
		for _, h := range vetoHighCandidates {
			if !(m < h) {
				continue
			}
			acc := vetoAccuracy(risks, m)
			if acc > best {
				best = acc
				moderate, high = m, h
			}
		}
	}
	return moderate, high
}

// normalizedProsecutionRisks converts each raw observation into the same
// [0,1] risk-domain proxy the catalog sensors emit as Score, using each
// sensor's own calibrated threshold, so the veto grid search operates on
// the same scale the live pipeline's veto logic will see.
func normalizedProsecutionRisks(observations map[string][]observation, thresholds map[string]map[string]float64, names []string) []observation {
	var risks []observation
	for _, name := range names {
		key, ok := thresholdKeyFor(name)
		if !ok {
			continue
		}
		threshold := thresholds[name][key]
		if threshold <= 0 {
			continue
		}
		for _, o := range observations[name] {
			var risk float64
			if higherIsRiskier[name] {
				risk = o.value / (2 * threshold)
			} else {
				risk = 1 - o.value/(2*threshold)
			}
			if risk < 0 {
				risk = 0
			}
			if risk > 1 {
				risk = 1
			}
			risks = append(risks, observation{value: risk, synthetic: o.synthetic})
		}
	}
	return risks
}

func vetoAccuracy(risks []observation, moderate float64) float64 {
	var tp, fn, tn, fp int
	for _, o := range risks {
		flagged := o.value > moderate
		switch {
		case o.synthetic && flagged:
			tp++
		case o.synthetic && !flagged:
			fn++
		case !o.synthetic && !flagged:
			tn++
		default:
			fp++
		}
	}
	return (safeRatio(tp, tp+fn) + safeRatio(tn, tn+fp)) / 2
}

// Persist writes cfg to path as YAML, the document internal/config.Loader
// reads back at pipeline construction.
func Persist(cfg config.Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("calibration: marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("calibration: write %s: %w", path, err)
	}
	return nil
}
