// Package sensor defines the uniform contract shared by every detector in
// the physics analysis stage (spec §4.2): a pure function from audio to a
// bounded, categorized SensorResult, plus the insertion-ordered registry
// that runs them.
package sensor

import "context"

// Category classifies a sensor's contribution to risk/trust aggregation
// (spec §3 "SensorResult"). It is a mandatory, first-class field — spec §9
// rejects the legacy string-matching-on-name approach to categorization.
type Category string

const (
	// Prosecution sensors accuse: a high score argues the audio is
	// synthetic.
	Prosecution Category = "prosecution"
	// Defense sensors exonerate: a high score argues the audio is real.
	Defense Category = "defense"
	// Informational sensors feed profile selection only and never
	// contribute to risk or trust (spec §3, §9 "Bandwidth" bug).
	Informational Category = "informational"
)

// Passed is the tri-valued outcome of a sensor's internal decision logic.
type Passed int

const (
	// PassedAbstain means the sensor could not produce a verdict
	// (insufficient data, numerical failure, precondition unmet). Excluded
	// from all aggregation.
	PassedAbstain Passed = iota
	PassedTrue
	PassedFalse
)

// Reason is a closed set of abstention reason codes (SPEC_FULL §12):
// spec.md requires "a reason code" without enumerating one, so this fills
// that gap with a machine-checkable enum rather than free text.
type Reason string

const (
	ReasonNone                  Reason = ""
	ReasonInsufficientSamples   Reason = "insufficient_samples"
	ReasonNumericalFailure      Reason = "numerical_failure"
	ReasonModelUnavailable      Reason = "model_unavailable"
	ReasonDeadlineExceeded      Reason = "deadline_exceeded"
	ReasonPreconditionUnmet     Reason = "precondition_unmet"
)

// Result is the uniform per-sensor output (spec §3 "SensorResult").
type Result struct {
	Name      string                 `json:"name"`
	Category  Category               `json:"category"`
	Passed    Passed                 `json:"passed"`
	Score     float64                `json:"score"`
	Value     float64                `json:"value"`
	Threshold float64                `json:"threshold"`
	Reason    Reason                 `json:"reason,omitempty"`
	Detail    string                 `json:"detail,omitempty"`
	Metadata  map[string]any         `json:"metadata,omitempty"`
}

// Abstain builds a Result with Passed = PassedAbstain and the neutral
// score mandated by spec §4.2 ("score = 0.5 (neutral)").
func Abstain(name string, category Category, reason Reason, detail string) Result {
	return Result{
		Name:     name,
		Category: category,
		Passed:   PassedAbstain,
		Score:    0.5,
		Reason:   reason,
		Detail:   detail,
	}
}

// Context carries per-call information available to sensors beyond the raw
// audio: the preprocessor's bandwidth estimate, and a soft deadline.
// Sensors are pure functions of (audio, sampleRate, Context) — no shared
// mutable state (spec §4.2, §5).
type Context struct {
	RolloffHz float64
	Deadline  context.Context
}

// Sensor is the contract every detector implements (spec §4.2). Analyze must
// never panic or return an error to the framework: internal faults are
// converted to an abstaining Result. Implementations must be pure functions
// of their inputs and must not mutate the audio buffer.
type Sensor interface {
	Name() string
	Category() Category
	Analyze(samples []float32, sampleRate int, ctx Context) Result
}

// MinFrameSensor is implemented by sensors whose internal FFT/STFT requires
// a minimum sample count; the registry and the sensor itself use this to
// abstain rather than pad with zeros (spec §4.2).
type MinFrameSensor interface {
	Sensor
	MinSamples() int
}

// ClampScore enforces the [0,1] score-domain invariant (spec §3 "Invariant",
// §9 "Out-of-range sensor scores"). Out-of-range values are clamped; NaN/Inf
// callers should instead abstain (see sanitize in registry.go) rather than clamp, since a
// non-finite score indicates a computation failure, not a boundary value.
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
