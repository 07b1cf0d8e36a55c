package stage

import (
	"gonum.org/v1/gonum/floats"

	"github.com/veridianvoice/deepfake-core/internal/dsp"
)

// TemporalStage scores long-range self-similarity in the energy envelope:
// an unnaturally strong repetition at a lag longer than a single pitch
// period is consistent with looped or spliced segments rather than
// continuously generated speech.
type TemporalStage struct{}

func NewTemporalStage() TemporalStage { return TemporalStage{} }

func (TemporalStage) Name() string { return "temporal" }

const (
	temporalHopMs    = 20.0
	temporalMinLagMs = 300.0
	temporalMaxLagMs = 2000.0
	temporalAlarmCorr = 0.8
)

func (TemporalStage) Analyze(in Input) Result {
	hop := int(temporalHopMs / 1000.0 * float64(in.Buffer.SampleRate))
	if hop < 1 {
		hop = 1
	}
	var envelope []float64
	for start := 0; start < len(in.Buffer.Samples); start += hop {
		end := start + hop
		if end > len(in.Buffer.Samples) {
			end = len(in.Buffer.Samples)
		}
		envelope = append(envelope, dsp.RMS(in.Buffer.Samples[start:end]))
	}

	minLag := int(temporalMinLagMs / temporalHopMs)
	maxLag := int(temporalMaxLagMs / temporalHopMs)
	if maxLag >= len(envelope) {
		maxLag = len(envelope) - 1
	}
	if maxLag <= minLag {
		return Result{Name: "temporal", Success: false, Diagnostics: map[string]any{"reason": "buffer too short for long-range self-similarity"}}
	}

	corr := dsp.Autocorrelate(envelope, minLag, maxLag)
	if len(corr) == 0 {
		return Result{Name: "temporal", Success: false, Diagnostics: map[string]any{"reason": "autocorrelation unavailable"}}
	}
	peak := floats.Max(corr)

	score := dsp.Clamp01((peak - temporalAlarmCorr) / (1 - temporalAlarmCorr))
	return Result{
		Name:    "temporal",
		Success: true,
		Score:   score,
		Diagnostics: map[string]any{
			"max_long_range_autocorr": peak,
		},
	}
}
