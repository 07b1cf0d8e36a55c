package catalog

import (
	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// GlottalInertia flags voiced onsets whose amplitude envelope rises faster
// than the vocal folds' physical mass permits. Real phonation cannot begin
// instantaneously; some vocoders produce onsets with no measurable rise
// time at all.
type GlottalInertia struct {
	minRiseMs float64
}

const (
	glottalEnvelopeHopMs  = 5.0
	glottalOnsetFloor     = 0.1
	glottalOnsetPeakRatio = 0.9
	glottalMinSeconds     = 0.3
)

func NewGlottalInertia(cfg config.Config) *GlottalInertia {
	return &GlottalInertia{minRiseMs: threshold(cfg, "GlottalInertia", "min_rise_ms", 5.0)}
}

func (s *GlottalInertia) Name() string           { return "GlottalInertia" }
func (s *GlottalInertia) Category() sensor.Category { return sensor.Prosecution }
func (s *GlottalInertia) MinSamples() int        { return int(glottalMinSeconds * 16000) }

func (s *GlottalInertia) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	hop := int(glottalEnvelopeHopMs / 1000.0 * float64(sampleRate))
	if hop < 1 {
		hop = 1
	}
	envelope := make([]float64, 0, len(samples)/hop+1)
	for start := 0; start < len(samples); start += hop {
		end := start + hop
		if end > len(samples) {
			end = len(samples)
		}
		envelope = append(envelope, dsp.RMS(samples[start:end]))
	}
	if len(envelope) < 3 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames for an onset envelope")
	}

	peak := 0.0
	for _, v := range envelope {
		if v > peak {
			peak = v
		}
	}
	if peak < 1e-5 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "no voiced energy to measure an onset against")
	}

	minRiseMs, found := findMinOnsetRiseMs(envelope, peak, glottalEnvelopeHopMs)
	if !found {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "no onset detected in buffer")
	}

	flagged := minRiseMs < s.minRiseMs
	score := dsp.Clamp01(1 - minRiseMs/(2*s.minRiseMs))
	passed := sensor.PassedTrue
	if flagged {
		passed = sensor.PassedFalse
	}
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     minRiseMs,
		Threshold: s.minRiseMs,
		Metadata:  map[string]any{"unit": "ms"},
	}
}

// findMinOnsetRiseMs scans the envelope for a crossing above the onset floor
// (10% of the buffer's peak) and measures the time from the last frame below
// that floor to 90% of the following local peak, returning
// the fastest (most suspicious) such rise found.
func findMinOnsetRiseMs(envelope []float64, peak float64, hopMs float64) (float64, bool) {
	floor := glottalOnsetFloor * peak
	best := -1.0
	found := false
	i := 0
	for i < len(envelope)-1 {
		if envelope[i] >= floor || envelope[i+1] < floor {
			i++
			continue
		}
		// Envelope just crossed above the onset floor at i+1; track the
		// local peak over the following window and find where it first
		// reaches 90% of that peak.
		end := i + 40
		if end > len(envelope) {
			end = len(envelope)
		}
		localPeak := envelope[i+1]
		for k := i + 2; k < end; k++ {
			if envelope[k] > localPeak {
				localPeak = envelope[k]
			}
		}
		j := i + 1
		riseEnd := -1
		for ; j < end; j++ {
			if envelope[j] >= glottalOnsetPeakRatio*localPeak {
				riseEnd = j
				break
			}
		}
		if riseEnd >= 0 {
			riseMs := float64(riseEnd-i) * hopMs
			if !found || riseMs < best {
				best = riseMs
				found = true
			}
		}
		i = j + 1
	}
	return best, found
}
