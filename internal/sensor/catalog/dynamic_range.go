package catalog

import (
	"math"
	"sort"

	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/dsp"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

// DynamicRange checks that the utterance's loudness varies the way natural
// speech does. Real speech moves between stressed and unstressed syllables
// and phrase-final trailing-off; heavily normalized or frame-independent
// synthetic audio can be unnaturally uniform in level.
type DynamicRange struct {
	minRangeDb float64
}

const (
	dynamicRangeFrameMs = 30.0
	dynamicRangeHopMs   = 15.0
)

func NewDynamicRange(cfg config.Config) *DynamicRange {
	return &DynamicRange{minRangeDb: threshold(cfg, "DynamicRange", "min_range_db", 12.0)}
}

func (s *DynamicRange) Name() string              { return "DynamicRange" }
func (s *DynamicRange) Category() sensor.Category { return sensor.Defense }
func (s *DynamicRange) MinSamples() int           { return int(0.5 * 16000) }

func (s *DynamicRange) Analyze(samples []float32, sampleRate int, _ sensor.Context) sensor.Result {
	frameSize := int(dynamicRangeFrameMs / 1000.0 * float64(sampleRate))
	hopSize := int(dynamicRangeHopMs / 1000.0 * float64(sampleRate))
	frames := dsp.Frame(samples, frameSize, hopSize)
	if len(frames) < 6 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonInsufficientSamples, "not enough frames to measure dynamic range")
	}

	var dbs []float64
	for _, f := range frames {
		rms := dsp.RMS(f)
		if rms < 1e-6 {
			continue
		}
		dbs = append(dbs, 20*math.Log10(rms))
	}
	if len(dbs) < 6 {
		return sensor.Abstain(s.Name(), s.Category(), sensor.ReasonPreconditionUnmet, "too many silent frames to measure dynamic range")
	}
	sort.Float64s(dbs)

	p5 := percentile(dbs, 0.05)
	p95 := percentile(dbs, 0.95)
	rangeDb := p95 - p5

	passed := sensor.PassedTrue
	if rangeDb < s.minRangeDb {
		passed = sensor.PassedFalse
	}
	score := dsp.Clamp01(1 - rangeDb/(2*s.minRangeDb))
	return sensor.Result{
		Score:     score,
		Passed:    passed,
		Value:     rangeDb,
		Threshold: s.minRangeDb,
		Metadata:  map[string]any{"unit": "db", "frames": len(dbs)},
	}
}

func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
