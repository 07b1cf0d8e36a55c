package stage

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/veridianvoice/deepfake-core/internal/dsp"
)

// FeatureStage scores broad spectral-shape anomalies: how far the
// utterance's per-frame spectral flatness (Wiener entropy) deviates, on
// average, from the range natural speech occupies. Neural vocoders tend to
// either over-smooth (unnaturally tonal) or under-smooth (unnaturally
// noise-like) the spectral envelope relative to a human vocal tract.
type FeatureStage struct{}

func NewFeatureStage() FeatureStage { return FeatureStage{} }

func (FeatureStage) Name() string { return "feature" }

const (
	featureFrameSize     = 1024
	featureHop           = 512
	naturalFlatnessMean  = 0.25
	naturalFlatnessRange = 0.2
)

func (FeatureStage) Analyze(in Input) Result {
	frames := dsp.Frame(in.Buffer.Samples, featureFrameSize, featureHop)
	if len(frames) < 2 {
		return Result{Name: "feature", Success: false, Diagnostics: map[string]any{"reason": "insufficient frames"}}
	}

	fft := fourier.NewFFT(featureFrameSize)
	window := dsp.HannWindow(featureFrameSize)
	flatness := make([]float64, 0, len(frames))

	buf := make([]float64, featureFrameSize)
	for _, f := range frames {
		if dsp.RMS(f) < 1e-6 {
			continue
		}
		for i, s := range f {
			buf[i] = float64(s) * window[i]
		}
		spectrum := fft.Coefficients(nil, buf)
		mags := make([]float64, len(spectrum))
		for i, c := range spectrum {
			mags[i] = real(c)*real(c) + imag(c)*imag(c) + 1e-12
		}
		flatness = append(flatness, spectralFlatness(mags))
	}
	if len(flatness) == 0 {
		return Result{Name: "feature", Success: false, Diagnostics: map[string]any{"reason": "all frames silent"}}
	}

	mean := stat.Mean(flatness, nil)
	deviation := math.Abs(mean-naturalFlatnessMean) / naturalFlatnessRange
	score := dsp.Clamp01(deviation)

	return Result{
		Name:    "feature",
		Success: true,
		Score:   score,
		Diagnostics: map[string]any{
			"mean_spectral_flatness": mean,
			"frames_used":            len(flatness),
		},
	}
}

// spectralFlatness is the ratio of the geometric mean to the arithmetic
// mean of a power spectrum (Wiener entropy), in [0,1]: near 0 for a tonal
// spectrum, near 1 for white noise.
func spectralFlatness(mags []float64) float64 {
	var logSum, sum float64
	for _, m := range mags {
		logSum += math.Log(m)
		sum += m
	}
	n := float64(len(mags))
	geoMean := math.Exp(logSum / n)
	arithMean := sum / n
	if arithMean <= 0 {
		return 0
	}
	return dsp.Clamp01(geoMean / arithMean)
}
