package stage

import (
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"

	"github.com/veridianvoice/deepfake-core/internal/dsp"
)

// ArtifactStage scores comb-filtering / periodic-bin artifacts typical of
// neural vocoders: regularly spaced energy spikes in the high-frequency
// half of the spectrum that a natural vocal tract and microphone chain do
// not produce. For each non-silent frame it measures the ripple of the
// upper half of the power spectrum as its standard deviation over its mean,
// and averages that across frames; it does not test whether the ripple is
// periodic.
type ArtifactStage struct{}

func NewArtifactStage() ArtifactStage { return ArtifactStage{} }

func (ArtifactStage) Name() string { return "artifact" }

const (
	artifactFrameSize   = 2048
	artifactHop         = 1024
	artifactAlarmStdDev = 0.08
)

func (ArtifactStage) Analyze(in Input) Result {
	frames := dsp.Frame(in.Buffer.Samples, artifactFrameSize, artifactHop)
	if len(frames) == 0 {
		return Result{Name: "artifact", Success: false, Diagnostics: map[string]any{"reason": "buffer shorter than one analysis frame"}}
	}

	fft := fourier.NewFFT(artifactFrameSize)
	window := dsp.HannWindow(artifactFrameSize)
	buf := make([]float64, artifactFrameSize)

	var ripples []float64
	for _, f := range frames {
		if dsp.RMS(f) < 1e-6 {
			continue
		}
		for i, s := range f {
			buf[i] = float64(s) * window[i]
		}
		spectrum := fft.Coefficients(nil, buf)
		highBand := spectrum[len(spectrum)/2:]
		mags := make([]float64, len(highBand))
		for i, c := range highBand {
			mags[i] = real(c)*real(c) + imag(c)*imag(c)
		}
		ripples = append(ripples, stat.StdDev(mags, nil)/(stat.Mean(mags, nil)+1e-12))
	}
	if len(ripples) == 0 {
		return Result{Name: "artifact", Success: false, Diagnostics: map[string]any{"reason": "all frames silent"}}
	}

	meanRipple := stat.Mean(ripples, nil)
	score := dsp.Clamp01((meanRipple - artifactAlarmStdDev) / artifactAlarmStdDev)
	return Result{
		Name:    "artifact",
		Success: true,
		Score:   score,
		Diagnostics: map[string]any{
			"mean_high_band_ripple": meanRipple,
			"frames_used":           len(ripples),
		},
	}
}
