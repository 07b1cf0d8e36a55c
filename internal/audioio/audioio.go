// Package audioio implements the audio preprocessor (spec §4.1): converting
// an arbitrary raw PCM buffer into the canonical mono, 16kHz, [-1, 1]
// representation, and computing the spectral-rolloff bandwidth estimate
// used downstream for fusion-profile selection.
package audioio

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// CanonicalSampleRate is the internal representation's fixed rate.
	CanonicalSampleRate = 16000

	// MinSampleRate and MaxSampleRate bound accepted input rates (spec §4.1).
	MinSampleRate = 4000
	MaxSampleRate = 192000

	// MinDurationSeconds is the shortest buffer accepted for analysis
	// (spec §3, §8: "exactly 0.25s is accepted").
	MinDurationSeconds = 0.25

	// rolloffFraction is the spectral-energy fraction used for the
	// bandwidth estimate (spec §4.1: "95% of spectral energy").
	rolloffFraction = 0.95

	// minWelchFrame is the minimum Welch periodogram frame length (spec §4.1).
	minWelchFrame = 2048
)

// Input errors (spec §7): rejected at the preprocessor, never recovered.
var (
	ErrEmptyBuffer            = errors.New("audioio: empty audio buffer")
	ErrNonFiniteSample        = errors.New("audioio: non-finite sample value")
	ErrUnsupportedSampleRate  = errors.New("audioio: unsupported sample rate")
	ErrTooShort               = errors.New("audioio: buffer shorter than minimum duration")
	ErrNoChannels             = errors.New("audioio: channel count must be >= 1")
)

// Buffer is the canonical, mono, 16kHz, peak-normalized audio representation
// used by every sensor and stage downstream.
type Buffer struct {
	Samples    []float32
	SampleRate int
}

// Duration returns the buffer's length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Prepare converts raw interleaved PCM (mono or multi-channel, any supported
// sample rate) into the canonical Buffer, and returns the spectral-rolloff
// bandwidth estimate in Hz (spec §4.1).
//
// raw is interleaved float32 samples: raw[i*channels+c] is the sample for
// channel c at frame i. Container/codec decoding (WAV, MP3, ...) is out of
// scope per spec §1; callers are expected to have already decoded to PCM.
func Prepare(raw []float32, inputRate, channels int) (Buffer, float64, error) {
	if len(raw) == 0 {
		return Buffer{}, 0, ErrEmptyBuffer
	}
	if channels < 1 {
		return Buffer{}, 0, ErrNoChannels
	}
	if inputRate < MinSampleRate || inputRate > MaxSampleRate {
		return Buffer{}, 0, fmt.Errorf("%w: %d Hz (want [%d, %d])", ErrUnsupportedSampleRate, inputRate, MinSampleRate, MaxSampleRate)
	}
	for _, s := range raw {
		if !isFinite(s) {
			return Buffer{}, 0, ErrNonFiniteSample
		}
	}

	mono := mixToMono(raw, channels)
	resampled := resample(mono, inputRate, CanonicalSampleRate)
	normalized := peakNormalize(resampled)

	buf := Buffer{Samples: normalized, SampleRate: CanonicalSampleRate}
	if buf.Duration() < MinDurationSeconds {
		return Buffer{}, 0, fmt.Errorf("%w: %.3fs < %.2fs", ErrTooShort, buf.Duration(), MinDurationSeconds)
	}

	rolloff := spectralRolloff(normalized, CanonicalSampleRate)
	return buf, rolloff, nil
}

func isFinite(f float32) bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// mixToMono arithmetic-averages interleaved channels (spec §4.1).
func mixToMono(raw []float32, channels int) []float32 {
	if channels == 1 {
		out := make([]float32, len(raw))
		copy(out, raw)
		return out
	}
	frames := len(raw) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += raw[i*channels+c]
		}
		out[i] = sum / float32(channels)
	}
	return out
}

// peakNormalize scales samples to [-1, 1] only if the current peak exceeds
// 1.0; otherwise the buffer is returned unchanged (spec §4.1). Silence
// prefix/suffix is preserved — trimming is a sensor-level concern.
func peakNormalize(samples []float32) []float32 {
	peak := float32(0)
	for _, s := range samples {
		if abs := float32(math.Abs(float64(s))); abs > peak {
			peak = abs
		}
	}
	if peak <= 1.0 || peak == 0 {
		return samples
	}
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = s / peak
	}
	return out
}

// antiAliasTransitionBand shrinks the anti-aliasing filter's cutoff below
// the target Nyquist frequency, leaving headroom for the filter's
// transition band so content right at the new Nyquist is still attenuated
// rather than passing at the stopband edge (spec §4.1: "no aliasing above
// Nyquist").
const antiAliasTransitionBand = 0.9

// antiAliasTaps is the windowed-sinc FIR filter's length. This pipeline is
// offline and operates on complete utterances (spec §1 Non-goals: no
// real-time constraint), so a direct time-domain convolution at this
// length is cheap relative to the rest of the preprocessor and gives
// enough taps for a usable stopband on speech-range downsampling ratios.
const antiAliasTaps = 127

// resample decimates or interpolates samples from fromRate to toRate.
// Downsampling first passes the signal through a windowed-sinc low-pass
// filter cut off below the target Nyquist frequency, so content that would
// otherwise alias into the passband is attenuated before decimation (spec
// §4.1: "Resampling: polyphase or equivalent; no aliasing above Nyquist").
// Upsampling has no aliasing to guard against, so it skips straight to
// interpolation.
func resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out
	}

	filtered := samples
	if toRate < fromRate {
		cutoffHz := float64(toRate) / 2.0 * antiAliasTransitionBand
		kernel := windowedSincLowpass(cutoffHz, float64(fromRate), antiAliasTaps)
		filtered = convolveSame(samples, kernel)
	}

	ratio := float64(toRate) / float64(fromRate)
	outLen := int(math.Round(float64(len(filtered)) * ratio))
	if outLen < 1 {
		outLen = 1
	}
	out := make([]float32, outLen)
	step := float64(fromRate) / float64(toRate)
	for i := range out {
		srcPos := float64(i) * step
		idx := int(srcPos)
		frac := srcPos - float64(idx)
		if idx >= len(filtered)-1 {
			out[i] = filtered[len(filtered)-1]
			continue
		}
		a, b := filtered[idx], filtered[idx+1]
		out[i] = a + float32(frac)*(b-a)
	}
	return out
}

// windowedSincLowpass designs a linear-phase FIR low-pass filter kernel
// via a Hamming-windowed sinc (the standard anti-aliasing pre-filter for
// polyphase-style decimation), normalized to unity DC gain so the filter
// doesn't change the signal's overall level.
func windowedSincLowpass(cutoffHz, sampleRate float64, numTaps int) []float64 {
	if numTaps%2 == 0 {
		numTaps++
	}
	fc := cutoffHz / sampleRate // normalized cutoff, cycles/sample
	m := numTaps - 1
	kernel := make([]float64, numTaps)
	var sum float64
	for n := 0; n < numTaps; n++ {
		x := float64(n) - float64(m)/2.0
		var sinc float64
		if x == 0 {
			sinc = 2 * fc
		} else {
			sinc = math.Sin(2*math.Pi*fc*x) / (math.Pi * x)
		}
		window := 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/float64(m))
		kernel[n] = sinc * window
		sum += kernel[n]
	}
	if sum != 0 {
		for n := range kernel {
			kernel[n] /= sum
		}
	}
	return kernel
}

// convolveSame convolves samples with kernel and returns a result the same
// length as samples (kernel assumed odd-length and centered), clamping
// edge lookups to zero rather than wrapping or truncating.
func convolveSame(samples []float32, kernel []float64) []float32 {
	half := len(kernel) / 2
	out := make([]float32, len(samples))
	for i := range samples {
		var acc float64
		for k, coeff := range kernel {
			srcIdx := i + k - half
			if srcIdx < 0 || srcIdx >= len(samples) {
				continue
			}
			acc += float64(samples[srcIdx]) * coeff
		}
		out[i] = float32(acc)
	}
	return out
}

// spectralRolloff computes the frequency below which rolloffFraction of the
// spectral energy lies, measured on a Welch periodogram (spec §4.1). If the
// buffer is shorter than one frame, the full Nyquist frequency is returned.
func spectralRolloff(samples []float32, sampleRate int) float64 {
	nyquist := float64(sampleRate) / 2.0
	if len(samples) < minWelchFrame {
		return nyquist
	}

	psd := welchPSD(samples, sampleRate, minWelchFrame)
	total := 0.0
	for _, p := range psd {
		total += p
	}
	if total <= 0 {
		return nyquist
	}

	target := total * rolloffFraction
	cumulative := 0.0
	binHz := nyquist / float64(len(psd)-1)
	for i, p := range psd {
		cumulative += p
		if cumulative >= target {
			return float64(i) * binHz
		}
	}
	return nyquist
}

// welchPSD computes Welch's averaged periodogram using non-overlapping
// frames of size frameLen and a Hann window, via gonum's real FFT.
func welchPSD(samples []float32, sampleRate, frameLen int) []float64 {
	window := hannWindow(frameLen)
	fft := fourier.NewFFT(frameLen)
	outLen := frameLen/2 + 1
	psd := make([]float64, outLen)

	numFrames := len(samples) / frameLen
	if numFrames == 0 {
		numFrames = 1
	}

	frameBuf := make([]float64, frameLen)
	for f := 0; f < numFrames; f++ {
		start := f * frameLen
		for i := 0; i < frameLen; i++ {
			idx := start + i
			var s float64
			if idx < len(samples) {
				s = float64(samples[idx])
			}
			frameBuf[i] = s * window[i]
		}
		spectrum := fft.Coefficients(nil, frameBuf)
		for i, c := range spectrum {
			mag := real(c)*real(c) + imag(c)*imag(c)
			psd[i] += mag
		}
	}
	for i := range psd {
		psd[i] /= float64(numFrames)
	}
	_ = sampleRate
	return psd
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n-1)))
	}
	return w
}
