// Package dsp holds the small signal-processing building blocks shared by
// the sensor catalog (internal/sensor/catalog): framing, windowing,
// autocorrelation pitch estimation, linear-predictive formant estimation,
// and envelope statistics. None of it is specific to any one sensor.
package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Frame splits samples into overlapping fixed-size frames, hopSize apart.
// The final partial frame (if any) is dropped rather than zero-padded,
// consistent with the sensor contract's "abstain rather than pad" rule
// (spec §4.2) applied at the framing level.
func Frame(samples []float32, frameSize, hopSize int) [][]float32 {
	if frameSize <= 0 || hopSize <= 0 || len(samples) < frameSize {
		return nil
	}
	var frames [][]float32
	for start := 0; start+frameSize <= len(samples); start += hopSize {
		frames = append(frames, samples[start:start+frameSize])
	}
	return frames
}

// HannWindow returns a Hann window of length n.
func HannWindow(n int) []float64 {
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

// RMS returns the root-mean-square amplitude of samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Peak returns the maximum absolute amplitude of samples.
func Peak(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}

// CrestFactor is the ratio of peak to RMS amplitude, in linear units.
// Returns 0 when the frame is silent (RMS == 0).
func CrestFactor(samples []float32) float64 {
	rms := RMS(samples)
	if rms == 0 {
		return 0
	}
	return Peak(samples) / rms
}

// Autocorrelate computes the normalized autocorrelation of a windowed frame
// for lags [minLag, maxLag], via FFT (Wiener-Khinchin).
func Autocorrelate(frame []float64, minLag, maxLag int) []float64 {
	n := len(frame)
	if n == 0 || maxLag >= n {
		return nil
	}
	padded := nextPow2(2 * n)
	buf := make([]float64, padded)
	copy(buf, frame)

	fft := fourier.NewFFT(padded)
	spectrum := fft.Coefficients(nil, buf)
	for i, c := range spectrum {
		power := real(c)*real(c) + imag(c)*imag(c)
		spectrum[i] = complex(power, 0)
	}
	corr := fft.Sequence(nil, spectrum)

	if maxLag < minLag {
		return nil
	}
	out := make([]float64, maxLag-minLag+1)
	norm := corr[0]
	if norm == 0 {
		return out
	}
	for lag := minLag; lag <= maxLag; lag++ {
		out[lag-minLag] = corr[lag] / norm
	}
	return out
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// EstimatePitchHz estimates the fundamental frequency of a voiced frame via
// autocorrelation peak-picking, bounded to [minHz, maxHz] (typical human
// voice range). Returns 0, false if no clear periodicity is found (e.g.
// silence or noise), signaling the caller to treat the frame as unvoiced.
func EstimatePitchHz(frame []float32, sampleRate int, minHz, maxHz float64) (float64, bool) {
	if RMS(frame) < 1e-6 {
		return 0, false
	}
	windowed := make([]float64, len(frame))
	win := HannWindow(len(frame))
	for i, s := range frame {
		windowed[i] = float64(s) * win[i]
	}

	minLag := int(float64(sampleRate) / maxHz)
	maxLag := int(float64(sampleRate) / minHz)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(windowed) {
		maxLag = len(windowed) - 1
	}
	if maxLag <= minLag {
		return 0, false
	}

	corr := Autocorrelate(windowed, minLag, maxLag)
	if len(corr) == 0 {
		return 0, false
	}

	bestLag := -1
	bestVal := 0.0
	for i, v := range corr {
		if v > bestVal {
			bestVal = v
			bestLag = i
		}
	}
	if bestLag < 0 || bestVal < 0.3 {
		return 0, false
	}
	lag := bestLag + minLag
	return float64(sampleRate) / float64(lag), true
}

// LPCFormants estimates formant frequencies (Hz) from a frame via
// Levinson-Durbin linear prediction followed by peak-picking on the LPC
// envelope's magnitude response (see formantsFromLPC). order should be roughly
// sampleRate/1000 + 2 for typical voice formant estimation. Returns an
// empty slice if the frame is too quiet or the prediction is unstable.
func LPCFormants(frame []float32, sampleRate int, order int) []float64 {
	if len(frame) <= order || RMS(frame) < 1e-6 {
		return nil
	}
	win := HannWindow(len(frame))
	windowed := make([]float64, len(frame))
	for i, s := range frame {
		windowed[i] = float64(s) * win[i]
	}
	// Pre-emphasis to flatten the spectral tilt before LPC, standard
	// practice for formant estimation on voiced speech.
	emph := make([]float64, len(windowed))
	emph[0] = windowed[0]
	for i := 1; i < len(windowed); i++ {
		emph[i] = windowed[i] - 0.97*windowed[i-1]
	}

	coeffs, gain, ok := levinsonDurbin(emph, order)
	if !ok || gain <= 0 {
		return nil
	}
	return formantsFromLPC(coeffs, sampleRate)
}

// levinsonDurbin solves the normal equations for an order-p LPC model via
// the Levinson-Durbin recursion. Returns the prediction coefficients
// a[1..p] (a[0] implicitly 1) and the residual gain.
func levinsonDurbin(signal []float64, order int) ([]float64, float64, bool) {
	autocorr := make([]float64, order+1)
	for lag := 0; lag <= order; lag++ {
		var sum float64
		for i := 0; i+lag < len(signal); i++ {
			sum += signal[i] * signal[i+lag]
		}
		autocorr[lag] = sum
	}
	if autocorr[0] == 0 {
		return nil, 0, false
	}

	a := make([]float64, order+1)
	err := autocorr[0]
	for i := 1; i <= order; i++ {
		acc := autocorr[i]
		for j := 1; j < i; j++ {
			acc -= a[j] * autocorr[i-j]
		}
		if err == 0 {
			return nil, 0, false
		}
		k := acc / err
		newA := make([]float64, order+1)
		newA[i] = k
		for j := 1; j < i; j++ {
			newA[j] = a[j] - k*a[i-j]
		}
		copy(a, newA)
		err *= 1 - k*k
		if err <= 0 {
			return nil, 0, false
		}
	}
	return a[1:], err, true
}

// formantsFromLPC finds resonant frequencies by evaluating the LPC
// all-pole transfer function's magnitude over a dense frequency grid and
// picking local maxima, avoiding full complex root-finding while remaining
// numerically robust for short voice frames.
func formantsFromLPC(coeffs []float64, sampleRate int) []float64 {
	const gridPoints = 512
	mags := make([]float64, gridPoints)
	nyquist := float64(sampleRate) / 2
	for i := 0; i < gridPoints; i++ {
		freq := float64(i) / float64(gridPoints-1) * nyquist
		omega := 2 * math.Pi * freq / float64(sampleRate)
		var reSum, imSum float64 = 1, 0
		for k, a := range coeffs {
			angle := -omega * float64(k+1)
			reSum -= a * math.Cos(angle)
			imSum -= a * math.Sin(angle)
		}
		denom := reSum*reSum + imSum*imSum
		if denom < 1e-12 {
			denom = 1e-12
		}
		mags[i] = 1.0 / math.Sqrt(denom)
	}

	var formants []float64
	for i := 1; i < gridPoints-1; i++ {
		if mags[i] > mags[i-1] && mags[i] > mags[i+1] {
			freq := float64(i) / float64(gridPoints-1) * nyquist
			if freq > 90 && freq < nyquist-90 {
				formants = append(formants, freq)
			}
		}
	}
	return formants
}

// Clamp01 restricts v to [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Mean returns the arithmetic mean of vals, or 0 for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// StdDev returns the population standard deviation of vals.
func StdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	m := Mean(vals)
	var sum float64
	for _, v := range vals {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(vals)))
}
