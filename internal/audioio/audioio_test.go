package audioio

import (
	"math"
	"testing"
)

func sineWave(freqHz float64, durationSec float64, sampleRate int) []float32 {
	n := int(durationSec * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * t))
	}
	return out
}

func TestPrepareRejectsEmpty(t *testing.T) {
	if _, _, err := Prepare(nil, 16000, 1); err != ErrEmptyBuffer {
		t.Fatalf("err = %v, want ErrEmptyBuffer", err)
	}
}

func TestPrepareRejectsNonFinite(t *testing.T) {
	samples := []float32{0.1, float32(math.NaN()), 0.2}
	if _, _, err := Prepare(samples, 16000, 1); err != ErrNonFiniteSample {
		t.Fatalf("err = %v, want ErrNonFiniteSample", err)
	}
}

func TestPrepareRejectsBadSampleRate(t *testing.T) {
	samples := sineWave(440, 1.0, 16000)
	if _, _, err := Prepare(samples, 1000, 1); err == nil {
		t.Fatal("expected error for sample rate below minimum")
	}
	if _, _, err := Prepare(samples, 300000, 1); err == nil {
		t.Fatal("expected error for sample rate above maximum")
	}
}

func TestPrepareRejectsTooShort(t *testing.T) {
	samples := sineWave(440, 0.1, 16000)
	if _, _, err := Prepare(samples, 16000, 1); err != ErrTooShort {
		t.Fatalf("err = %v, want ErrTooShort", err)
	}
}

func TestPrepareAcceptsExactlyMinDuration(t *testing.T) {
	samples := sineWave(440, MinDurationSeconds, 16000)
	buf, _, err := Prepare(samples, 16000, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.Duration() < MinDurationSeconds {
		t.Errorf("Duration() = %v, want >= %v", buf.Duration(), MinDurationSeconds)
	}
}

func TestPrepareMixesStereoToMono(t *testing.T) {
	left := sineWave(440, 1.0, 16000)
	interleaved := make([]float32, len(left)*2)
	for i, s := range left {
		interleaved[2*i] = s
		interleaved[2*i+1] = -s // opposite-phase right channel
	}
	buf, _, err := Prepare(interleaved, 16000, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Opposite-phase channels should cancel to near-silence.
	var maxAbs float32
	for _, s := range buf.Samples {
		if a := float32(math.Abs(float64(s))); a > maxAbs {
			maxAbs = a
		}
	}
	if maxAbs > 1e-5 {
		t.Errorf("max abs sample = %v, want ~0 after cancellation", maxAbs)
	}
}

func TestPrepareNormalizesOnlyWhenClipping(t *testing.T) {
	quiet := make([]float32, 8192)
	for i := range quiet {
		quiet[i] = 0.1
	}
	buf, _, err := Prepare(quiet, 16000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Samples[0] != 0.1 {
		t.Errorf("quiet buffer should be unchanged, got %v", buf.Samples[0])
	}

	loud := make([]float32, 8192)
	for i := range loud {
		loud[i] = 2.0
	}
	buf2, _, err := Prepare(loud, 16000, 1)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range buf2.Samples {
		if s > 1.0+1e-6 {
			t.Fatalf("sample %v exceeds 1.0 after normalization", s)
		}
	}
}

func TestPrepareResamplesToCanonicalRate(t *testing.T) {
	samples := sineWave(440, 1.0, 8000)
	buf, _, err := Prepare(samples, 8000, 1)
	if err != nil {
		t.Fatal(err)
	}
	if buf.SampleRate != CanonicalSampleRate {
		t.Errorf("SampleRate = %d, want %d", buf.SampleRate, CanonicalSampleRate)
	}
}

func TestResampleAttenuatesAboveNewNyquist(t *testing.T) {
	// 48kHz input with energy at 20kHz, well above the 8kHz Nyquist the
	// signal will have once downsampled to 16kHz. Without an
	// anti-aliasing pre-filter, a tone above the target Nyquist folds
	// back into the passband instead of disappearing, surviving
	// decimation at near-full amplitude.
	const fromRate = 48000
	tone := sineWave(20000, 1.0, fromRate)

	out := resample(tone, fromRate, CanonicalSampleRate)

	// A properly anti-aliased decimation of an out-of-band tone leaves
	// only a near-silent residual; energy should be far below the
	// original unit-amplitude tone's RMS.
	var sumSq float64
	for _, s := range out {
		sumSq += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSq / float64(len(out)))
	if rms > 0.1 {
		t.Errorf("RMS after downsampling an above-Nyquist tone = %v, want < 0.1 (anti-aliasing filter not attenuating)", rms)
	}
}

func TestResampleUpsamplePreservesInBandTone(t *testing.T) {
	// A 1kHz tone, well within both the source and target Nyquist, should
	// survive upsampling without the anti-aliasing path (which only
	// engages on downsampling) altering its amplitude.
	tone := sineWave(1000, 1.0, 8000)
	out := resample(tone, 8000, CanonicalSampleRate)

	var peak float32
	for _, s := range out {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	if peak < 0.9 {
		t.Errorf("peak after upsampling an in-band tone = %v, want close to 1.0", peak)
	}
}

func TestSpectralRolloffFullNyquistWhenShort(t *testing.T) {
	short := sineWave(440, 0.05, CanonicalSampleRate)
	rolloff := spectralRolloff(short, CanonicalSampleRate)
	if rolloff != float64(CanonicalSampleRate)/2.0 {
		t.Errorf("rolloff = %v, want full Nyquist for short buffer", rolloff)
	}
}

func TestSpectralRolloffLowForNarrowbandTone(t *testing.T) {
	tone := sineWave(300, 1.0, CanonicalSampleRate)
	rolloff := spectralRolloff(tone, CanonicalSampleRate)
	if rolloff > 1000 {
		t.Errorf("rolloff = %v Hz, want a low rolloff for a 300Hz tone", rolloff)
	}
}
