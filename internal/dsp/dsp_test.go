package dsp

import (
	"math"
	"testing"
)

func sine(freqHz float64, n int, sampleRate int) []float32 {
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * t))
	}
	return out
}

func TestFrameDropsPartialTail(t *testing.T) {
	samples := make([]float32, 1000)
	frames := Frame(samples, 300, 100)
	if len(frames) != 8 {
		t.Fatalf("len(frames) = %d, want 8", len(frames))
	}
	for _, f := range frames {
		if len(f) != 300 {
			t.Errorf("frame length = %d, want 300", len(f))
		}
	}
}

func TestFrameTooShortReturnsNil(t *testing.T) {
	if Frame(make([]float32, 10), 300, 100) != nil {
		t.Error("expected nil for buffer shorter than frame size")
	}
}

func TestRMSAndPeakOnConstantSignal(t *testing.T) {
	samples := make([]float32, 100)
	for i := range samples {
		samples[i] = 0.5
	}
	if rms := RMS(samples); math.Abs(rms-0.5) > 1e-6 {
		t.Errorf("RMS = %v, want 0.5", rms)
	}
	if peak := Peak(samples); peak != 0.5 {
		t.Errorf("Peak = %v, want 0.5", peak)
	}
}

func TestCrestFactorZeroForSilence(t *testing.T) {
	if cf := CrestFactor(make([]float32, 100)); cf != 0 {
		t.Errorf("CrestFactor(silence) = %v, want 0", cf)
	}
}

func TestEstimatePitchHzRecoversKnownFrequency(t *testing.T) {
	sampleRate := 16000
	frame := sine(150, 1024, sampleRate)
	hz, voiced := EstimatePitchHz(frame, sampleRate, 60, 500)
	if !voiced {
		t.Fatal("expected a voiced result for a clean sine tone")
	}
	if math.Abs(hz-150) > 5 {
		t.Errorf("EstimatePitchHz = %v, want ~150", hz)
	}
}

func TestEstimatePitchHzSilenceIsUnvoiced(t *testing.T) {
	if _, voiced := EstimatePitchHz(make([]float32, 1024), 16000, 60, 500); voiced {
		t.Error("expected silence to be unvoiced")
	}
}

func TestAutocorrelatePeaksAtPeriod(t *testing.T) {
	sampleRate := 16000
	period := sampleRate / 200 // 200Hz
	frame := sine(200, 2048, sampleRate)
	windowed := make([]float64, len(frame))
	for i, s := range frame {
		windowed[i] = float64(s)
	}
	// Search from half a period: near lag 0 any smooth signal correlates
	// with itself more strongly than at its period.
	minLag := period / 2
	corr := Autocorrelate(windowed, minLag, period*3)
	if len(corr) == 0 {
		t.Fatal("expected non-empty autocorrelation")
	}
	bestLag, bestVal := 0, -1.0
	for i, v := range corr {
		if v > bestVal {
			bestVal = v
			bestLag = i + minLag
		}
	}
	if math.Abs(float64(bestLag-period)) > 5 {
		t.Errorf("best lag = %d, want ~%d", bestLag, period)
	}
}

func TestLPCFormantsReturnsNilForSilence(t *testing.T) {
	if f := LPCFormants(make([]float32, 512), 16000, 14); f != nil {
		t.Error("expected nil formants for silence")
	}
}

func TestLPCFormantsFindsResonance(t *testing.T) {
	sampleRate := 16000
	// A plain 700Hz sine, standing in loosely for a vowel's F1 energy
	// concentration.
	frame := sine(700, 1024, sampleRate)
	formants := LPCFormants(frame, sampleRate, 14)
	if len(formants) == 0 {
		t.Fatal("expected at least one resolvable formant")
	}
}

func TestClamp01(t *testing.T) {
	cases := map[float64]float64{-1: 0, 0: 0, 0.5: 0.5, 1: 1, 2: 1}
	for in, want := range cases {
		if got := Clamp01(in); got != want {
			t.Errorf("Clamp01(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestMeanAndStdDev(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	if m := Mean(vals); m != 3 {
		t.Errorf("Mean = %v, want 3", m)
	}
	if sd := StdDev(vals); math.Abs(sd-math.Sqrt(2)) > 1e-9 {
		t.Errorf("StdDev = %v, want sqrt(2)", sd)
	}
}
