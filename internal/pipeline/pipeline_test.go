package pipeline

import (
	"context"
	"math"
	"testing"

	"github.com/veridianvoice/deepfake-core/internal/config"
	"github.com/veridianvoice/deepfake-core/internal/fusion"
	"github.com/veridianvoice/deepfake-core/internal/sensor"
)

func sine(freqHz float64, durationSec float64, sampleRate int) []float32 {
	n := int(durationSec * float64(sampleRate))
	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		out[i] = float32(math.Sin(2 * math.Pi * freqHz * t))
	}
	return out
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	bad := config.Default()
	bad.Fusion.Veto.Moderate = 0
	if _, err := New(bad); err == nil {
		t.Fatal("expected an error constructing a pipeline from invalid config")
	}
}

func TestAnalyzeEndToEndOnPureTone(t *testing.T) {
	p, err := New(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	raw := sine(440, 2.0, 16000)
	result, err := p.Analyze(context.Background(), raw, 16000, 1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if result.Score < 0 || result.Score > 1 {
		t.Errorf("Score = %v, out of [0,1]", result.Score)
	}
	switch result.Verdict {
	case fusion.VerdictSynthetic, fusion.VerdictReal, fusion.VerdictIndeterminate:
	default:
		t.Errorf("unexpected verdict %q", result.Verdict)
	}
}

func TestAnalyzeRejectsTooShortBuffer(t *testing.T) {
	p, err := New(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	raw := sine(440, 0.05, 16000)
	if _, err := p.Analyze(context.Background(), raw, 16000, 1); err == nil {
		t.Fatal("expected an error for a too-short buffer")
	}
}

func TestAnalyzeFlagsAllZeroBufferViaDigitalSilence(t *testing.T) {
	p, err := New(config.Default())
	if err != nil {
		t.Fatal(err)
	}
	raw := make([]float32, 16000)
	result, err := p.Analyze(context.Background(), raw, 16000, 1)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got := result.Sensors["DigitalSilence"].Passed; got != sensor.PassedFalse {
		t.Fatalf("DigitalSilence Passed = %v, want PassedFalse for a silent buffer", got)
	}
}
