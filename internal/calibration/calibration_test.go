package calibration

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writePCMFile(t *testing.T, path string, samples []float32) {
	t.Helper()
	buf := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(s))
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReadPCMFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.f32")
	want := []float32{0.1, -0.5, 1.0, -1.0, 0}
	writePCMFile(t, path, want)

	got, err := ReadPCMFile(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadPCMFileRejectsUnalignedLength(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.f32")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadPCMFile(path); err == nil {
		t.Fatal("expected an error for a length not a multiple of 4")
	}
}

func TestWalkCorpusRejectsUndersizedClass(t *testing.T) {
	dir := t.TempDir()
	organicDir := filepath.Join(dir, "organic")
	syntheticDir := filepath.Join(dir, "synthetic")
	os.MkdirAll(organicDir, 0o755)
	os.MkdirAll(syntheticDir, 0o755)
	writePCMFile(t, filepath.Join(organicDir, "a.f32"), []float32{0})

	if _, err := WalkCorpus(dir); err == nil {
		t.Fatal("expected an error for a corpus below the minimum file count")
	}
}

func TestCorpusFingerprintIsDeterministic(t *testing.T) {
	c := Corpus{Organic: []string{"a", "b"}, Synthetic: []string{"c"}}
	if c.Fingerprint() != c.Fingerprint() {
		t.Fatal("Fingerprint should be deterministic for the same corpus")
	}
	other := Corpus{Organic: []string{"a", "d"}, Synthetic: []string{"c"}}
	if c.Fingerprint() == other.Fingerprint() {
		t.Fatal("different corpora should not collide trivially")
	}
}

func TestBalancedAccuracyPerfectSeparation(t *testing.T) {
	obs := []observation{
		{value: 10, synthetic: true},
		{value: 11, synthetic: true},
		{value: 1, synthetic: false},
		{value: 2, synthetic: false},
	}
	acc := balancedAccuracy("PitchVelocity", obs, 5)
	if acc != 1.0 {
		t.Errorf("balancedAccuracy = %v, want 1.0 for perfectly separated classes", acc)
	}
}

func TestDiscriminationWeightFloorsAtChance(t *testing.T) {
	if w := discriminationWeight(0.5); w != 0 {
		t.Errorf("discriminationWeight(0.5) = %v, want 0", w)
	}
	if w := discriminationWeight(1.0); w != 1.0 {
		t.Errorf("discriminationWeight(1.0) = %v, want 1.0", w)
	}
}
