package config

import (
	"errors"
	"testing"
)

const validDoc = `
sensors:
  GlottalInertia:
    rise_time_ms: 4.2
fusion:
  profiles:
    default:
      weights:
        GlottalInertia: 0.3
        FormantTrajectory: 0.2
      thresholds:
        synthetic: 0.65
        real: 0.35
    narrowband:
      weights:
        GlobalFormants: 0
        Coarticulation: 0
        GlottalInertia: 0.3
      thresholds:
        synthetic: 0.6
        real: 0.3
  veto:
    high_confidence: 0.85
    moderate: 0.75
  stage_weights:
    physics: 0.35
    feature: 0.2
    temporal: 0.15
    artifact: 0.15
    neural: 0.15
meta:
  dataset_fingerprint: "abc123"
`

func fakeReader(docs map[string]string) func(string) ([]byte, error) {
	return func(path string) ([]byte, error) {
		doc, ok := docs[path]
		if !ok {
			return nil, errors.New("file not found: " + path)
		}
		return []byte(doc), nil
	}
}

func TestLoaderValidDocument(t *testing.T) {
	loader := Loader{
		Lookup:   func(string) (string, bool) { return "", false },
		ReadFile: fakeReader(map[string]string{DefaultConfigPath: validDoc}),
	}
	result, err := loader.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}
	if got := result.Config.Fusion.Veto.HighConfidence; got != 0.85 {
		t.Errorf("HighConfidence = %v, want 0.85", got)
	}
	if v, ok := result.Config.SensorThreshold("GlottalInertia", "rise_time_ms"); !ok || v != 4.2 {
		t.Errorf("SensorThreshold = %v, %v, want 4.2, true", v, ok)
	}
}

func TestLoaderUnknownKeyWarns(t *testing.T) {
	doc := validDoc + "\nextra_field: true\n"
	loader := Loader{
		Lookup:   func(string) (string, bool) { return "", false },
		ReadFile: fakeReader(map[string]string{DefaultConfigPath: doc}),
	}
	result, err := loader.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want exactly one", result.Warnings)
	}
}

func TestLoaderMissingRequiredKeyRejected(t *testing.T) {
	doc := `
fusion:
  profiles:
    default:
      weights: {}
      thresholds: {synthetic: 0.6, real: 0.3}
    narrowband:
      weights: {}
      thresholds: {synthetic: 0.6, real: 0.3}
  veto:
    high_confidence: 0.85
    moderate: 0.75
`
	loader := Loader{
		Lookup:   func(string) (string, bool) { return "", false },
		ReadFile: fakeReader(map[string]string{DefaultConfigPath: doc}),
	}
	if _, err := loader.Load(""); !errors.Is(err, ErrMissingKey) {
		t.Fatalf("err = %v, want ErrMissingKey", err)
	}
}

func TestLoaderStageWeightSumRejected(t *testing.T) {
	doc := validDoc
	doc = doc[:len(doc)-1] // trim trailing newline, irrelevant
	// Corrupt stage_weights to sum to 1.2 instead of 1.0.
	doc = `
fusion:
  profiles:
    default: {weights: {}, thresholds: {synthetic: 0.6, real: 0.3}}
    narrowband: {weights: {}, thresholds: {synthetic: 0.6, real: 0.3}}
  veto: {high_confidence: 0.85, moderate: 0.75}
  stage_weights: {physics: 0.7, feature: 0.5}
`
	loader := Loader{
		Lookup:   func(string) (string, bool) { return "", false },
		ReadFile: fakeReader(map[string]string{DefaultConfigPath: doc}),
	}
	if _, err := loader.Load(""); !errors.Is(err, ErrWeightsNotNormalized) {
		t.Fatalf("err = %v, want ErrWeightsNotNormalized", err)
	}
}

func TestLoaderEnvOverridesLogLevel(t *testing.T) {
	env := map[string]string{"VOXFUSION_LOG_LEVEL": "debug"}
	loader := Loader{
		Lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		ReadFile: fakeReader(map[string]string{DefaultConfigPath: validDoc}),
	}
	result, err := loader.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if result.Config.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", result.Config.LogLevel)
	}
}

func TestLoaderExplicitPathOverridesEnv(t *testing.T) {
	env := map[string]string{"VOXFUSION_CONFIG_PATH": "/env/path.yaml"}
	loader := Loader{
		Lookup: func(key string) (string, bool) {
			v, ok := env[key]
			return v, ok
		},
		ReadFile: fakeReader(map[string]string{"/explicit.yaml": validDoc}),
	}
	if _, err := loader.Load("/explicit.yaml"); err != nil {
		t.Fatal(err)
	}
}

func TestLoaderReadFileError(t *testing.T) {
	loader := Loader{
		Lookup:   func(string) (string, bool) { return "", false },
		ReadFile: fakeReader(map[string]string{}),
	}
	if _, err := loader.Load(""); err == nil {
		t.Fatal("expected error for missing file")
	}
}
