package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default() should validate, got: %v", err)
	}
}

func TestSelectProfileName(t *testing.T) {
	cases := []struct {
		rolloff float64
		want    string
	}{
		{3999, ProfileNarrowband},
		{4000, ProfileDefault},
		{8000, ProfileDefault},
		{0, ProfileNarrowband},
	}
	for _, c := range cases {
		if got := SelectProfileName(c.rolloff); got != c.want {
			t.Errorf("SelectProfileName(%v) = %q, want %q", c.rolloff, got, c.want)
		}
	}
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	cfg := Default()
	p := cfg.Fusion.Profiles[ProfileDefault]
	p.Thresholds = VerdictThresholds{Synthetic: 0.3, Real: 0.6}
	cfg.Fusion.Profiles[ProfileDefault] = p
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for real >= synthetic")
	}
}

func TestValidateRejectsBadVeto(t *testing.T) {
	cfg := Default()
	cfg.Fusion.Veto.Moderate = 0.9
	cfg.Fusion.Veto.HighConfidence = 0.8
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for moderate >= high_confidence")
	}
}

func TestProfileFallsBackToDefault(t *testing.T) {
	cfg := Default()
	if got := cfg.Profile("nonexistent"); got.Thresholds != cfg.Fusion.Profiles[ProfileDefault].Thresholds {
		t.Errorf("Profile(nonexistent) did not fall back to default")
	}
}
