package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.System.Name != "rotation" {
		t.Errorf("expected system rotation, got %s", cfg.System.Name)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Estimator.Window <= 0 {
		t.Error("window should be positive")
	}
	if cfg.Estimator.Forgetting <= 0 || cfg.Estimator.Forgetting > 1 {
		t.Errorf("forgetting %f out of range", cfg.Estimator.Forgetting)
	}
}

func TestLoadSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.System.Name = "drift"
	cfg.System.Rate = 0.25
	cfg.Estimator.Window = 24
	cfg.Estimator.Forgetting = 0.9
	cfg.Noise = 0.005

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if *got != *cfg {
		t.Errorf("round trip changed the config: got %+v, want %+v", got, cfg)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := []byte("estimator:\n  window: 32\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Estimator.Window != 32 {
		t.Errorf("expected window 32, got %d", cfg.Estimator.Window)
	}
	if cfg.Dt != DefaultDt {
		t.Errorf("expected default dt, got %f", cfg.Dt)
	}
	if cfg.System.Name != "rotation" {
		t.Errorf("expected default system, got %s", cfg.System.Name)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("drift", "sweep")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.System.Rate != 1.0 {
		t.Errorf("expected rate 1.0, got %f", cfg.System.Rate)
	}
	if cfg.Estimator.Forgetting != 0.7 {
		t.Errorf("expected forgetting 0.7, got %f", cfg.Estimator.Forgetting)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("rotation", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "slow"); cfg != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("rotation")
	if len(presets) == 0 {
		t.Error("expected presets for rotation")
	}

	if presets = ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent system")
	}
}

func TestStreamParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.System.Name = "random"
	cfg.System.Dim = 8
	cfg.System.Radius = 0.7
	cfg.Seed = 7

	p := cfg.StreamParams()
	if p.Dim != 8 || p.Radius != 0.7 || p.Seed != 7 {
		t.Errorf("params %+v do not match the system block", p)
	}
	if p.Dt != cfg.Dt {
		t.Errorf("params dt %f, want %f", p.Dt, cfg.Dt)
	}
}

func TestTrackerConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Estimator.Window = 15
	cfg.Estimator.Ridge = 1e-6

	tc := cfg.TrackerConfig()
	if tc.Window != 15 || tc.Ridge != 1e-6 {
		t.Errorf("tracker config %+v does not match the estimator block", tc)
	}
	if tc.Dt != cfg.Dt {
		t.Errorf("tracker dt %f, want %f", tc.Dt, cfg.Dt)
	}
}
