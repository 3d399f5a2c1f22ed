package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}

	if cfg.Physics.Accel != 10 || cfg.Physics.MaxX != 60 || cfg.Physics.MaxY != 80 {
		t.Errorf("physics = %+v, want accel 10, max 60/80", cfg.Physics)
	}
	if cfg.Physics.RetentionFrames != 4 {
		t.Errorf("retention_frames = %d, want 4", cfg.Physics.RetentionFrames)
	}
	if cfg.Precompute.Cap != 255 {
		t.Errorf("precompute.cap = %d, want 255", cfg.Precompute.Cap)
	}
	if cfg.Output.FrameLabel != "f" {
		t.Errorf("output.frame_label = %q, want f", cfg.Output.FrameLabel)
	}
	if cfg.Derived.FrameRate32 != 60 {
		t.Errorf("Derived.FrameRate32 = %g", cfg.Derived.FrameRate32)
	}
	if cfg.Derived.PrecomputeWorkers <= 0 || cfg.Derived.EvolveWorkers <= 0 {
		t.Errorf("worker counts not resolved: %+v", cfg.Derived)
	}
}

func TestLoadOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	doc := "evolve:\n  population: 16\n  seed: 42\nprecompute:\n  workers: 3\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Evolve.Population != 16 || cfg.Evolve.Seed != 42 {
		t.Errorf("override not applied: %+v", cfg.Evolve)
	}
	// untouched keys keep their defaults
	if cfg.Evolve.GenomeLength != 60 {
		t.Errorf("genome_length = %d, want default 60", cfg.Evolve.GenomeLength)
	}
	if cfg.Derived.PrecomputeWorkers != 3 {
		t.Errorf("PrecomputeWorkers = %d, want 3", cfg.Derived.PrecomputeWorkers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero population", func(c *Config) { c.Evolve.Population = 0 }},
		{"commit exceeds genome", func(c *Config) { c.Evolve.CommitFrames = c.Evolve.GenomeLength }},
		{"zero cap", func(c *Config) { c.Precompute.Cap = 0 }},
		{"cap overflow", func(c *Config) { c.Precompute.Cap = 256 }},
		{"pressure too high", func(c *Config) { c.Evolve.SelectionPressure = 2.5 }},
		{"three crossover points", func(c *Config) { c.Evolve.CrossoverPoints = 3 }},
		{"deadzone of one", func(c *Config) { c.Physics.Deadzone = 1 }},
		{"zero frame rate", func(c *Config) { c.Physics.FrameRate = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults invalid: %v", err)
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Evolve.Seed = 7
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Evolve != cfg.Evolve {
		t.Errorf("evolve section changed: %+v vs %+v", back.Evolve, cfg.Evolve)
	}
}
