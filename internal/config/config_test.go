package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default configuration must validate: %v", err)
	}
	if cfg.Energy.AspectThreshold != 70 || cfg.Energy.NodeThreshold != 75 {
		t.Errorf("default thresholds drifted: %d, %d",
			cfg.Energy.AspectThreshold, cfg.Energy.NodeThreshold)
	}
	if len(cfg.Energy.NodesAllowed) == 0 {
		t.Error("default node vocabulary empty")
	}
	if cfg.Transcript.Scoring.MeaningMinScore != 3 || cfg.Transcript.Scoring.JunkDropThreshold != 7 {
		t.Errorf("default scoring drifted: %+v", cfg.Transcript.Scoring)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curator.yaml")
	data := `
run:
  workers: 4
energy:
  node_threshold: 80
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.Workers != 4 {
		t.Errorf("file override lost: workers = %d", cfg.Run.Workers)
	}
	if cfg.Energy.NodeThreshold != 80 {
		t.Errorf("file override lost: node_threshold = %d", cfg.Energy.NodeThreshold)
	}
	// Untouched values keep their defaults.
	if cfg.Energy.AspectThreshold != 70 {
		t.Errorf("default lost on partial file: aspect_threshold = %d", cfg.Energy.AspectThreshold)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "curator.yaml")
	if err := os.WriteFile(path, []byte("run:\n  workers: 4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CURATOR_WORKERS", "8")
	t.Setenv("CURATOR_OUTPUTS_DIR", "/tmp/elsewhere")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Run.Workers != 8 {
		t.Errorf("env override lost: workers = %d", cfg.Run.Workers)
	}
	if cfg.Run.OutputsDir != "/tmp/elsewhere" {
		t.Errorf("env override lost: outputs_dir = %q", cfg.Run.OutputsDir)
	}
}

func TestLoad_MissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Pipeline)
	}{
		{"zero workers", func(c *Pipeline) { c.Run.Workers = 0 }},
		{"no node vocabulary", func(c *Pipeline) { c.Energy.NodesAllowed = nil }},
		{"threshold over 100", func(c *Pipeline) { c.Energy.AspectThreshold = 101 }},
		{"negative threshold", func(c *Pipeline) { c.Energy.NodeThreshold = -1 }},
		{"bad fallback policy", func(c *Pipeline) { c.Energy.InferenceFallback = "guess" }},
		{"default fallback without value", func(c *Pipeline) {
			c.Energy.InferenceFallback = "default"
			c.Energy.InferenceDefault = " "
		}},
		{"bad inference pattern", func(c *Pipeline) {
			c.Energy.InferenceRules = []InferenceRule{{ID: "x", Pattern: "("}}
		}},
		{"bad classify pattern", func(c *Pipeline) {
			c.Transcript.Classify.NoisePatterns = []string{"("}
		}},
		{"zero max words", func(c *Pipeline) { c.Transcript.Chunking.MaxWords = 0 }},
		{"negative overlap", func(c *Pipeline) { c.Transcript.Chunking.OverlapWords = -1 }},
		{"overlap at max words", func(c *Pipeline) {
			c.Transcript.Chunking.OverlapWords = c.Transcript.Chunking.MaxWords
		}},
		{"httpjson without endpoint", func(c *Pipeline) { c.Extractor.Backend = "httpjson" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation failure")
			}
		})
	}
}

func TestClassifyRules_Compiles(t *testing.T) {
	cfg := Default()
	rs, err := cfg.ClassifyRules()
	if err != nil {
		t.Fatalf("ClassifyRules: %v", err)
	}
	if rs == nil {
		t.Fatal("nil rule set")
	}
}
