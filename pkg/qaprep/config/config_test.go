package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/qaprep/pkg/qaprep/internalerr"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if !cfg.Text.UseStopwords || cfg.Text.UseStemming {
		t.Errorf("unexpected text defaults %+v", cfg.Text)
	}
	want := []string{"context", "question", "answer"}
	if len(cfg.Text.Columns) != len(want) {
		t.Fatalf("columns = %v, want %v", cfg.Text.Columns, want)
	}
	for i := range want {
		if cfg.Text.Columns[i] != want[i] {
			t.Errorf("columns = %v, want %v", cfg.Text.Columns, want)
		}
	}
	if cfg.Paths.Features != filepath.Join("data", "features") {
		t.Errorf("features path = %q", cfg.Paths.Features)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
	if RandomSeed != 42 || TestSize != 0.2 || ValidationSize != 0.1 {
		t.Error("split constants changed")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qaprep.yaml")
	content := `text:
  use_stemming: true
  columns: [question]
store:
  driver: memory
logging:
  format: json
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Text.UseStemming || !cfg.Text.UseStopwords {
		t.Errorf("file values not merged with defaults: %+v", cfg.Text)
	}
	if len(cfg.Text.Columns) != 1 || cfg.Text.Columns[0] != "question" {
		t.Errorf("columns = %v", cfg.Text.Columns)
	}
	if cfg.Store.Driver != "memory" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected %+v %+v", cfg.Store, cfg.Logging)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("QAPREP_TEXT_USE_STOPWORDS", "false")
	t.Setenv("QAPREP_LOGGING_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "qaprep.yaml")
	if err := os.WriteFile(path, []byte("text:\n  use_stopwords: true\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Text.UseStopwords {
		t.Error("environment should override the file")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q", cfg.Logging.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !errors.Is(err, internalerr.ErrMissingResource) {
		t.Errorf("expected ErrMissingResource, got %v", err)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qaprep.yaml")
	if err := os.WriteFile(path, []byte("store:\n  driver: postgres\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no columns", func(c *Config) { c.Text.Columns = nil }},
		{"blank column", func(c *Config) { c.Text.Columns = []string{"context", " "} }},
		{"duplicate column", func(c *Config) { c.Text.Columns = []string{"context", "context"} }},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }},
		{"bad lemma pos", func(c *Config) { c.Text.LemmaPOS = []string{"n", "adverb"} }},
		{"sqlite without path", func(c *Config) { c.Store.Path = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}
