package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/qaprep/pkg/qaprep/ingest"
	"github.com/cognicore/qaprep/pkg/qaprep/lexicon"
)

func TestLoaderAllEmpty(t *testing.T) {
	loader := Loader{Options: ingest.DefaultOptions()}

	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if comp.Pipeline == nil || comp.Stemmer == nil || comp.Lemmatizer == nil {
		t.Fatal("components missing")
	}
	if !comp.Stoplist.IsStop("the") {
		t.Error("embedded English stoplist expected")
	}
	if len(comp.Features) != 7 {
		t.Errorf("expected the default feature set, got %v", comp.Features.Names())
	}
	if got := comp.Pipeline.Preprocess("The children went home"); got != "child go home" {
		t.Errorf("Preprocess = %q", got)
	}
}

func TestLoaderFiles(t *testing.T) {
	tmpDir := t.TempDir()
	stopPath := filepath.Join(tmpDir, "stoplist.yaml")
	lexPath := filepath.Join(tmpDir, "lexicon.yaml")

	if err := os.WriteFile(stopPath, []byte("terms:\n  - home\n"), 0644); err != nil {
		t.Fatal(err)
	}
	lex := `lemmas:
  - lemma: qubit
    forms: [qubits]
`
	if err := os.WriteFile(lexPath, []byte(lex), 0644); err != nil {
		t.Fatal(err)
	}

	loader := Loader{
		StoplistPath: stopPath,
		LexiconPath:  lexPath,
		Options:      ingest.DefaultOptions(),
		Extended:     true,
	}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if comp.Stoplist.IsStop("the") || !comp.Stoplist.IsStop("home") {
		t.Error("file stoplist should replace the embedded one")
	}
	if got := comp.Lemmatizer.Normalize("qubits"); got != "qubit" {
		t.Errorf("custom lexicon not merged: %q", got)
	}
	if got := comp.Lemmatizer.Normalize("children"); got != "child" {
		t.Errorf("embedded lexicon lost after merge: %q", got)
	}
	if len(comp.Features) != 8 {
		t.Errorf("extended feature set expected, got %v", comp.Features.Names())
	}
}

func TestLoaderNonExistentStoplist(t *testing.T) {
	loader := Loader{StoplistPath: "/nonexistent/stoplist.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on non-existent stoplist")
	}
}

func TestLoaderNonExistentLexicon(t *testing.T) {
	loader := Loader{LexiconPath: "/nonexistent/lexicon.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on non-existent lexicon")
	}
}

func TestNewLoader(t *testing.T) {
	cfg := Default()
	cfg.Text.UseStemming = true
	cfg.Text.StoplistPath = "stops.yaml"

	l := NewLoader(cfg)
	if !l.Options.UseStemming || !l.Options.UseStopwords || l.StoplistPath != "stops.yaml" {
		t.Errorf("unexpected loader %+v", l)
	}
}

func TestLoaderLemmaPOS(t *testing.T) {
	cfg := Default()
	if l := NewLoader(cfg); len(l.LemmaPOS) != 1 || l.LemmaPOS[0] != lexicon.Noun {
		t.Fatalf("default LemmaPOS = %v, want [n]", l.LemmaPOS)
	}

	comp, err := (&Loader{}).Load()
	if err != nil {
		t.Fatal(err)
	}
	if got := comp.Lemmatizer.Normalize("sat"); got != "sat" {
		t.Errorf("noun lemmatizer reduced a verb: %q", got)
	}

	cfg.Text.LemmaPOS = []string{"n", "verb"}
	l := NewLoader(cfg)
	comp, err = l.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got := comp.Lemmatizer.Normalize("sat"); got != "sit" {
		t.Errorf("Normalize('sat') = %q, want 'sit'", got)
	}
}
