package lexicon

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lemmas-en.yaml
var englishYAML []byte

// POS is a WordNet-style part-of-speech tag on a lemma group.
type POS string

const (
	Noun      POS = "n"
	Verb      POS = "v"
	Adjective POS = "a"
)

// ParsePOS accepts the short tags and their long names.
func ParsePOS(s string) (POS, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "n", "noun":
		return Noun, nil
	case "v", "verb":
		return Verb, nil
	case "a", "adj", "adjective":
		return Adjective, nil
	}
	return "", fmt.Errorf("unknown part of speech %q", s)
}

// Lexicon stores dictionary base forms (lemmas) and their inflected forms:
// - Irregular forms: went → go, children → child, mice → mouse
// - Vocabulary: known base forms used to validate rule-based candidates
//
// Lookups are case-insensitive; everything is stored lowercased.
type Lexicon struct {
	// lemma -> all forms (including the lemma itself)
	// Example: "go" -> ["go", "goes", "went", "gone", "going"]
	forms map[string][]string

	// form -> lemma
	// Example: "went" -> "go"
	reverseIndex map[string]string

	// lemma -> part of speech of its group
	pos map[string]POS

	// base forms that carry no irregular forms
	vocabulary map[string]struct{}
}

// New creates an empty lexicon.
func New() *Lexicon {
	return &Lexicon{
		forms:        make(map[string][]string),
		reverseIndex: make(map[string]string),
		pos:          make(map[string]POS),
		vocabulary:   make(map[string]struct{}),
	}
}

// Default returns the embedded English lexicon.
func Default() *Lexicon {
	lex, err := parse(englishYAML)
	if err != nil {
		panic(fmt.Sprintf("lexicon: embedded english lemmas: %v", err))
	}
	return lex
}

// LoadFromYAML loads lemma mappings from a YAML file.
//
// Expected format:
//
//	lemmas:
//	  - lemma: go
//	    pos: v
//	    forms: [goes, went, gone, going]
//	  - lemma: child
//	    forms: [children]
//
// Groups without pos are nouns.
//	vocabulary: [cat, dog, answer]
func LoadFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lex, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}
	return lex, nil
}

func parse(data []byte) (*Lexicon, error) {
	var config struct {
		Lemmas []struct {
			Lemma string   `yaml:"lemma"`
			POS   string   `yaml:"pos"`
			Forms []string `yaml:"forms"`
		} `yaml:"lemmas"`
		Vocabulary []string `yaml:"vocabulary"`
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	lex := New()
	for _, entry := range config.Lemmas {
		if strings.TrimSpace(entry.Lemma) == "" {
			continue
		}
		pos := Noun
		if entry.POS != "" {
			p, err := ParsePOS(entry.POS)
			if err != nil {
				return nil, fmt.Errorf("lemma %q: %w", entry.Lemma, err)
			}
			pos = p
		}
		lex.AddTaggedGroup(pos, entry.Lemma, entry.Forms)
	}
	lex.AddVocabulary(config.Vocabulary...)
	return lex, nil
}

// AddGroup adds a noun lemma with its inflected forms.
func (l *Lexicon) AddGroup(lemma string, forms []string) {
	l.AddTaggedGroup(Noun, lemma, forms)
}

// AddTaggedGroup adds a lemma of the given part of speech with its
// inflected forms. The lemma is always included as the first entry in the
// forms list. If the lemma already exists, old reverse index entries are
// cleaned up first.
func (l *Lexicon) AddTaggedGroup(pos POS, lemma string, forms []string) {
	lemma = strings.ToLower(lemma)

	if oldForms, exists := l.forms[lemma]; exists {
		for _, old := range oldForms {
			if l.reverseIndex[old] == lemma {
				delete(l.reverseIndex, old)
			}
		}
	}

	normalized := make([]string, 0, len(forms)+1)
	seen := make(map[string]bool)

	normalized = append(normalized, lemma)
	seen[lemma] = true

	for _, f := range forms {
		f = strings.ToLower(f)
		if !seen[f] {
			normalized = append(normalized, f)
			seen[f] = true
		}
	}

	l.forms[lemma] = normalized
	l.pos[lemma] = pos
	for _, f := range normalized {
		l.reverseIndex[f] = lemma
	}
}

// AddVocabulary registers known base forms.
func (l *Lexicon) AddVocabulary(words ...string) {
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			l.vocabulary[w] = struct{}{}
		}
	}
}

// Merge copies all groups and vocabulary from other into l.
// Groups in other replace groups with the same lemma.
func (l *Lexicon) Merge(other *Lexicon) {
	for lemma, forms := range other.forms {
		l.AddTaggedGroup(other.pos[lemma], lemma, forms)
	}
	for w := range other.vocabulary {
		l.vocabulary[w] = struct{}{}
	}
}

// Lookup returns the lemma for an irregular or listed form.
func (l *Lexicon) Lookup(token string) (string, bool) {
	lemma, ok := l.reverseIndex[strings.ToLower(token)]
	return lemma, ok
}

// LookupPOS is Lookup restricted to groups tagged pos.
func (l *Lexicon) LookupPOS(token string, pos POS) (string, bool) {
	lemma, ok := l.reverseIndex[strings.ToLower(token)]
	if !ok || l.pos[lemma] != pos {
		return "", false
	}
	return lemma, true
}

// Normalize returns the lemma of a token.
// If the token is not in the lexicon, returns the token itself.
//
// Examples:
//   - Normalize("went") -> "go"
//   - Normalize("unknown") -> "unknown"
func (l *Lexicon) Normalize(token string) string {
	token = strings.ToLower(token)
	if lemma, ok := l.reverseIndex[token]; ok {
		return lemma
	}
	return token
}

// Forms returns all known forms of a token's lemma (including the lemma).
// If the token is not in the lexicon, returns a slice containing only the token itself.
func (l *Lexicon) Forms(token string) []string {
	token = strings.ToLower(token)
	if lemma, ok := l.reverseIndex[token]; ok {
		return l.forms[lemma]
	}
	return []string{token}
}

// Known reports whether word is a known base form, either a lemma with
// forms or a vocabulary entry.
func (l *Lexicon) Known(word string) bool {
	word = strings.ToLower(word)
	if _, ok := l.vocabulary[word]; ok {
		return true
	}
	_, ok := l.forms[word]
	return ok
}

// Stats returns statistics about the lexicon contents.
func (l *Lexicon) Stats() Stats {
	totalForms := 0
	for _, forms := range l.forms {
		totalForms += len(forms)
	}

	return Stats{
		Lemmas:     len(l.forms),
		TotalForms: totalForms,
		Vocabulary: len(l.vocabulary),
	}
}

// Stats holds statistics about lexicon contents.
type Stats struct {
	Lemmas     int // Number of lemmas with explicit forms
	TotalForms int // Total number of forms across all lemmas
	Vocabulary int // Number of plain base forms
}
