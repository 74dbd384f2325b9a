// Package morph reduces tokens to a normalized form, either by
// rule-based stemming or by dictionary-aware lemmatization. Both fall back
// to the token itself when they cannot reduce it.
package morph

import (
	"strings"

	"github.com/kljensen/snowball"

	"github.com/cognicore/qaprep/pkg/qaprep/lexicon"
)

// Normalizer reduces a single token.
type Normalizer interface {
	Normalize(token string) string
	Name() string
}

// Apply normalizes every token in place and returns the slice.
func Apply(n Normalizer, tokens []string) []string {
	for i, tok := range tokens {
		tokens[i] = n.Normalize(tok)
	}
	return tokens
}

// Stemmer is the Snowball English stemmer.
type Stemmer struct{}

// NewStemmer creates an English stemmer.
func NewStemmer() *Stemmer { return &Stemmer{} }

// Name implements Normalizer.
func (s *Stemmer) Name() string { return "snowball-english" }

// Normalize returns the stem of token, or token if stemming fails.
func (s *Stemmer) Normalize(token string) string {
	if token == "" {
		return token
	}
	stemmed, err := snowball.Stem(token, "english", true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

// detachment is a suffix substitution tried when looking for a base form.
type detachment struct {
	suffix string
	repl   string
}

// Suffix rules per part of speech, WordNet style.
var (
	nounRules = []detachment{
		{"s", ""}, {"ses", "s"}, {"ves", "f"}, {"xes", "x"}, {"zes", "z"},
		{"ches", "ch"}, {"shes", "sh"}, {"men", "man"}, {"ies", "y"},
	}
	verbRules = []detachment{
		{"s", ""}, {"ies", "y"}, {"es", "e"}, {"es", ""},
		{"ed", "e"}, {"ed", ""}, {"ing", "e"}, {"ing", ""},
	}
	adjRules = []detachment{
		{"er", ""}, {"est", ""}, {"er", "e"}, {"est", "e"},
	}
	rulesByPOS = map[lexicon.POS][]detachment{
		lexicon.Noun:      nounRules,
		lexicon.Verb:      verbRules,
		lexicon.Adjective: adjRules,
	}
)

// Lemmatizer maps tokens to dictionary base forms using a lexicon.
// Irregular forms of the enabled parts of speech are looked up directly;
// regular inflections are detached by suffix rules, and a candidate is
// accepted only when the lexicon knows it as a base form.
type Lemmatizer struct {
	lex *lexicon.Lexicon
	pos []lexicon.POS
}

// NewLemmatizer creates a lemmatizer over lex that reduces the given parts
// of speech, tried in order. Without pos only nouns are reduced, so
// "dogs" becomes "dog" while "sat" and "better" stay as they are. A nil
// lexicon uses lexicon.Default().
func NewLemmatizer(lex *lexicon.Lexicon, pos ...lexicon.POS) *Lemmatizer {
	if lex == nil {
		lex = lexicon.Default()
	}
	if len(pos) == 0 {
		pos = []lexicon.POS{lexicon.Noun}
	}
	return &Lemmatizer{lex: lex, pos: pos}
}

// Name implements Normalizer.
func (l *Lemmatizer) Name() string { return "lexicon-lemma" }

// Normalize returns the lemma of token, or token when it is unknown.
func (l *Lemmatizer) Normalize(token string) string {
	if token == "" {
		return token
	}
	for _, p := range l.pos {
		if lemma, ok := l.lex.LookupPOS(token, p); ok {
			return lemma
		}
	}
	if l.lex.Known(token) {
		return token
	}

	for _, p := range l.pos {
		if cand, ok := l.detach(token, rulesByPOS[p]); ok {
			return cand
		}
	}
	return token
}

func (l *Lemmatizer) detach(token string, rules []detachment) (string, bool) {
	for _, r := range rules {
		if !strings.HasSuffix(token, r.suffix) || len(token) <= len(r.suffix) {
			continue
		}
		cand := token[:len(token)-len(r.suffix)] + r.repl
		if l.lex.Known(cand) {
			return cand, true
		}
		// stopped → stopp → stop
		if r.repl == "" && hasDoubledEnd(cand) {
			if short := cand[:len(cand)-1]; l.lex.Known(short) {
				return short, true
			}
		}
	}
	return "", false
}

func hasDoubledEnd(s string) bool {
	n := len(s)
	return n >= 2 && s[n-1] == s[n-2]
}
