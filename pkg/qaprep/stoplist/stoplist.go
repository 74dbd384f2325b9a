package stoplist

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed stopwords-en.yaml
var englishYAML []byte

// Origin records where a stopword came from
type Origin int

const (
	OriginBase   Origin = iota // embedded English list
	OriginFile                 // loaded from a user stoplist file
	OriginManual               // added at runtime
)

// Manager holds the stopword set used by the preprocessor.
// Lookups are case-sensitive: callers pass already-lowercased tokens.
type Manager struct {
	stops map[string]Origin
}

// NewManager creates a stoplist manager from an initial term list
func NewManager(initialStops []string) *Manager {
	stops := make(map[string]Origin, len(initialStops))
	for _, s := range initialStops {
		stops[s] = OriginBase
	}
	return &Manager{stops: stops}
}

// English returns a manager seeded with the embedded English stopword list.
func English() *Manager {
	terms, err := parse(englishYAML)
	if err != nil {
		// embedded file is fixed at build time
		panic(fmt.Sprintf("stoplist: embedded english list: %v", err))
	}
	return NewManager(terms)
}

// LoadYAML reads a stoplist file in the `terms:` format.
func LoadYAML(path string) (*Manager, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	terms, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse stoplist %s: %w", path, err)
	}

	m := &Manager{stops: make(map[string]Origin, len(terms))}
	for _, t := range terms {
		m.stops[t] = OriginFile
	}
	return m, nil
}

func parse(data []byte) ([]string, error) {
	var sl struct {
		Terms []string `yaml:"terms"`
	}
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}
	return sl.Terms, nil
}

// IsStop checks if a token is a stopword
func (m *Manager) IsStop(token string) bool {
	_, ok := m.stops[token]
	return ok
}

// Origin reports where a stopword came from.
func (m *Manager) Origin(token string) (Origin, bool) {
	o, ok := m.stops[token]
	return o, ok
}

// Add adds a token to the stoplist
func (m *Manager) Add(token string) {
	m.stops[token] = OriginManual
}

// Remove removes a token from the stoplist
func (m *Manager) Remove(token string) {
	delete(m.stops, token)
}

// Len returns the number of stopwords
func (m *Manager) Len() int {
	return len(m.stops)
}

// All returns all stopwords, sorted
func (m *Manager) All() []string {
	result := make([]string, 0, len(m.stops))
	for s := range m.stops {
		result = append(result, s)
	}
	sort.Strings(result)
	return result
}

// Filter returns tokens that are not stopwords, keeping their order.
func (m *Manager) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !m.IsStop(tok) {
			out = append(out, tok)
		}
	}
	return out
}
