package config

import (
	"fmt"

	"github.com/cognicore/qaprep/pkg/qaprep/features"
	"github.com/cognicore/qaprep/pkg/qaprep/ingest"
	"github.com/cognicore/qaprep/pkg/qaprep/lexicon"
	"github.com/cognicore/qaprep/pkg/qaprep/morph"
	"github.com/cognicore/qaprep/pkg/qaprep/stoplist"
)

// Loader loads the text resources and constructs the pipeline components
type Loader struct {
	// StoplistPath replaces the embedded English stoplist when set.
	StoplistPath string
	// LexiconPath extends the embedded lexicon when set.
	LexiconPath string
	// LemmaPOS selects the parts of speech to lemmatize; empty means nouns.
	LemmaPOS []lexicon.POS
	Options  ingest.Options
	Extended bool
}

// Components holds all loaded configuration components
type Components struct {
	Stoplist   *stoplist.Manager
	Lexicon    *lexicon.Lexicon
	Stemmer    morph.Normalizer
	Lemmatizer morph.Normalizer
	Pipeline   *ingest.Pipeline
	Features   features.Registry
}

// NewLoader returns the loader described by cfg. Unknown lemma_pos tags
// are skipped; Validate reports them.
func NewLoader(cfg *Config) Loader {
	var pos []lexicon.POS
	for _, p := range cfg.Text.LemmaPOS {
		if tag, err := lexicon.ParsePOS(p); err == nil {
			pos = append(pos, tag)
		}
	}
	return Loader{
		StoplistPath: cfg.Text.StoplistPath,
		LexiconPath:  cfg.Text.LexiconPath,
		LemmaPOS:     pos,
		Options: ingest.Options{
			UseStopwords: cfg.Text.UseStopwords,
			UseStemming:  cfg.Text.UseStemming,
		},
		Extended: cfg.Features.Extended,
	}
}

// Load reads all resource files and returns initialized components
func (l *Loader) Load() (*Components, error) {
	comp := &Components{}

	if l.StoplistPath != "" {
		stops, err := stoplist.LoadYAML(l.StoplistPath)
		if err != nil {
			return nil, fmt.Errorf("load stoplist: %w", err)
		}
		comp.Stoplist = stops
	} else {
		comp.Stoplist = stoplist.English()
	}

	comp.Lexicon = lexicon.Default()
	if l.LexiconPath != "" {
		extra, err := lexicon.LoadFromYAML(l.LexiconPath)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		comp.Lexicon.Merge(extra)
	}

	comp.Stemmer = morph.NewStemmer()
	comp.Lemmatizer = morph.NewLemmatizer(comp.Lexicon, l.LemmaPOS...)
	comp.Pipeline = ingest.NewPipeline(l.Options, nil, comp.Stoplist, comp.Stemmer, comp.Lemmatizer)

	comp.Features = features.Default()
	if l.Extended {
		comp.Features = features.Extended()
	}
	return comp, nil
}
