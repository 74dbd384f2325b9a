package ingest

import (
	"strings"

	"github.com/cognicore/qaprep/pkg/qaprep/clean"
	"github.com/cognicore/qaprep/pkg/qaprep/morph"
	"github.com/cognicore/qaprep/pkg/qaprep/stoplist"
)

// Options selects the optional normalization steps.
// Stemming and lemmatization are mutually exclusive: UseStemming picks
// the stemmer, otherwise the lemmatizer runs.
type Options struct {
	UseStopwords bool `mapstructure:"use_stopwords" yaml:"use_stopwords"`
	UseStemming  bool `mapstructure:"use_stemming" yaml:"use_stemming"`
}

// DefaultOptions removes stopwords and lemmatizes.
func DefaultOptions() Options {
	return Options{UseStopwords: true, UseStemming: false}
}

// Pipeline orchestrates text normalization:
// text → clean → tokenize → stopword filter → stem | lemmatize → join
type Pipeline struct {
	opts       Options
	tokenizer  *Tokenizer
	stops      *stoplist.Manager
	stemmer    morph.Normalizer
	lemmatizer morph.Normalizer
}

// NewPipeline creates a normalization pipeline. Nil components fall back to
// the defaults: prose tokenizer, English stoplist, Snowball stemmer and the
// embedded-lexicon lemmatizer.
func NewPipeline(opts Options, tokenizer *Tokenizer, stops *stoplist.Manager, stemmer, lemmatizer morph.Normalizer) *Pipeline {
	if tokenizer == nil {
		tokenizer = NewTokenizer()
	}
	if stops == nil {
		stops = stoplist.English()
	}
	if stemmer == nil {
		stemmer = morph.NewStemmer()
	}
	if lemmatizer == nil {
		lemmatizer = morph.NewLemmatizer(nil)
	}
	return &Pipeline{
		opts:       opts,
		tokenizer:  tokenizer,
		stops:      stops,
		stemmer:    stemmer,
		lemmatizer: lemmatizer,
	}
}

// ProcessedText represents a text value after normalization
type ProcessedText struct {
	Cleaned    string
	Tokens     []string
	Normalized string
}

// Options returns the pipeline configuration.
func (p *Pipeline) Options() Options { return p.opts }

// Normalizer returns the token normalizer selected by the options.
func (p *Pipeline) Normalizer() morph.Normalizer {
	if p.opts.UseStemming {
		return p.stemmer
	}
	return p.lemmatizer
}

// Process runs a text value through the full pipeline
func (p *Pipeline) Process(text string) ProcessedText {
	// 1. Clean (lowercase, markup, URLs, non-letters, whitespace)
	cleaned := clean.Clean(text)

	// 2. Tokenize on word boundaries
	tokens := p.tokenizer.Tokenize(cleaned)

	// 3. Stopword filter (stable)
	if p.opts.UseStopwords {
		tokens = p.stops.Filter(tokens)
	}

	// 4. Exactly one of stemming or lemmatization
	tokens = morph.Apply(p.Normalizer(), tokens)

	return ProcessedText{
		Cleaned:    cleaned,
		Tokens:     tokens,
		Normalized: strings.Join(tokens, " "),
	}
}

// Preprocess returns the normalized string for text.
func (p *Pipeline) Preprocess(text string) string {
	return p.Process(text).Normalized
}

// PreprocessValue coerces an arbitrary cell value and preprocesses it.
// Nil and non-string values never fail.
func (p *Pipeline) PreprocessValue(v any) string {
	return p.Preprocess(clean.Coerce(v))
}
