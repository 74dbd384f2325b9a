package ingest

import (
	"strings"

	"github.com/jdkato/prose/v2"
)

// Tokenizer splits text on word and sentence boundaries using prose's
// Treebank-style tokenizer and punkt segmenter. Contractions and trailing
// punctuation become separate tokens.
type Tokenizer struct{}

// NewTokenizer creates a tokenizer
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize splits text into word tokens, preserving order.
// Empty or whitespace-only text yields no tokens.
func (t *Tokenizer) Tokenize(text string) []string {
	text = strings.ToValidUTF8(text, "")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return strings.Fields(text)
	}

	toks := doc.Tokens()
	tokens := make([]string, 0, len(toks))
	for _, tok := range toks {
		if tok.Text != "" {
			tokens = append(tokens, tok.Text)
		}
	}
	return tokens
}

// Sentences splits text into sentence segments. Non-empty text without
// terminal punctuation is a single segment.
func (t *Tokenizer) Sentences(text string) []string {
	text = strings.ToValidUTF8(text, "")
	if strings.TrimSpace(text) == "" {
		return nil
	}

	doc, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return []string{strings.TrimSpace(text)}
	}

	var sentences []string
	for _, s := range doc.Sentences() {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	if len(sentences) == 0 {
		sentences = append(sentences, strings.TrimSpace(text))
	}
	return sentences
}
