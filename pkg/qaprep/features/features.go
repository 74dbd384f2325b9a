package features

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cognicore/qaprep/pkg/qaprep/ingest"
	"github.com/cognicore/qaprep/pkg/qaprep/table"
)

// Feature names, in registry order.
const (
	CharCountName        = "char_count"
	WordCountName        = "word_count"
	SentenceCountName    = "sentence_count"
	AvgWordLengthName    = "avg_word_length"
	PunctuationCountName = "punctuation_count"
	UppercaseRatioName   = "uppercase_ratio"
	SpecialCharRatioName = "special_char_ratio"
	DigitRatioName       = "digit_ratio"
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var tokenizer = ingest.NewTokenizer()

// Feature is a named scalar function of one text value.
// Kind decides how values are stored: counts as ints, ratios as floats.
type Feature struct {
	Name string
	Kind table.Kind
	Fn   func(string) float64
}

// Registry is a fixed, ordered feature list. Its order is the output
// column order.
type Registry []Feature

// Default returns the standard structural feature set.
func Default() Registry {
	return Registry{
		{CharCountName, table.KindInt, count(CharCount)},
		{WordCountName, table.KindInt, count(WordCount)},
		{SentenceCountName, table.KindInt, count(SentenceCount)},
		{AvgWordLengthName, table.KindFloat, AvgWordLength},
		{PunctuationCountName, table.KindInt, count(PunctuationCount)},
		{UppercaseRatioName, table.KindFloat, UppercaseRatio},
		{SpecialCharRatioName, table.KindFloat, SpecialCharRatio},
	}
}

// Extended is Default plus digit_ratio.
func Extended() Registry {
	return append(Default(), Feature{DigitRatioName, table.KindFloat, DigitRatio})
}

// Names returns the feature names in order.
func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, f := range r {
		names[i] = f.Name
	}
	return names
}

func count(fn func(string) int) func(string) float64 {
	return func(s string) float64 { return float64(fn(s)) }
}

// CharCount counts the characters (runes) of text.
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// WordCount counts word-boundary tokens, punctuation tokens included.
func WordCount(text string) int {
	return len(tokenizer.Tokenize(text))
}

// SentenceCount counts sentence segments. Non-empty text without
// terminal punctuation is one sentence; blank text is zero.
func SentenceCount(text string) int {
	return len(tokenizer.Sentences(text))
}

// PunctuationCount counts ASCII punctuation characters.
func PunctuationCount(text string) int {
	n := 0
	for _, r := range text {
		if r < utf8.RuneSelf && strings.ContainsRune(asciiPunctuation, r) {
			n++
		}
	}
	return n
}

// AvgWordLength is the mean rune length of whitespace-separated words,
// 0 when there are none.
func AvgWordLength(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	total := 0
	for _, w := range words {
		total += utf8.RuneCountInString(w)
	}
	return float64(total) / float64(len(words))
}

// UppercaseRatio is uppercase letters over all letters, 0 without letters.
func UppercaseRatio(text string) float64 {
	letters, upper := 0, 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

// SpecialCharRatio is the share of characters outside [a-zA-Z0-9] and
// whitespace, 0 for empty text.
func SpecialCharRatio(text string) float64 {
	total, special := 0, 0
	for _, r := range text {
		total++
		if !isASCIIAlnum(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(special) / float64(total)
}

// DigitRatio is the share of digit characters, 0 for empty text.
func DigitRatio(text string) float64 {
	total, digits := 0, 0
	for _, r := range text {
		total++
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(digits) / float64(total)
}

func isASCIIAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
