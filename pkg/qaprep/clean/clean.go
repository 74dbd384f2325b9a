// Package clean implements deterministic string normalization for raw
// corpus text. Every step is a pure function; Clean chains them in a fixed
// order and never fails.
package clean

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var urlPattern = regexp.MustCompile(`(?:http|www)\S+`)

// Clean runs the full cleaning chain:
// lowercase → strip markup → strip URLs → drop non-letters → collapse whitespace.
func Clean(text string) string {
	text = Lowercase(text)
	text = StripMarkup(text)
	text = StripURLs(text)
	text = RemoveSpecialCharacters(text)
	text = CollapseWhitespace(text)

	// Dropping digits or punctuation can glue a URL prefix back together
	// ("ht1tp" → "http"). The output must be a fixed point of Clean.
	for urlPattern.MatchString(text) {
		text = CollapseWhitespace(StripURLs(text))
	}
	return text
}

// CleanValue coerces an arbitrary cell value and cleans it.
func CleanValue(v any) string {
	return Clean(Coerce(v))
}

// Lowercase lowercases the whole string using English casing rules.
func Lowercase(text string) string {
	// Casers carry state, so one per call.
	return cases.Lower(language.English).String(text)
}

// StripMarkup removes HTML-like tags and keeps only the text content.
// Entities are decoded. Input without markup characters is returned as is.
func StripMarkup(text string) string {
	if !strings.ContainsAny(text, "<&") {
		return text
	}

	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		// Fallback to string if parsing fails
		return text
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return buf.String()
}

// StripURLs removes tokens starting with "http" or "www" up to the next
// whitespace.
func StripURLs(text string) string {
	return urlPattern.ReplaceAllString(text, "")
}

// RemoveSpecialCharacters keeps ASCII letters and whitespace only.
// Digits are dropped together with punctuation.
func RemoveSpecialCharacters(text string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
}

// CollapseWhitespace turns every whitespace run into a single space and
// trims both ends.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Coerce converts any cell value to its string form. Nil and NaN become
// the empty string.
func Coerce(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	case float64:
		if math.IsNaN(val) {
			return ""
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		if math.IsNaN(float64(val)) {
			return ""
		}
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}
