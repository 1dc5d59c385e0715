// Package tokenizer provides text tokenisation for the search engine.
// It lower-cases input, strips tag markup, and splits on non-word boundaries.
// The engine is an exact-token-match system: no stemming, no stop-words.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenize breaks text into an ordered slice of lowercased terms. Tag markup
// (anything between < and >) is replaced with a space before splitting.
// Tokens shorter than two characters and purely numeric tokens are dropped.
func Tokenize(text string) []string {
	text = stripTags(strings.ToLower(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if isNumeric(word) {
			continue
		}
		terms = append(terms, word)
	}
	return terms
}

// stripTags replaces each <...> run with a single space so adjacent words do
// not fuse when markup is removed.
func stripTags(text string) string {
	if !strings.ContainsRune(text, '<') {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isNumeric(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
