package search

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	// snippetMaxLength is the default excerpt window size in characters.
	snippetMaxLength = 150
	// snippetLeadIn is how far before the first matched term the window opens.
	snippetLeadIn = 50

	ellipsis = "..."
)

var (
	snippetTagRe   = regexp.MustCompile(`<[^>]*>`)
	snippetSpaceRe = regexp.MustCompile(`\s+`)
)

// GenerateSnippet returns a bounded excerpt of content around the earliest
// occurrence of any of the given terms. The window opens snippetLeadIn
// characters before the match, extends maxLength characters, and both edges
// snap to whitespace boundaries where possible. Tag markup is stripped and
// runs of whitespace collapse to single spaces. Ellipsis markers indicate a
// window that does not touch the content's start or end. maxLength <= 0
// selects the default.
func GenerateSnippet(content string, terms []string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = snippetMaxLength
	}
	if content == "" {
		return ""
	}

	lower := foldASCII(content)
	earliest := -1
	for _, term := range terms {
		term = foldASCII(term)
		if term == "" {
			continue
		}
		if idx := strings.Index(lower, term); idx >= 0 && (earliest < 0 || idx < earliest) {
			earliest = idx
		}
	}
	if earliest < 0 {
		earliest = 0
	}

	start := earliest - snippetLeadIn
	if start < 0 {
		start = 0
	}
	end := start + maxLength
	if end > len(content) {
		end = len(content)
	}

	// Snap the left edge to the next whitespace so the excerpt does not open
	// mid-word; never snap past the matched term.
	if start > 0 {
		if idx := strings.IndexFunc(content[start:earliest], unicode.IsSpace); idx >= 0 {
			start += idx + 1
		}
	}
	// Snap the right edge back to the last whitespace inside the window.
	if end < len(content) {
		if idx := strings.LastIndexFunc(content[start:end], unicode.IsSpace); idx > 0 {
			end = start + idx
		}
	}

	excerpt := snippetTagRe.ReplaceAllString(content[start:end], " ")
	excerpt = strings.TrimSpace(snippetSpaceRe.ReplaceAllString(excerpt, " "))

	if start > 0 {
		excerpt = ellipsis + excerpt
	}
	if end < len(content) {
		excerpt += ellipsis
	}
	return excerpt
}

// foldASCII lowercases ASCII letters only, leaving every other byte in
// place, so offsets found in the folded string are valid in the original.
// strings.ToLower can change byte lengths for some characters.
func foldASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}
