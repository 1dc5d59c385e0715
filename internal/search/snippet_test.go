package search

import (
	"strings"
	"testing"
)

// TestSnippetContainsTerm verifies the excerpt covers the matched term.
func TestSnippetContainsTerm(t *testing.T) {
	content := strings.Repeat("padding words before the match ", 10) +
		"the aurora appears here" +
		strings.Repeat(" trailing words after the match", 10)
	snippet := GenerateSnippet(content, []string{"aurora"}, 0)
	if !strings.Contains(snippet, "aurora") {
		t.Errorf("snippet %q does not contain the matched term", snippet)
	}
}

// TestSnippetLengthBound verifies the excerpt never exceeds maxLength plus
// the ellipsis allowance.
func TestSnippetLengthBound(t *testing.T) {
	content := strings.Repeat("word ", 200)
	for _, maxLen := range []int{50, 150, 300} {
		snippet := GenerateSnippet(content, []string{"word"}, maxLen)
		if len(snippet) > maxLen+2*len("...") {
			t.Errorf("maxLength=%d: snippet length %d exceeds bound", maxLen, len(snippet))
		}
	}
}

// TestSnippetEllipsisMarkers verifies markers appear exactly when the window
// misses an edge of the content.
func TestSnippetEllipsisMarkers(t *testing.T) {
	short := "brief note about tides"
	if s := GenerateSnippet(short, []string{"tides"}, 0); strings.Contains(s, "...") {
		t.Errorf("short content snippet %q should have no ellipsis", s)
	}

	long := strings.Repeat("x y z ", 50) + "needle" + strings.Repeat(" a b c", 50)
	s := GenerateSnippet(long, []string{"needle"}, 60)
	if !strings.HasPrefix(s, "...") || !strings.HasSuffix(s, "...") {
		t.Errorf("mid-content snippet %q should carry both markers", s)
	}
}

// TestSnippetEarliestTermWins verifies the window anchors on the earliest
// occurrence among all terms.
func TestSnippetEarliestTermWins(t *testing.T) {
	content := "alpha starts the text " + strings.Repeat("filler ", 60) + "omega ends it"
	s := GenerateSnippet(content, []string{"omega", "alpha"}, 60)
	if !strings.Contains(s, "alpha") {
		t.Errorf("snippet %q should anchor on the earlier term", s)
	}
	if strings.Contains(s, "omega") {
		t.Errorf("snippet %q should not reach the later term", s)
	}
}

// TestSnippetStripsMarkup verifies tags are removed and whitespace collapsed.
func TestSnippetStripsMarkup(t *testing.T) {
	content := "<p>styled   <b>falcon</b>   text</p>"
	s := GenerateSnippet(content, []string{"falcon"}, 0)
	if strings.ContainsAny(s, "<>") {
		t.Errorf("snippet %q still contains markup", s)
	}
	if strings.Contains(s, "  ") {
		t.Errorf("snippet %q contains uncollapsed whitespace", s)
	}
}

// TestSnippetNoMatch verifies the window falls back to the content start when
// no term occurs.
func TestSnippetNoMatch(t *testing.T) {
	content := "completely unrelated content for the fallback case"
	s := GenerateSnippet(content, []string{"absent"}, 0)
	if !strings.HasPrefix(s, "completely") {
		t.Errorf("snippet %q should start at the beginning of content", s)
	}
}

// TestSnippetNonASCIIOffsets verifies the match window stays aligned when the
// content holds characters whose lowercase form has a different byte length.
func TestSnippetNonASCIIOffsets(t *testing.T) {
	content := strings.Repeat("İ", 60) + " deep Harbor ferries run daily"
	s := GenerateSnippet(content, []string{"harbor"}, 0)
	if !strings.Contains(strings.ToLower(s), "harbor") {
		t.Errorf("snippet %q does not contain the matched term", s)
	}
}

// TestSnippetEmptyContent covers the trivial empty input.
func TestSnippetEmptyContent(t *testing.T) {
	if s := GenerateSnippet("", []string{"term"}, 0); s != "" {
		t.Errorf("GenerateSnippet on empty content = %q, want empty", s)
	}
}
