package crawler

import (
	"path"
	"regexp"
	"strings"

	"github.com/rwnet/sitesearch/internal/index"
)

// Site addresses are host/path strings, optionally carrying a scheme prefix.
// They are not general URLs, so resolution is done with string and path
// operations rather than net/url.

var (
	linkElemRe = regexp.MustCompile(`(?i)<link\s+[^>]*url\s*=\s*["']([^"']+)["']`)
	anchorRe   = regexp.MustCompile(`(?i)<a\s+[^>]*href\s*=\s*["']([^"']+)["']`)
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	headingRe  = regexp.MustCompile(`(?is)<h[1-6][^>]*>(.*?)</h[1-6]>`)
	tagRe      = regexp.MustCompile(`<[^>]*>`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// defaultTitle is used when no title can be extracted from page content.
const defaultTitle = "Untitled"

// splitAddress separates an address into host and absolute path, dropping any
// scheme prefix.
func splitAddress(addr string) (host, pth string) {
	if i := strings.Index(addr, "://"); i >= 0 {
		addr = addr[i+3:]
	}
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i], addr[i:]
	}
	return addr, "/"
}

// addressPath returns the path component used for fetching and policy checks.
func addressPath(addr string) string {
	_, pth := splitAddress(addr)
	return pth
}

// stripFragment drops a #fragment suffix.
func stripFragment(addr string) string {
	if i := strings.IndexByte(addr, '#'); i >= 0 {
		return addr[:i]
	}
	return addr
}

// resolveLink resolves a discovered link relative to the address of the page
// it appeared on. Links with a scheme pass through unchanged (minus any
// fragment); root-relative links resolve against the site host; other
// relative links resolve against the current path's directory.
func resolveLink(base, link string) string {
	link = strings.TrimSpace(stripFragment(link))
	if link == "" {
		return ""
	}
	if strings.Contains(link, "://") {
		return link
	}
	host, basePath := splitAddress(base)
	if strings.HasPrefix(link, "/") {
		return host + path.Clean(link)
	}
	return host + path.Clean(path.Join(path.Dir(basePath), link))
}

// extractLinks returns the raw targets of every link element (url attribute)
// and anchor element (href attribute) in the content, in document order of
// each form.
func extractLinks(content string) []string {
	var links []string
	for _, m := range linkElemRe.FindAllStringSubmatch(content, -1) {
		links = append(links, m[1])
	}
	for _, m := range anchorRe.FindAllStringSubmatch(content, -1) {
		links = append(links, m[1])
	}
	return links
}

// classifyAddress maps an address's file extension to a document type.
// A path with no extension at all defaults to plain text; an unrecognized
// extension is not crawlable.
func classifyAddress(addr string) (index.DocType, bool) {
	ext := strings.ToLower(path.Ext(addressPath(addr)))
	switch ext {
	case "":
		return index.TypeText, true
	case ".rwml":
		return index.TypeRWML, true
	case ".html", ".htm":
		return index.TypeHTML, true
	case ".txt":
		return index.TypeText, true
	case ".lua":
		return index.TypeScript, true
	default:
		return "", false
	}
}

// extractTitle looks for a title tag, then a heading tag, then (for script
// content) a leading comment line, and falls back to a placeholder.
func extractTitle(content string, typ index.DocType) string {
	if m := titleRe.FindStringSubmatch(content); m != nil {
		if t := cleanTitle(m[1]); t != "" {
			return t
		}
	}
	if m := headingRe.FindStringSubmatch(content); m != nil {
		if t := cleanTitle(m[1]); t != "" {
			return t
		}
	}
	if typ == index.TypeScript {
		if t := leadingCommentTitle(content); t != "" {
			return t
		}
	}
	return defaultTitle
}

// cleanTitle strips nested markup and collapses whitespace.
func cleanTitle(raw string) string {
	t := tagRe.ReplaceAllString(raw, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(t, " "))
}

// leadingCommentTitle returns the text of the first line when it is a
// comment, for any of the comment markers script pages use.
func leadingCommentTitle(content string) string {
	line := content
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	for _, marker := range []string{"--", "//", "#"} {
		if strings.HasPrefix(line, marker) {
			return strings.TrimSpace(strings.TrimPrefix(line, marker))
		}
	}
	return ""
}
