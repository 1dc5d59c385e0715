package index

import "time"

// DocType is the closed set of content types the engine indexes.
type DocType string

const (
	TypeRWML   DocType = "rwml"
	TypeScript DocType = "script"
	TypeText   DocType = "plain-text"
	TypeHTML   DocType = "html"
)

// Valid reports whether t is one of the recognized content types.
func (t DocType) Valid() bool {
	switch t {
	case TypeRWML, TypeScript, TypeText, TypeHTML:
		return true
	}
	return false
}

// Document is one indexed page. Documents are owned by the Store and never
// mutated in place: re-indexing a URL creates a new Document with a new ID.
type Document struct {
	ID           string    `json:"id"`
	URL          string    `json:"url"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	LastModified time.Time `json:"last_modified"`
	Size         int       `json:"size"`
	Type         DocType   `json:"type"`
}
