// Package index implements the inverted-index document store: a document
// table plus a term → docID → Posting map with positional postings, guarded
// by a single RWMutex so searches never observe a half-applied mutation.
package index

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rwnet/sitesearch/internal/tokenizer"
	pkgerrors "github.com/rwnet/sitesearch/pkg/errors"
)

// FormatVersion is checked on restore; blobs written with a different version
// are discarded.
const FormatVersion = 1

// Metadata carries the index-wide counters, recomputed on every mutation.
type Metadata struct {
	TotalDocuments int       `json:"total_documents"`
	TotalTerms     int       `json:"total_terms"`
	LastUpdate     time.Time `json:"last_update"`
	Version        int       `json:"version"`
}

// Store owns the document table and the inverted index. A single writer is
// assumed; reads may run concurrently.
type Store struct {
	mu        sync.RWMutex
	documents map[string]*Document
	terms     map[string]map[string]*Posting
	meta      Metadata
}

// New returns an empty index with zeroed metadata.
func New() *Store {
	return &Store{
		documents: make(map[string]*Document),
		terms:     make(map[string]map[string]*Posting),
		meta:      Metadata{Version: FormatVersion},
	}
}

// AddDocument tokenizes content, records postings, and returns the new
// document's ID. The ID combines the sanitized URL with the current
// timestamp, so adding the same URL twice yields two distinct documents.
func (s *Store) AddDocument(url, title, content string, typ DocType) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(url, title, content, typ)
}

// ReplaceDocument removes every existing document with the same URL before
// adding, giving callers explicit replace-on-URL semantics for re-crawls.
func (s *Store) ReplaceDocument(url, title, content string, typ DocType) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, doc := range s.documents {
		if doc.URL == url {
			s.removeLocked(id)
		}
	}
	return s.addLocked(url, title, content, typ)
}

func (s *Store) addLocked(url, title, content string, typ DocType) string {
	now := time.Now()
	doc := &Document{
		ID:           makeDocID(url, now),
		URL:          url,
		Title:        title,
		Content:      content,
		LastModified: now,
		Size:         len(content),
		Type:         typ,
	}
	s.documents[doc.ID] = doc
	s.indexLocked(doc)
	s.meta.TotalDocuments++
	s.meta.LastUpdate = now
	return doc.ID
}

// indexLocked updates postings for one document's content.
func (s *Store) indexLocked(doc *Document) {
	for pos, term := range tokenizer.Tokenize(doc.Content) {
		postings, ok := s.terms[term]
		if !ok {
			postings = make(map[string]*Posting)
			s.terms[term] = postings
			s.meta.TotalTerms++
		}
		p, ok := postings[doc.ID]
		if !ok {
			p = &Posting{Positions: make([]int, 0, 4)}
			postings[doc.ID] = p
		}
		p.Count++
		if len(p.Positions) < maxPositions {
			p.Positions = append(p.Positions, pos)
		}
	}
}

// RemoveDocument deletes the document and all of its postings. Removing the
// last posting under a term deletes the term key itself.
func (s *Store) RemoveDocument(docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[docID]; !ok {
		return fmt.Errorf("removing %q: %w", docID, pkgerrors.ErrDocumentNotFound)
	}
	s.removeLocked(docID)
	s.meta.LastUpdate = time.Now()
	return nil
}

func (s *Store) removeLocked(docID string) {
	delete(s.documents, docID)
	for term, postings := range s.terms {
		if _, ok := postings[docID]; !ok {
			continue
		}
		delete(postings, docID)
		if len(postings) == 0 {
			delete(s.terms, term)
			s.meta.TotalTerms--
		}
	}
	s.meta.TotalDocuments--
}

// DocumentFrequency returns the number of distinct documents posting the
// term, 0 if the term is absent.
func (s *Store) DocumentFrequency(term string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.terms[term])
}

// Postings returns value copies of the postings for a term, keyed by docID.
// It returns nil for an absent term.
func (s *Store) Postings(term string) map[string]Posting {
	s.mu.RLock()
	defer s.mu.RUnlock()
	postings, ok := s.terms[term]
	if !ok {
		return nil
	}
	out := make(map[string]Posting, len(postings))
	for docID, p := range postings {
		cp := *p
		cp.Positions = append([]int(nil), p.Positions...)
		out[docID] = cp
	}
	return out
}

// Document returns a copy of the document with the given ID.
func (s *Store) Document(docID string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[docID]
	if !ok {
		return Document{}, fmt.Errorf("document %q: %w", docID, pkgerrors.ErrDocumentNotFound)
	}
	return *doc, nil
}

// Documents returns copies of every document in the store.
func (s *Store) Documents() []Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Document, 0, len(s.documents))
	for _, doc := range s.documents {
		out = append(out, *doc)
	}
	return out
}

// MatchingTerms returns every vocabulary term with the given prefix together
// with its document frequency.
func (s *Store) MatchingTerms(prefix string) []TermFrequency {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []TermFrequency
	for term, postings := range s.terms {
		if strings.HasPrefix(term, prefix) {
			out = append(out, TermFrequency{Term: term, DocFreq: len(postings)})
		}
	}
	return out
}

// Meta returns a copy of the index metadata.
func (s *Store) Meta() Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.meta
}

// Rebuild clears all postings and re-tokenizes every retained document's
// content. Use after tokenizer rule changes.
func (s *Store) Rebuild() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.terms = make(map[string]map[string]*Posting)
	s.meta.TotalTerms = 0
	for _, doc := range s.documents {
		s.indexLocked(doc)
	}
	s.meta.LastUpdate = time.Now()
}

// Clear resets the store to the empty-index state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Store) resetLocked() {
	s.documents = make(map[string]*Document)
	s.terms = make(map[string]map[string]*Posting)
	s.meta = Metadata{Version: FormatVersion}
}

// makeDocID combines a sanitized URL with a timestamp so re-crawls of the
// same URL never collide.
func makeDocID(url string, now time.Time) string {
	var b strings.Builder
	b.Grow(len(url) + 20)
	for _, r := range url {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	b.WriteByte('_')
	b.WriteString(strconv.FormatInt(now.UnixNano(), 10))
	return b.String()
}
