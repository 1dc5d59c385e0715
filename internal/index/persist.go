package index

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	apperrors "github.com/rwnet/sitesearch/pkg/errors"
)

// snapshot is the persisted blob layout: the whole index as one value.
type snapshot struct {
	Documents map[string]*Document           `json:"documents"`
	Terms     map[string]map[string]*Posting `json:"terms"`
	Metadata  Metadata                       `json:"metadata"`
}

// Persist serialises the entire index to w as a single JSON blob. A write
// failure is returned to the caller so it can retry or alert.
func (s *Store) Persist(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshot{
		Documents: s.documents,
		Terms:     s.terms,
		Metadata:  s.meta,
	}
	if err := json.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("encoding index snapshot: %w", err)
	}
	return nil
}

// Restore replaces the store's contents with a previously persisted blob.
// Malformed or version-mismatched input degrades to a fresh empty index:
// the problem is logged and Restore returns nil rather than propagating a
// parse failure.
func (s *Store) Restore(r io.Reader) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		slog.Warn("discarding malformed index blob, starting empty", "error", err)
		s.resetLocked()
		return nil
	}
	if snap.Metadata.Version != FormatVersion {
		mismatch := fmt.Errorf("%w: blob has %d, want %d",
			apperrors.ErrBlobVersionMismatch, snap.Metadata.Version, FormatVersion)
		slog.Warn("discarding index blob, starting empty", "error", mismatch)
		s.resetLocked()
		return nil
	}
	if snap.Documents == nil || snap.Terms == nil {
		slog.Warn("discarding structurally incomplete index blob, starting empty")
		s.resetLocked()
		return nil
	}

	s.documents = snap.Documents
	s.terms = snap.Terms
	s.meta = snap.Metadata
	// Counters are recomputed from the tables so a hand-edited blob cannot
	// desynchronise them.
	s.meta.TotalDocuments = len(s.documents)
	s.meta.TotalTerms = len(s.terms)
	if s.meta.LastUpdate.IsZero() {
		s.meta.LastUpdate = time.Now()
	}
	return nil
}
