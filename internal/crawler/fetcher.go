package crawler

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ContentFetcher is the crawler's only route to page bytes. Implementations
// translate a filesystem-style path derived from an address into raw content.
type ContentFetcher interface {
	Fetch(pth string) ([]byte, error)
}

// indexCandidates is the directory-index fallback probe order.
var indexCandidates = []string{"index.rwml", "index.html", "index.htm", "index.txt"}

// FileFetcher serves page content from a site root directory, probing
// conventional index filenames when a path names a directory or has no leaf
// file of its own.
type FileFetcher struct {
	root string
}

// NewFileFetcher returns a fetcher rooted at the given directory.
func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{root: root}
}

// Fetch reads the file at pth relative to the site root. Paths without an
// extension, and paths naming a directory, fall back to the index filename
// probe.
func (f *FileFetcher) Fetch(pth string) ([]byte, error) {
	rel := strings.TrimPrefix(path.Clean("/"+pth), "/")
	full := filepath.Join(f.root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	switch {
	case err == nil && info.IsDir():
		return f.probeIndex(full)
	case err == nil:
		return os.ReadFile(full)
	case os.IsNotExist(err) && path.Ext(pth) == "":
		return f.probeIndex(full)
	default:
		return nil, fmt.Errorf("fetching %s: %w", pth, err)
	}
}

func (f *FileFetcher) probeIndex(dir string) ([]byte, error) {
	for _, name := range indexCandidates {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("no index file under %s", dir)
}
