package blobstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileStore keeps each blob as a file under a directory. Writes go to a .tmp
// file first and rename on success, so a crash never leaves a torn blob.
type FileStore struct {
	dir string
}

// NewFileStore creates the directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating blob directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Put(name string, data []byte) error {
	finalPath := filepath.Join(s.dir, name+".blob")
	tmpPath := finalPath + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("writing temp blob file: %w", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming blob file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, name+".blob"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, notFound(name)
		}
		return nil, fmt.Errorf("reading blob file: %w", err)
	}
	return data, nil
}

func (s *FileStore) Close() error {
	return nil
}
