package file

import (
	"context"
	"fmt"
	"os"
	"postfile/storage"
	"postfile/storage/models"
)

// FileStorage keeps the collection as one JSON array in a single file.
type FileStorage struct {
	path string
}

func (s *FileStorage) Path() string {
	return s.path
}

// Load reads and parses the whole file. A missing file is an error.
func (s *FileStorage) Load(ctx context.Context) (models.Collection, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("posts file %s does not exist: %w", s.path, storage.NotFoundError)
		}
		return nil, fmt.Errorf("failed to read posts file %s: %s, %w", s.path, err.Error(), storage.InternalError)
	}
	posts, err := storage.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("posts file %s: %w", s.path, err)
	}
	return posts, nil
}

// Save overwrites the whole file. The write is not atomic.
func (s *FileStorage) Save(ctx context.Context, posts models.Collection) error {
	data, err := storage.Encode(posts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write posts file %s: %s, %w", s.path, err.Error(), storage.InternalError)
	}
	return nil
}

func CreateFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}
