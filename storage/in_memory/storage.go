package in_memory

import (
	"context"
	"fmt"
	"postfile/storage"
	"postfile/storage/models"
	"sync"
)

// InMemoryStorage keeps the encoded collection instead of the live maps, so
// every Load hands out a fresh copy exactly like re-reading a file would.
// The mutex only guards the byte slice; Load followed by Save is still racy.
type InMemoryStorage struct {
	mut  sync.RWMutex
	data []byte
}

func (s *InMemoryStorage) Load(ctx context.Context) (models.Collection, error) {
	s.mut.RLock()
	data := s.data
	s.mut.RUnlock()
	if data == nil {
		return nil, fmt.Errorf("posts were never stored: %w", storage.NotFoundError)
	}
	return storage.Decode(data)
}

func (s *InMemoryStorage) Save(ctx context.Context, posts models.Collection) error {
	data, err := storage.Encode(posts)
	if err != nil {
		return err
	}
	s.mut.Lock()
	s.data = data
	s.mut.Unlock()
	return nil
}

// Raw returns what the last Save stored.
func (s *InMemoryStorage) Raw() []byte {
	s.mut.RLock()
	defer s.mut.RUnlock()
	return append([]byte(nil), s.data...)
}

// CreateInMemoryStorage starts with an empty collection.
func CreateInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{data: []byte("[]")}
}

// CreateSeededInMemoryStorage starts with the given posts.
func CreateSeededInMemoryStorage(posts models.Collection) (*InMemoryStorage, error) {
	s := &InMemoryStorage{}
	if err := s.Save(context.Background(), posts); err != nil {
		return nil, err
	}
	return s, nil
}

// CreateMissingInMemoryStorage behaves like a posts file that does not exist
// until the first Save.
func CreateMissingInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{}
}
