package snapshot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"postfile/storage"
	"postfile/storage/file"
	"time"

	"github.com/google/uuid"
)

// Snapshotter copies the current collection into a new file under Dir.
// Snapshots are never read back by the service.
type Snapshotter struct {
	Storage storage.Storage
	Dir     string
	Now     func() time.Time
}

func (s *Snapshotter) SnapshotPosts(reason string) (string, error) {
	ctx := context.Background()
	posts, err := s.Storage.Load(ctx)
	if err != nil {
		log.Printf("Failed to load posts for snapshot: %s", err.Error())
		return "", err
	}

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir %s: %s, %w", s.Dir, err.Error(), storage.InternalError)
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	name := fmt.Sprintf("posts-%d-%s.json", now().UTC().UnixNano(), uuid.New().String())
	target := file.CreateFileStorage(filepath.Join(s.Dir, name))
	if err := target.Save(ctx, posts); err != nil {
		log.Printf("Failed to write posts snapshot: %s", err.Error())
		return "", err
	}

	log.Printf("Wrote snapshot of %d posts to %s after %s", len(posts), target.Path(), reason)
	return target.Path(), nil
}
