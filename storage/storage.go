package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"postfile/storage/models"
)

var (
	InternalError        = errors.New("storage internal error")
	ClientError          = errors.New("storage client error")
	NotFoundError        = fmt.Errorf("%w.not_found", ClientError)
	InvalidDocumentError = fmt.Errorf("%w.invalid_document", InternalError)
)

// Storage holds the whole posts collection. Load and Save always work on
// the complete collection; there is no locking between a Load and the
// Save that follows it.
type Storage interface {
	Load(ctx context.Context) (models.Collection, error)
	Save(ctx context.Context, posts models.Collection) error
}

// Encode serializes the collection the way it is kept on disk: two space
// indentation, no HTML escaping and no trailing newline. Post fields are
// written in sorted key order, not the order they were received in; only
// the order of posts in the array is kept.
func Encode(posts models.Collection) ([]byte, error) {
	if posts == nil {
		posts = models.Collection{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(posts); err != nil {
		return nil, fmt.Errorf("failed to encode posts: %s, %w", err.Error(), InternalError)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Decode parses a stored collection. Anything but a JSON array of objects
// is rejected, including `{}` and `null`, so every endpoint answers 500 for
// such a file instead of treating it as empty.
func Decode(data []byte) (models.Collection, error) {
	var posts models.Collection
	if err := json.Unmarshal(data, &posts); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %s, %w", err.Error(), InvalidDocumentError)
	}
	if posts == nil {
		return nil, fmt.Errorf("stored posts are null, %w", InvalidDocumentError)
	}
	return posts, nil
}
