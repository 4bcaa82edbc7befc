package persistent_cached

import (
	"context"
	"errors"
	"log"
	"postfile/storage"
	"postfile/storage/models"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	CacheKey = "posts:collection"
	CacheTTL = time.Hour
)

// Cache is the part of *redis.Client the cached storage talks to.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// saveToCache overwrites the entry. On failure the entry is dropped so a
// stale collection is not served for the rest of its TTL.
func saveToCache(ctx context.Context, client Cache, data []byte) {
	err := client.Set(ctx, CacheKey, data, CacheTTL).Err()
	if err != nil {
		log.Printf("Failed to save posts to redis: %s", err.Error())
		removeFromCache(ctx, client)
	}
}

// fillCache only sets the entry when there is none, so a value read from
// storage before a concurrent Save never replaces the newer one.
func fillCache(ctx context.Context, client Cache, data []byte) {
	err := client.SetNX(ctx, CacheKey, data, CacheTTL).Err()
	if err != nil {
		log.Printf("Failed to fill posts cache in redis: %s", err.Error())
	}
}

func getFromCache(ctx context.Context, client Cache) (models.Collection, error) {
	val, err := client.Get(ctx, CacheKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Failed to get posts from redis: %s", err.Error())
		}
		return nil, err
	}
	posts, err := storage.Decode(val)
	if err != nil {
		log.Printf("Dropping broken posts cache entry: %s", err.Error())
		removeFromCache(ctx, client)
		return nil, err
	}
	return posts, nil
}

func removeFromCache(ctx context.Context, client Cache) {
	err := client.Del(ctx, CacheKey).Err()
	if err != nil {
		log.Printf("Failed to remove posts from redis: %s", err.Error())
	}
}

// PersistentStorageWithCache keeps the encoded collection in redis in front
// of another Storage. Redis problems are logged and fall through to the
// wrapped storage.
type PersistentStorageWithCache struct {
	client            Cache
	persistentStorage storage.Storage
}

func (s *PersistentStorageWithCache) Load(ctx context.Context) (models.Collection, error) {
	posts, err := getFromCache(ctx, s.client)
	if err == nil {
		return posts, nil
	}
	posts, err = s.persistentStorage.Load(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := storage.Encode(posts); err == nil {
		fillCache(ctx, s.client, data)
	}
	return posts, nil
}

func (s *PersistentStorageWithCache) Save(ctx context.Context, posts models.Collection) error {
	if err := s.persistentStorage.Save(ctx, posts); err != nil {
		return err
	}
	data, err := storage.Encode(posts)
	if err != nil {
		removeFromCache(ctx, s.client)
		return nil
	}
	saveToCache(ctx, s.client, data)
	return nil
}

func CreatePersistentStorageCachedWithRedis(persistentStorage storage.Storage, redisUrl string) *PersistentStorageWithCache {
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisUrl,
	})
	return CreatePersistentStorageCached(persistentStorage, redisClient)
}

func CreatePersistentStorageCached(persistentStorage storage.Storage, client Cache) *PersistentStorageWithCache {
	return &PersistentStorageWithCache{
		client:            client,
		persistentStorage: persistentStorage,
	}
}
