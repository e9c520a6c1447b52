// Package previewcache keeps presigned preview URLs in Redis so repeated
// previews of the same object skip signing.
package previewcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/kbukum/s3fm/filemanager"
	"github.com/kbukum/s3fm/redis"
)

const namespace = "preview"

// Cache implements filemanager.PreviewCache on a Redis typed store.
type Cache struct {
	store *redis.TypedStore[filemanager.PreviewURL]
}

var _ filemanager.PreviewCache = (*Cache)(nil)

// New returns a cache whose keys live under "<client prefix>:preview".
func New(client *redis.Client) *Cache {
	prefix := namespace
	if p := client.KeyPrefix(); p != "" {
		prefix = p + ":" + namespace
	}
	return &Cache{store: redis.NewTypedStore[filemanager.PreviewURL](client, prefix)}
}

// Get returns (nil, nil) on a miss.
func (c *Cache) Get(ctx context.Context, key string) (*filemanager.PreviewURL, error) {
	return c.store.Load(ctx, hashKey(key))
}

// Put stores url for ttl. A non-positive ttl stores nothing.
func (c *Cache) Put(ctx context.Context, key string, url *filemanager.PreviewURL, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.store.Save(ctx, hashKey(key), url, ttl)
}

// Object keys are unbounded; the digest keeps Redis keys short.
func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
