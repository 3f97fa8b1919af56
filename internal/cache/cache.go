package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores opaque byte payloads keyed by string. Implementations are
// safe for concurrent use; a miss and an expired entry are indistinguishable
// to callers.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a stable key from a search query or URL. The version
// segment lets a format change invalidate old entries without a flush.
func CacheKey(source string) string {
	sum := sha256.Sum256([]byte(source))
	return "verity:v1:" + hex.EncodeToString(sum[:])
}
