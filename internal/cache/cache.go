package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache stores downloaded dataset files keyed by source URL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// CacheKey derives a stable cache key from a dataset URL.
func CacheKey(url string) string {
	hash := sha256.Sum256([]byte(url))
	return "finsent:v1:" + hex.EncodeToString(hash[:])
}
