// Package cache stores session state in memory, on disk, or both.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key. The id is hashed so keys are safe file
// names.
func Key(namespace, id string) string {
	hash := sha256.Sum256([]byte(id))
	return "trustbrowser-v1-" + namespace + "-" + hex.EncodeToString(hash[:16])
}

// GetJSON decodes the cached value for key into v
func GetJSON(c Cache, key string, v any) (bool, error) {
	data, ok := c.Get(key)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.Set(key, data, ttl)
}
