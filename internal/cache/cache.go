// Package cache stores encoded responses (video metadata, transcripts,
// summaries) in memory or in Redis behind a single interface.
package cache

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// Cache is a string-keyed byte store with TTL semantics.
type Cache interface {
	// Get returns the value and true on a hit.
	Get(key string) ([]byte, bool)

	// Set stores value under key, overwriting any existing entry.
	Set(key string, value []byte)

	// Len returns the number of live entries.
	Len() int

	// Close releases backend resources. No-op for in-memory caches.
	Close() error
}

// GetJSON decodes a cached JSON value into dst. A value that fails to decode
// is treated as a miss.
func GetJSON(c Cache, key string, dst any) bool {
	raw, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: discarding undecodable entry")
		return false
	}
	return true
}

// SetJSON encodes v as JSON and stores it.
func SetJSON(c Cache, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache: encode failed")
		return
	}
	c.Set(key, raw)
}
