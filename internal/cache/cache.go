package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// keyPrefix is bumped whenever the cached payload layout changes
const keyPrefix = "estatuto:v1:"

// Cache stores fetched pages and oracle answers
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// PageKey keys a fetched legislative page by its URL
func PageKey(url string) string {
	return key("page", url)
}

// PromptKey keys an oracle answer by task, model and the exact prompt sent
func PromptKey(task, model, system, prompt string) string {
	return key("oracle:"+task, model, system, prompt)
}

func key(namespace string, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return keyPrefix + strings.ReplaceAll(namespace, ":", "-") + "-" + hex.EncodeToString(h.Sum(nil))
}

// Noop is a cache that stores nothing, used when caching is disabled
type Noop struct{}

func (Noop) Get(string) ([]byte, bool)               { return nil, false }
func (Noop) Set(string, []byte, time.Duration) error { return nil }
func (Noop) Delete(string) error                     { return nil }
func (Noop) Clear() error                            { return nil }
