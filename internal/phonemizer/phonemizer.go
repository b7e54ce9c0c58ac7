package phonemizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/speechsplit/pkg/types"
)

// Common errors
var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrProviderFailed  = errors.New("phonemizer failed")
	ErrInvalidLexicon  = errors.New("invalid lexicon")
	ErrUnknownProvider = errors.New("unknown phonemizer provider")
)

// Phonemizer converts one sentence into phonemized words
type Phonemizer interface {
	// Phonemize returns the words of text in source order. Tokens that
	// cannot be phonemized carry nil phonemes.
	Phonemize(ctx context.Context, text string) ([]types.Word, error)

	// Close releases any resources held by the phonemizer
	Close() error
}

// Cache provides in-memory LRU caching of phonemized sentences by content hash
type Cache struct {
	cache *lru.Cache[string, []types.Word]
}

// NewCache creates a new sentence cache with LRU eviction
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []types.Word](maxLen)
	if err != nil {
		cache, _ = lru.New[string, []types.Word](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a deep copy of the cached words so callers cannot mutate the
// cached value
func (c *Cache) Get(hash string) ([]types.Word, bool) {
	words, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	return copyWords(words), true
}

// Set stores words in cache with automatic LRU eviction
func (c *Cache) Set(hash string, words []types.Word) {
	c.cache.Add(hash, copyWords(words))
}

// Size returns the current cache size
func (c *Cache) Size() int {
	return c.cache.Len()
}

// Clear empties the cache
func (c *Cache) Clear() {
	c.cache.Purge()
}

// ComputeHash computes SHA-256 hash of text for caching
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// CachedPhonemizer memoizes another phonemizer and retries its failures
type CachedPhonemizer struct {
	inner Phonemizer
	cache *Cache
	retry RetryConfig
}

// NewCached wraps inner with an LRU cache. A nil cache disables caching.
func NewCached(inner Phonemizer, cache *Cache, retry RetryConfig) *CachedPhonemizer {
	return &CachedPhonemizer{inner: inner, cache: cache, retry: retry}
}

// Phonemize returns cached words for text or asks the wrapped phonemizer
func (p *CachedPhonemizer) Phonemize(ctx context.Context, text string) ([]types.Word, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if p.cache != nil {
		if words, ok := p.cache.Get(hash); ok {
			return words, nil
		}
	}

	words, err := retryWithBackoff(ctx, p.retry, func() ([]types.Word, error) {
		return p.inner.Phonemize(ctx, text)
	})
	if err != nil {
		if ctx.Err() != nil || permanent(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrProviderFailed, p.retry.MaxRetries, err)
	}

	if p.cache != nil {
		p.cache.Set(hash, words)
	}
	return words, nil
}

// Close closes the wrapped phonemizer and drops cached entries
func (p *CachedPhonemizer) Close() error {
	if p.cache != nil {
		p.cache.Clear()
	}
	return p.inner.Close()
}

func copyWords(words []types.Word) []types.Word {
	out := make([]types.Word, len(words))
	for i, w := range words {
		out[i] = make(types.Word, len(w))
		for j, tok := range w {
			if tok.Phonemes != nil {
				ps := *tok.Phonemes
				tok.Phonemes = &ps
			}
			out[i][j] = tok
		}
	}
	return out
}
