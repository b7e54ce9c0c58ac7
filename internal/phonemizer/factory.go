package phonemizer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Provider names
const (
	ProviderLexicon = "lexicon"

	DefaultCacheSize = 1024

	EnvLexicon     = "SPEECHSPLIT_PHONEMIZER_LEXICON"
	EnvPassthrough = "SPEECHSPLIT_PHONEMIZER_PASSTHROUGH"
	EnvCacheSize   = "SPEECHSPLIT_PHONEMIZER_CACHE_SIZE"
)

// Config holds phonemizer configuration
type Config struct {
	Provider    string // Defaults to ProviderLexicon
	LexiconPath string // Empty selects the built-in lexicon
	Passthrough bool   // Unknown words keep their graphemes as phonemes
	CacheSize   int    // Zero disables caching
	Retry       RetryConfig
}

// Fingerprint identifies the phonemes this configuration produces. It covers
// the provider, the lexicon contents and passthrough; caching and retry do not
// change output.
func (c Config) Fingerprint() string {
	h := sha256.New()
	provider := strings.ToLower(c.Provider)
	if provider == "" {
		provider = ProviderLexicon
	}
	fmt.Fprintf(h, "provider=%s\npassthrough=%t\nlexicon=%s\n", provider, c.Passthrough, c.LexiconPath)
	if c.LexiconPath != "" {
		if data, err := os.ReadFile(c.LexiconPath); err == nil {
			h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// New creates a phonemizer with explicit configuration
func New(cfg Config) (Phonemizer, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = ProviderLexicon
	}
	if provider != ProviderLexicon {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, cfg.Provider)
	}

	lex := DefaultLexicon()
	if cfg.LexiconPath != "" {
		var err error
		lex, err = LoadLexicon(cfg.LexiconPath)
		if err != nil {
			return nil, err
		}
	}

	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	retry := cfg.Retry
	if retry.MaxRetries == 0 {
		retry = DefaultRetryConfig()
	}

	return NewCached(NewLexiconPhonemizer(lex, cfg.Passthrough), cache, retry), nil
}

// NewFromEnv creates a phonemizer from environment variables:
//   - SPEECHSPLIT_PHONEMIZER_LEXICON: path of a YAML lexicon (built-in when unset)
//   - SPEECHSPLIT_PHONEMIZER_PASSTHROUGH: keep unknown words as graphemes
//   - SPEECHSPLIT_PHONEMIZER_CACHE_SIZE: LRU size, defaults to 1024
func NewFromEnv() (Phonemizer, error) {
	cfg := Config{
		Provider:    ProviderLexicon,
		LexiconPath: os.Getenv(EnvLexicon),
		CacheSize:   DefaultCacheSize,
	}

	if v := os.Getenv(EnvPassthrough); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPassthrough, err)
		}
		cfg.Passthrough = b
	}

	if v := os.Getenv(EnvCacheSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvCacheSize, err)
		}
		cfg.CacheSize = n
	}

	return New(cfg)
}
