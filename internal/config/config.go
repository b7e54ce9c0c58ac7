package config

import (
	"errors"
	"fmt"
	"slices"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/speechsplit/internal/chunker"
	"github.com/dshills/speechsplit/internal/phonemizer"
	"github.com/dshills/speechsplit/internal/segmenter"
)

// Config is the complete speechsplit configuration
type Config struct {
	Segmenter  SegmenterConfig  `yaml:"segmenter" env:"SEGMENTER"`
	Chunker    ChunkerConfig    `yaml:"chunker" env:"CHUNKER"`
	Phonemizer PhonemizerConfig `yaml:"phonemizer" env:"PHONEMIZER"`
	Storage    StorageConfig    `yaml:"storage" env:"STORAGE"`
	Log        LogConfig        `yaml:"log" env:"LOG"`
}

// SegmenterConfig overrides the sentence boundary tables. Empty fields keep
// the built-in defaults.
type SegmenterConfig struct {
	Terminators   string   `yaml:"terminators" env:"TERMINATORS"`
	Trailing      string   `yaml:"trailing" env:"TRAILING"`
	Quotes        string   `yaml:"quotes" env:"QUOTES"`
	Brackets      []string `yaml:"brackets" env:"BRACKETS"`
	Abbreviations []string `yaml:"abbreviations" env:"ABBREVIATIONS"`
}

// ChunkerConfig configures the bounded chunker
type ChunkerConfig struct {
	MaxPhonemes int `yaml:"max_phonemes" env:"MAX_PHONEMES"`
	// Punctuation classes, strongest first. Classes may contain commas, so the
	// environment form separates them with "|".
	Waterfall []string `yaml:"waterfall" env:"WATERFALL" sep:"|"`
	Bumps     []string `yaml:"bumps" env:"BUMPS"`
}

// PhonemizerConfig configures the dictionary phonemizer
type PhonemizerConfig struct {
	Lexicon     string `yaml:"lexicon" env:"LEXICON"`
	Passthrough bool   `yaml:"passthrough" env:"PASSTHROUGH"`
	CacheSize   int    `yaml:"cache_size" env:"CACHE_SIZE"`
}

// StorageConfig configures the run journal. An empty path disables it.
type StorageConfig struct {
	DBPath string `yaml:"db_path" env:"DB_PATH"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string   `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format      string   `yaml:"format" env:"FORMAT"` // json, console
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		Segmenter: SegmenterConfig{},
		Chunker: ChunkerConfig{
			MaxPhonemes: chunker.MaxPhonemes,
			Waterfall:   slices.Clone(chunker.DefaultWaterfall),
			Bumps:       slices.Clone(chunker.DefaultBumps),
		},
		Phonemizer: PhonemizerConfig{
			CacheSize: phonemizer.DefaultCacheSize,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			OutputPaths: []string{"stderr"},
		},
	}
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	var errs []error

	if c.Chunker.MaxPhonemes <= 0 {
		errs = append(errs, fmt.Errorf("chunker.max_phonemes must be positive, got %d", c.Chunker.MaxPhonemes))
	}
	if len(c.Chunker.Waterfall) == 0 {
		errs = append(errs, errors.New("chunker.waterfall must list at least one class"))
	}
	for i, class := range c.Chunker.Waterfall {
		if class == "" {
			errs = append(errs, fmt.Errorf("chunker.waterfall[%d] is empty", i))
		}
	}
	for i, b := range c.Chunker.Bumps {
		if utf8.RuneCountInString(b) != 1 {
			errs = append(errs, fmt.Errorf("chunker.bumps[%d] must be a single character, got %q", i, b))
		}
	}

	if _, err := c.Segmenter.Rules(); err != nil {
		errs = append(errs, fmt.Errorf("segmenter: %w", err))
	}

	if c.Phonemizer.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("phonemizer.cache_size must not be negative, got %d", c.Phonemizer.CacheSize))
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Rules builds segmenter rules from the configured tables
func (c SegmenterConfig) Rules() (*segmenter.Rules, error) {
	return segmenter.NewRules(segmenter.RuleSet{
		Terminators:   c.Terminators,
		Trailing:      c.Trailing,
		Quotes:        c.Quotes,
		Brackets:      c.Brackets,
		Abbreviations: c.Abbreviations,
	})
}

// Options converts the chunker section into chunker options
func (c ChunkerConfig) Options(logger *zap.Logger) chunker.Options {
	return chunker.Options{
		MaxPhonemes: c.MaxPhonemes,
		Waterfall:   c.Waterfall,
		Bumps:       c.Bumps,
		Logger:      logger,
	}
}

// Config converts the phonemizer section into a phonemizer.Config
func (c PhonemizerConfig) Config() phonemizer.Config {
	return phonemizer.Config{
		Provider:    phonemizer.ProviderLexicon,
		LexiconPath: c.Lexicon,
		Passthrough: c.Passthrough,
		CacheSize:   c.CacheSize,
	}
}
