package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/speechsplit/internal/chunker"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speechsplit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, chunker.MaxPhonemes, cfg.Chunker.MaxPhonemes)
	assert.Equal(t, chunker.DefaultWaterfall, cfg.Chunker.Waterfall)
	assert.Empty(t, cfg.Storage.DBPath)
	assert.Equal(t, "info", cfg.Log.Level)

	// Defaults are copies
	cfg.Chunker.Waterfall[0] = "x"
	assert.Equal(t, "!.?…", chunker.DefaultWaterfall[0])
}

func TestLoad_File(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	path := writeConfig(t, `
segmenter:
  abbreviations: [approx, dr]
chunker:
  max_phonemes: 200
  waterfall: ["!.?", ",;"]
phonemizer:
  passthrough: true
storage:
  db_path: /tmp/journal.db
log:
  level: debug
  format: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"approx", "dr"}, cfg.Segmenter.Abbreviations)
	assert.Equal(t, 200, cfg.Chunker.MaxPhonemes)
	assert.Equal(t, []string{"!.?", ",;"}, cfg.Chunker.Waterfall)
	assert.Equal(t, chunker.DefaultBumps, cfg.Chunker.Bumps, "unset keys keep defaults")
	assert.True(t, cfg.Phonemizer.Passthrough)
	assert.Equal(t, "/tmp/journal.db", cfg.Storage.DBPath)
	assert.Equal(t, "debug", cfg.Log.Level)

	rules, err := cfg.Segmenter.Rules()
	require.NoError(t, err)
	assert.True(t, rules.IsAbbreviation("approx."))
	assert.False(t, rules.IsAbbreviation("mr."))
}

func TestLoad_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "chunker:\n  max_phonemes: 200\n")
	t.Setenv(EnvConfigPath, path)
	t.Setenv("SPEECHSPLIT_CHUNKER_MAX_PHONEMES", "300")
	t.Setenv("SPEECHSPLIT_CHUNKER_WATERFALL", "!.? | ,;")
	t.Setenv("SPEECHSPLIT_SEGMENTER_ABBREVIATIONS", "approx, fig")
	t.Setenv("SPEECHSPLIT_PHONEMIZER_PASSTHROUGH", "true")
	t.Setenv("SPEECHSPLIT_STORAGE_DB_PATH", "/data/journal.db")
	t.Setenv("SPEECHSPLIT_LOG_LEVEL", "warn")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Chunker.MaxPhonemes)
	assert.Equal(t, []string{"!.?", ",;"}, cfg.Chunker.Waterfall)
	assert.Equal(t, []string{"approx", "fig"}, cfg.Segmenter.Abbreviations)
	assert.True(t, cfg.Phonemizer.Passthrough)
	assert.Equal(t, "/data/journal.db", cfg.Storage.DBPath)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Errors(t *testing.T) {
	t.Setenv(EnvConfigPath, "")

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "chunker: [\n"))
		assert.Error(t, err)
	})

	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("SPEECHSPLIT_CHUNKER_MAX_PHONEMES", "lots")
		_, err := Load("")
		assert.ErrorContains(t, err, "SPEECHSPLIT_CHUNKER_MAX_PHONEMES")
	})

	t.Run("custom validator", func(t *testing.T) {
		_, err := NewLoader().WithValidator(func(c *Config) error {
			if c.Storage.DBPath == "" {
				return assert.AnError
			}
			return nil
		}).Load()
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestLoader_EnvPrefix(t *testing.T) {
	t.Setenv(EnvConfigPath, "")
	t.Setenv("TTS_LOG_LEVEL", "error")

	cfg, err := NewLoader().WithEnvPrefix("TTS").Load()
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"zero cap", func(c *Config) { c.Chunker.MaxPhonemes = 0 }, "max_phonemes"},
		{"no waterfall", func(c *Config) { c.Chunker.Waterfall = nil }, "waterfall"},
		{"empty class", func(c *Config) { c.Chunker.Waterfall = []string{".", ""} }, "waterfall[1]"},
		{"long bump", func(c *Config) { c.Chunker.Bumps = []string{"))"} }, "bumps[0]"},
		{"bad bracket", func(c *Config) { c.Segmenter.Brackets = []string{"(()"} }, "segmenter"},
		{"negative cache", func(c *Config) { c.Phonemizer.CacheSize = -1 }, "cache_size"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunker.MaxPhonemes = -1
	cfg.Log.Format = "xml"

	err := cfg.Validate()
	assert.ErrorContains(t, err, "max_phonemes")
	assert.ErrorContains(t, err, "log.format")
}

func TestChunkerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Chunker.MaxPhonemes = 100

	c := chunker.NewWithOptions(cfg.Chunker.Options(nil))
	assert.Equal(t, 100, c.MaxPhonemes())
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LogConfig{Level: "warn", Format: "json"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = NewLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = NewLogger(LogConfig{Level: "verbose"})
	assert.Error(t, err)
}
