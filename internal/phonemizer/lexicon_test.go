package phonemizer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/speechsplit/internal/chunker"
	"github.com/dshills/speechsplit/pkg/types"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []types.Token
	}{
		{
			name: "words and punctuation",
			text: "Hello, world!",
			want: []types.Token{
				{Text: "Hello"},
				{Text: ",", Whitespace: " "},
				{Text: "world"},
				{Text: "!"},
			},
		},
		{
			name: "contraction stays whole",
			text: "Don't go",
			want: []types.Token{
				{Text: "Don't", Whitespace: " "},
				{Text: "go"},
			},
		},
		{
			name: "quoted word",
			text: "'go'",
			want: []types.Token{
				{Text: "'"},
				{Text: "go"},
				{Text: "'"},
			},
		},
		{
			name: "leading and repeated whitespace",
			text: "  a \n b",
			want: []types.Token{
				{Text: "a", Whitespace: " \n "},
				{Text: "b"},
			},
		},
		{
			name: "word glued to separator",
			text: "Hello,world",
			want: []types.Token{
				{Text: "Hello"},
				{Text: ","},
				{Text: "world", Prespace: true},
			},
		},
		{
			name: "word after opening bracket",
			text: "(go",
			want: []types.Token{
				{Text: "("},
				{Text: "go"},
			},
		},
		{
			name: "decimal stays joined",
			text: "3.5",
			want: []types.Token{
				{Text: "3"},
				{Text: "."},
				{Text: "5"},
			},
		},
		{
			name: "empty",
			text: "",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text))
		})
	}
}

func TestLexiconPhonemizer(t *testing.T) {
	p := NewLexiconPhonemizer(DefaultLexicon(), false)

	words, err := p.Phonemize(context.Background(), "Hello, Zork's world 🙂!")
	require.NoError(t, err)
	tokens := types.Flatten(words)
	require.Len(t, tokens, 6)

	assert.Equal(t, "həlˈO", tokens[0].PhonemeString())
	assert.Equal(t, ",", tokens[1].PhonemeString())
	assert.False(t, tokens[2].HasPhonemes(), "unknown word")
	assert.Equal(t, "wˈɜɹld", tokens[3].PhonemeString())
	assert.False(t, tokens[4].HasPhonemes(), "emoji")
	assert.Equal(t, "!", tokens[5].PhonemeString())
	assert.Equal(t, "Hello, Zork's world 🙂!", types.JoinGraphemes(tokens))
}

func TestLexiconPhonemizer_GluedPunctuationChunks(t *testing.T) {
	p := NewLexiconPhonemizer(DefaultLexicon(), false)

	words, err := p.Phonemize(context.Background(), "Hello,world.")
	require.NoError(t, err)

	chunks := chunker.New().Chunk(words)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Hello,world.", chunks[0].Text)
	assert.Equal(t, "həlˈO, wˈɜɹld.", chunks[0].Phonemes)
}

func TestLexiconPhonemizer_Possessive(t *testing.T) {
	p := NewLexiconPhonemizer(DefaultLexicon(), false)

	words, err := p.Phonemize(context.Background(), "Smith’s")
	require.NoError(t, err)
	require.Len(t, words, 1)
	assert.Equal(t, "smˈɪθz", words[0][0].PhonemeString())
}

func TestLexiconPhonemizer_Passthrough(t *testing.T) {
	p := NewLexiconPhonemizer(DefaultLexicon(), true)

	words, err := p.Phonemize(context.Background(), "Zork 42")
	require.NoError(t, err)
	tokens := types.Flatten(words)
	require.Len(t, tokens, 2)
	assert.Equal(t, "zork", tokens[0].PhonemeString())
	assert.Equal(t, "42", tokens[1].PhonemeString())
}

func TestLexiconPhonemizer_Errors(t *testing.T) {
	p := NewLexiconPhonemizer(DefaultLexicon(), false)

	_, err := p.Phonemize(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyText)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Phonemize(ctx, "hello")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseLexicon(t *testing.T) {
	lex, err := ParseLexicon([]byte("language: en-gb\nwords:\n  Tomato: təmˈɑːtəʊ\n"))
	require.NoError(t, err)
	assert.Equal(t, "en-gb", lex.Language)

	ps, ok := lex.Lookup("TOMATO")
	assert.True(t, ok)
	assert.Equal(t, "təmˈɑːtəʊ", ps)

	_, err = ParseLexicon([]byte("language: en-us\n"))
	assert.ErrorIs(t, err, ErrInvalidLexicon)

	_, err = ParseLexicon([]byte("words: [\n"))
	assert.ErrorIs(t, err, ErrInvalidLexicon)
}

func TestNewFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("words:\n  zork: zˈɔɹk\n"), 0o600))

	t.Setenv(EnvLexicon, path)
	t.Setenv(EnvPassthrough, "false")
	t.Setenv(EnvCacheSize, "16")

	p, err := NewFromEnv()
	require.NoError(t, err)
	defer p.Close()

	words, err := p.Phonemize(context.Background(), "zork hello")
	require.NoError(t, err)
	require.Len(t, words, 2)
	assert.Equal(t, "zˈɔɹk", words[0][0].PhonemeString())
	assert.False(t, words[1][0].HasPhonemes())
}

func TestNewFromEnv_Invalid(t *testing.T) {
	t.Setenv(EnvLexicon, "")
	t.Setenv(EnvCacheSize, "many")
	_, err := NewFromEnv()
	assert.Error(t, err)

	t.Setenv(EnvCacheSize, "")
	t.Setenv(EnvPassthrough, "maybe")
	_, err = NewFromEnv()
	assert.Error(t, err)

	t.Setenv(EnvPassthrough, "")
	t.Setenv(EnvLexicon, filepath.Join(t.TempDir(), "missing.yaml"))
	_, err = NewFromEnv()
	assert.Error(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "espeak"})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
