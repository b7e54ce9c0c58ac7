package phonemizer

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/dshills/speechsplit/pkg/types"
)

// PunctuationMarks phonemize to themselves so the chunker can split on them
const PunctuationMarks = ";:,.!?¡¿—…\"«»“”()"

//go:embed default_lexicon.yaml
var defaultLexicon []byte

// Lexicon maps lower-case words to phoneme strings
type Lexicon struct {
	Language string            `yaml:"language"`
	Words    map[string]string `yaml:"words"`
}

// ParseLexicon decodes a YAML lexicon
func ParseLexicon(data []byte) (*Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLexicon, err)
	}
	if len(lex.Words) == 0 {
		return nil, fmt.Errorf("%w: no words", ErrInvalidLexicon)
	}

	words := make(map[string]string, len(lex.Words))
	for w, ps := range lex.Words {
		words[strings.ToLower(w)] = ps
	}
	lex.Words = words
	return &lex, nil
}

// LoadLexicon reads a YAML lexicon from path
func LoadLexicon(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// DefaultLexicon returns the small built-in American English lexicon
func DefaultLexicon() *Lexicon {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("phonemizer: built-in lexicon: %v", err))
	}
	return lex
}

// Lookup returns the phonemes of word, ignoring case
func (l *Lexicon) Lookup(word string) (string, bool) {
	ps, ok := l.Words[strings.ToLower(word)]
	return ps, ok
}

// LexiconPhonemizer is a dictionary-backed phonemizer. Words missing from the
// lexicon get nil phonemes unless passthrough is enabled, in which case their
// lower-cased graphemes stand in for phonemes.
type LexiconPhonemizer struct {
	lexicon     *Lexicon
	passthrough bool
}

// NewLexiconPhonemizer creates a phonemizer over lex
func NewLexiconPhonemizer(lex *Lexicon, passthrough bool) *LexiconPhonemizer {
	return &LexiconPhonemizer{lexicon: lex, passthrough: passthrough}
}

// Phonemize tokenizes text and looks up each word
func (p *LexiconPhonemizer) Phonemize(ctx context.Context, text string) ([]types.Word, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tokens := Tokenize(text)
	words := make([]types.Word, 0, len(tokens))
	for _, tok := range tokens {
		if ps, ok := p.phonemes(tok.Text); ok {
			tok.Phonemes = &ps
		}
		words = append(words, types.Word{tok})
	}
	return words, nil
}

func (p *LexiconPhonemizer) phonemes(text string) (string, bool) {
	if strings.ContainsAny(text, PunctuationMarks) && len([]rune(text)) == 1 {
		return text, true
	}
	if ps, ok := p.lexicon.Lookup(text); ok {
		return ps, true
	}
	if !isWord(text) {
		return "", false
	}
	// Possessives and contractions missing from the lexicon
	if stem, ok := strings.CutSuffix(strings.ReplaceAll(text, "’", "'"), "'s"); ok {
		if ps, ok := p.lexicon.Lookup(stem); ok {
			return ps + "z", true
		}
	}
	if p.passthrough {
		return strings.ToLower(text), true
	}
	return "", false
}

// Close is a no-op
func (p *LexiconPhonemizer) Close() error {
	return nil
}

// Tokenize splits text into word and punctuation tokens. Whitespace is
// attached to the token it follows and leading whitespace is dropped.
// A word glued to a preceding separator such as "," is marked Prespace so
// its phonemes are spaced like written text.
func Tokenize(text string) []types.Token {
	var tokens []types.Token
	runes := []rune(text)

	for i := 0; i < len(runes); {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			j := i
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if len(tokens) > 0 {
				tokens[len(tokens)-1].Whitespace += string(runes[i:j])
			}
			i = j
		case isWordRune(c):
			j := i + 1
			for j < len(runes) && (isWordRune(runes[j]) || isInnerApostrophe(runes, j)) {
				j++
			}
			tokens = append(tokens, types.Token{Text: string(runes[i:j]), Prespace: gluedToSeparator(tokens, c)})
			i = j
		default:
			tokens = append(tokens, types.Token{Text: string(c)})
			i++
		}
	}
	return tokens
}

// prespaceSeparators are marks that are followed by a space in running text
const prespaceSeparators = ".,;:!?…—"

// gluedToSeparator reports whether a word starting with first directly
// follows a separator. Digit groups like "3.5" or "1,000" stay joined.
func gluedToSeparator(tokens []types.Token, first rune) bool {
	n := len(tokens)
	if n == 0 {
		return false
	}
	prev := tokens[n-1]
	if prev.Whitespace != "" || len([]rune(prev.Text)) != 1 || !strings.Contains(prespaceSeparators, prev.Text) {
		return false
	}
	if unicode.IsDigit(first) && n >= 2 && tokens[n-2].Whitespace == "" {
		before := []rune(tokens[n-2].Text)
		if unicode.IsDigit(before[len(before)-1]) {
			return false
		}
	}
	return true
}

func isWordRune(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || unicode.IsMark(c)
}

// isInnerApostrophe reports an apostrophe with word runes on both sides
func isInnerApostrophe(runes []rune, i int) bool {
	if runes[i] != '\'' && runes[i] != '’' {
		return false
	}
	return i > 0 && i+1 < len(runes) && isWordRune(runes[i-1]) && isWordRune(runes[i+1])
}

func isWord(text string) bool {
	for _, c := range text {
		if isWordRune(c) {
			return true
		}
	}
	return false
}
