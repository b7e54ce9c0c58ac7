package types

import "strings"

// Token is a single phonemized unit produced by a grapheme-to-phoneme step
type Token struct {
	Text       string  // Original graphemes
	Whitespace string  // Whitespace that followed the token in the source text
	Phonemes   *string // Nil when the token could not be phonemized
	Prespace   bool    // A space must precede this token's phonemes
}

// Word groups the tokens one source word expanded into
type Word []Token

// NewToken creates a token with phonemes
func NewToken(text, phonemes, whitespace string) Token {
	return Token{Text: text, Phonemes: &phonemes, Whitespace: whitespace}
}

// HasPhonemes reports whether the token carries a phoneme string
func (t Token) HasPhonemes() bool {
	return t.Phonemes != nil
}

// PhonemeString returns the phonemes or "" when absent
func (t Token) PhonemeString() string {
	if t.Phonemes == nil {
		return ""
	}
	return *t.Phonemes
}

// FollowedBySpace reports whether whitespace followed the token
func (t Token) FollowedBySpace() bool {
	return t.Whitespace != ""
}

// Graphemes returns the token text with its trailing whitespace
func (t Token) Graphemes() string {
	return t.Text + t.Whitespace
}

// Flatten returns every token of the given words in order
func Flatten(words []Word) []Token {
	n := 0
	for _, w := range words {
		n += len(w)
	}
	tokens := make([]Token, 0, n)
	for _, w := range words {
		tokens = append(tokens, w...)
	}
	return tokens
}

// JoinGraphemes concatenates the graphemes of the given tokens
func JoinGraphemes(tokens []Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Graphemes())
	}
	return sb.String()
}
