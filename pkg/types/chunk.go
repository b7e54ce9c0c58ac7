package types

import (
	"crypto/sha256"
	"unicode/utf8"
)

// Chunk is a (text, phonemes) pair sized for a fixed-capacity synthesis model
type Chunk struct {
	// Identification
	Index int // Position within the sentence it was cut from

	// Content
	Text        string
	Phonemes    string
	ContentHash [32]byte // SHA-256 over the phonemes

	// Metrics
	PhonemeLen int  // Length in code points
	Truncated  bool // Phonemes were cut to fit the limit
}

// NewChunk creates a chunk and computes its derived fields
func NewChunk(index int, text, phonemes string) Chunk {
	c := Chunk{Index: index, Text: text, Phonemes: phonemes}
	c.ComputePhonemeLen()
	c.ComputeContentHash()
	return c
}

// ComputePhonemeLen counts the phonemes in code points
func (c *Chunk) ComputePhonemeLen() int {
	c.PhonemeLen = utf8.RuneCountInString(c.Phonemes)
	return c.PhonemeLen
}

// ComputeContentHash computes the SHA-256 hash of the chunk phonemes
func (c *Chunk) ComputeContentHash() {
	c.ContentHash = sha256.Sum256([]byte(c.Phonemes))
}

// ValidateContent checks if the chunk content is valid
func (c *Chunk) ValidateContent() error {
	if c.Phonemes == "" {
		return ErrEmptyContent
	}

	if c.Index < 0 {
		return ErrInvalidIndex
	}

	if c.PhonemeLen != utf8.RuneCountInString(c.Phonemes) {
		return ErrLengthMismatch
	}

	return nil
}

// Validate performs comprehensive validation of the chunk against a phoneme limit
func (c *Chunk) Validate(maxPhonemes int) error {
	if err := c.ValidateContent(); err != nil {
		return err
	}

	if maxPhonemes > 0 && c.PhonemeLen > maxPhonemes {
		return ErrChunkTooLong
	}

	var zeroHash [32]byte
	if c.ContentHash == zeroHash {
		return ErrMissingHash
	}

	return nil
}
