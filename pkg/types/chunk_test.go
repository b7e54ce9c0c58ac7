package types

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChunk(t *testing.T) {
	c := NewChunk(2, "Hello,", "həlˈO,")
	assert.Equal(t, 2, c.Index)
	assert.Equal(t, 6, c.PhonemeLen, "length counts code points")
	assert.Equal(t, sha256.Sum256([]byte("həlˈO,")), c.ContentHash)
	assert.False(t, c.Truncated)
	require.NoError(t, c.Validate(510))
}

func TestChunk_Validate(t *testing.T) {
	tests := []struct {
		name    string
		chunk   func() Chunk
		limit   int
		wantErr error
	}{
		{
			name:  "valid",
			chunk: func() Chunk { return NewChunk(0, "a", "ə") },
			limit: 510,
		},
		{
			name:    "empty phonemes",
			chunk:   func() Chunk { return NewChunk(0, "a", "") },
			limit:   510,
			wantErr: ErrEmptyContent,
		},
		{
			name:    "negative index",
			chunk:   func() Chunk { return NewChunk(-1, "a", "ə") },
			limit:   510,
			wantErr: ErrInvalidIndex,
		},
		{
			name: "stale length",
			chunk: func() Chunk {
				c := NewChunk(0, "a", "ə")
				c.Phonemes = "əə"
				return c
			},
			limit:   510,
			wantErr: ErrLengthMismatch,
		},
		{
			name:    "over limit",
			chunk:   func() Chunk { return NewChunk(0, "aaaa", "əəəə") },
			limit:   3,
			wantErr: ErrChunkTooLong,
		},
		{
			name:  "no limit",
			chunk: func() Chunk { return NewChunk(0, "aaaa", "əəəə") },
			limit: 0,
		},
		{
			name: "missing hash",
			chunk: func() Chunk {
				c := Chunk{Phonemes: "ə"}
				c.ComputePhonemeLen()
				return c
			},
			limit:   510,
			wantErr: ErrMissingHash,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := tt.chunk()
			err := c.Validate(tt.limit)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
