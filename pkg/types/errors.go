package types

import "errors"

// Domain errors shared by the segmenter, chunker and pipeline
var (
	// Stream lifecycle errors
	ErrInvalidState  = errors.New("stream is closed")
	ErrAlreadyClosed = errors.New("stream is already closed")

	// Chunk errors
	ErrEmptyContent   = errors.New("content cannot be empty")
	ErrChunkTooLong   = errors.New("chunk exceeds phoneme limit")
	ErrInvalidIndex   = errors.New("index must be >= 0")
	ErrMissingHash    = errors.New("content hash must be computed")
	ErrLengthMismatch = errors.New("phoneme length does not match phonemes")
)
