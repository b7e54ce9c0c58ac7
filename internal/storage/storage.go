package storage

import (
	"context"
	"time"

	"github.com/dshills/speechsplit/pkg/types"
)

// Storage defines the interface for journaling segmentation and chunking runs
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, documentID int64) (*Document, error)
	GetDocumentByRunID(ctx context.Context, runID string) (*Document, error)
	GetDocumentByHash(ctx context.Context, contentHash [32]byte, configHash string) (*Document, error)
	CompleteDocument(ctx context.Context, doc *Document) error

	// Sentence operations
	InsertSentence(ctx context.Context, sentence *Sentence) error
	ListSentences(ctx context.Context, documentID int64) ([]*Sentence, error)

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *Chunk) error
	ListChunks(ctx context.Context, sentenceID int64) ([]*Chunk, error)
	ListChunksByDocument(ctx context.Context, documentID int64) ([]*Chunk, error)

	// Status operations
	GetStatus(ctx context.Context) (*Status, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage // Embed Storage interface for transaction operations
}

// Document is one run of text through the pipeline
type Document struct {
	ID             int64
	RunID          string   // UUID assigned by the pipeline
	ContentHash    [32]byte // SHA-256 of the full input text
	ConfigHash     string   // Fingerprint of the segmenter, chunker and phonemizer settings
	Source         string   // Free-form origin label (file path, "stdin", tool name)
	SentenceCount  int
	ChunkCount     int
	TruncatedCount int
	CreatedAt      time.Time
	CompletedAt    time.Time // Zero until CompleteDocument
}

// Completed reports whether the run finished
func (d *Document) Completed() bool {
	return !d.CompletedAt.IsZero()
}

// Sentence is one segmented sentence of a document
type Sentence struct {
	ID         int64
	DocumentID int64
	Seq        int // Position within the document
	Text       string
	CreatedAt  time.Time
}

// Chunk is one bounded phoneme chunk of a sentence
type Chunk struct {
	ID          int64
	SentenceID  int64
	Seq         int // Position within the sentence
	Text        string
	Phonemes    string
	ContentHash [32]byte
	PhonemeLen  int
	Truncated   bool
	CreatedAt   time.Time
}

// Status contains statistics about the journal
type Status struct {
	DocumentsCount  int
	SentencesCount  int
	ChunksCount     int
	TruncatedCount  int
	LastCompletedAt time.Time
	SchemaVersion   string
	BuildMode       string
	DatabaseSizeMB  float64
	Health          HealthStatus
}

// HealthStatus represents the health of the journal
type HealthStatus struct {
	DatabaseAccessible bool
	SchemaCurrent      bool
}

// ToTypesChunk converts a storage Chunk to types.Chunk
func (c *Chunk) ToTypesChunk() types.Chunk {
	return types.Chunk{
		Index:       c.Seq,
		Text:        c.Text,
		Phonemes:    c.Phonemes,
		ContentHash: c.ContentHash,
		PhonemeLen:  c.PhonemeLen,
		Truncated:   c.Truncated,
	}
}

// FromTypesChunk converts types.Chunk to a storage Chunk
func FromTypesChunk(c types.Chunk, sentenceID int64) *Chunk {
	return &Chunk{
		SentenceID:  sentenceID,
		Seq:         c.Index,
		Text:        c.Text,
		Phonemes:    c.Phonemes,
		ContentHash: c.ContentHash,
		PhonemeLen:  c.PhonemeLen,
		Truncated:   c.Truncated,
	}
}
