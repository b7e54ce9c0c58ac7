package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/speechsplit/internal/chunker"
	"github.com/dshills/speechsplit/internal/phonemizer"
	"github.com/dshills/speechsplit/internal/segmenter"
	"github.com/dshills/speechsplit/internal/storage"
	"github.com/dshills/speechsplit/pkg/types"
)

// ErrRunInProgress is returned when a run starts while another is active
var ErrRunInProgress = errors.New("a run is already in progress")

// errStaleJournal means a journaled run cannot be replayed under the
// current phoneme limit
var errStaleJournal = errors.New("journaled chunks exceed the phoneme limit")

// Pipeline coordinates the streaming path: segment -> phonemize -> chunk -> store
type Pipeline struct {
	rules      *segmenter.Rules
	chunker    *chunker.Chunker
	phonemizer phonemizer.Phonemizer
	storage    storage.Storage
	logger     *zap.Logger
	reuse      bool
	configHash string

	lock RunLock
}

// Options configures a Pipeline. Nil fields fall back to defaults; a nil
// Storage disables the journal.
type Options struct {
	Rules   *segmenter.Rules
	Chunker *chunker.Chunker
	Storage storage.Storage
	Logger  *zap.Logger

	// ReuseJournal answers Process calls for already journaled text from
	// storage instead of re-running it
	ReuseJournal bool

	// Fingerprint identifies the phonemizer settings. It is combined with
	// the rule and chunker fingerprints to key journal reuse.
	Fingerprint string
}

// Result is one sentence with the chunks cut from it
type Result struct {
	Sentence types.Sentence
	Chunks   []types.Chunk
}

// Callback receives results in stream order. Returning an error aborts the run.
type Callback func(Result) error

// Statistics contains statistics about a run
type Statistics struct {
	RunID            string
	DocumentID       int64 // Zero when the journal is disabled
	Sentences        int
	SentencesSkipped int // Sentences that produced no chunks
	Chunks           int
	ChunksTruncated  int
	Reused           bool // Served from the journal
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a Pipeline around a phonemizer
func New(p phonemizer.Phonemizer, opts Options) *Pipeline {
	if opts.Rules == nil {
		opts.Rules = segmenter.DefaultRules()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Chunker == nil {
		opts.Chunker = chunker.NewWithOptions(chunker.Options{Logger: opts.Logger})
	}

	return &Pipeline{
		rules:      opts.Rules,
		chunker:    opts.Chunker,
		phonemizer: p,
		storage:    opts.Storage,
		logger:     opts.Logger,
		reuse:      opts.ReuseJournal,
		configHash: configHash(opts.Rules, opts.Chunker, opts.Fingerprint),
	}
}

// configHash combines everything that shapes the output of a run
func configHash(rules *segmenter.Rules, c *chunker.Chunker, phonemizer string) string {
	h := sha256.New()
	fmt.Fprintf(h, "segmenter=%s\nchunker=%s\nphonemizer=%s\n", rules.Fingerprint(), c.Fingerprint(), phonemizer)
	return hex.EncodeToString(h.Sum(nil))
}

// ConfigHash returns the fingerprint recorded on journal documents
func (p *Pipeline) ConfigHash() string {
	return p.configHash
}

// Running reports whether a run is in progress
func (p *Pipeline) Running() bool {
	return p.lock.Held()
}

// Process runs a complete text through the pipeline
func (p *Pipeline) Process(ctx context.Context, text, source string, fn Callback) (*Statistics, error) {
	if p.reuse && p.storage != nil {
		doc, err := p.storage.GetDocumentByHash(ctx, sha256.Sum256([]byte(text)), p.configHash)
		switch {
		case err == nil:
			stats, err := p.replay(ctx, doc, fn)
			if !errors.Is(err, errStaleJournal) {
				return stats, err
			}
			p.logger.Info("journaled run exceeds the phoneme limit, re-running",
				zap.String("run_id", doc.RunID),
				zap.Int("max_phonemes", p.chunker.MaxPhonemes()))
		case !errors.Is(err, storage.ErrNotFound):
			return nil, fmt.Errorf("failed to look up journal: %w", err)
		}
	}

	fragments := make(chan string, 1)
	fragments <- text
	close(fragments)
	return p.Run(ctx, fragments, source, fn)
}

// Run consumes fragments until the channel closes. Sentences are
// phonemized and chunked while fragments are still arriving.
func (p *Pipeline) Run(ctx context.Context, fragments <-chan string, source string, fn Callback) (*Statistics, error) {
	if !p.lock.TryAcquire() {
		return nil, ErrRunInProgress
	}
	defer p.lock.Release()

	startTime := time.Now()
	stats := &Statistics{
		RunID:         uuid.NewString(),
		ErrorMessages: make([]string, 0),
	}
	logger := p.logger.With(zap.String("run_id", stats.RunID))

	doc, err := p.createDocument(ctx, stats.RunID, source)
	if err != nil {
		return nil, err
	}
	if doc != nil {
		stats.DocumentID = doc.ID
	}

	stream := segmenter.NewStream(p.rules)
	hasher := sha256.New()

	g, gctx := errgroup.WithContext(ctx)

	// Producer: feed fragments, close the stream at end of input
	g.Go(func() error {
		defer func() { _ = stream.Close() }()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case fragment, ok := <-fragments:
				if !ok {
					return nil
				}
				hasher.Write([]byte(fragment))
				if err := stream.Push(fragment); err != nil {
					return err
				}
			}
		}
	})

	// Consumer: one sentence at a time, in order
	g.Go(func() error {
		for index := 0; ; index++ {
			text, err := stream.Next(gctx)
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			if err := p.handleSentence(gctx, logger, doc, index, text, stats, fn); err != nil {
				return err
			}
		}
	})

	if err := g.Wait(); err != nil {
		logger.Warn("run aborted", zap.Int("sentences", stats.Sentences), zap.Error(err))
		return nil, err
	}

	if doc != nil {
		copy(doc.ContentHash[:], hasher.Sum(nil))
		doc.SentenceCount = stats.Sentences
		doc.ChunkCount = stats.Chunks
		doc.TruncatedCount = stats.ChunksTruncated
		if err := p.storage.CompleteDocument(ctx, doc); err != nil {
			return nil, fmt.Errorf("failed to complete document: %w", err)
		}
	}

	stats.Duration = time.Since(startTime)
	logger.Info("run complete",
		zap.Int("sentences", stats.Sentences),
		zap.Int("chunks", stats.Chunks),
		zap.Int("truncated", stats.ChunksTruncated),
		zap.Duration("duration", stats.Duration))

	return stats, nil
}

// createDocument opens a journal entry for the run, or returns nil when the
// journal is disabled
func (p *Pipeline) createDocument(ctx context.Context, runID, source string) (*storage.Document, error) {
	if p.storage == nil {
		return nil, nil
	}
	doc := &storage.Document{RunID: runID, ConfigHash: p.configHash, Source: source}
	if err := p.storage.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document: %w", err)
	}
	return doc, nil
}

// handleSentence phonemizes, chunks, stores and delivers one sentence.
// A phonemizer failure skips the sentence; storage and callback failures
// abort the run.
func (p *Pipeline) handleSentence(ctx context.Context, logger *zap.Logger, doc *storage.Document,
	index int, text string, stats *Statistics, fn Callback) error {

	stats.Sentences++
	result := Result{Sentence: types.Sentence{Index: index, Text: text}}

	words, err := p.phonemizer.Phonemize(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("sentence %d: %v", index, err))
		logger.Warn("phonemization failed", zap.Int("sentence", index), zap.Error(err))
	} else {
		result.Chunks = p.chunk(words)
	}

	if len(result.Chunks) == 0 {
		stats.SentencesSkipped++
	}
	stats.Chunks += len(result.Chunks)
	for _, c := range result.Chunks {
		if c.Truncated {
			stats.ChunksTruncated++
		}
	}

	if doc != nil {
		if err := p.store(ctx, doc, result); err != nil {
			return err
		}
	}

	logger.Debug("sentence processed",
		zap.Int("sentence", index),
		zap.Int("chunks", len(result.Chunks)))

	if fn != nil {
		return fn(result)
	}
	return nil
}

// chunk cuts words into chunks and drops chunks without phonemes
func (p *Pipeline) chunk(words []types.Word) []types.Chunk {
	var chunks []types.Chunk
	for _, c := range p.chunker.Chunk(words) {
		if c.Phonemes == "" {
			continue
		}
		c.Index = len(chunks)
		chunks = append(chunks, c)
	}
	return chunks
}

// store writes a sentence and its chunks in one transaction
func (p *Pipeline) store(ctx context.Context, doc *storage.Document, result Result) error {
	tx, err := p.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	sentence := &storage.Sentence{
		DocumentID: doc.ID,
		Seq:        result.Sentence.Index,
		Text:       result.Sentence.Text,
	}
	if err := tx.InsertSentence(ctx, sentence); err != nil {
		return err
	}
	for _, c := range result.Chunks {
		if err := tx.InsertChunk(ctx, storage.FromTypesChunk(c, sentence.ID)); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// replay delivers a journaled document without re-running it
func (p *Pipeline) replay(ctx context.Context, doc *storage.Document, fn Callback) (*Statistics, error) {
	startTime := time.Now()

	sentences, err := p.storage.ListSentences(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sentences: %w", err)
	}
	chunks, err := p.storage.ListChunksByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}

	bySentence := make(map[int64][]types.Chunk, len(sentences))
	for _, c := range chunks {
		if c.PhonemeLen > p.chunker.MaxPhonemes() {
			return nil, errStaleJournal
		}
		bySentence[c.SentenceID] = append(bySentence[c.SentenceID], c.ToTypesChunk())
	}

	stats := &Statistics{
		RunID:         doc.RunID,
		DocumentID:    doc.ID,
		Reused:        true,
		ErrorMessages: make([]string, 0),
	}
	for _, s := range sentences {
		result := Result{
			Sentence: types.Sentence{Index: s.Seq, Text: s.Text},
			Chunks:   bySentence[s.ID],
		}
		stats.Sentences++
		if len(result.Chunks) == 0 {
			stats.SentencesSkipped++
		}
		stats.Chunks += len(result.Chunks)
		for _, c := range result.Chunks {
			if c.Truncated {
				stats.ChunksTruncated++
			}
		}
		if fn != nil {
			if err := fn(result); err != nil {
				return nil, err
			}
		}
	}

	stats.Duration = time.Since(startTime)
	p.logger.Info("run replayed from journal",
		zap.String("run_id", doc.RunID),
		zap.Int("sentences", stats.Sentences))
	return stats, nil
}
