package pipeline

import (
	"context"
	"crypto/sha256"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dshills/speechsplit/internal/chunker"
	"github.com/dshills/speechsplit/internal/phonemizer"
	"github.com/dshills/speechsplit/internal/segmenter"
	"github.com/dshills/speechsplit/internal/storage"
	"github.com/dshills/speechsplit/pkg/types"
)

const sampleText = "Hello world. Dr. Smith left at ten! Who said that? 🙂"

func newPhonemizer() phonemizer.Phonemizer {
	return phonemizer.NewLexiconPhonemizer(phonemizer.DefaultLexicon(), true)
}

// failingPhonemizer fails on sentences containing a marker
type failingPhonemizer struct {
	inner  phonemizer.Phonemizer
	marker string
}

func (f failingPhonemizer) Phonemize(ctx context.Context, text string) ([]types.Word, error) {
	if strings.Contains(text, f.marker) {
		return nil, errors.New("no voice for this")
	}
	return f.inner.Phonemize(ctx, text)
}

func (f failingPhonemizer) Close() error { return nil }

func collect(results *[]Result) Callback {
	return func(r Result) error {
		*results = append(*results, r)
		return nil
	}
}

func newJournal(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestProcess_MatchesManualSteps(t *testing.T) {
	ph := newPhonemizer()
	p := New(ph, Options{Logger: zaptest.NewLogger(t)})

	var results []Result
	stats, err := p.Process(context.Background(), sampleText, "test", collect(&results))
	require.NoError(t, err)

	sentences := segmenter.Split(sampleText)
	require.Len(t, results, len(sentences))
	c := chunker.New()
	for i, s := range sentences {
		words, err := ph.Phonemize(context.Background(), s)
		require.NoError(t, err)
		assert.Equal(t, types.Sentence{Index: i, Text: s}, results[i].Sentence)
		assert.Equal(t, c.Chunk(words), results[i].Chunks)
	}

	assert.NotEmpty(t, stats.RunID)
	assert.Zero(t, stats.DocumentID)
	assert.Equal(t, len(sentences), stats.Sentences)
	assert.Equal(t, 1, stats.SentencesSkipped, "the emoji has no phonemes")
	assert.False(t, stats.Reused)
}

func TestProcess_Chunks(t *testing.T) {
	p := New(newPhonemizer(), Options{})

	var results []Result
	_, err := p.Process(context.Background(), "Hello world.", "test", collect(&results))
	require.NoError(t, err)

	require.Len(t, results, 1)
	require.Len(t, results[0].Chunks, 1)
	assert.Equal(t, "Hello world.", results[0].Chunks[0].Text)
	assert.Equal(t, "həlˈO wˈɜɹld.", results[0].Chunks[0].Phonemes)
}

func TestRun_StreamedFragments(t *testing.T) {
	p := New(newPhonemizer(), Options{})
	ctx := context.Background()

	var whole []Result
	_, err := p.Process(ctx, sampleText, "whole", collect(&whole))
	require.NoError(t, err)

	fragments := make(chan string)
	go func() {
		defer close(fragments)
		for _, r := range sampleText {
			fragments <- string(r)
		}
	}()

	var streamed []Result
	stats, err := p.Run(ctx, fragments, "streamed", collect(&streamed))
	require.NoError(t, err)
	assert.Equal(t, whole, streamed)
	assert.Equal(t, len(whole), stats.Sentences)
}

func TestRun_Empty(t *testing.T) {
	p := New(newPhonemizer(), Options{})

	fragments := make(chan string)
	close(fragments)
	stats, err := p.Run(context.Background(), fragments, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Sentences)
}

func TestRun_InProgress(t *testing.T) {
	p := New(newPhonemizer(), Options{})
	require.True(t, p.lock.TryAcquire())
	assert.True(t, p.Running())

	_, err := p.Process(context.Background(), "Hi.", "", nil)
	assert.ErrorIs(t, err, ErrRunInProgress)

	p.lock.Release()
	assert.False(t, p.Running())
	_, err = p.Process(context.Background(), "Hi.", "", nil)
	assert.NoError(t, err)
}

func TestRun_CallbackErrorAborts(t *testing.T) {
	p := New(newPhonemizer(), Options{})

	calls := 0
	_, err := p.Process(context.Background(), "One. Two. Three.", "", func(Result) error {
		calls++
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, calls)
	assert.False(t, p.Running(), "lock released after failure")
}

func TestRun_Cancelled(t *testing.T) {
	p := New(newPhonemizer(), Options{})
	ctx, cancel := context.WithCancel(context.Background())

	fragments := make(chan string)
	done := make(chan error, 1)
	go func() {
		_, err := p.Run(ctx, fragments, "", nil)
		done <- err
	}()

	fragments <- "An unfinished thought"
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRun_PhonemizerFailureSkipsSentence(t *testing.T) {
	p := New(failingPhonemizer{inner: newPhonemizer(), marker: "Two"}, Options{})

	var results []Result
	stats, err := p.Process(context.Background(), "One. Two. Three.", "", collect(&results))
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Empty(t, results[1].Chunks)
	assert.NotEmpty(t, results[2].Chunks)
	assert.Equal(t, 1, stats.SentencesSkipped)
	require.Len(t, stats.ErrorMessages, 1)
	assert.Contains(t, stats.ErrorMessages[0], "sentence 1")
}

func TestRun_TruncatesOversizedWord(t *testing.T) {
	c := chunker.NewWithOptions(chunker.Options{MaxPhonemes: 5})
	p := New(newPhonemizer(), Options{Chunker: c})

	var results []Result
	stats, err := p.Process(context.Background(), "Supercalifragilistic.", "", collect(&results))
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, 1, stats.ChunksTruncated)
	for _, chunk := range results[0].Chunks {
		assert.LessOrEqual(t, chunk.PhonemeLen, 5)
	}
}

func TestRun_Journal(t *testing.T) {
	store := newJournal(t)
	p := New(newPhonemizer(), Options{Storage: store})
	ctx := context.Background()

	var results []Result
	stats, err := p.Process(ctx, sampleText, "test", collect(&results))
	require.NoError(t, err)
	require.NotZero(t, stats.DocumentID)

	doc, err := store.GetDocument(ctx, stats.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, stats.RunID, doc.RunID)
	assert.Equal(t, sha256.Sum256([]byte(sampleText)), doc.ContentHash)
	assert.Equal(t, stats.Sentences, doc.SentenceCount)
	assert.Equal(t, stats.Chunks, doc.ChunkCount)
	assert.True(t, doc.Completed())

	sentences, err := store.ListSentences(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, sentences, len(results))
	for i, s := range sentences {
		assert.Equal(t, results[i].Sentence.Text, s.Text)
	}

	chunks, err := store.ListChunksByDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Len(t, chunks, stats.Chunks)
}

func TestProcess_ReusesJournal(t *testing.T) {
	store := newJournal(t)
	p := New(newPhonemizer(), Options{Storage: store, ReuseJournal: true})
	ctx := context.Background()

	var first []Result
	firstStats, err := p.Process(ctx, sampleText, "test", collect(&first))
	require.NoError(t, err)
	assert.False(t, firstStats.Reused)

	var second []Result
	secondStats, err := p.Process(ctx, sampleText, "test", collect(&second))
	require.NoError(t, err)
	assert.True(t, secondStats.Reused)
	assert.Equal(t, firstStats.RunID, secondStats.RunID)
	assert.Equal(t, firstStats.Chunks, secondStats.Chunks)
	assert.Equal(t, firstStats.SentencesSkipped, secondStats.SentencesSkipped)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Sentence, second[i].Sentence)
		assert.Equal(t, len(first[i].Chunks), len(second[i].Chunks))
		for j := range first[i].Chunks {
			assert.Equal(t, first[i].Chunks[j], second[i].Chunks[j])
		}
	}

	status, err := store.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.DocumentsCount, "replay does not journal again")
}

func TestProcess_JournalKeyedByConfig(t *testing.T) {
	const text = "Hello world, good morning, hello world, good morning, hello world. Done."
	ctx := context.Background()

	tests := []struct {
		name  string
		other Options
		reuse bool
	}{
		{"same settings", Options{}, true},
		{"lower phoneme limit", Options{Chunker: chunker.NewWithOptions(chunker.Options{MaxPhonemes: 20})}, false},
		{"other waterfall", Options{Chunker: chunker.NewWithOptions(chunker.Options{Waterfall: []string{".!?"}})}, false},
		{"other abbreviations", Options{Rules: mustRules(t, segmenter.RuleSet{Abbreviations: []string{"dr"}})}, false},
		{"other phonemizer", Options{Fingerprint: "passthrough=false"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newJournal(t)
			first := New(newPhonemizer(), Options{Storage: store, ReuseJournal: true})
			firstStats, err := first.Process(ctx, text, "test", nil)
			require.NoError(t, err)

			doc, err := store.GetDocument(ctx, firstStats.DocumentID)
			require.NoError(t, err)
			assert.Equal(t, first.ConfigHash(), doc.ConfigHash)

			opts := tt.other
			opts.Storage = store
			opts.ReuseJournal = true
			second := New(newPhonemizer(), opts)
			assert.Equal(t, tt.reuse, first.ConfigHash() == second.ConfigHash())

			var results []Result
			stats, err := second.Process(ctx, text, "test", collect(&results))
			require.NoError(t, err)
			assert.Equal(t, tt.reuse, stats.Reused)
			for _, r := range results {
				for _, c := range r.Chunks {
					assert.LessOrEqual(t, c.PhonemeLen, second.chunker.MaxPhonemes())
				}
			}
		})
	}
}

func TestProcess_ReplayRespectsPhonemeLimit(t *testing.T) {
	const text = "Hello world, good morning, hello world, good morning, hello world."
	store := newJournal(t)
	ctx := context.Background()

	wide := New(newPhonemizer(), Options{Storage: store, ReuseJournal: true})
	var wideResults []Result
	_, err := wide.Process(ctx, text, "test", collect(&wideResults))
	require.NoError(t, err)
	require.Len(t, wideResults, 1)
	require.Len(t, wideResults[0].Chunks, 1)
	require.Greater(t, wideResults[0].Chunks[0].PhonemeLen, 20)

	narrow := New(newPhonemizer(), Options{
		Chunker:      chunker.NewWithOptions(chunker.Options{MaxPhonemes: 20}),
		Storage:      store,
		ReuseJournal: true,
	})
	// A journal written before fingerprints existed matches on content only
	narrow.configHash = wide.configHash

	var results []Result
	stats, err := narrow.Process(ctx, text, "test", collect(&results))
	require.NoError(t, err)
	assert.False(t, stats.Reused)
	require.Len(t, results, 1)
	assert.Greater(t, len(results[0].Chunks), 1)
	for _, c := range results[0].Chunks {
		assert.LessOrEqual(t, c.PhonemeLen, 20)
	}
}

func mustRules(t *testing.T, set segmenter.RuleSet) *segmenter.Rules {
	t.Helper()
	r, err := segmenter.NewRules(set)
	require.NoError(t, err)
	return r
}
