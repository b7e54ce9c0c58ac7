package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/dshills/speechsplit/pkg/types"
)

const (
	// MaxPhonemes is the input limit of the downstream synthesis model
	MaxPhonemes = 510

	// previewLen bounds the text preview written to debug logs
	previewLen = 30
)

var (
	// DefaultWaterfall lists punctuation classes, strongest boundary first
	DefaultWaterfall = []string{"!.?…", ":;", ",—"}

	// DefaultBumps are closers folded into the chunk before a split point
	DefaultBumps = []string{")", "”"}

	// DefaultReplacements maps dialect-specific phonemes to the model vocabulary.
	// American English flap ɾ is spoken as T.
	DefaultReplacements = map[rune]rune{'ɾ': 'T'}
)

// Options configures a Chunker. Zero values fall back to the defaults.
type Options struct {
	MaxPhonemes  int
	Waterfall    []string
	Bumps        []string
	Replacements map[rune]rune
	Logger       *zap.Logger
}

// Chunker re-chunks phonemized tokens so that no chunk exceeds MaxPhonemes
type Chunker struct {
	maxPhonemes  int
	waterfall    []map[string]struct{}
	bumps        map[string]struct{}
	replacements map[rune]rune
	fingerprint  string
	logger       *zap.Logger
}

// New creates a Chunker with the default limit and punctuation tables
func New() *Chunker {
	return NewWithOptions(Options{})
}

// NewWithOptions creates a Chunker from explicit options
func NewWithOptions(opts Options) *Chunker {
	if opts.MaxPhonemes <= 0 {
		opts.MaxPhonemes = MaxPhonemes
	}
	if len(opts.Waterfall) == 0 {
		opts.Waterfall = DefaultWaterfall
	}
	if opts.Bumps == nil {
		opts.Bumps = DefaultBumps
	}
	if opts.Replacements == nil {
		opts.Replacements = DefaultReplacements
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Chunker{
		maxPhonemes:  opts.MaxPhonemes,
		waterfall:    make([]map[string]struct{}, 0, len(opts.Waterfall)),
		bumps:        make(map[string]struct{}, len(opts.Bumps)),
		replacements: make(map[rune]rune, len(opts.Replacements)),
		logger:       opts.Logger,
	}
	for _, class := range opts.Waterfall {
		set := make(map[string]struct{}, len(class))
		for _, r := range class {
			set[string(r)] = struct{}{}
		}
		c.waterfall = append(c.waterfall, set)
	}
	for _, b := range opts.Bumps {
		c.bumps[b] = struct{}{}
	}
	for from, to := range opts.Replacements {
		c.replacements[from] = to
	}
	c.fingerprint = fingerprint(opts)
	return c
}

// fingerprint hashes the settings that change chunk output
func fingerprint(opts Options) string {
	var b strings.Builder
	fmt.Fprintf(&b, "max=%d\n", opts.MaxPhonemes)
	for _, class := range opts.Waterfall {
		fmt.Fprintf(&b, "waterfall=%q\n", class)
	}
	bumps := slices.Clone(opts.Bumps)
	slices.Sort(bumps)
	fmt.Fprintf(&b, "bumps=%q\n", bumps)
	froms := make([]rune, 0, len(opts.Replacements))
	for from := range opts.Replacements {
		froms = append(froms, from)
	}
	slices.Sort(froms)
	for _, from := range froms {
		fmt.Fprintf(&b, "replace=%q>%q\n", from, opts.Replacements[from])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// MaxPhonemes returns the configured phoneme limit
func (c *Chunker) MaxPhonemes() int {
	return c.maxPhonemes
}

// Fingerprint identifies the limit and punctuation tables. Chunkers with
// equal fingerprints cut identical chunks.
func (c *Chunker) Fingerprint() string {
	return c.fingerprint
}

// Chunk runs every token of words through a fresh accumulator
func (c *Chunker) Chunk(words []types.Word) []types.Chunk {
	acc := c.NewAccumulator()
	var chunks []types.Chunk
	for _, w := range words {
		for _, tok := range w {
			chunks = append(chunks, acc.Add(tok)...)
		}
	}
	return append(chunks, acc.Finish()...)
}

// Pair is one accumulated (graphemes, phonemes) span
type Pair struct {
	Text     string
	Phonemes string
}

// Accumulator holds the pending pairs of one chunking pass. It lets callers
// feed tokens as they stream in. Not safe for concurrent use.
type Accumulator struct {
	c     *Chunker
	pairs []Pair
	count int // Phoneme length of pairs, in code points
	index int // Index of the next emitted chunk
}

// NewAccumulator starts an empty chunking pass
func (c *Chunker) NewAccumulator() *Accumulator {
	return &Accumulator{c: c}
}

// Pending returns the number of accumulated pairs not yet emitted
func (a *Accumulator) Pending() int {
	return len(a.pairs)
}

// Add appends a token and returns the chunk it forced out, if any.
// Tokens without phonemes are skipped.
func (a *Accumulator) Add(tok types.Token) []types.Chunk {
	if !tok.HasPhonemes() {
		return nil
	}

	phonemes := a.c.replace(tok.PhonemeString())

	var next strings.Builder
	if tok.Prespace && len(a.pairs) > 0 && !strings.HasSuffix(a.pairs[len(a.pairs)-1].Phonemes, " ") && phonemes != "" {
		next.WriteByte(' ')
	}
	next.WriteString(phonemes)
	if tok.FollowedBySpace() {
		next.WriteByte(' ')
	}
	nextPS := next.String()

	var emitted []types.Chunk
	nextCount := a.count + utf8.RuneCountInString(strings.TrimRightFunc(nextPS, unicode.IsSpace))
	if nextCount > a.c.maxPhonemes && len(a.pairs) > 0 {
		z := a.c.WaterfallLast(a.pairs, nextCount)
		chunk, emittedLen := a.emit(z)
		emitted = append(emitted, chunk)
		a.count -= emittedLen
		if len(a.pairs) == 0 {
			nextPS = strings.TrimLeftFunc(nextPS, unicode.IsSpace)
		}
	}

	a.pairs = append(a.pairs, Pair{Text: tok.Graphemes(), Phonemes: nextPS})
	a.count += utf8.RuneCountInString(nextPS)
	return emitted
}

// Finish emits whatever is still pending
func (a *Accumulator) Finish() []types.Chunk {
	if len(a.pairs) == 0 {
		return nil
	}
	chunk, _ := a.emit(len(a.pairs))
	a.count = 0
	return []types.Chunk{chunk}
}

// emit cuts pairs[:z] into a chunk, keeps the remainder and returns the
// untrimmed phoneme length removed
func (a *Accumulator) emit(z int) (types.Chunk, int) {
	var text, ps strings.Builder
	for _, p := range a.pairs[:z] {
		text.WriteString(p.Text)
		ps.WriteString(p.Phonemes)
	}
	raw := ps.String()

	a.pairs = append(a.pairs[:0], a.pairs[z:]...)

	chunk := types.NewChunk(a.index, strings.TrimSpace(text.String()), strings.TrimSpace(raw))
	a.index++

	a.c.logger.Debug("chunking text",
		zap.Int("split", z),
		zap.String("text", preview(chunk.Text)),
		zap.Int("phonemes", chunk.PhonemeLen))

	return a.c.enforceLimit(chunk), utf8.RuneCountInString(raw)
}

// enforceLimit truncates a chunk whose phonemes still exceed the limit. This
// only happens when a single token is longer than the limit.
func (c *Chunker) enforceLimit(chunk types.Chunk) types.Chunk {
	if chunk.PhonemeLen <= c.maxPhonemes {
		return chunk
	}

	c.logger.Warn("truncating phonemes over limit",
		zap.Int("length", chunk.PhonemeLen),
		zap.Int("limit", c.maxPhonemes),
		zap.String("text", preview(chunk.Text)))

	chunk.Phonemes = string([]rune(chunk.Phonemes)[:c.maxPhonemes])
	chunk.Truncated = true
	chunk.ComputePhonemeLen()
	chunk.ComputeContentHash()
	return chunk
}

func (c *Chunker) replace(phonemes string) string {
	if len(c.replacements) == 0 {
		return phonemes
	}
	return strings.Map(func(r rune) rune {
		if to, ok := c.replacements[r]; ok {
			return to
		}
		return r
	}, phonemes)
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLen {
		return text
	}
	return string([]rune(text)[:previewLen]) + "..."
}
