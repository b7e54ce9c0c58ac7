// Package phonemizer turns sentences into phonemized tokens for the chunker.
//
// Grapheme-to-phoneme quality is not the concern of this package. The
// built-in LexiconPhonemizer is a dictionary lookup that exists so the
// chunker can be driven end to end; real deployments plug their own
// Phonemizer in.
//
// # Basic Usage
//
//	p, err := phonemizer.NewFromEnv()
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	words, err := p.Phonemize(ctx, "Hello, world!")
//
// Punctuation tokens phonemize to themselves so the chunker's waterfall can
// split on them. Words missing from the lexicon carry nil phonemes and are
// skipped by the chunker.
//
// # Lexicons
//
// Lexicons are YAML documents:
//
//	language: en-us
//	words:
//	  hello: həlˈO
//	  world: wˈɜɹld
//
// # Caching and Retry
//
// New wraps the provider in a CachedPhonemizer: results are memoized in an
// LRU keyed by the SHA-256 of the sentence, and provider failures are retried
// with exponential backoff.
package phonemizer
