// Package chunker divides phonemized text into chunks that fit the fixed input
// length of a speech synthesis model.
//
// # Basic Usage
//
//	c := chunker.New()
//	for _, chunk := range c.Chunk(words) {
//	    fmt.Printf("%q -> %d phonemes\n", chunk.Text, chunk.PhonemeLen)
//	}
//
// Tokens can also be fed one at a time as a phonemizer produces them:
//
//	acc := c.NewAccumulator()
//	for tok := range tokens {
//	    emit(acc.Add(tok)...)
//	}
//	emit(acc.Finish()...)
//
// # Split Points
//
// When the next token would push the pending phonemes over the limit, the
// chunker searches backwards for a natural break in waterfall order:
//   - Sentence terminators: ! . ? …
//   - Clause separators: : ;
//   - Pauses: , —
//
// A closing parenthesis or quote right after the break stays with the earlier
// chunk. A break is only used if the text after it still fits; otherwise
// everything pending is emitted as a hard cut.
//
// # Limits
//
// Lengths are counted in code points. A chunk can only exceed MaxPhonemes when
// a single token is longer than the limit; such a chunk is truncated, marked
// Truncated and logged at warn level.
package chunker
