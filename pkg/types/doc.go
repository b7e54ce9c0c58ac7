// Package types provides shared type definitions for speechsplit.
//
// Token and Word describe the output of a grapheme-to-phoneme step. A token
// without phonemes (Phonemes == nil) is skipped by the chunker:
//
//	tok := types.NewToken("Hello", "həlˈO", " ")
//	tok.FollowedBySpace() // true
//
// Chunk is a (text, phonemes) pair sized for a synthesis model whose input is
// capped in phonemes. Lengths are counted in code points, not bytes:
//
//	chunk := types.NewChunk(0, "Hello,", "həlˈO,")
//	if err := chunk.Validate(510); err != nil {
//	    return err
//	}
//
// Sentence is one complete sentence emitted by the segmenter.
package types
