// Package segmenter splits natural-language text into sentences, either in one
// call or incrementally as fragments arrive from a streaming source such as an
// LLM response.
//
// # Basic Usage
//
//	sentences := segmenter.Split("Dr. Smith arrived. He sat down.")
//	// ["Dr. Smith arrived.", "He sat down."]
//
// # Streaming
//
// A Stream accepts fragments of any size and queues a sentence as soon as the
// text that follows it proves the boundary:
//
//	s := segmenter.NewStream(nil)
//	go func() {
//	    for _, fragment := range fragments {
//	        _ = s.Push(fragment)
//	    }
//	    _ = s.Close()
//	}()
//
//	for sentence := range s.Sentences(ctx) {
//	    fmt.Println(sentence)
//	}
//
// Next blocks while the stream is open and no sentence is queued. Close flushes
// the remaining buffer and releases blocked readers. Drain is the synchronous
// alternative: it flushes and returns everything queued without closing.
//
// # Boundary Rules
//
// A terminator (. ! ? … 。 ？ ！ or a newline) ends a sentence only when:
//   - it is outside quotes and brackets
//   - it is not a numbered-list marker ("2." at the start of a line)
//   - non-space text already follows it (so a streamed sentence is never cut early)
//   - the preceding token is not a URL, e-mail address or known abbreviation
//   - it is not a run of initials ("U.S.") followed by a capital letter
//   - it is not a period followed by a lowercase letter
//
// Runs of terminators and trailing closing quotes or brackets stay with the
// sentence they end. A lone ellipsis is never emitted as a sentence.
//
// # Rules
//
// The lookup tables are immutable once built. DefaultRules covers English and
// CJK punctuation; NewRules accepts a RuleSet for locale-specific tables.
package segmenter
