// Package pipeline streams text through segmentation, phonemization and
// chunking.
//
// A run has two goroutines joined by an errgroup. The producer pushes
// fragments into a segmenter.Stream and closes it when the input ends. The
// consumer pulls complete sentences, phonemizes them, cuts them into bounded
// chunks and hands each result to the caller's callback in order. When a
// storage.Storage is configured, every sentence and its chunks are journaled
// in one transaction.
//
//	p := pipeline.New(ph, pipeline.Options{Storage: store, Logger: logger})
//	stats, err := p.Run(ctx, fragments, "stdin", func(r pipeline.Result) error {
//	    for _, c := range r.Chunks {
//	        synthesize(c.Phonemes)
//	    }
//	    return nil
//	})
//
// Only one run may be active per Pipeline; overlapping calls fail with
// ErrRunInProgress.
package pipeline
