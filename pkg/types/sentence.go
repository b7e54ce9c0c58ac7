package types

// Sentence is one complete sentence emitted by the segmenter
type Sentence struct {
	Index int // Position in the input stream (0-based)
	Text  string
}
