package segmenter

// Split returns the sentences of text using the default rules
func Split(text string) []string {
	return SplitWithRules(text, nil)
}

// SplitWithRules returns the sentences of text using the given rules
func SplitWithRules(text string, rules *Rules) []string {
	s := NewStream(rules)
	_ = s.Push(text) // a fresh stream is open
	_ = s.Close()
	return s.Drain()
}
