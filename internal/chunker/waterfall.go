package chunker

import (
	"strings"
	"unicode/utf8"
)

// WaterfallLast picks the split index for pending pairs that would overflow
// with nextCount phonemes. Each punctuation class is tried in order: the last
// pair whose phonemes are a single character of the class marks the split,
// one closing bump after it is pulled into the earlier chunk, and the split
// is taken only if the remainder fits the limit. Without a usable split the
// whole pending list is emitted.
func (c *Chunker) WaterfallLast(pairs []Pair, nextCount int) int {
	for _, class := range c.waterfall {
		z := lastInClass(pairs, class)
		if z < 0 {
			continue
		}

		z++
		if z < len(pairs) {
			if _, ok := c.bumps[strings.TrimSpace(pairs[z].Phonemes)]; ok {
				z++
			}
		}

		emitted := 0
		for _, p := range pairs[:z] {
			emitted += utf8.RuneCountInString(p.Phonemes)
		}
		if nextCount-emitted <= c.maxPhonemes {
			return z
		}
	}
	return len(pairs)
}

// lastInClass returns the index of the last pair whose trimmed phonemes are
// in class, or -1
func lastInClass(pairs []Pair, class map[string]struct{}) int {
	for i := len(pairs) - 1; i >= 0; i-- {
		if _, ok := class[strings.TrimSpace(pairs[i].Phonemes)]; ok {
			return i
		}
	}
	return -1
}
