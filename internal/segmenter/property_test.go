package segmenter

import (
	"slices"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// textGen draws sentence-like text from words, spaces, newlines, terminators,
// quotes, brackets and address fragments
func textGen() *rapid.Generator[string] {
	word := rapid.SampledFrom([]string{
		"the", "Cat", "sat", "Dr", "Mr", "on", "mat", "U", "S", "42", "1", "pi", "3", "14", "It's",
		"a@b", "mail@x.com", "https://x.org", "www", "com", "e", "g",
	})
	sep := rapid.SampledFrom([]string{
		" ", " ", " ", ". ", "! ", "? ", ".", "...", "…", "\n", ", ", "?! ",
		"\"", "'", "(", ")", "]", "[", "«", "»", "「", "」", "@", "://", ".]", ".\" ",
	})

	return rapid.Custom(func(t *rapid.T) string {
		n := rapid.IntRange(0, 30).Draw(t, "words")
		var sb strings.Builder
		for i := 0; i < n; i++ {
			sb.WriteString(word.Draw(t, "word"))
			sb.WriteString(sep.Draw(t, "sep"))
		}
		return sb.String()
	})
}

// cut splits text into fragments at the given rune offsets
func cut(text string, offsets []int) []string {
	runes := []rune(text)
	var fragments []string
	prev := 0
	for _, off := range offsets {
		if off <= prev || off >= len(runes) {
			continue
		}
		fragments = append(fragments, string(runes[prev:off]))
		prev = off
	}
	return append(fragments, string(runes[prev:]))
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func TestProperty_StreamingOrderIndependence(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := textGen().Draw(rt, "text")
		offsets := rapid.SliceOf(rapid.IntRange(1, len([]rune(text))+1)).Draw(rt, "offsets")
		slices.Sort(offsets)

		want := Split(text)

		s := NewStream(nil)
		for _, fragment := range cut(text, offsets) {
			require.NoError(rt, s.Push(fragment))
		}
		require.NoError(rt, s.Close())

		require.Equal(rt, want, s.Drain())
	})
}

func TestProperty_NoTextLost(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := textGen().Draw(rt, "text")
		sentences := Split(text)

		require.Equal(rt, stripSpace(text), stripSpace(strings.Join(sentences, "")))
		for _, sentence := range sentences {
			require.NotEmpty(rt, sentence)
			require.Equal(rt, strings.TrimSpace(sentence), sentence)
		}
	})
}
