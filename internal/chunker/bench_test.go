package chunker

import (
	"fmt"
	"testing"
)

func BenchmarkChunk(b *testing.B) {
	c := New()
	for _, n := range []int{10, 100, 1000} {
		words := repeatWords(n)
		b.Run(fmt.Sprintf("words=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = c.Chunk(words)
			}
		})
	}
}

func BenchmarkWaterfallLast(b *testing.B) {
	pairs := make([]Pair, 0, 200)
	for i := 0; i < 200; i++ {
		p := "abcd "
		if i%25 == 0 {
			p = ", "
		}
		pairs = append(pairs, Pair{Text: "w", Phonemes: p})
	}

	c := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = c.WaterfallLast(pairs, 600)
	}
}
