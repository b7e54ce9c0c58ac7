package segmenter

import (
	"strings"
	"unicode"
)

// boundary describes a candidate sentence end found by extendBoundary
type boundary struct {
	end          int // Index of the last rune belonging to the sentence
	nextNonSpace int // Index of the first non-space rune after end, or len(buf)
}

// scanResult is the outcome of scanning a buffer for sentence boundaries
type scanResult struct {
	sentences []string
	consumed  int // Runes of the buffer carved into sentences
}

// scan walks buf from the start and collects every sentence that can be
// confirmed with the text available so far. Runes after consumed must be
// kept for the next scan. Unless final is set, a decision that depends on a
// token still running into the end of buf waits for more input, so the
// result never depends on how the text was fragmented.
func scan(r *Rules, buf []rune, final bool) scanResult {
	var (
		res   scanResult
		stack delimiterStack
		start int
		n     = len(buf)
	)

	for i := 0; i < n; {
		c := buf[i]
		stack.update(r, buf, i)

		if !stack.empty() || !r.IsTerminator(c, true) {
			i++
			continue
		}

		// "1." at the start of a line is a list marker
		if numberedLinePattern.MatchString(string(buf[start:i])) {
			i++
			continue
		}

		b := extendBoundary(r, buf, i)

		// Terminator glued to the next word, e.g. "3.14" or "file.txt"
		if i == b.nextNonSpace-1 && c != '\n' {
			i++
			continue
		}

		// Nothing but whitespace follows; wait for more input
		if b.nextNonSpace == n {
			break
		}

		tokenStart := i - 1
		for tokenStart >= 0 && !unicode.IsSpace(buf[tokenStart]) {
			tokenStart--
		}
		tokenStart = max(start, tokenStart+1)
		token := tokenAt(buf, tokenStart)
		if token == "" {
			i++
			continue
		}
		tokenEnd := tokenStart + len([]rune(token))
		if !final && tokenEnd == n {
			break
		}

		if isAddress(r, token) {
			// The token may end right at a newline terminator
			i = max(i+1, tokenEnd)
			continue
		}

		if r.IsAbbreviation(token) {
			i++
			continue
		}

		// Initials such as "U.S." followed by a capitalised word
		if initialsPattern.MatchString(token) && unicode.IsUpper(buf[b.nextNonSpace]) {
			i++
			continue
		}

		// Lowercase continuation after a period
		if c == '.' && unicode.IsLower(buf[b.nextNonSpace]) {
			i++
			continue
		}

		sentence := strings.TrimSpace(string(buf[start : b.end+1]))
		if sentence == "..." || sentence == "…" {
			i++
			continue
		}

		if sentence != "" {
			res.sentences = append(res.sentences, sentence)
		}
		i = b.end + 1
		start = i
	}

	res.consumed = start
	return res
}

// extendBoundary extends a terminator at idx across further terminators and
// trailing quotes or brackets, then finds the next non-space rune
func extendBoundary(r *Rules, buf []rune, idx int) boundary {
	n := len(buf)
	end := idx
	for end+1 < n && r.IsTerminator(buf[end+1], false) {
		end++
	}
	for end+1 < n && r.IsTrailing(buf[end+1]) {
		end++
	}

	next := end + 1
	for next < n && unicode.IsSpace(buf[next]) {
		next++
	}

	return boundary{end: end, nextNonSpace: next}
}

// tokenAt returns the whitespace-delimited token starting at start
func tokenAt(buf []rune, start int) string {
	end := start
	for end < len(buf) && !unicode.IsSpace(buf[end]) {
		end++
	}
	return string(buf[start:end])
}

// isAddress reports whether token looks like a URL or e-mail address whose
// terminator is internal
func isAddress(r *Rules, token string) bool {
	if !strings.Contains(token, "://") && !strings.Contains(token, "@") {
		return false
	}
	last := []rune(token)
	return !r.IsTerminator(last[len(last)-1], true)
}
