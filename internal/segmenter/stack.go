package segmenter

import "unicode"

// delimiterStack tracks open quotes and brackets while scanning
type delimiterStack []rune

func (s delimiterStack) empty() bool {
	return len(s) == 0
}

func (s delimiterStack) top() (rune, bool) {
	if len(s) == 0 {
		return 0, false
	}
	return s[len(s)-1], true
}

func (s *delimiterStack) push(c rune) {
	*s = append(*s, c)
}

func (s *delimiterStack) pop() {
	*s = (*s)[:len(*s)-1]
}

// update applies buf[i] to the stack. Quotes toggle, except an apostrophe
// between two letters. A closing bracket pops only when it matches the top;
// otherwise it is ignored.
func (s *delimiterStack) update(r *Rules, buf []rune, i int) {
	c := buf[i]

	if _, ok := r.quotes[c]; ok {
		if c == '\'' && i > 0 && i < len(buf)-1 &&
			unicode.IsLetter(buf[i-1]) && unicode.IsLetter(buf[i+1]) {
			return
		}
		if top, ok := s.top(); ok && top == c {
			s.pop()
		} else {
			s.push(c)
		}
		return
	}

	if _, ok := r.openers[c]; ok {
		s.push(c)
		return
	}

	if open, ok := r.closers[c]; ok {
		if top, ok := s.top(); ok && top == open {
			s.pop()
		}
	}
}
