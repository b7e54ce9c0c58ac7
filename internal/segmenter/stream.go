package segmenter

import (
	"context"
	"io"
	"iter"
	"strings"
	"sync"

	"github.com/dshills/speechsplit/pkg/types"
)

// Stream splits incrementally pushed text into sentences.
//
// One producer calls Push, Flush and Close; one consumer reads with Next,
// Sentences or Drain. All methods are safe to call from different goroutines.
type Stream struct {
	rules *Rules

	mu      sync.Mutex
	buffer  []rune
	queue   []string
	emitted int
	closed  bool
	changed chan struct{} // Closed and replaced on every state change
}

// NewStream creates an open stream using the given rules (nil for defaults)
func NewStream(rules *Rules) *Stream {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Stream{
		rules:   rules,
		changed: make(chan struct{}),
	}
}

// Push appends each fragment to the buffer in order and queues every
// sentence that can be confirmed. It fails with types.ErrInvalidState once
// the stream is closed.
func (s *Stream) Push(fragments ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrInvalidState
	}

	for _, fragment := range fragments {
		if fragment == "" {
			continue
		}
		s.buffer = append(s.buffer, []rune(fragment)...)
		s.processLocked()
	}
	return nil
}

// Flush queues whatever remains in the buffer as a final sentence
func (s *Stream) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

// Close flushes the buffer and rejects further input. Waiting consumers are
// released. A second call fails with types.ErrAlreadyClosed.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return types.ErrAlreadyClosed
	}
	s.closed = true
	s.flushLocked()
	return nil
}

// Closed reports whether Close has been called
func (s *Stream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Buffered returns the text not yet carved into sentences
func (s *Stream) Buffered() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.buffer)
}

// Next returns the next sentence, waiting while the stream is open and the
// queue is empty. It returns io.EOF once the stream is closed and drained.
func (s *Stream) Next(ctx context.Context) (string, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			sentence := s.queue[0]
			s.queue[0] = ""
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return sentence, nil
		}
		if s.closed {
			s.mu.Unlock()
			return "", io.EOF
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Sentences yields sentences as they become available until the stream is
// closed and drained or ctx is cancelled
func (s *Stream) Sentences(ctx context.Context) iter.Seq[string] {
	return func(yield func(string) bool) {
		for {
			sentence, err := s.Next(ctx)
			if err != nil {
				return
			}
			if !yield(sentence) {
				return
			}
		}
	}
}

// Drain flushes the buffer and returns every queued sentence without
// closing the stream
func (s *Stream) Drain() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushLocked()
	sentences := s.queue
	s.queue = nil
	return sentences
}

// Emitted returns the number of sentences queued since the stream was created
func (s *Stream) Emitted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emitted
}

func (s *Stream) processLocked() {
	res := scan(s.rules, s.buffer, false)
	if res.consumed > 0 {
		s.buffer = append(s.buffer[:0], s.buffer[res.consumed:]...)
	}
	if len(res.sentences) > 0 {
		s.enqueueLocked(res.sentences...)
		s.signalLocked()
	}
}

func (s *Stream) flushLocked() {
	res := scan(s.rules, s.buffer, true)
	s.enqueueLocked(res.sentences...)
	if remainder := strings.TrimSpace(string(s.buffer[res.consumed:])); remainder != "" {
		s.enqueueLocked(remainder)
	}
	s.buffer = s.buffer[:0]
	s.signalLocked()
}

func (s *Stream) enqueueLocked(sentences ...string) {
	s.queue = append(s.queue, sentences...)
	s.emitted += len(sentences)
}

func (s *Stream) signalLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
