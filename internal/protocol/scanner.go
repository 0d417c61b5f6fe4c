package protocol

import (
	"bytes"
	"errors"
)

// Scanner turns an arbitrarily fragmented byte stream into a sequence of
// validated frames. It keeps unconsumed bytes between Feed calls, so chunk
// boundaries never affect which frames come out. There is no reset
// operation: construct a new Scanner to start over.
//
// A Scanner must be confined to a single goroutine.
type Scanner struct {
	buf []byte
}

// NewScanner returns an empty Scanner.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Feed appends p to the internal buffer and returns every frame that can
// be decoded from it, in stream order. Bytes before the next head marker
// are discarded. When a head marker starts something that fails
// validation, only that single byte is dropped before scanning resumes:
// the nominal frame length of a corrupted frame is untrustworthy, and a
// spurious head byte inside garbage must not swallow a real frame that
// follows it.
func (s *Scanner) Feed(p []byte) []Frame {
	s.buf = append(s.buf, p...)

	var frames []Frame
	for {
		i := bytes.IndexByte(s.buf, Head)
		if i < 0 {
			s.buf = s.buf[:0]
			return frames
		}
		if i > 0 {
			s.discard(i)
		}

		f, n, err := Decode(s.buf)
		switch {
		case errors.Is(err, ErrNeedMoreData):
			// Retain the partial frame for the next feed.
			return frames
		case err != nil:
			s.discard(1)
		default:
			frames = append(frames, f)
			s.discard(n)
		}
	}
}

// Pending reports how many unconsumed bytes the scanner is holding.
func (s *Scanner) Pending() int {
	return len(s.buf)
}

// discard drops the first n buffered bytes, compacting in place so the
// buffer's capacity is reused across feeds.
func (s *Scanner) discard(n int) {
	m := copy(s.buf, s.buf[n:])
	s.buf = s.buf[:m]
}
