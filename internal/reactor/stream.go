package reactor

import (
	"io"
	"sync"
)

// Stream is an [io.Reader] fed by loop deliveries.
//
// Producers call [Stream.Push] and [Stream.Finish] from any goroutine; the bytes become readable
// only when the owning loop turns. Read blocks until bytes or the final error are delivered.
type Stream struct {
	loop *Loop
	size int64

	mu   sync.Mutex
	cond *sync.Cond
	buf  []byte
	err  error
}

// NewStream creates a [Stream] on l. size is the expected total length, or -1 when unknown.
func NewStream(l *Loop, size int64) *Stream {
	s := &Stream{loop: l, size: size}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Size returns the expected total length, or -1.
func (s *Stream) Size() int64 {
	return s.size
}

// Push schedules delivery of p. The slice must not be modified afterwards.
func (s *Stream) Push(p []byte) {
	s.loop.Post(func() {
		s.mu.Lock()
		s.buf = append(s.buf, p...)
		s.mu.Unlock()
		s.cond.Broadcast()
	})
}

// Finish schedules the end of the stream. A nil err ends it with [io.EOF].
func (s *Stream) Finish(err error) {
	if err == nil {
		err = io.EOF
	}
	s.loop.Post(func() {
		s.mu.Lock()
		if s.err == nil {
			s.err = err
		}
		s.mu.Unlock()
		s.cond.Broadcast()
	})
}

// Read implements [io.Reader].
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.buf) == 0 && s.err == nil {
		s.cond.Wait()
	}

	if len(s.buf) > 0 {
		n := copy(p, s.buf)
		s.buf = s.buf[n:]
		return n, nil
	}
	return 0, s.err
}
