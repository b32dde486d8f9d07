package testing

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/reactor"
	"github.com/desertthunder/trackrip/internal/shared"
)

// FakeSession serves a [Catalog] through a [reactor.Loop] the way a live session does.
//
// Stream chunks are pushed from a background goroutine, ChunkDelay apart.
type FakeSession struct {
	Catalog    *Catalog
	ChunkSize  int
	ChunkDelay time.Duration
	// FailAt ends streams with [shared.ErrStreamFailed] after that many chunks when positive.
	FailAt int

	loop   *reactor.Loop
	closed bool
}

func NewFakeSession(c *Catalog) *FakeSession {
	return &FakeSession{Catalog: c, ChunkSize: 64, loop: reactor.NewLoop()}
}

func (s *FakeSession) Loop() *reactor.Loop { return s.loop }

func (s *FakeSession) Closed() bool { return s.closed }

func (s *FakeSession) Close() error {
	s.closed = true
	return nil
}

func (s *FakeSession) Track(_ context.Context, id models.ID) *reactor.Future[*models.Track] {
	return reactor.Go(s.loop, func() (*models.Track, error) { return s.Catalog.Track(id) })
}

func (s *FakeSession) Artist(_ context.Context, id models.ID) *reactor.Future[*models.Artist] {
	return reactor.Go(s.loop, func() (*models.Artist, error) { return s.Catalog.Artist(id) })
}

func (s *FakeSession) Album(_ context.Context, id models.ID) *reactor.Future[*models.Album] {
	return reactor.Go(s.loop, func() (*models.Album, error) { return s.Catalog.Album(id) })
}

func (s *FakeSession) AudioKey(_ context.Context, _ models.ID, file models.FileID) *reactor.Future[models.AudioKey] {
	return reactor.Go(s.loop, func() (models.AudioKey, error) { return s.Catalog.Key(file) })
}

func (s *FakeSession) OpenStream(_ context.Context, file models.FileID) *reactor.Future[io.Reader] {
	f := reactor.NewFuture[io.Reader](s.loop)
	go func() {
		data, err := s.Catalog.File(file)
		if err != nil {
			f.Complete(nil, fmt.Errorf("%w: %v", shared.ErrStreamFailed, err))
			return
		}

		stream := reactor.NewStream(s.loop, int64(len(data)))
		f.Complete(stream, nil)

		size := max(s.ChunkSize, 1)
		for i, off := 0, 0; off < len(data); i, off = i+1, off+size {
			if s.FailAt > 0 && i == s.FailAt {
				stream.Finish(fmt.Errorf("%w: dropped at chunk %d", shared.ErrStreamFailed, i))
				return
			}
			if s.ChunkDelay > 0 {
				time.Sleep(s.ChunkDelay)
			}
			stream.Push(data[off:min(off+size, len(data))])
		}
		stream.Finish(nil)
	}()
	return f
}
