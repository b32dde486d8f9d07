package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/reactor"
	"github.com/desertthunder/trackrip/internal/services"
	"github.com/desertthunder/trackrip/internal/shared"
	"golang.org/x/sync/errgroup"
)

// PreambleSize is the number of leading bytes removed from every decrypted file before delivery.
const PreambleSize = 0xa7

// DecryptFunc is a length preserving decrypt transform.
type DecryptFunc func(key models.AudioKey, encrypted []byte) ([]byte, error)

// Engine fetches, decrypts and trims the audio of one file.
type Engine struct {
	session      services.Session
	decrypt      DecryptFunc
	pollInterval time.Duration
	logger       *log.Logger
}

// NewEngine creates an [Engine]. A non-positive pollInterval falls back to [reactor.DefaultTurn].
func NewEngine(session services.Session, decrypt DecryptFunc, pollInterval time.Duration, logger *log.Logger) *Engine {
	if decrypt == nil {
		decrypt = services.DecryptAudio
	}
	if pollInterval <= 0 {
		pollInterval = reactor.DefaultTurn
	}
	return &Engine{session: session, decrypt: decrypt, pollInterval: pollInterval, logger: logger}
}

// FetchDecrypt returns the deliverable payload of file: decrypted, with the first [PreambleSize] bytes removed.
func (e *Engine) FetchDecrypt(ctx context.Context, track models.ID, file models.FileID) ([]byte, error) {
	key, err := reactor.Await(ctx, e.session.AudioKey(ctx, track, file))
	if err != nil {
		return nil, wrapAs(shared.ErrKeyDenied, fmt.Errorf("track %s file %s: %w", track, file, err))
	}

	stream, err := reactor.Await(ctx, e.session.OpenStream(ctx, file))
	if err != nil {
		return nil, wrapAs(shared.ErrStreamFailed, fmt.Errorf("file %s: %w", file, err))
	}

	encrypted, err := e.readBridged(stream)
	if err != nil {
		return nil, wrapAs(shared.ErrStreamFailed, fmt.Errorf("file %s: %w", file, err))
	}
	e.logger.Debug("read encrypted file", "file", file, "size", len(encrypted))

	decrypted, err := e.decrypt(key, encrypted)
	if err != nil {
		return nil, wrapAs(shared.ErrDecryptFailed, err)
	}
	if len(decrypted) != len(encrypted) {
		return nil, fmt.Errorf("%w: got %d bytes from %d", shared.ErrDecryptFailed, len(decrypted), len(encrypted))
	}

	if len(decrypted) < PreambleSize {
		return nil, fmt.Errorf("%w: %d bytes", shared.ErrShortPayload, len(decrypted))
	}
	return decrypted[PreambleSize:], nil
}

// readBridged reads r to the end on a worker goroutine while the calling goroutine keeps the session loop
// turning, which is what feeds r. The buffer is only touched here after the worker has signalled completion.
func (e *Engine) readBridged(r io.Reader) ([]byte, error) {
	var (
		g    errgroup.Group
		done atomic.Bool
		buf  []byte
	)

	g.Go(func() error {
		defer done.Store(true)
		data, err := io.ReadAll(r)
		buf = data
		return err
	})

	loop := e.session.Loop()
	for !done.Load() {
		loop.Turn(e.pollInterval)
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return buf, nil
}

// wrapAs tags err with sentinel unless it already carries it.
func wrapAs(sentinel, err error) error {
	if errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}
