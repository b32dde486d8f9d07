package services

import (
	"context"
	"io"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/reactor"
)

// Session is an authenticated connection to the catalog.
//
// Every operation is asynchronous: it returns a [reactor.Future] that is resolved only while the
// session's [reactor.Loop] is turned, normally through [reactor.Await].
type Session interface {
	// Loop returns the event loop that delivers this session's results.
	Loop() *reactor.Loop

	// Track fetches the metadata of a track.
	Track(ctx context.Context, id models.ID) *reactor.Future[*models.Track]

	// Artist fetches the metadata of an artist.
	Artist(ctx context.Context, id models.ID) *reactor.Future[*models.Artist]

	// Album fetches the metadata of an album.
	Album(ctx context.Context, id models.ID) *reactor.Future[*models.Album]

	// AudioKey requests the decryption key of one file of a track.
	AudioKey(ctx context.Context, track models.ID, file models.FileID) *reactor.Future[models.AudioKey]

	// OpenStream opens the encrypted bytes of a file. Reads on the stream block until the loop delivers chunks.
	OpenStream(ctx context.Context, file models.FileID) *reactor.Future[io.Reader]

	// Close releases the session.
	Close() error
}
