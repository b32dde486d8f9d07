package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/reactor"
	"github.com/desertthunder/trackrip/internal/services"
	"github.com/desertthunder/trackrip/internal/shared"
)

// Resolver turns a requested reference into playable track metadata.
type Resolver struct {
	session services.Session
	logger  *log.Logger
}

func NewResolver(session services.Session, logger *log.Logger) *Resolver {
	return &Resolver{session: session, logger: logger}
}

// Resolve fetches ref and, when it is unavailable, walks its alternatives in order and returns the first
// available one. Metadata is fetched fresh on every call.
func (r *Resolver) Resolve(ctx context.Context, ref models.ID) (*models.Track, error) {
	track, err := r.fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	if track.Available {
		return track, nil
	}

	r.logger.Warn("track is not available, finding alternative", "track", ref)
	for _, alt := range track.Alternatives {
		candidate, err := r.fetch(ctx, alt)
		if err != nil {
			return nil, err
		}
		if candidate.Available {
			r.logger.Warn("found track alternative", "track", ref, "alternative", candidate.ID)
			return candidate, nil
		}
	}

	return nil, fmt.Errorf("%w: %s (%d alternatives)", shared.ErrTrackUnavailable, ref, len(track.Alternatives))
}

func (r *Resolver) fetch(ctx context.Context, id models.ID) (*models.Track, error) {
	track, err := reactor.Await(ctx, r.session.Track(ctx, id))
	if err != nil {
		return nil, fmt.Errorf("%w: track %s: %w", shared.ErrMetadata, id, err)
	}
	return track, nil
}

// ArtistNames fetches the name of every artist of track, in order.
func ArtistNames(ctx context.Context, session services.Session, track *models.Track) ([]string, error) {
	names := make([]string, 0, len(track.Artists))
	for _, id := range track.Artists {
		artist, err := reactor.Await(ctx, session.Artist(ctx, id))
		if err != nil {
			return nil, fmt.Errorf("%w: artist %s: %w", shared.ErrMetadata, id, err)
		}
		names = append(names, artist.Name)
	}
	return names, nil
}
