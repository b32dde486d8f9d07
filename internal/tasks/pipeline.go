package tasks

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/reactor"
	"github.com/desertthunder/trackrip/internal/services"
	"github.com/desertthunder/trackrip/internal/shared"
)

// Journal remembers delivered tracks.
type Journal interface {
	// Seen reports whether ref was delivered before.
	Seen(ctx context.Context, ref models.ID) (bool, error)
	// Record stores one delivery.
	Record(ctx context.Context, in models.RetrievalInput) error
}

// PipelineOpts contains the collaborators of a [Pipeline].
type PipelineOpts struct {
	Session       services.Session
	Dispatcher    Dispatcher
	Decrypt       DecryptFunc   // default: services.DecryptAudio
	Journal       Journal       // optional
	SkipRetrieved bool          // skip references the journal has seen
	PollInterval  time.Duration // bound of one loop turn while reading a stream
	Logger        *log.Logger
}

// Result describes one processed line.
type Result struct {
	Requested   models.ID
	Track       *models.Track
	Artists     []string
	Format      models.FileFormat
	File        models.FileID
	Destination string
	Size        int
	Skipped     bool
}

func (r *Result) ArtistLine() string {
	return strings.Join(r.Artists, models.ArtistSeparator)
}

// LineFailure is a line that was abandoned.
type LineFailure struct {
	Ref models.ID
	Err error
}

// Summary counts the outcome of a [Pipeline.Run].
type Summary struct {
	Processed int
	Delivered int
	Skipped   int
	Failed    int
	Failures  []LineFailure
}

// Pipeline retrieves the tracks referenced by an input stream, one at a time.
type Pipeline struct {
	session    services.Session
	resolver   *Resolver
	engine     *Engine
	dispatcher Dispatcher
	journal    Journal
	skip       bool
	logger     *log.Logger
}

func NewPipeline(opts PipelineOpts) *Pipeline {
	return &Pipeline{
		session:    opts.Session,
		resolver:   NewResolver(opts.Session, opts.Logger),
		engine:     NewEngine(opts.Session, opts.Decrypt, opts.PollInterval, opts.Logger),
		dispatcher: opts.Dispatcher,
		journal:    opts.Journal,
		skip:       opts.SkipRetrieved && opts.Journal != nil,
		logger:     opts.Logger,
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (p *Pipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// sendOutcome delivers the terminal update of a line, waiting for the consumer unless ctx is done.
func (p *Pipeline) sendOutcome(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	case <-ctx.Done():
	}
}

// Run processes every reference read from input until EOF or ctx is done.
//
// A failing line is logged, counted and skipped; it never stops the run.
func (p *Pipeline) Run(ctx context.Context, input io.Reader, progress chan<- ProgressUpdate) Summary {
	var summary Summary

	for ref := range References(input, p.logger) {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("stopping before end of input", "err", err)
			break
		}

		summary.Processed++
		result, err := p.Process(ctx, ref, progress)
		switch {
		case err != nil:
			summary.Failed++
			summary.Failures = append(summary.Failures, LineFailure{Ref: ref, Err: err})
			p.logger.Error("failed to retrieve track", "track", ref, "err", err)
			p.sendOutcome(ctx, progress, failedUpdate(ref, err))
		case result.Skipped:
			summary.Skipped++
			p.sendOutcome(ctx, progress, skippedUpdate(ref))
		default:
			summary.Delivered++
			p.sendOutcome(ctx, progress, deliveredUpdate(ref, result))
		}
	}

	return summary
}

// Process retrieves a single reference end to end.
func (p *Pipeline) Process(ctx context.Context, ref models.ID, progress chan<- ProgressUpdate) (*Result, error) {
	logger := shared.WithLogger(p.logger, "track", ref.String())

	if p.skip {
		seen, err := p.journal.Seen(ctx, ref)
		switch {
		case err != nil:
			logger.Warn("journal lookup failed", "err", err)
		case seen:
			logger.Info("skipping already retrieved track")
			return &Result{Requested: ref, Skipped: true}, nil
		}
	}

	p.sendProgress(progress, resolveUpdate(ref))
	track, err := p.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	p.sendProgress(progress, artistsUpdate(ref, track))
	artists, err := ArtistNames(ctx, p.session, track)
	if err != nil {
		return nil, err
	}

	format, file, err := SelectFile(track.Files)
	if err != nil {
		return nil, fmt.Errorf("%w: %s offers %v", err, track.ID, track.Formats())
	}
	p.sendProgress(progress, selectUpdate(ref, format))
	logger.Debug("selected file", "format", format, "file", file)

	p.sendProgress(progress, fetchUpdate(ref, file))
	payload, err := p.engine.FetchDecrypt(ctx, track.ID, file)
	if err != nil {
		return nil, err
	}

	var album *models.Album
	if p.dispatcher.NeedsAlbum() {
		album, err = reactor.Await(ctx, p.session.Album(ctx, track.Album))
		if err != nil {
			return nil, fmt.Errorf("%w: album %s: %w", shared.ErrMetadata, track.Album, err)
		}
	}

	p.sendProgress(progress, dispatchUpdate(ref, p.dispatcher.Mode(), len(payload)))
	dest, err := p.dispatcher.Dispatch(ctx, Delivery{
		Requested: ref,
		Track:     track,
		Artists:   artists,
		Album:     album,
		Payload:   payload,
	})
	if err != nil {
		return nil, err
	}

	result := &Result{
		Requested:   ref,
		Track:       track,
		Artists:     artists,
		Format:      format,
		File:        file,
		Destination: dest,
		Size:        len(payload),
	}

	if p.journal != nil {
		in := models.RetrievalInput{
			Requested:   ref,
			Track:       track,
			Artists:     artists,
			Format:      format,
			FileID:      file,
			Destination: dest,
			Mode:        p.dispatcher.Mode(),
			Size:        len(payload),
		}
		if album != nil {
			in.Album = album.Name
		}
		if err := p.journal.Record(ctx, in); err != nil {
			logger.Warn("failed to record retrieval", "err", err)
		}
	}

	return result, nil
}
