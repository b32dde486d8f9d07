package models

import (
	"fmt"
	"strings"
	"time"
)

// DeliveryMode is how a payload left the pipeline.
type DeliveryMode string

const (
	DeliveryFile   DeliveryMode = "file"
	DeliveryHelper DeliveryMode = "helper"
)

// Retrieval records one delivered track in the journal.
type Retrieval struct {
	id          string
	sequence    int
	requested   string
	trackID     string
	name        string
	artists     []string
	album       string
	format      string
	fileID      string
	destination string
	mode        DeliveryMode
	size        int
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// RetrievalInput carries the values of a new [Retrieval].
type RetrievalInput struct {
	Requested   ID
	Track       *Track
	Artists     []string
	Album       string
	Format      FileFormat
	FileID      FileID
	Destination string
	Mode        DeliveryMode
	Size        int
}

// NewRetrieval builds an unsaved [Retrieval]; the repository assigns its ID.
func NewRetrieval(sequence int, in RetrievalInput) *Retrieval {
	now := time.Now()
	r := &Retrieval{
		sequence:    sequence,
		requested:   in.Requested.Base62(),
		artists:     in.Artists,
		album:       in.Album,
		format:      in.Format.String(),
		fileID:      in.FileID.Hex(),
		destination: in.Destination,
		mode:        in.Mode,
		size:        in.Size,
		createdAt:   now,
		updatedAt:   now,
	}
	if in.Track != nil {
		r.trackID = in.Track.ID.Base62()
		r.name = in.Track.Name
	}
	return r
}

// RestoreRetrieval rebuilds a [Retrieval] from stored columns.
func RestoreRetrieval(id string, sequence int, requested, trackID, name, artists, album, format, fileID, destination, mode string, size int, createdAt, updatedAt time.Time) *Retrieval {
	var list []string
	if artists != "" {
		list = strings.Split(artists, ArtistSeparator)
	}
	return &Retrieval{
		id:          id,
		sequence:    sequence,
		requested:   requested,
		trackID:     trackID,
		name:        name,
		artists:     list,
		album:       album,
		format:      format,
		fileID:      fileID,
		destination: destination,
		mode:        DeliveryMode(mode),
		size:        size,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// ArtistSeparator joins artist names in filenames and in the journal.
const ArtistSeparator = ", "

func (r *Retrieval) ID() string { return r.id }
func (r *Retrieval) Sequence() int { return r.sequence }
func (r *Retrieval) Requested() string { return r.requested }
func (r *Retrieval) TrackID() string { return r.trackID }
func (r *Retrieval) Name() string { return r.name }
func (r *Retrieval) Artists() []string { return r.artists }
func (r *Retrieval) Album() string { return r.album }
func (r *Retrieval) Format() string { return r.format }
func (r *Retrieval) FileID() string { return r.fileID }
func (r *Retrieval) Destination() string { return r.destination }
func (r *Retrieval) Mode() DeliveryMode { return r.mode }
func (r *Retrieval) Size() int { return r.size }
func (r *Retrieval) CreatedAt() time.Time { return r.createdAt }
func (r *Retrieval) UpdatedAt() time.Time { return r.updatedAt }
func (r *Retrieval) DeletedAt() *time.Time { return r.deletedAt }
func (r *Retrieval) ArtistLine() string { return strings.Join(r.artists, ArtistSeparator) }
func (r *Retrieval) SetID(id string) { r.id = id }
func (r *Retrieval) SetSequence(seq int) { r.sequence = seq }
func (r *Retrieval) SetDeletedAt(t *time.Time) { r.deletedAt = t }

// Validate checks the fields required by the journal schema.
func (r *Retrieval) Validate() error {
	if r.requested == "" {
		return fmt.Errorf("requested reference is required")
	}
	if r.trackID == "" {
		return fmt.Errorf("track id is required")
	}
	if r.destination == "" {
		return fmt.Errorf("destination is required")
	}
	switch r.mode {
	case DeliveryFile, DeliveryHelper:
	default:
		return fmt.Errorf("unknown delivery mode %q", r.mode)
	}
	if r.size < 0 {
		return fmt.Errorf("size must not be negative")
	}
	return nil
}
