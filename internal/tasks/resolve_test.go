package tasks

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
	tu "github.com/desertthunder/trackrip/internal/testing"
)

// chain adds an unavailable track 1 whose alternatives are tracks 10, 11, ...; available marks which are playable.
func chain(c *tu.Catalog, available ...bool) {
	var alts []models.ID
	for i, ok := range available {
		id := tu.SeqID(byte(10 + i))
		alts = append(alts, id)
		c.AddTrack(&models.Track{ID: id, Name: "alt", Available: ok})
	}
	c.AddTrack(&models.Track{ID: tu.SeqID(1), Name: "requested", Alternatives: alts})
}

func TestResolver(t *testing.T) {
	ctx := context.Background()

	t.Run("Available Track", func(t *testing.T) {
		c := tu.NewCatalog()
		c.AddTrack(&models.Track{ID: tu.SeqID(1), Name: "Title", Available: true, Alternatives: []models.ID{tu.SeqID(2)}})

		track, err := NewResolver(tu.NewFakeSession(c), log.New(&bytes.Buffer{})).Resolve(ctx, tu.SeqID(1))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if track.ID != tu.SeqID(1) {
			t.Errorf("expected requested track, got %s", track.ID)
		}
		if c.Calls("track") != 1 {
			t.Errorf("expected alternatives to be ignored, got %d track calls", c.Calls("track"))
		}
	})

	t.Run("Alternatives", func(t *testing.T) {
		tests := []struct {
			name      string
			available []bool
			want      int // index of the expected alternative, -1 for failure
			calls     int
		}{
			{"None", nil, -1, 1},
			{"Single Available", []bool{true}, 0, 2},
			{"Single Unavailable", []bool{false}, -1, 2},
			{"Three First Available", []bool{true, false, true}, 0, 2},
			{"Three Middle Available", []bool{false, true, true}, 1, 3},
			{"Three Last Available", []bool{false, false, true}, 2, 4},
			{"Three Unavailable", []bool{false, false, false}, -1, 4},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				c := tu.NewCatalog()
				chain(c, tt.available...)

				var logs bytes.Buffer
				track, err := NewResolver(tu.NewFakeSession(c), log.New(&logs)).Resolve(ctx, tu.SeqID(1))

				if tt.want < 0 {
					if !errors.Is(err, shared.ErrTrackUnavailable) {
						t.Errorf("expected ErrTrackUnavailable, got %v", err)
					}
				} else {
					if err != nil {
						t.Fatalf("expected no error, got %v", err)
					}
					if want := tu.SeqID(byte(10 + tt.want)); track.ID != want {
						t.Errorf("expected %s, got %s", want, track.ID)
					}
					if !strings.Contains(logs.String(), "found track alternative") {
						t.Errorf("expected substitution warning, got %q", logs.String())
					}
				}

				if c.Calls("track") != tt.calls {
					t.Errorf("expected %d track calls, got %d", tt.calls, c.Calls("track"))
				}
				if !strings.Contains(logs.String(), "not available") {
					t.Errorf("expected unavailability warning, got %q", logs.String())
				}
			})
		}
	})

	t.Run("Unknown Track", func(t *testing.T) {
		_, err := NewResolver(tu.NewFakeSession(tu.NewCatalog()), log.New(&bytes.Buffer{})).Resolve(ctx, tu.SeqID(1))
		if !errors.Is(err, shared.ErrMetadata) {
			t.Errorf("expected ErrMetadata, got %v", err)
		}
	})

	t.Run("Alternative Fetch Fails", func(t *testing.T) {
		c := tu.NewCatalog()
		c.AddTrack(&models.Track{ID: tu.SeqID(1), Alternatives: []models.ID{tu.SeqID(2), tu.SeqID(3)}})
		c.AddTrack(&models.Track{ID: tu.SeqID(3), Available: true})

		_, err := NewResolver(tu.NewFakeSession(c), log.New(&bytes.Buffer{})).Resolve(ctx, tu.SeqID(1))
		if !errors.Is(err, shared.ErrMetadata) {
			t.Errorf("expected ErrMetadata, got %v", err)
		}
		if c.Calls("track") != 2 {
			t.Errorf("expected the walk to stop at the failure, got %d calls", c.Calls("track"))
		}
	})

	t.Run("No Caching", func(t *testing.T) {
		c := tu.NewCatalog()
		c.AddTrack(&models.Track{ID: tu.SeqID(1), Available: true})
		r := NewResolver(tu.NewFakeSession(c), log.New(&bytes.Buffer{}))

		for range 3 {
			if _, err := r.Resolve(ctx, tu.SeqID(1)); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		}
		if c.Calls("track") != 3 {
			t.Errorf("expected 3 fetches, got %d", c.Calls("track"))
		}
	})
}

func TestArtistNames(t *testing.T) {
	ctx := context.Background()
	c := tu.NewCatalog()
	c.AddArtist(tu.SeqID(2), "First")
	c.AddArtist(tu.SeqID(3), "Second")
	s := tu.NewFakeSession(c)

	t.Run("In Order", func(t *testing.T) {
		track := &models.Track{Artists: []models.ID{tu.SeqID(3), tu.SeqID(2)}}
		names, err := ArtistNames(ctx, s, track)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strings.Join(names, "|") != "Second|First" {
			t.Errorf("unexpected names %v", names)
		}
	})

	t.Run("Missing Artist", func(t *testing.T) {
		track := &models.Track{Artists: []models.ID{tu.SeqID(2), tu.SeqID(9)}}
		if _, err := ArtistNames(ctx, s, track); !errors.Is(err, shared.ErrMetadata) {
			t.Errorf("expected ErrMetadata, got %v", err)
		}
	})
}

func TestSelectFile(t *testing.T) {
	f96, f160, f320, mp3 := tu.SeqFileID(96), tu.SeqFileID(160), tu.SeqFileID(32), tu.SeqFileID(3)

	tests := []struct {
		name   string
		files  map[models.FileFormat]models.FileID
		format models.FileFormat
		file   models.FileID
		err    error
	}{
		{"All Tiers", map[models.FileFormat]models.FileID{models.OggVorbis96: f96, models.OggVorbis160: f160, models.OggVorbis320: f320}, models.OggVorbis320, f320, nil},
		{"Two Lower Tiers", map[models.FileFormat]models.FileID{models.OggVorbis96: f96, models.OggVorbis160: f160, models.MP3_320: mp3}, models.OggVorbis160, f160, nil},
		{"Lowest Only", map[models.FileFormat]models.FileID{models.OggVorbis96: f96, models.AAC48: mp3}, models.OggVorbis96, f96, nil},
		{"No Vorbis", map[models.FileFormat]models.FileID{models.MP3_320: mp3, models.AAC24: mp3}, 0, models.FileID{}, shared.ErrNoEncoding},
		{"Empty", nil, 0, models.FileID{}, shared.ErrNoEncoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, file, err := SelectFile(tt.files)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Errorf("expected %v, got %v", tt.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if format != tt.format || file != tt.file {
				t.Errorf("expected %s/%s, got %s/%s", tt.format, tt.file, format, file)
			}
		})
	}
}
