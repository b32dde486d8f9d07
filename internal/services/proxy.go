// Catalog proxy [Session] implementation
//
// Communicates with an HTTP proxy fronting the catalog. Results are produced on background
// goroutines and handed over through the session's event loop.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/reactor"
	"github.com/desertthunder/trackrip/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const userHeader = "X-Catalog-User"

type proxyRef struct {
	GID  string `json:"gid"`
	Name string `json:"name,omitempty"`
}

type proxyFile struct {
	FileID string `json:"file_id"`
	Format string `json:"format"`
}

// proxyTrack mirrors the catalog track message.
type proxyTrack struct {
	GID         string      `json:"gid"`
	Name        string      `json:"name"`
	Artist      []proxyRef  `json:"artist"`
	Album       proxyRef    `json:"album"`
	Available   bool        `json:"available"`
	Alternative []proxyRef  `json:"alternative,omitempty"`
	File        []proxyFile `json:"file,omitempty"`
}

type proxyArtist struct {
	GID  string `json:"gid"`
	Name string `json:"name"`
}

type proxyDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"`
	Day   int `json:"day,omitempty"`
}

type proxyAlbum struct {
	GID  string    `json:"gid"`
	Name string    `json:"name"`
	Date proxyDate `json:"date"`
}

type proxyKey struct {
	Key string `json:"key"`
}

// ProxySession implements [Session] over the catalog proxy HTTP API.
type ProxySession struct {
	baseURL    string
	username   string
	chunkSize  int64
	httpClient *http.Client
	limiter    *rate.Limiter
	loop       *reactor.Loop
	logger     *log.Logger
}

// Connect authenticates against the proxy and returns a ready session bound to loop.
func Connect(ctx context.Context, cfg shared.SessionConfig, creds *shared.Credentials, loop *reactor.Loop, logger *log.Logger) (*ProxySession, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.Token, TokenType: "Bearer"})
	client := oauth2.NewClient(ctx, src)
	client.Timeout = cfg.RequestTimeout()

	s := &ProxySession{
		baseURL:    strings.TrimRight(cfg.ProxyURL, "/"),
		username:   creds.Username,
		chunkSize:  cfg.ChunkSize,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		loop:       loop,
		logger:     logger,
	}

	if err := s.getJSON(ctx, "/health", shared.ErrAuthFailed, nil); err != nil {
		if errors.Is(err, shared.ErrAuthFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrConnectionFailed, err)
	}

	return s, nil
}

// Loop returns the event loop results are delivered on.
func (s *ProxySession) Loop() *reactor.Loop {
	return s.loop
}

// Close drops idle proxy connections.
func (s *ProxySession) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}

// Track fetches GET /metadata/track/{hex}.
func (s *ProxySession) Track(ctx context.Context, id models.ID) *reactor.Future[*models.Track] {
	return reactor.Go(s.loop, func() (*models.Track, error) {
		var doc proxyTrack
		if err := s.getJSON(ctx, "/metadata/track/"+id.Hex(), nil, &doc); err != nil {
			return nil, fmt.Errorf("track %s: %w", id, err)
		}
		return doc.toModel()
	})
}

// Artist fetches GET /metadata/artist/{hex}.
func (s *ProxySession) Artist(ctx context.Context, id models.ID) *reactor.Future[*models.Artist] {
	return reactor.Go(s.loop, func() (*models.Artist, error) {
		var doc proxyArtist
		if err := s.getJSON(ctx, "/metadata/artist/"+id.Hex(), nil, &doc); err != nil {
			return nil, fmt.Errorf("artist %s: %w", id, err)
		}
		return &models.Artist{ID: id, Name: doc.Name}, nil
	})
}

// Album fetches GET /metadata/album/{hex}.
func (s *ProxySession) Album(ctx context.Context, id models.ID) *reactor.Future[*models.Album] {
	return reactor.Go(s.loop, func() (*models.Album, error) {
		var doc proxyAlbum
		if err := s.getJSON(ctx, "/metadata/album/"+id.Hex(), nil, &doc); err != nil {
			return nil, fmt.Errorf("album %s: %w", id, err)
		}
		return &models.Album{
			ID:   id,
			Name: doc.Name,
			Date: models.Date{Year: doc.Date.Year, Month: doc.Date.Month, Day: doc.Date.Day},
		}, nil
	})
}

// AudioKey fetches GET /audio-key/{track hex}/{file hex}. A 403 maps to [shared.ErrKeyDenied].
func (s *ProxySession) AudioKey(ctx context.Context, track models.ID, file models.FileID) *reactor.Future[models.AudioKey] {
	return reactor.Go(s.loop, func() (models.AudioKey, error) {
		var doc proxyKey
		endpoint := fmt.Sprintf("/audio-key/%s/%s", track.Hex(), file.Hex())
		if err := s.getJSON(ctx, endpoint, shared.ErrKeyDenied, &doc); err != nil {
			return models.AudioKey{}, err
		}
		key, err := models.AudioKeyFromHex(doc.Key)
		if err != nil {
			return models.AudioKey{}, fmt.Errorf("%w: %v", shared.ErrKeyDenied, err)
		}
		return key, nil
	})
}

// OpenStream fetches the first chunk of GET /storage/{file hex}, then keeps pulling ranges in the background.
func (s *ProxySession) OpenStream(ctx context.Context, file models.FileID) *reactor.Future[io.Reader] {
	f := reactor.NewFuture[io.Reader](s.loop)
	go func() {
		first, total, err := s.fetchRange(ctx, file, 0)
		if err != nil {
			f.Complete(nil, fmt.Errorf("%w: %v", shared.ErrStreamFailed, err))
			return
		}

		stream := reactor.NewStream(s.loop, total)
		stream.Push(first)
		f.Complete(stream, nil)
		s.pump(ctx, file, stream, int64(len(first)), total)
	}()
	return f
}

func (s *ProxySession) pump(ctx context.Context, file models.FileID, stream *reactor.Stream, offset, total int64) {
	for offset < total {
		chunk, size, err := s.fetchRange(ctx, file, offset)
		if err != nil {
			stream.Finish(fmt.Errorf("%w: offset %d: %v", shared.ErrStreamFailed, offset, err))
			return
		}
		if size != total {
			stream.Finish(fmt.Errorf("%w: file size changed from %d to %d at offset %d", shared.ErrStreamFailed, total, size, offset))
			return
		}
		if len(chunk) == 0 {
			stream.Finish(fmt.Errorf("%w: empty chunk at offset %d", shared.ErrStreamFailed, offset))
			return
		}
		stream.Push(chunk)
		offset += int64(len(chunk))
	}
	stream.Finish(nil)
}

// fetchRange reads one chunk starting at offset and returns it with the total file size.
func (s *ProxySession) fetchRange(ctx context.Context, file models.FileID, offset int64) ([]byte, int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/storage/"+file.Hex(), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+s.chunkSize-1))
	req.Header.Set(userHeader, s.username)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, nil); err != nil {
		return nil, 0, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read chunk: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		if offset != 0 {
			return nil, 0, fmt.Errorf("proxy ignored range at offset %d", offset)
		}
		return body, int64(len(body)), nil
	}

	var start, end, total int64
	if _, err := fmt.Sscanf(resp.Header.Get("Content-Range"), "bytes %d-%d/%d", &start, &end, &total); err != nil {
		return nil, 0, fmt.Errorf("bad Content-Range %q: %w", resp.Header.Get("Content-Range"), err)
	}
	if start != offset {
		return nil, 0, fmt.Errorf("range starts at %d, requested %d", start, offset)
	}

	s.logger.Debug("fetched chunk", "file", file.Hex(), "offset", offset, "size", len(body), "total", total)
	return body, total, nil
}

// getJSON performs a rate limited GET and decodes the response into result when non-nil.
func (s *ProxySession) getJSON(ctx context.Context, endpoint string, forbidden error, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(userHeader, s.username)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	if err := statusError(resp, forbidden); err != nil {
		return err
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	s.logger.Debug("proxy request", "endpoint", endpoint, "status", resp.StatusCode)
	return nil
}

// statusError maps a non-2xx response to a sentinel error. forbidden, when set, replaces the 403 mapping.
func statusError(resp *http.Response, forbidden error) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	sentinel := shared.ErrAPIRequest
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		sentinel = shared.ErrAuthFailed
	case http.StatusForbidden:
		if forbidden != nil {
			sentinel = forbidden
		}
	case http.StatusNotFound:
		sentinel = shared.ErrNotFound
	case http.StatusServiceUnavailable:
		sentinel = shared.ErrServiceUnavailable
	}

	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
		return fmt.Errorf("%w (status %d): %s", sentinel, resp.StatusCode, errResp.Detail)
	}
	return fmt.Errorf("%w: status %d", sentinel, resp.StatusCode)
}

func (t proxyTrack) toModel() (*models.Track, error) {
	id, err := models.IDFromHex(t.GID)
	if err != nil {
		return nil, fmt.Errorf("track gid: %w", err)
	}

	track := &models.Track{
		ID:        id,
		Name:      t.Name,
		Available: t.Available,
		Files:     make(map[models.FileFormat]models.FileID, len(t.File)),
	}

	for _, a := range t.Artist {
		artist, err := models.IDFromHex(a.GID)
		if err != nil {
			return nil, fmt.Errorf("artist gid: %w", err)
		}
		track.Artists = append(track.Artists, artist)
	}

	if t.Album.GID != "" {
		if track.Album, err = models.IDFromHex(t.Album.GID); err != nil {
			return nil, fmt.Errorf("album gid: %w", err)
		}
	}

	for _, a := range t.Alternative {
		alt, err := models.IDFromHex(a.GID)
		if err != nil {
			return nil, fmt.Errorf("alternative gid: %w", err)
		}
		track.Alternatives = append(track.Alternatives, alt)
	}

	for _, f := range t.File {
		format, ok := models.ParseFileFormat(f.Format)
		if !ok {
			continue
		}
		fileID, err := models.FileIDFromHex(f.FileID)
		if err != nil {
			return nil, fmt.Errorf("file id: %w", err)
		}
		track.Files[format] = fileID
	}

	return track, nil
}
