package testing

import (
	"fmt"
	"sync"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

// Catalog is an in-memory catalog shared by [FakeSession] and [NewProxyServer].
type Catalog struct {
	mu      sync.Mutex
	tracks  map[models.ID]*models.Track
	artists map[models.ID]*models.Artist
	albums  map[models.ID]*models.Album
	keys    map[models.FileID]models.AudioKey
	files   map[models.FileID][]byte
	denied  map[models.FileID]bool
	calls   map[string]int
}

// NewCatalog creates an empty [Catalog].
func NewCatalog() *Catalog {
	return &Catalog{
		tracks:  make(map[models.ID]*models.Track),
		artists: make(map[models.ID]*models.Artist),
		albums:  make(map[models.ID]*models.Album),
		keys:    make(map[models.FileID]models.AudioKey),
		files:   make(map[models.FileID][]byte),
		denied:  make(map[models.FileID]bool),
		calls:   make(map[string]int),
	}
}

// SeqID returns a deterministic non-zero id built from n.
func SeqID(n byte) models.ID {
	var id models.ID
	id[0] = 0x10
	id[15] = n
	return id
}

// SeqFileID returns a deterministic file id built from n.
func SeqFileID(n byte) models.FileID {
	var id models.FileID
	id[0] = 0xf0
	id[19] = n
	return id
}

// SeqKey returns a deterministic audio key built from n.
func SeqKey(n byte) models.AudioKey {
	var key models.AudioKey
	for i := range key {
		key[i] = n + byte(i)
	}
	return key
}

func (c *Catalog) AddTrack(t *models.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracks[t.ID] = t
}

func (c *Catalog) AddArtist(id models.ID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.artists[id] = &models.Artist{ID: id, Name: name}
}

func (c *Catalog) AddAlbum(a *models.Album) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.albums[a.ID] = a
}

// AddFile stores encrypted bytes and the key that decrypts them.
func (c *Catalog) AddFile(file models.FileID, key models.AudioKey, encrypted []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[file] = key
	c.files[file] = encrypted
}

// DenyKey makes key requests for file fail.
func (c *Catalog) DenyKey(file models.FileID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denied[file] = true
}

// Calls returns how many times an operation ("track", "artist", "album", "key", "stream") was served.
func (c *Catalog) Calls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func (c *Catalog) Track(id models.ID) (*models.Track, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["track"]++
	t, ok := c.tracks[id]
	if !ok {
		return nil, fmt.Errorf("%w: track %s", shared.ErrNotFound, id)
	}
	return t, nil
}

func (c *Catalog) Artist(id models.ID) (*models.Artist, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["artist"]++
	a, ok := c.artists[id]
	if !ok {
		return nil, fmt.Errorf("%w: artist %s", shared.ErrNotFound, id)
	}
	return a, nil
}

func (c *Catalog) Album(id models.ID) (*models.Album, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["album"]++
	a, ok := c.albums[id]
	if !ok {
		return nil, fmt.Errorf("%w: album %s", shared.ErrNotFound, id)
	}
	return a, nil
}

func (c *Catalog) Key(file models.FileID) (models.AudioKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["key"]++
	if c.denied[file] {
		return models.AudioKey{}, fmt.Errorf("%w: file %s", shared.ErrKeyDenied, file.Hex())
	}
	key, ok := c.keys[file]
	if !ok {
		return models.AudioKey{}, fmt.Errorf("%w: file %s", shared.ErrKeyDenied, file.Hex())
	}
	return key, nil
}

func (c *Catalog) File(file models.FileID) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["stream"]++
	data, ok := c.files[file]
	if !ok {
		return nil, fmt.Errorf("%w: file %s", shared.ErrNotFound, file.Hex())
	}
	return data, nil
}
