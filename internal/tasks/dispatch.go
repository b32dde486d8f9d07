package tasks

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

// Delivery is one decrypted track ready to leave the pipeline.
type Delivery struct {
	Requested models.ID
	Track     *models.Track
	Artists   []string
	Album     *models.Album // nil unless the dispatcher needs it
	Payload   []byte
}

// Dispatcher hands a [Delivery] to its destination and returns a description of where it went.
type Dispatcher interface {
	Dispatch(ctx context.Context, d Delivery) (string, error)
	// NeedsAlbum reports whether album metadata must be fetched before dispatch.
	NeedsAlbum() bool
	Mode() models.DeliveryMode
}

var unsafeFileChars = regexp.MustCompile(`[/\\\x00-\x1f\x7f]`)

// FileName builds "<artists> - <name>.ogg" with path separators and control characters replaced by '_'.
func FileName(artists []string, name string) string {
	base := strings.Join(artists, models.ArtistSeparator) + " - " + name
	return unsafeFileChars.ReplaceAllString(base, "_") + ".ogg"
}

// FileDispatcher writes each payload to a file in a directory.
type FileDispatcher struct {
	dir    string
	logger *log.Logger
}

// NewFileDispatcher creates a [FileDispatcher] writing into dir, "." when empty.
func NewFileDispatcher(dir string, logger *log.Logger) *FileDispatcher {
	if dir == "" {
		dir = "."
	}
	return &FileDispatcher{dir: dir, logger: logger}
}

func (f *FileDispatcher) NeedsAlbum() bool { return false }
func (f *FileDispatcher) Mode() models.DeliveryMode { return models.DeliveryFile }

// Dispatch writes the payload, replacing any existing file of the same name.
func (f *FileDispatcher) Dispatch(_ context.Context, d Delivery) (string, error) {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrDispatchFailed, err)
	}

	path := filepath.Join(f.dir, FileName(d.Artists, d.Track.Name))
	f.logger.Info("writing track", "file", path)
	if err := os.WriteFile(path, d.Payload, 0644); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrDispatchFailed, err)
	}
	return path, nil
}

// HelperDispatcher pipes each payload into an external program.
//
// The program is called with the requested id, track name, album name, album date and then each artist name
// as arguments. Its stdout and stderr go to Stdout and Stderr.
type HelperDispatcher struct {
	path   string
	Stdout io.Writer
	Stderr io.Writer
	logger *log.Logger
}

func NewHelperDispatcher(path string, logger *log.Logger) *HelperDispatcher {
	return &HelperDispatcher{path: path, Stdout: os.Stdout, Stderr: os.Stderr, logger: logger}
}

func (h *HelperDispatcher) NeedsAlbum() bool { return true }
func (h *HelperDispatcher) Mode() models.DeliveryMode { return models.DeliveryHelper }

// HelperArgs returns the argument list passed to the helper for d.
func HelperArgs(d Delivery) []string {
	args := []string{d.Requested.Base62(), d.Track.Name, "", ""}
	if d.Album != nil {
		args[2], args[3] = d.Album.Name, d.Album.Date.String()
	}
	return append(args, d.Artists...)
}

// Dispatch runs the helper, writes the whole payload to its stdin and waits for it to exit.
func (h *HelperDispatcher) Dispatch(ctx context.Context, d Delivery) (string, error) {
	cmd := exec.CommandContext(ctx, h.path, HelperArgs(d)...)
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrHelperFailed, err)
	}

	h.logger.Debug("running helper", "helper", h.path, "args", cmd.Args[1:])
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("%w: could not run %s: %v", shared.ErrHelperFailed, h.path, err)
	}

	_, writeErr := stdin.Write(d.Payload)
	closeErr := stdin.Close()

	if err := cmd.Wait(); err != nil {
		return "", fmt.Errorf("%w: %s: %v", shared.ErrHelperFailed, h.path, err)
	}
	if writeErr != nil {
		return "", fmt.Errorf("%w: failed to write to stdin: %v", shared.ErrHelperFailed, writeErr)
	}
	if closeErr != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrHelperFailed, closeErr)
	}
	return h.path, nil
}
