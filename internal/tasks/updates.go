package tasks

import (
	"fmt"

	"github.com/desertthunder/trackrip/internal/models"
)

// ProgressUpdate represents a progress event for one input line.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase     // Pipeline phase
	Ref     models.ID // Requested reference of the line
	Message string    // Human-readable message for display
	Data    any       // Optional phase-specific data
}

// Pipeline phase enumeration
type Phase int

const (
	Resolve Phase = iota
	Artists
	Select
	Fetch
	Dispatch
	Delivered
	Skipped
	Failed
)

func (p Phase) String() string {
	switch p {
	case Resolve:
		return "resolve"
	case Artists:
		return "artists"
	case Select:
		return "select"
	case Fetch:
		return "fetch"
	case Dispatch:
		return "dispatch"
	case Delivered:
		return "delivered"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether the phase ends a line.
func (p Phase) Terminal() bool {
	return p == Delivered || p == Skipped || p == Failed
}

func resolveUpdate(ref models.ID) ProgressUpdate {
	return ProgressUpdate{Phase: Resolve, Ref: ref, Message: fmt.Sprintf("Resolving %s...", ref)}
}

func artistsUpdate(ref models.ID, track *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Artists,
		Ref:     ref,
		Message: fmt.Sprintf("Fetching %d artists of %s...", len(track.Artists), track.Name),
		Data:    track,
	}
}

func selectUpdate(ref models.ID, format models.FileFormat) ProgressUpdate {
	return ProgressUpdate{Phase: Select, Ref: ref, Message: fmt.Sprintf("Selected %s", format), Data: format}
}

func fetchUpdate(ref models.ID, file models.FileID) ProgressUpdate {
	return ProgressUpdate{Phase: Fetch, Ref: ref, Message: fmt.Sprintf("Fetching file %s...", file.Hex())}
}

func dispatchUpdate(ref models.ID, mode models.DeliveryMode, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Dispatch,
		Ref:     ref,
		Message: fmt.Sprintf("Dispatching %d bytes (%s)...", size, mode),
	}
}

func deliveredUpdate(ref models.ID, result *Result) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Delivered,
		Ref:     ref,
		Message: fmt.Sprintf("✓ %s - %s", result.ArtistLine(), result.Track.Name),
		Data:    result,
	}
}

func skippedUpdate(ref models.ID) ProgressUpdate {
	return ProgressUpdate{Phase: Skipped, Ref: ref, Message: fmt.Sprintf("Skipping %s (already retrieved)", ref)}
}

func failedUpdate(ref models.ID, err error) ProgressUpdate {
	return ProgressUpdate{Phase: Failed, Ref: ref, Message: fmt.Sprintf("✗ %s: %v", ref, err), Data: err}
}
