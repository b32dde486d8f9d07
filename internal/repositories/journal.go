package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

// JournalAdapter implements tasks.Journal using [RetrievalRepository].
type JournalAdapter struct {
	repo *RetrievalRepository
}

func NewJournalAdapter(repo *RetrievalRepository) *JournalAdapter {
	return &JournalAdapter{repo: repo}
}

// Seen reports whether ref has a live retrieval.
func (a *JournalAdapter) Seen(_ context.Context, ref models.ID) (bool, error) {
	_, err := a.repo.GetLatestByRequested(ref.Base62())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, shared.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", shared.ErrJournal, err)
	}
}

// Record stores one delivery.
func (a *JournalAdapter) Record(_ context.Context, in models.RetrievalInput) error {
	if err := a.repo.Create(models.NewRetrieval(0, in)); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrJournal, err)
	}
	return nil
}
