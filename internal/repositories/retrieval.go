package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/trackrip/internal/models"
	"github.com/desertthunder/trackrip/internal/shared"
)

const retrievalColumns = `id, sequence, requested, track_id, name, artists, album, format, file_id, destination, mode, size, created_at, updated_at, deleted_at`

// RetrievalRepository implements models.Repository[*models.Retrieval].
type RetrievalRepository struct {
	db *sql.DB
}

func NewRetrievalRepository(db *sql.DB) *RetrievalRepository {
	return &RetrievalRepository{db: db}
}

// Create inserts a new [models.Retrieval] with a generated ID and sequence.
func (r *RetrievalRepository) Create(ret *models.Retrieval) error {
	if err := ret.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "retrievals")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO retrievals (id, sequence, requested, track_id, name, artists, album, format, file_id, destination, mode, size, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		ret.Requested(),
		ret.TrackID(),
		ret.Name(),
		ret.ArtistLine(),
		ret.Album(),
		ret.Format(),
		ret.FileID(),
		ret.Destination(),
		string(ret.Mode()),
		ret.Size(),
		ret.CreatedAt(),
		ret.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert retrieval: %w", err)
	}

	ret.SetID(id)
	ret.SetSequence(sequence)
	return nil
}

// Get retrieves a retrieval by ID, excluding soft-deleted rows
func (r *RetrievalRepository) Get(id string) (*models.Retrieval, error) {
	query := `SELECT ` + retrievalColumns + ` FROM retrievals WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetLatestByRequested returns the most recent retrieval of a requested reference (base-62).
func (r *RetrievalRepository) GetLatestByRequested(requested string) (*models.Retrieval, error) {
	query := `
		SELECT ` + retrievalColumns + `
		FROM retrievals
		WHERE requested = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(query, requested))
}

// Delete soft-deletes a retrieval by ID
func (r *RetrievalRepository) Delete(id string) error {
	query := `
		UPDATE retrievals
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete retrieval: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: retrieval %s", shared.ErrNotFound, id)
	}

	return nil
}

// List retrieves retrievals newest first.
//
// Supported criteria: "requested", "track" and "format" (string equality) and "limit" (int, 0 for all).
func (r *RetrievalRepository) List(criteria map[string]any) ([]*models.Retrieval, error) {
	query := `SELECT ` + retrievalColumns + ` FROM retrievals WHERE deleted_at IS NULL`
	args := []any{}

	for key, column := range map[string]string{"requested": "requested", "track": "track_id", "format": "format"} {
		if v, ok := criteria[key].(string); ok && v != "" {
			query += " AND " + column + " = ?"
			args = append(args, v)
		}
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query retrievals: %w", err)
	}
	defer rows.Close()

	var out []*models.Retrieval
	for rows.Next() {
		ret, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ret)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scan reads one row selected with retrievalColumns
func (r *RetrievalRepository) scan(row rowScanner) (*models.Retrieval, error) {
	var (
		id          string
		sequence    int
		requested   string
		trackID     string
		name        string
		artists     string
		album       string
		format      string
		fileID      string
		destination string
		mode        string
		size        int
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &requested, &trackID, &name, &artists, &album, &format, &fileID, &destination, &mode, &size, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: retrieval", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan retrieval: %w", err)
	}

	ret := models.RestoreRetrieval(id, sequence, requested, trackID, name, artists, album, format, fileID, destination, mode, size, createdAt, updatedAt)
	if deletedAt.Valid {
		ret.SetDeletedAt(&deletedAt.Time)
	}
	return ret, nil
}
