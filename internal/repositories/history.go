package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/sidetrack/internal/models"
	"github.com/desertthunder/sidetrack/internal/shared"
)

// HistoryRepository implements models.Repository[*models.DownloadRecord] over
// the downloads table. Every completed backlog item gets one row, including
// repeats of the same track.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts a new [models.DownloadRecord], generating the ID and
// timestamp when unset.
func (r *HistoryRepository) Create(record *models.DownloadRecord) error {
	if record.ID == "" {
		record.ID = shared.GenerateID()
	}
	if record.DownloadedAt.IsZero() {
		record.DownloadedAt = time.Now().UTC()
	}

	if err := record.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO downloads (id, track_id, title, artist, album, destination, outcome, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		record.ID,
		record.TrackID,
		record.Title,
		record.Artist,
		record.Album,
		record.Destination,
		record.Outcome,
		record.DownloadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert download record: %w", err)
	}

	return nil
}

// Get retrieves a download record by ID
func (r *HistoryRepository) Get(id string) (*models.DownloadRecord, error) {
	query := `
		SELECT id, track_id, title, artist, album, destination, outcome, downloaded_at
		FROM downloads
		WHERE id = ?
	`

	record, err := scanRecord(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: download %s", shared.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan download record: %w", err)
	}
	return record, nil
}

// List retrieves download records newest-first, up to limit (0 = all)
func (r *HistoryRepository) List(limit int) ([]*models.DownloadRecord, error) {
	query := `
		SELECT id, track_id, title, artist, album, destination, outcome, downloaded_at
		FROM downloads
		ORDER BY downloaded_at DESC, id DESC
	`

	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query downloads: %w", err)
	}
	defer rows.Close()

	var records []*models.DownloadRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download record: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// CountByTrack returns how many times a track has been downloaded
func (r *HistoryRepository) CountByTrack(trackID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM downloads WHERE track_id = ?", trackID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count downloads: %w", err)
	}
	return count, nil
}

// Delete removes a download record by ID
func (r *HistoryRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM downloads WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete download record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: download %s", shared.ErrItemNotFound, id)
	}

	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*models.DownloadRecord, error) {
	var record models.DownloadRecord
	err := s.Scan(
		&record.ID,
		&record.TrackID,
		&record.Title,
		&record.Artist,
		&record.Album,
		&record.Destination,
		&record.Outcome,
		&record.DownloadedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
