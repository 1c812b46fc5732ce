package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/cratedig/internal/models"
	"github.com/desertthunder/cratedig/internal/shared"
)

// HistoryRepository maintains the per-user time-ordered search history index.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository with the given database connection
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts a record for userID and evicts the oldest rows beyond
// [HistoryCap] in the same transaction.
func (r *HistoryRepository) Append(userID string, rec models.HistoryRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO search_history (id, user_id, search_hash, query, model, result_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, shared.GenerateID(), userID, rec.SearchHash, rec.Query, rec.Model, rec.ResultCount, rec.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM search_history
		WHERE user_id = ? AND id NOT IN (
			SELECT id FROM search_history
			WHERE user_id = ?
			ORDER BY created_at DESC
			LIMIT ?
		)
	`, userID, userID, HistoryCap)
	if err != nil {
		return fmt.Errorf("failed to evict history overflow: %w", err)
	}

	return tx.Commit()
}

// List returns userID's records newest first, at most [HistoryCap] of them.
func (r *HistoryRepository) List(userID string) ([]models.HistoryRecord, error) {
	rows, err := r.db.Query(`
		SELECT search_hash, query, model, result_count, created_at
		FROM search_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, HistoryCap)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []models.HistoryRecord
	for rows.Next() {
		var rec models.HistoryRecord
		if err := rows.Scan(&rec.SearchHash, &rec.Query, &rec.Model, &rec.ResultCount, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}

// Count returns the number of history rows for userID.
func (r *HistoryRepository) Count(userID string) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM search_history WHERE user_id = ?", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}
