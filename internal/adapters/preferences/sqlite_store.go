package preferences

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zatekoja/adminconsole/internal/domain/entities"
)

// SQLiteSortStore keeps preferences in the console's local database
type SQLiteSortStore struct {
	db *sql.DB
}

// NewSQLiteSortStore creates the preferences table when missing
func NewSQLiteSortStore(ctx context.Context, db *sql.DB) (*SQLiteSortStore, error) {
	schema := `
	CREATE TABLE IF NOT EXISTS sort_preferences (
		list_id TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to create sort_preferences table: %w", err)
	}
	return &SQLiteSortStore{db: db}, nil
}

// Load implements providers.SortStore
func (s *SQLiteSortStore) Load(ctx context.Context, listID string) (*entities.SortState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sort_preferences WHERE list_id = ?`, listID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sort preference: %w", err)
	}
	return decodeSort([]byte(raw))
}

// Save implements providers.SortStore
func (s *SQLiteSortStore) Save(ctx context.Context, listID string, state entities.SortState) error {
	raw, err := encodeSort(state)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sort_preferences (list_id, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(list_id) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		listID, string(raw),
	)
	if err != nil {
		return fmt.Errorf("failed to write sort preference: %w", err)
	}
	return nil
}
