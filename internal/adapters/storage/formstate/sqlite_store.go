package formstate

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"voluntrip/internal/adapters/storage"
	"voluntrip/internal/domain/pilotform"
)

// Fixed-width UTC timestamps so updated_at compares as text.
const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore stores each form as one JSON document per visitor.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new form state store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, visitorID string) (pilotform.State, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM form_state WHERE visitor_id = ?`, visitorID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return pilotform.State{}, ErrNotFound
	}
	if err != nil {
		return pilotform.State{}, err
	}
	var st pilotform.State
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return pilotform.State{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return st, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, visitorID string, state pilotform.State, now time.Time) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode form state: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO form_state (visitor_id, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(visitor_id) DO UPDATE SET state=excluded.state, updated_at=excluded.updated_at`,
		visitorID, string(raw), now.UTC().Format(dateLayout))
	return err
}

// DeleteOlderThan implements Store.
func (s *SQLiteStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM form_state WHERE updated_at < ?`, cutoff.UTC().Format(dateLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
