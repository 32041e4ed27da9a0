package interest

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"voluntrip/internal/adapters/storage"
	domain "voluntrip/internal/domain/interest"
)

const dateLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, opportunity_id, opportunity_title, visitor_id, name, email, message,
	date_start, date_end, adults, children, created_at FROM interest`

// SQLiteStore implements the interest Store interface using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new interest store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Save implements Store.
func (s *SQLiteStore) Save(ctx context.Context, i domain.Interest) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interest (id, opportunity_id, opportunity_title, visitor_id, name, email, message,
		   date_start, date_end, adults, children, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		i.ID, i.OpportunityID, i.OpportunityTitle, i.VisitorID, i.Name, i.Email, i.Message,
		i.DateStart, i.DateEnd, i.Adults, i.Children, i.CreatedAt.UTC().Format(dateLayout))
	return err
}

// GetByID implements Store.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Interest, error) {
	return scan(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
}

// ListByOpportunity implements Store.
func (s *SQLiteStore) ListByOpportunity(ctx context.Context, opportunityID string) ([]domain.Interest, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+` WHERE opportunity_id = ? ORDER BY created_at DESC`, opportunityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Interest
	for rows.Next() {
		i, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

// CountByEmail implements Store. Addresses compare case-insensitively.
func (s *SQLiteStore) CountByEmail(ctx context.Context, opportunityID, email string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM interest WHERE opportunity_id = ? AND lower(email) = ?`,
		opportunityID, strings.ToLower(email)).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (domain.Interest, error) {
	var i domain.Interest
	var createdAt string
	err := row.Scan(&i.ID, &i.OpportunityID, &i.OpportunityTitle, &i.VisitorID, &i.Name, &i.Email, &i.Message,
		&i.DateStart, &i.DateEnd, &i.Adults, &i.Children, &createdAt)
	if err != nil {
		return domain.Interest{}, err
	}
	i.CreatedAt, _ = time.Parse(dateLayout, createdAt)
	return i, nil
}

var _ scanner = (*sql.Row)(nil)
