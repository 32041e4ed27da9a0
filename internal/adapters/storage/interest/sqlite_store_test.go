package interest

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"voluntrip/internal/adapters/storage"
	domain "voluntrip/internal/domain/interest"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewSQLiteStore(db)
}

// TestSQLiteStore_SaveAndList tests insert, lookup and ordering.
func TestSQLiteStore_SaveAndList(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	first := domain.Interest{ID: "i1", OpportunityID: "n1", OpportunityTitle: "Beach", Name: "Ana", Email: "ana@example.pt",
		DateStart: "2026-03-05", DateEnd: "2026-03-10", Adults: 2, Children: 1, CreatedAt: t0}
	second := domain.Interest{ID: "i2", OpportunityID: "n1", Name: "Rui", Email: "rui@example.pt", Adults: 1, CreatedAt: t0.Add(time.Hour)}
	other := domain.Interest{ID: "i3", OpportunityID: "s1", Name: "Eva", Email: "eva@example.pt", Adults: 1, CreatedAt: t0}
	for _, i := range []domain.Interest{first, second, other} {
		if err := s.Save(ctx, i); err != nil {
			t.Fatalf("Save(%s): %v", i.ID, err)
		}
	}

	got, err := s.GetByID(ctx, "i1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Ana" || got.DateEnd != "2026-03-10" || got.Children != 1 || !got.CreatedAt.Equal(t0) {
		t.Errorf("GetByID = %+v", got)
	}

	list, err := s.ListByOpportunity(ctx, "n1")
	if err != nil {
		t.Fatalf("ListByOpportunity: %v", err)
	}
	if len(list) != 2 || list[0].ID != "i2" || list[1].ID != "i1" {
		t.Errorf("ListByOpportunity = %+v", list)
	}

	if _, err := s.GetByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetByID(missing) = %v", err)
	}
}

// TestSQLiteStore_CountByEmail tests case-insensitive duplicate detection.
func TestSQLiteStore_CountByEmail(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	s.Save(ctx, domain.Interest{ID: "i1", OpportunityID: "n1", Name: "Ana", Email: "Ana@Example.pt", CreatedAt: time.Now()})

	n, err := s.CountByEmail(ctx, "n1", "ana@example.PT")
	if err != nil {
		t.Fatalf("CountByEmail: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if n, _ := s.CountByEmail(ctx, "s1", "ana@example.pt"); n != 0 {
		t.Errorf("count for other opportunity = %d", n)
	}
}
