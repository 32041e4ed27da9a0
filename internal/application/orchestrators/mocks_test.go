package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"voluntrip/internal/adapters/storage/formstate"
	"voluntrip/internal/domain/interest"
	"voluntrip/internal/domain/opportunity"
	"voluntrip/internal/domain/outbox"
	"voluntrip/internal/domain/pilotform"
)

// fixedTime is 2026-03-01 12:00 UTC, 12:00 in Lisbon as well.
var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fixedTime }

func fixedID() string { return "test-id-001" }

// sequentialIDs returns a generator of "id-1", "id-2", ...
func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

// mockFormStore implements FormStore for testing.
type mockFormStore struct {
	forms   map[string]pilotform.State
	corrupt map[string]bool
	getErr  error
	saveErr error
	saves   int
}

func newMockFormStore() *mockFormStore {
	return &mockFormStore{forms: make(map[string]pilotform.State), corrupt: make(map[string]bool)}
}

// Get implements FormStore.
// PRE: visitorID is non-empty
// POST: returns the state, ErrNotFound or ErrCorrupt
func (m *mockFormStore) Get(_ context.Context, visitorID string) (pilotform.State, error) {
	if m.getErr != nil {
		return pilotform.State{}, m.getErr
	}
	if m.corrupt[visitorID] {
		return pilotform.State{}, fmt.Errorf("%w: bad json", formstate.ErrCorrupt)
	}
	s, ok := m.forms[visitorID]
	if !ok {
		return pilotform.State{}, formstate.ErrNotFound
	}
	return s, nil
}

// Save implements FormStore.
func (m *mockFormStore) Save(_ context.Context, visitorID string, state pilotform.State, _ time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.forms[visitorID] = state
	delete(m.corrupt, visitorID)
	return nil
}

// mockInterestStore implements InterestStoreForOrchestrator for testing.
type mockInterestStore struct {
	saved []interest.Interest
}

// Save implements InterestStoreForOrchestrator.
func (m *mockInterestStore) Save(_ context.Context, value interest.Interest) error {
	m.saved = append(m.saved, value)
	return nil
}

// CountByEmail implements InterestStoreForOrchestrator.
func (m *mockInterestStore) CountByEmail(_ context.Context, opportunityID, email string) (int, error) {
	n := 0
	for _, in := range m.saved {
		if in.OpportunityID == opportunityID && strings.EqualFold(in.Email, email) {
			n++
		}
	}
	return n, nil
}

// mockOutboxStore implements OutboxWriter and OutboxStoreForProcessor for testing.
type mockOutboxStore struct {
	mu      sync.Mutex
	entries map[string]outbox.Entry
	order   []string
	saveErr error
}

func newMockOutboxStore() *mockOutboxStore {
	return &mockOutboxStore{entries: make(map[string]outbox.Entry)}
}

// GetByID implements OutboxStoreForProcessor.
func (m *mockOutboxStore) GetByID(_ context.Context, id string) (outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return outbox.Entry{}, errors.New("not found")
	}
	return e, nil
}

// Save implements OutboxStoreForProcessor.
func (m *mockOutboxStore) Save(_ context.Context, e outbox.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[e.ID]; !ok {
		m.order = append(m.order, e.ID)
	}
	m.entries[e.ID] = e
	return nil
}

// SaveAll implements OutboxWriter.
func (m *mockOutboxStore) SaveAll(ctx context.Context, entries []outbox.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, e := range entries {
		m.Save(ctx, e)
	}
	return nil
}

// ListPending implements OutboxStoreForProcessor.
func (m *mockOutboxStore) ListPending(_ context.Context, limit int) ([]outbox.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []outbox.Entry
	for _, id := range m.order {
		e := m.entries[id]
		if e.Status == outbox.StatusPending || e.Status == outbox.StatusRetrying {
			out = append(out, e)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// mockCatalog implements OpportunityLookup for testing.
type mockCatalog map[string]opportunity.Opportunity

// ByID implements OpportunityLookup.
func (m mockCatalog) ByID(id string) (opportunity.Opportunity, bool) {
	o, ok := m[id]
	return o, ok
}
