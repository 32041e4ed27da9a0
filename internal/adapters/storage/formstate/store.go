package formstate

import (
	"context"
	"errors"
	"time"

	"voluntrip/internal/domain/pilotform"
)

// Store errors
var (
	ErrNotFound = errors.New("no saved form for visitor")
	ErrCorrupt  = errors.New("saved form is not valid JSON")
)

// Store persists the search form of each visitor.
type Store interface {
	// Get returns the raw saved state. It is not normalized.
	// PRE: visitorID is non-empty
	// POST: Returns ErrNotFound or ErrCorrupt (wrapped) when there is nothing usable
	Get(ctx context.Context, visitorID string) (pilotform.State, error)

	// Save replaces the visitor's state.
	// PRE: visitorID is non-empty
	Save(ctx context.Context, visitorID string, state pilotform.State, now time.Time) error

	// DeleteOlderThan removes forms not touched since cutoff and returns how many.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
