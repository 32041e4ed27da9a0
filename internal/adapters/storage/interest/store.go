package interest

import (
	"context"

	domain "voluntrip/internal/domain/interest"
)

// Store persists volunteer interests.
type Store interface {
	// Save inserts an interest.
	// PRE: value has been validated
	Save(ctx context.Context, value domain.Interest) error

	// GetByID retrieves one interest.
	GetByID(ctx context.Context, id string) (domain.Interest, error)

	// ListByOpportunity returns the interests for one opportunity, newest first.
	ListByOpportunity(ctx context.Context, opportunityID string) ([]domain.Interest, error)

	// CountByEmail returns how many interests an address registered for an opportunity.
	CountByEmail(ctx context.Context, opportunityID, email string) (int, error)
}
