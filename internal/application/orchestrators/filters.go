package orchestrators

import (
	"context"
	"log/slog"

	"voluntrip/internal/application/events"
	"voluntrip/internal/domain/opportunity"
)

// ApplyFiltersInput carries the raw rail filter values from the query string.
type ApplyFiltersInput struct {
	VisitorID string
	Language  string
	Duration  string
}

// ApplyFiltersDeps holds dependencies for ApplyFilters.
type ApplyFiltersDeps struct {
	Bus *events.Bus
}

// ExecuteApplyFilters parses the rail filters and announces a non-default choice.
// Unknown values fall back to "any".
// POST: filters_changed is published only when at least one filter is set
func ExecuteApplyFilters(_ context.Context, input ApplyFiltersInput, deps ApplyFiltersDeps) opportunity.Filters {
	f := opportunity.ParseFilters(input.Language, input.Duration)
	if f.IsDefault() {
		return f
	}
	deps.Bus.Publish(events.Event{
		Topic:     events.TopicFiltersChanged,
		VisitorID: input.VisitorID,
		Language:  f.Language,
		Duration:  f.Duration,
	})
	slog.Debug("filter_event", "event", "filters_applied", "visitor_id", input.VisitorID,
		"language", f.Language, "duration", f.Duration)
	return f
}
