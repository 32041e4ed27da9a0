package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voluntrip/internal/adapters/metrics"
	"voluntrip/internal/adapters/storage/formstate"
	"voluntrip/internal/application/events"
	"voluntrip/internal/domain/daterange"
	"voluntrip/internal/domain/pilotform"
)

// FormStore is the subset of formstate.Store the form orchestrators use.
type FormStore interface {
	Get(ctx context.Context, visitorID string) (pilotform.State, error)
	Save(ctx context.Context, visitorID string, state pilotform.State, now time.Time) error
}

var _ FormStore = (formstate.Store)(nil)

// --- Load Form ---

// LoadFormInput carries input for loading a visitor's search form.
type LoadFormInput struct {
	VisitorID string
}

// LoadFormDeps holds dependencies for LoadForm.
type LoadFormDeps struct {
	FormStore       FormStore
	DefaultLocation string
}

// ExecuteLoadForm returns the visitor's saved form, normalized.
// A visitor with nothing saved, or with an unreadable row, gets the defaults.
// PRE: none; an empty VisitorID yields the defaults
// POST: the returned State satisfies the pilotform.State invariant
func ExecuteLoadForm(ctx context.Context, input LoadFormInput, deps LoadFormDeps) (pilotform.State, error) {
	if input.VisitorID == "" {
		return pilotform.Defaults(deps.DefaultLocation), nil
	}
	st, err := deps.FormStore.Get(ctx, input.VisitorID)
	switch {
	case errors.Is(err, formstate.ErrNotFound):
		return pilotform.Defaults(deps.DefaultLocation), nil
	case errors.Is(err, formstate.ErrCorrupt):
		slog.Warn("form_event", "event", "form_state_corrupt", "visitor_id", input.VisitorID, "error", err.Error())
		return pilotform.Defaults(deps.DefaultLocation), nil
	case err != nil:
		return pilotform.State{}, fmt.Errorf("load form: %w", err)
	}
	return pilotform.Normalize(st, deps.DefaultLocation), nil
}

// --- Save Form ---

// SaveFormInput carries one post of the search form.
type SaveFormInput struct {
	VisitorID string
	Fields    pilotform.Input
	Submit    bool // false: persist the field changes only
}

// SaveFormDeps holds dependencies for SaveForm.
type SaveFormDeps struct {
	FormStore       FormStore
	Bus             *events.Bus
	Metrics         *metrics.Metrics
	Now             func() time.Time
	Location        *time.Location
	DefaultLocation string
}

// SaveFormResult is the form after the post.
type SaveFormResult struct {
	State   pilotform.State
	Summary string
	EndMin  string // earliest end date the form accepts
	Today   string
}

// ExecuteSaveForm merges a post into the visitor's form and persists it.
// A submit is validated first; an invalid submit is not persisted and returns the
// merged state together with the validation error so the form can be re-shown.
// PRE: VisitorID is non-empty
// POST: on success the merged state is saved; a submit publishes filters_changed
func ExecuteSaveForm(ctx context.Context, input SaveFormInput, deps SaveFormDeps) (SaveFormResult, error) {
	if input.VisitorID == "" {
		return SaveFormResult{}, errors.New("visitor ID is required")
	}
	current, err := ExecuteLoadForm(ctx, LoadFormInput{VisitorID: input.VisitorID}, LoadFormDeps{
		FormStore:       deps.FormStore,
		DefaultLocation: deps.DefaultLocation,
	})
	if err != nil {
		return SaveFormResult{}, err
	}

	merged := current.Merge(input.Fields, deps.DefaultLocation)
	today := daterange.TodayIn(deps.Location, deps.Now)().ISO()
	result := SaveFormResult{
		State:   merged,
		Summary: merged.Summary(),
		EndMin:  pilotform.EndMin(merged.DateStart, today),
		Today:   today,
	}

	if input.Submit {
		if err := pilotform.ValidateSubmit(input.Fields, merged, today); err != nil {
			deps.Metrics.FormSubmitted("invalid")
			slog.Info("form_event", "event", "form_submit_rejected", "visitor_id", input.VisitorID, "reason", err.Error())
			return result, err
		}
	}

	if err := deps.FormStore.Save(ctx, input.VisitorID, merged, deps.Now()); err != nil {
		return SaveFormResult{}, fmt.Errorf("save form: %w", err)
	}

	if input.Submit {
		deps.Metrics.FormSubmitted("ok")
		deps.Bus.Publish(events.Event{
			Topic:     events.TopicFiltersChanged,
			VisitorID: input.VisitorID,
			DateStart: merged.DateStart,
			DateEnd:   merged.DateEnd,
			Summary:   result.Summary,
		})
		slog.Info("form_event", "event", "form_submitted", "visitor_id", input.VisitorID,
			"adults", merged.Adults, "children", merged.Children)
	}
	return result, nil
}

// --- Prune Forms ---

// FormPruner deletes forms that have not been touched for a while.
type FormPruner interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// PruneFormsDeps holds dependencies for PruneForms.
type PruneFormsDeps struct {
	FormStore FormPruner
	MaxAge    time.Duration // the visitor cookie lifetime; older forms are unreachable
	Now       func() time.Time
}

// ExecutePruneForms removes forms whose visitor cookie has expired.
// PRE: MaxAge > 0
// POST: forms saved before Now-MaxAge are gone
func ExecutePruneForms(ctx context.Context, deps PruneFormsDeps) (int64, error) {
	if deps.MaxAge <= 0 {
		return 0, errors.New("max age must be positive")
	}
	cutoff := deps.Now().Add(-deps.MaxAge)
	n, err := deps.FormStore.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune forms: %w", err)
	}
	if n > 0 {
		slog.Info("form_event", "event", "forms_pruned", "count", n, "cutoff", cutoff.Format(time.RFC3339))
	}
	return n, nil
}

var _ FormPruner = (formstate.Store)(nil)
