package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"voluntrip/internal/adapters/metrics"
	"voluntrip/internal/application/events"
	"voluntrip/internal/domain/daterange"
	"voluntrip/internal/domain/pilotform"
)

// Picker actions.
const (
	PickerOpen   = "open"
	PickerNav    = "nav"
	PickerSelect = "select"
	PickerClear  = "clear"
	PickerApply  = "apply"
)

// ErrUnknownPickerAction is returned for an action outside the list above.
var ErrUnknownPickerAction = errors.New("unknown picker action")

// PickerInput is one interaction with the date picker. The picker keeps no state
// between requests: Start, End, Year and Month carry the in-progress selection
// and window from the previous render.
type PickerInput struct {
	VisitorID string
	Action    string
	Start     string // in-progress selection, ISO or ""
	End       string
	Year      int // first visible month; zero when unknown
	Month     time.Month
	Delta     int    // nav: months to move
	Day       string // select: ISO of the clicked day
}

// PickerDeps holds dependencies for PickerAction.
type PickerDeps struct {
	FormStore       FormStore
	Bus             *events.Bus
	Metrics         *metrics.Metrics
	Now             func() time.Time
	Location        *time.Location
	DefaultLocation string
}

// PickerResult is the picker after the action.
type PickerResult struct {
	View      daterange.View
	Display   string
	Mode      daterange.DisplayMode
	Accepted  bool // false when a select hit a disabled or malformed day
	Committed bool // apply or clear wrote through to the form
	Form      pilotform.State
}

// ExecutePickerAction runs one picker action against the visitor's form.
// Open syncs from the saved dates; nav and select only move the carried
// selection; apply and clear persist the dates and publish dates_changed.
// PRE: VisitorID is non-empty for apply and clear
// POST: Display and Mode always reflect the saved dates
func ExecutePickerAction(ctx context.Context, input PickerInput, deps PickerDeps) (PickerResult, error) {
	form, err := ExecuteLoadForm(ctx, LoadFormInput{VisitorID: input.VisitorID}, LoadFormDeps{
		FormStore:       deps.FormStore,
		DefaultLocation: deps.DefaultLocation,
	})
	if err != nil {
		return PickerResult{}, err
	}

	start := &daterange.StringField{V: form.DateStart}
	end := &daterange.StringField{V: form.DateEnd}
	display := &daterange.TextDisplay{}
	sel := daterange.NewSelector(start, end, display, daterange.TodayIn(deps.Location, deps.Now))

	var change *daterange.Change
	sel.Subscribe(func(c daterange.Change) { change = &c })

	res := PickerResult{Accepted: true}
	switch input.Action {
	case PickerOpen, "":
		sel.Open()
	case PickerNav:
		restorePicker(sel, input)
		sel.Navigate(input.Delta)
	case PickerSelect:
		restorePicker(sel, input)
		d, ok := daterange.ParseISO(input.Day)
		res.Accepted = ok && sel.SelectDay(d)
	case PickerClear:
		restorePicker(sel, input)
		sel.Clear()
	case PickerApply:
		restorePicker(sel, input)
		sel.Apply()
	default:
		deps.Metrics.PickerAction("unknown", "rejected")
		return PickerResult{}, fmt.Errorf("%w: %q", ErrUnknownPickerAction, input.Action)
	}

	if change != nil {
		if input.VisitorID == "" {
			return PickerResult{}, errors.New("visitor ID is required")
		}
		form.DateStart = start.V
		form.DateEnd = end.V
		if err := deps.FormStore.Save(ctx, input.VisitorID, form, deps.Now()); err != nil {
			return PickerResult{}, fmt.Errorf("save dates: %w", err)
		}
		res.Committed = true
		deps.Metrics.DateChanged(string(change.Kind))
		deps.Bus.Publish(events.Event{
			Topic:     events.TopicDatesChanged,
			VisitorID: input.VisitorID,
			Kind:      string(change.Kind),
			DateStart: form.DateStart,
			DateEnd:   form.DateEnd,
			Display:   change.Display,
		})
	} else {
		sel.SyncDisplay()
	}

	outcome := "ok"
	if !res.Accepted {
		outcome = "rejected"
	}
	action := input.Action
	if action == "" {
		action = PickerOpen
	}
	deps.Metrics.PickerAction(action, outcome)
	slog.Debug("picker_event", "event", "picker_"+action, "visitor_id", input.VisitorID,
		"outcome", outcome, "state", string(sel.State()))

	res.View = sel.Render()
	res.Display = display.Text
	res.Mode = display.Mode
	res.Form = form
	return res, nil
}

// restorePicker reinstates the carried selection and window.
func restorePicker(sel *daterange.Selector, input PickerInput) {
	view := daterange.ViewWindow{Year: input.Year, Month: input.Month}
	if input.Year == 0 {
		view = daterange.ViewWindow{}
	}
	sel.Restore(daterange.SelectionFromISO(input.Start, input.End), view)
}
