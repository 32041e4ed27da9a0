// Package daterange implements the two-month date-range picker: a two-click
// selection state machine over calendar days and a structured rendering of it.
// It performs no I/O; the fields it reads and writes are injected.
package daterange

import "time"

// ValueField is an externally owned field holding an ISO date string.
type ValueField interface {
	Value() string
	SetValue(v string)
}

// DisplayField receives the human-readable form of the committed range.
type DisplayField interface {
	SetDisplay(text string, mode DisplayMode)
}

// ChangeKind tells listeners how the bound fields were committed.
type ChangeKind string

const (
	ChangeApplied ChangeKind = "applied" // Apply with a start set
	ChangeEmptied ChangeKind = "emptied" // Apply with nothing selected
	ChangeCleared ChangeKind = "cleared" // Clear
)

// Change is delivered to listeners after Apply or Clear wrote the fields.
type Change struct {
	Kind    ChangeKind
	Range   Range // zero unless Kind == ChangeApplied
	Display string
}

// Listener observes committed changes.
type Listener func(Change)

// Selector owns the selection and the visible window of the picker.
type Selector struct {
	startField ValueField
	endField   ValueField
	display    DisplayField
	today      func() Date

	sel       Selection
	view      ViewWindow
	listeners []Listener
}

// NewSelector binds a selector to its fields. today returns the current local day;
// days strictly before it are not selectable.
// PRE: startField, endField, display and today are non-nil
// POST: selection is empty and the view shows the current month
func NewSelector(startField, endField ValueField, display DisplayField, today func() Date) *Selector {
	return &Selector{
		startField: startField,
		endField:   endField,
		display:    display,
		today:      today,
		view:       WindowOf(today()),
	}
}

// TodayIn returns a clock that reports the current day in loc.
func TodayIn(loc *time.Location, now func() time.Time) func() Date {
	if loc == nil {
		loc = time.Local
	}
	return func() Date { return FromTime(now().In(loc)) }
}

// Subscribe registers l to be called after every Apply and Clear.
func (s *Selector) Subscribe(l Listener) {
	s.listeners = append(s.listeners, l)
}

// MinDate is the earliest selectable day.
func (s *Selector) MinDate() Date {
	return s.today()
}

// Selection returns a copy of the current selection.
func (s *Selector) Selection() Selection {
	out := Selection{}
	if s.sel.Start != nil {
		d := *s.sel.Start
		out.Start = &d
	}
	if s.sel.End != nil {
		d := *s.sel.End
		out.End = &d
	}
	return out
}

// State reports the selection phase.
func (s *Selector) State() State {
	return s.sel.State()
}

// View returns the current window.
func (s *Selector) View() ViewWindow {
	return s.view
}

// Open re-reads the bound fields, as the picker does each time it is shown.
func (s *Selector) Open() {
	s.Initialize(s.startField.Value(), s.endField.Value())
}

// Initialize sets the selection from two optional ISO strings. Missing or malformed
// strings are treated as absent. The view moves to the month of the start, or of
// today when there is none.
func (s *Selector) Initialize(startISO, endISO string) {
	s.sel = SelectionFromISO(startISO, endISO)
	if s.sel.Start != nil {
		s.view = WindowOf(*s.sel.Start)
	} else {
		s.view = WindowOf(s.today())
	}
}

// Restore reinstates a selection and window captured from an earlier render.
// Reversed endpoints are swapped and an end without a start is dropped. A carried
// start before MinDate drops the whole selection; once ordered, the end can then
// never be in the past either.
func (s *Selector) Restore(sel Selection, view ViewWindow) {
	s.sel = sel.normalized()
	if s.sel.Start != nil && s.sel.Start.Before(s.MinDate()) {
		s.sel = Selection{}
	}
	if view.Month < time.January || view.Month > time.December {
		view = WindowOf(s.today())
	}
	s.view = view
}

// Navigate moves the view by delta months. There is no bound.
func (s *Selector) Navigate(delta int) {
	s.view = s.view.Add(delta)
}

// SelectDay applies one click of the two-click protocol. Days before MinDate are
// rejected and leave the state untouched; the return value reports acceptance.
func (s *Selector) SelectDay(d Date) bool {
	if d.Before(s.MinDate()) {
		return false
	}
	s.sel = s.sel.next(d)
	return true
}

// Clear empties the selection and the bound fields, then notifies listeners.
func (s *Selector) Clear() {
	s.sel = Selection{}
	s.startField.SetValue("")
	s.endField.SetValue("")
	s.display.SetDisplay("", ModeEmpty)
	s.notify(Change{Kind: ChangeCleared})
}

// Apply commits the selection to the bound fields. A start without an end commits
// a single-day range. With no start at all the fields are emptied and the result
// is reported as empty (false); this is not an error.
func (s *Selector) Apply() (Range, bool) {
	if s.sel.Start != nil && s.sel.End == nil {
		end := *s.sel.Start
		s.sel.End = &end
	}
	if s.sel.Start == nil {
		s.startField.SetValue("")
		s.endField.SetValue("")
		s.display.SetDisplay("", ModeEmpty)
		s.notify(Change{Kind: ChangeEmptied})
		return Range{}, false
	}

	r := Range{Start: *s.sel.Start, End: *s.sel.End}
	s.startField.SetValue(r.StartISO())
	s.endField.SetValue(r.EndISO())
	s.display.SetDisplay(r.Display(), r.Mode())
	s.notify(Change{Kind: ChangeApplied, Range: r, Display: r.Display()})
	return r, true
}

// SyncDisplay writes the display field from whatever the bound fields hold,
// without touching the selection. Used when a page first loads.
func (s *Selector) SyncDisplay() {
	text, mode := DisplayFor(s.startField.Value(), s.endField.Value())
	s.display.SetDisplay(text, mode)
}

// RenderMonth lays out one month: blanks up to the first weekday (weeks start on
// Monday), then one cell per day.
func (s *Selector) RenderMonth(year int, month time.Month) MonthGrid {
	w := ViewWindow{Year: year, Month: month}
	first := Date{Year: year, Month: month, Day: 1}
	blanks := (int(first.Weekday()) - int(time.Monday) + 7) % 7
	days := DaysInMonth(year, month)
	minDate := s.MinDate()

	cells := make([]Cell, 0, blanks+days)
	for range blanks {
		cells = append(cells, Cell{Placeholder: true})
	}
	for day := 1; day <= days; day++ {
		d := Date{Year: year, Month: month, Day: day}
		cells = append(cells, Cell{
			Date:     d,
			Disabled: d.Before(minDate),
			InRange:  s.sel.contains(d),
			Selected: s.sel.isEndpoint(d),
		})
	}
	return MonthGrid{
		Window:   w,
		Title:    w.Title(),
		Weekdays: WeekdayLabels,
		Cells:    cells,
	}
}

// Render produces both visible months. It has no side effects.
func (s *Selector) Render() View {
	second := s.view.Second()
	v := View{
		Window: s.view,
		Prev:   s.view.Add(-1),
		Next:   s.view.Add(1),
		Months: [2]MonthGrid{
			s.RenderMonth(s.view.Year, s.view.Month),
			s.RenderMonth(second.Year, second.Month),
		},
		State: s.sel.State(),
	}
	if s.sel.Start != nil {
		v.Start = s.sel.Start.ISO()
	}
	if s.sel.End != nil {
		v.End = s.sel.End.ISO()
	}
	return v
}

func (s *Selector) notify(c Change) {
	for _, l := range s.listeners {
		l(c)
	}
}

// StringField is a ValueField backed by a plain string.
type StringField struct {
	V string
}

// Value implements ValueField.
func (f *StringField) Value() string { return f.V }

// SetValue implements ValueField.
func (f *StringField) SetValue(v string) { f.V = v }

// TextDisplay is a DisplayField that keeps the last text and mode written to it.
type TextDisplay struct {
	Text string
	Mode DisplayMode
}

// SetDisplay implements DisplayField.
func (t *TextDisplay) SetDisplay(text string, mode DisplayMode) {
	t.Text = text
	t.Mode = mode
}
