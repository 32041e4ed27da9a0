package daterange

// State names the three phases of the two-click selection protocol.
type State string

const (
	StateEmpty    State = "empty"    // no start
	StatePartial  State = "partial"  // start, no end
	StateComplete State = "complete" // start and end
)

// Selection is the pair of chosen days.
// INVARIANT: when both Start and End are set, !End.Before(*Start).
type Selection struct {
	Start *Date
	End   *Date
}

// State reports which phase the selection is in.
func (s Selection) State() State {
	switch {
	case s.Start == nil:
		return StateEmpty
	case s.End == nil:
		return StatePartial
	default:
		return StateComplete
	}
}

// SelectionFromISO rebuilds a selection from two optional ISO strings, as carried
// between requests. Malformed strings are absent; the result is normalized.
func SelectionFromISO(startISO, endISO string) Selection {
	var sel Selection
	if d, ok := ParseISO(startISO); ok {
		sel.Start = &d
	}
	if d, ok := ParseISO(endISO); ok {
		sel.End = &d
	}
	return sel.normalized()
}

// normalized returns s with an end-without-start dropped and reversed endpoints swapped.
func (s Selection) normalized() Selection {
	if s.Start == nil {
		return Selection{}
	}
	if s.End != nil && s.End.Before(*s.Start) {
		return Selection{Start: s.End, End: s.Start}
	}
	return s
}

// next applies one day click to s.
// PRE: d has already been checked against the minimum date
func (s Selection) next(d Date) Selection {
	if s.Start == nil || s.End != nil {
		return Selection{Start: &d}
	}
	if d.Before(*s.Start) {
		old := *s.Start
		return Selection{Start: &d, End: &old}
	}
	start := *s.Start
	return Selection{Start: &start, End: &d}
}

// contains reports whether d lies strictly between both endpoints.
func (s Selection) contains(d Date) bool {
	if s.Start == nil || s.End == nil {
		return false
	}
	return d.After(*s.Start) && d.Before(*s.End)
}

// isEndpoint reports whether d equals a set endpoint.
func (s Selection) isEndpoint(d Date) bool {
	return (s.Start != nil && *s.Start == d) || (s.End != nil && *s.End == d)
}

// Range is a committed selection. Start <= End; equal dates denote a single day.
type Range struct {
	Start Date
	End   Date
}

// StartISO returns the start as YYYY-MM-DD.
func (r Range) StartISO() string { return r.Start.ISO() }

// EndISO returns the end as YYYY-MM-DD.
func (r Range) EndISO() string { return r.End.ISO() }

// SingleDay reports whether the range covers exactly one day.
func (r Range) SingleDay() bool { return r.Start == r.End }

// Display renders "DD/MM/YYYY" for a single day and "DD/MM/YYYY – DD/MM/YYYY" otherwise.
func (r Range) Display() string {
	if r.SingleDay() {
		return r.Start.Display()
	}
	return r.Start.Display() + " – " + r.End.Display()
}

// Mode returns the display mode matching the range.
func (r Range) Mode() DisplayMode {
	if r.SingleDay() {
		return ModeSingle
	}
	return ModeRange
}

// DisplayMode tags the display field so the page can style it.
type DisplayMode string

const (
	ModeEmpty  DisplayMode = "empty"
	ModeSingle DisplayMode = "single"
	ModeRange  DisplayMode = "range"
)

// RangeFromISO parses a stored pair of ISO strings into a Range.
// Both must parse; reversed endpoints are swapped.
func RangeFromISO(startISO, endISO string) (Range, bool) {
	s, ok := ParseISO(startISO)
	if !ok {
		return Range{}, false
	}
	e, ok := ParseISO(endISO)
	if !ok {
		return Range{}, false
	}
	if e.Before(s) {
		s, e = e, s
	}
	return Range{Start: s, End: e}, true
}

// DisplayFor returns the display text and mode for a stored pair of ISO strings,
// ("", ModeEmpty) when either is missing or malformed.
func DisplayFor(startISO, endISO string) (string, DisplayMode) {
	r, ok := RangeFromISO(startISO, endISO)
	if !ok {
		return "", ModeEmpty
	}
	return r.Display(), r.Mode()
}
