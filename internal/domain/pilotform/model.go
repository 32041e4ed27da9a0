package pilotform

import (
	"errors"
	"strconv"
	"strings"

	"voluntrip/internal/domain/daterange"
)

// Limits and defaults of the search form.
const (
	DefaultLocation = "Lisbon"
	DefaultAdults   = 1
	MinAdults       = 1
	MaxAdults       = 99
	DefaultChildren = 0
	MinChildren     = 0
	MaxChildren     = 10
	MinChildAge     = 0
	MaxChildAge     = 17

	// AgeUnset marks a child whose age field is still empty.
	AgeUnset = -1
)

// NoDatesLabel is shown in summaries when no dates are chosen.
const NoDatesLabel = "Select dates"

// Submit validation errors. The messages are shown to the visitor as-is.
var (
	ErrEndBeforeStart = errors.New("End date must be the same day or after the start date.")
	ErrMissingAges    = errors.New("Please provide age for each child.")
	ErrInvalidAge     = errors.New("Please enter a valid age for each child.")
	ErrPastDate       = errors.New("Dates cannot be in the past.")
)

// State is the persisted search form of one visitor.
// INVARIANT (after Normalize): Adults in [1,99], Children in [0,10],
// len(ChildAges) == Children, every age is AgeUnset or in [0,17].
type State struct {
	Location  string `json:"location"`
	DateStart string `json:"dateStart"`
	DateEnd   string `json:"dateEnd"`
	Adults    int    `json:"adults"`
	Children  int    `json:"children"`
	ChildAges []int  `json:"childAges"`
}

// Defaults returns the state of a first visit.
func Defaults(location string) State {
	if location == "" {
		location = DefaultLocation
	}
	return State{
		Location:  location,
		Adults:    DefaultAdults,
		Children:  DefaultChildren,
		ChildAges: []int{},
	}
}

// Normalize repairs a state read from storage. Out-of-range counts are clamped,
// an empty location falls back to defaultLocation and the ages list is resized
// to the number of children.
// POST: the State invariant holds
func Normalize(s State, defaultLocation string) State {
	if defaultLocation == "" {
		defaultLocation = DefaultLocation
	}
	if strings.TrimSpace(s.Location) == "" {
		s.Location = defaultLocation
	}
	s.DateStart = strings.TrimSpace(s.DateStart)
	s.DateEnd = strings.TrimSpace(s.DateEnd)
	s.Adults = clamp(s.Adults, MinAdults, MaxAdults)
	s.Children = clamp(s.Children, MinChildren, MaxChildren)
	ages := make([]int, 0, len(s.ChildAges))
	for _, a := range s.ChildAges {
		ages = append(ages, clampAge(a))
	}
	s.ChildAges = ResizeAges(ages, s.Children)
	return s
}

// ResizeAges returns ages grown with AgeUnset or truncated to n entries.
// Existing ages keep their positions.
func ResizeAges(ages []int, n int) []int {
	out := make([]int, n)
	for i := range out {
		if i < len(ages) {
			out[i] = ages[i]
		} else {
			out[i] = AgeUnset
		}
	}
	return out
}

// EndMin returns the earliest end date the form accepts: the start date when set,
// otherwise today.
func EndMin(startISO, todayISO string) string {
	if startISO != "" {
		return startISO
	}
	return todayISO
}

// Input is one raw form post. Nil fields were not part of the post.
type Input struct {
	Location  *string
	DateStart *string
	DateEnd   *string
	Adults    *string
	Children  *string
	ChildAges []string // raw age fields in order
	HasAges   bool     // ChildAges was posted (possibly empty)
}

// Merge applies a partial update to s, the way each field change is persisted:
// counts are parsed leniently and clamped, a new start date pulls a smaller
// end date up to it, and a changed child count resizes the ages list.
// PRE: s is normalized
// POST: the State invariant holds
func (s State) Merge(in Input, defaultLocation string) State {
	out := s
	out.ChildAges = append([]int(nil), s.ChildAges...)

	if in.Location != nil {
		out.Location = strings.TrimSpace(*in.Location)
		if out.Location == "" {
			out.Location = defaultLocation
		}
	}
	if in.DateStart != nil {
		out.DateStart = strings.TrimSpace(*in.DateStart)
	}
	if in.DateEnd != nil {
		out.DateEnd = strings.TrimSpace(*in.DateEnd)
	}
	if in.DateStart != nil {
		out = out.syncEnd()
	}
	if in.Adults != nil {
		out.Adults = clamp(ParseIntSafe(*in.Adults, DefaultAdults), MinAdults, MaxAdults)
	}
	if in.HasAges {
		ages := make([]int, 0, len(in.ChildAges))
		for _, raw := range in.ChildAges {
			ages = append(ages, parseAge(raw))
		}
		out.ChildAges = ages
	}
	if in.Children != nil {
		out.Children = clamp(ParseIntSafe(*in.Children, DefaultChildren), MinChildren, MaxChildren)
	}
	return Normalize(out, defaultLocation)
}

// syncEnd keeps the end on or after a freshly changed start.
func (s State) syncEnd() State {
	if s.DateStart != "" && s.DateEnd != "" && s.DateEnd < s.DateStart {
		s.DateEnd = s.DateStart
	}
	return s
}

// ValidateSubmit checks a submission before it is persisted and broadcast.
// Dates compare as ISO strings. Ages are checked against the raw posted values
// when present, since merging clamps them.
// PRE: merged is the result of Merge(in)
// POST: returns nil or one of the Err* values above
func ValidateSubmit(in Input, merged State, todayISO string) error {
	start, end := merged.DateStart, merged.DateEnd
	if start != "" && end != "" && end < start {
		return ErrEndBeforeStart
	}
	if (start != "" && start < todayISO) || (end != "" && end < todayISO) {
		return ErrPastDate
	}
	if merged.Children == 0 {
		return nil
	}

	raw := in.ChildAges
	if !in.HasAges {
		raw = make([]string, 0, len(merged.ChildAges))
		for _, a := range merged.ChildAges {
			if a == AgeUnset {
				raw = append(raw, "")
			} else {
				raw = append(raw, strconv.Itoa(a))
			}
		}
	}
	if len(raw) != merged.Children {
		return ErrMissingAges
	}
	for _, v := range raw {
		v = strings.TrimSpace(v)
		n, err := strconv.Atoi(v)
		if v == "" || err != nil || n < MinChildAge || n > MaxChildAge {
			return ErrInvalidAge
		}
	}
	return nil
}

// FormatParty renders the party size, e.g. "2A" or "2A · 1C".
func FormatParty(adults, children int) string {
	if children > 0 {
		return strconv.Itoa(adults) + "A · " + strconv.Itoa(children) + "C"
	}
	return strconv.Itoa(adults) + "A"
}

// FormatDates renders the dates part of the summary: the picker display text when
// the stored range is valid, the raw pair when both are set, NoDatesLabel otherwise.
func FormatDates(startISO, endISO string) string {
	if text, _ := daterange.DisplayFor(startISO, endISO); text != "" {
		return text
	}
	if startISO != "" && endISO != "" {
		return startISO + " – " + endISO
	}
	return NoDatesLabel
}

// Summary is the one-line recap shown on the collapsed form.
func (s State) Summary() string {
	return FormatDates(s.DateStart, s.DateEnd) + " · " + FormatParty(s.Adults, s.Children)
}

// AgeValue returns the i-th age as a field value, "" when unset.
func (s State) AgeValue(i int) string {
	if i < 0 || i >= len(s.ChildAges) || s.ChildAges[i] == AgeUnset {
		return ""
	}
	return strconv.Itoa(s.ChildAges[i])
}

// ParseIntSafe reads a leading base-10 integer the way browsers read number
// inputs ("12abc" is 12) and returns def when there is none.
func ParseIntSafe(v string, def int) int {
	v = strings.TrimSpace(v)
	end := 0
	if end < len(v) && (v[end] == '-' || v[end] == '+') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return def
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return def
	}
	return n
}

func parseAge(raw string) int {
	if strings.TrimSpace(raw) == "" {
		return AgeUnset
	}
	return clamp(ParseIntSafe(raw, MinChildAge), MinChildAge, MaxChildAge)
}

func clampAge(a int) int {
	if a < 0 {
		return AgeUnset
	}
	return clamp(a, MinChildAge, MaxChildAge)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
