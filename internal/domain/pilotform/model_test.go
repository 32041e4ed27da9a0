package pilotform

import (
	"errors"
	"reflect"
	"testing"
)

func strp(s string) *string { return &s }

// TestDefaults tests the first-visit state.
func TestDefaults(t *testing.T) {
	s := Defaults("")
	if s.Location != DefaultLocation || s.Adults != 1 || s.Children != 0 || len(s.ChildAges) != 0 {
		t.Errorf("Defaults() = %+v", s)
	}
	if Defaults("Porto").Location != "Porto" {
		t.Error("expected configured location")
	}
}

// TestNormalize tests repair of corrupt persisted state.
func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   State
		want State
	}{
		{
			name: "empty state gets defaults",
			in:   State{},
			want: State{Location: "Lisbon", Adults: 1, Children: 0, ChildAges: []int{}},
		},
		{
			name: "counts clamped",
			in:   State{Location: "Faro", Adults: 400, Children: 42},
			want: State{Location: "Faro", Adults: 99, Children: 10, ChildAges: []int{-1, -1, -1, -1, -1, -1, -1, -1, -1, -1}},
		},
		{
			name: "ages clamped and resized",
			in:   State{Location: "Faro", Adults: 2, Children: 3, ChildAges: []int{4, 30}},
			want: State{Location: "Faro", Adults: 2, Children: 3, ChildAges: []int{4, 17, -1}},
		},
		{
			name: "extra ages dropped",
			in:   State{Location: "Faro", Adults: 2, Children: 1, ChildAges: []int{4, 9}},
			want: State{Location: "Faro", Adults: 2, Children: 1, ChildAges: []int{4}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in, "Lisbon")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestMerge tests partial updates.
func TestMerge(t *testing.T) {
	base := Normalize(State{Location: "Lisbon", DateStart: "2026-03-05", DateEnd: "2026-03-10", Adults: 2}, "Lisbon")

	t.Run("start after end pulls end up", func(t *testing.T) {
		got := base.Merge(Input{DateStart: strp("2026-03-12")}, "Lisbon")
		if got.DateStart != "2026-03-12" || got.DateEnd != "2026-03-12" {
			t.Errorf("got %s..%s", got.DateStart, got.DateEnd)
		}
	})

	t.Run("end change alone is kept", func(t *testing.T) {
		got := base.Merge(Input{DateEnd: strp("2026-03-01")}, "Lisbon")
		if got.DateEnd != "2026-03-01" {
			t.Errorf("DateEnd = %s", got.DateEnd)
		}
	})

	t.Run("adults parsed leniently", func(t *testing.T) {
		if got := base.Merge(Input{Adults: strp("3 people")}, "Lisbon"); got.Adults != 3 {
			t.Errorf("Adults = %d", got.Adults)
		}
		if got := base.Merge(Input{Adults: strp("abc")}, "Lisbon"); got.Adults != DefaultAdults {
			t.Errorf("Adults = %d", got.Adults)
		}
		if got := base.Merge(Input{Adults: strp("0")}, "Lisbon"); got.Adults != MinAdults {
			t.Errorf("Adults = %d", got.Adults)
		}
	})

	t.Run("children resize keeps existing ages", func(t *testing.T) {
		two := base.Merge(Input{Children: strp("2"), ChildAges: []string{"5", ""}, HasAges: true}, "Lisbon")
		if !reflect.DeepEqual(two.ChildAges, []int{5, AgeUnset}) {
			t.Fatalf("ages = %v", two.ChildAges)
		}
		three := two.Merge(Input{Children: strp("3")}, "Lisbon")
		if !reflect.DeepEqual(three.ChildAges, []int{5, AgeUnset, AgeUnset}) {
			t.Errorf("ages = %v", three.ChildAges)
		}
		one := three.Merge(Input{Children: strp("1")}, "Lisbon")
		if !reflect.DeepEqual(one.ChildAges, []int{5}) {
			t.Errorf("ages = %v", one.ChildAges)
		}
	})

	t.Run("empty location falls back", func(t *testing.T) {
		if got := base.Merge(Input{Location: strp("  ")}, "Lisbon"); got.Location != "Lisbon" {
			t.Errorf("Location = %q", got.Location)
		}
	})

	t.Run("does not alias input state", func(t *testing.T) {
		s := base.Merge(Input{Children: strp("1"), ChildAges: []string{"4"}, HasAges: true}, "Lisbon")
		_ = s.Merge(Input{ChildAges: []string{"9"}, HasAges: true}, "Lisbon")
		if s.ChildAges[0] != 4 {
			t.Errorf("original mutated: %v", s.ChildAges)
		}
	})
}

// TestValidateSubmit tests the submit checks and their messages.
func TestValidateSubmit(t *testing.T) {
	const today = "2026-03-01"
	tests := []struct {
		name string
		in   Input
		st   State
		want error
	}{
		{"no dates no kids", Input{}, State{Adults: 1}, nil},
		{"valid range", Input{}, State{DateStart: "2026-03-05", DateEnd: "2026-03-10", Adults: 1}, nil},
		{"same day", Input{}, State{DateStart: "2026-03-05", DateEnd: "2026-03-05", Adults: 1}, nil},
		{"end before start", Input{}, State{DateStart: "2026-03-05", DateEnd: "2026-03-04", Adults: 1}, ErrEndBeforeStart},
		{"past start", Input{}, State{DateStart: "2026-02-27", DateEnd: "2026-03-04", Adults: 1}, ErrPastDate},
		{"kid with age", Input{ChildAges: []string{"7"}, HasAges: true}, State{Adults: 1, Children: 1, ChildAges: []int{7}}, nil},
		{"kid missing age field", Input{ChildAges: []string{}, HasAges: true}, State{Adults: 1, Children: 1, ChildAges: []int{-1}}, ErrMissingAges},
		{"kid empty age", Input{ChildAges: []string{""}, HasAges: true}, State{Adults: 1, Children: 1, ChildAges: []int{-1}}, ErrInvalidAge},
		{"kid age too high", Input{ChildAges: []string{"18"}, HasAges: true}, State{Adults: 1, Children: 1, ChildAges: []int{17}}, ErrInvalidAge},
		{"kid age not a number", Input{ChildAges: []string{"x"}, HasAges: true}, State{Adults: 1, Children: 1, ChildAges: []int{0}}, ErrInvalidAge},
		{"stored unset age", Input{}, State{Adults: 1, Children: 2, ChildAges: []int{3, -1}}, ErrInvalidAge},
		{"stored ages", Input{}, State{Adults: 1, Children: 2, ChildAges: []int{3, 0}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmit(tt.in, tt.st, today)
			if !errors.Is(err, tt.want) {
				t.Errorf("ValidateSubmit() = %v, want %v", err, tt.want)
			}
		})
	}
}

// TestSummary tests the collapsed form recap.
func TestSummary(t *testing.T) {
	tests := []struct {
		st   State
		want string
	}{
		{State{Adults: 2}, "Select dates · 2A"},
		{State{Adults: 2, Children: 1}, "Select dates · 2A · 1C"},
		{State{DateStart: "2026-03-05", DateEnd: "2026-03-05", Adults: 1}, "05/03/2026 · 1A"},
		{State{DateStart: "2026-03-05", DateEnd: "2026-03-10", Adults: 1}, "05/03/2026 – 10/03/2026 · 1A"},
		{State{DateStart: "soon", DateEnd: "later", Adults: 1}, "soon – later · 1A"},
		{State{DateStart: "2026-03-05", Adults: 1}, "Select dates · 1A"},
	}
	for _, tt := range tests {
		if got := tt.st.Summary(); got != tt.want {
			t.Errorf("Summary(%+v) = %q, want %q", tt.st, got, tt.want)
		}
	}
}

// TestParseIntSafe tests lenient integer parsing.
func TestParseIntSafe(t *testing.T) {
	tests := []struct {
		in   string
		def  int
		want int
	}{
		{"3", 0, 3},
		{" 12abc", 0, 12},
		{"-4", 0, -4},
		{"", 7, 7},
		{"abc", 7, 7},
		{"-", 7, 7},
	}
	for _, tt := range tests {
		if got := ParseIntSafe(tt.in, tt.def); got != tt.want {
			t.Errorf("ParseIntSafe(%q, %d) = %d, want %d", tt.in, tt.def, got, tt.want)
		}
	}
}

// TestEndMin tests the end date lower bound.
func TestEndMin(t *testing.T) {
	if EndMin("", "2026-03-01") != "2026-03-01" || EndMin("2026-03-05", "2026-03-01") != "2026-03-05" {
		t.Error("unexpected end min")
	}
}
