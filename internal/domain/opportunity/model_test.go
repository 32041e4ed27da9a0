package opportunity

import "testing"

func intp(n int) *int { return &n }

// TestFilters_Passes tests language and duration matching.
func TestFilters_Passes(t *testing.T) {
	beach := Opportunity{ID: "n1", Title: "Beach clean-up", Duration: "2–3h", Languages: []string{"PT", "EN"}}
	day := Opportunity{ID: "n2", Title: "Trail repair", Duration: "Full day (6-8h)", Languages: []string{"PT"}}
	short := Opportunity{ID: "s1", Title: "Soup run", Duration: "1h"}
	morning := Opportunity{ID: "s2", Title: "Market stall", Duration: "Half day"}

	tests := []struct {
		name string
		f    Filters
		op   Opportunity
		want bool
	}{
		{"defaults pass all", DefaultFilters(), day, true},
		{"zero filters pass all", Filters{}, short, true},
		{"language listed", Filters{Language: "EN", Duration: DurationAny}, beach, true},
		{"language not listed", Filters{Language: "EN", Duration: DurationAny}, day, false},
		{"language with none listed", Filters{Language: "FR", Duration: DurationAny}, short, false},
		{"1h", Filters{Language: LanguageAny, Duration: Duration1h}, short, true},
		{"1h rejects 2-3h", Filters{Language: LanguageAny, Duration: Duration1h}, beach, false},
		{"2-3h", Filters{Language: LanguageAny, Duration: Duration2to3}, beach, true},
		{"2-3h rejects 1h", Filters{Language: LanguageAny, Duration: Duration2to3}, short, false},
		{"half by word", Filters{Language: LanguageAny, Duration: DurationHalf}, morning, true},
		{"full by hours", Filters{Language: LanguageAny, Duration: DurationFull}, day, true},
		{"full rejects half", Filters{Language: LanguageAny, Duration: DurationFull}, morning, false},
		{"both must match", Filters{Language: "PT", Duration: Duration1h}, beach, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.f.Passes(tt.op); got != tt.want {
				t.Errorf("Passes() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestParseFilters tests fallback to defaults.
func TestParseFilters(t *testing.T) {
	tests := []struct {
		lang, dur string
		want      Filters
	}{
		{"", "", DefaultFilters()},
		{"EN", "half", Filters{Language: "EN", Duration: DurationHalf}},
		{"klingon", "forever", DefaultFilters()},
		{"PT", "2-3h", Filters{Language: "PT", Duration: Duration2to3}},
		{"PT", "2–3h", Filters{Language: "PT", Duration: Duration2to3}},
	}
	for _, tt := range tests {
		if got := ParseFilters(tt.lang, tt.dur); got != tt.want {
			t.Errorf("ParseFilters(%q, %q) = %+v, want %+v", tt.lang, tt.dur, got, tt.want)
		}
	}
	if !ParseFilters("", "").IsDefault() {
		t.Error("expected default filters")
	}
}

// TestFilters_Filter tests order preservation.
func TestFilters_Filter(t *testing.T) {
	list := []Opportunity{
		{ID: "a", Duration: "1h"},
		{ID: "b", Duration: "full"},
		{ID: "c", Duration: "1h"},
	}
	got := Filters{Language: LanguageAny, Duration: Duration1h}.Filter(list)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("Filter() = %+v", got)
	}
}

// TestOpportunity_Labels tests the detail view fallbacks.
func TestOpportunity_Labels(t *testing.T) {
	bare := Opportunity{ID: "x", Title: "X", Summary: "short"}
	if bare.DurationLabel() != "—" || bare.LanguagesLabel() != "Any" || bare.MinAgeLabel() != "—" {
		t.Errorf("bare labels: %q %q %q", bare.DurationLabel(), bare.LanguagesLabel(), bare.MinAgeLabel())
	}
	if bare.SafeImage() != PlaceholderImage || bare.Body() != "short" {
		t.Errorf("bare image/body: %q %q", bare.SafeImage(), bare.Body())
	}

	full := Opportunity{
		ID: "y", Title: "Y", Duration: "2h", Languages: []string{"PT", "EN"},
		MinAge: intp(0), Image: "img/y.jpg", Summary: "s", Description: "d", Tags: []string{"a", "b"},
	}
	if full.DurationLabel() != "2h" || full.LanguagesLabel() != "PT, EN" || full.MinAgeLabel() != "0+" {
		t.Errorf("full labels: %q %q %q", full.DurationLabel(), full.LanguagesLabel(), full.MinAgeLabel())
	}
	if full.SafeImage() != "img/y.jpg" || full.Body() != "d" || full.TagsLabel() != "a, b" {
		t.Errorf("full image/body/tags: %q %q %q", full.SafeImage(), full.Body(), full.TagsLabel())
	}
}

// TestOpportunity_Validate tests required fields.
func TestOpportunity_Validate(t *testing.T) {
	if err := (&Opportunity{Title: "t"}).Validate(); err != ErrEmptyID {
		t.Errorf("got %v", err)
	}
	if err := (&Opportunity{ID: "i"}).Validate(); err != ErrEmptyTitle {
		t.Errorf("got %v", err)
	}
	if err := (&Opportunity{ID: "i", Title: "t"}).Validate(); err != nil {
		t.Errorf("got %v", err)
	}
}

// TestSections tests that every section has a title.
func TestSections(t *testing.T) {
	if len(Sections) != 9 {
		t.Fatalf("expected 9 sections, got %d", len(Sections))
	}
	for _, s := range Sections {
		if !IsSection(s) {
			t.Errorf("section %q has no title", s)
		}
	}
	if IsSection("sports") {
		t.Error("unexpected section")
	}
}
