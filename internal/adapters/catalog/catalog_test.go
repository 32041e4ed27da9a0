package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"voluntrip/internal/adapters/metrics"
	"voluntrip/internal/domain/opportunity"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"opportunities/nature.json": {Data: []byte(`[
			{"id":"n1","title":"Beach clean-up","org":"Mar Limpo","duration":"2–3h","languages":["PT","EN"],"minAge":12},
			{"id":"n2","title":"Dune planting","duration":"Half day"},
			{"title":"no id"},
			42
		]`)},
		"opportunities/social.json":  {Data: []byte(`{"not":"an array"}`)},
		"opportunities/culture.json": {Data: []byte(`[{"id":"c1","title":"Museum guide"}]`)},
		"opportunities/events.json":  {Data: []byte(`[`)},
		"hotels.json": {Data: []byte(`[
			{"id":"h1","name":"Casa Azul","area":"Alfama","pricePerNight":85,"affiliateUrl":"https://b.example/?ci={CHECKIN}"},
			{}
		]`)},
	}
}

// TestCatalog_Section tests decoding, skipping of bad entries and caching.
func TestCatalog_Section(t *testing.T) {
	fsys := testFS()
	c := New(fsys, nil)

	list, err := c.Section(opportunity.SectionNature)
	if err != nil {
		t.Fatalf("Section: %v", err)
	}
	if len(list) != 2 || list[0].ID != "n1" || list[1].ID != "n2" {
		t.Fatalf("Section = %+v", list)
	}
	if list[0].Section != opportunity.SectionNature || list[0].MinAgeLabel() != "12+" {
		t.Errorf("first entry = %+v", list[0])
	}

	// Cached: removing the file does not matter any more.
	delete(fsys, "opportunities/nature.json")
	if again, err := c.Section(opportunity.SectionNature); err != nil || len(again) != 2 {
		t.Errorf("cached Section = %v, %v", again, err)
	}

	c.Reset()
	if _, err := c.Section(opportunity.SectionNature); err == nil {
		t.Error("expected error after Reset with file removed")
	}
}

// TestCatalog_NonArraySection tests that a non-array document yields an empty rail.
func TestCatalog_NonArraySection(t *testing.T) {
	c := New(testFS(), nil)
	list, err := c.Section(opportunity.SectionSocial)
	if err != nil || len(list) != 0 {
		t.Errorf("Section(social) = %v, %v", list, err)
	}
}

// TestCatalog_UnknownSection tests rejection of names outside the rail list.
func TestCatalog_UnknownSection(t *testing.T) {
	c := New(testFS(), nil)
	if _, err := c.Section("sports"); !errors.Is(err, opportunity.ErrUnknownSection) {
		t.Errorf("Section(sports) = %v", err)
	}
}

// TestCatalog_All tests that failing sections do not hide the others.
func TestCatalog_All(t *testing.T) {
	c := New(testFS(), metrics.New(nil))
	all, errs := c.All()

	if len(all[opportunity.SectionNature]) != 2 || len(all[opportunity.SectionCulture]) != 1 {
		t.Errorf("All() loaded = %v", all)
	}
	if errs[opportunity.SectionEvents] == nil {
		t.Error("expected decode error for events")
	}
	if errs[opportunity.SectionAnimals] == nil {
		t.Error("expected missing-file error for animals")
	}
	if _, ok := errs[opportunity.SectionNature]; ok {
		t.Error("nature should have loaded")
	}
}

// TestCatalog_ByID tests lookup across sections.
func TestCatalog_ByID(t *testing.T) {
	c := New(testFS(), nil)
	o, ok := c.ByID("c1")
	if !ok || o.Title != "Museum guide" || o.Section != opportunity.SectionCulture {
		t.Errorf("ByID(c1) = %+v, %v", o, ok)
	}
	if _, ok := c.ByID("zzz"); ok {
		t.Error("unexpected hit")
	}
}

// TestCatalog_Hotels tests normalization and the array requirement.
func TestCatalog_Hotels(t *testing.T) {
	c := New(testFS(), nil)
	hs, err := c.Hotels()
	if err != nil {
		t.Fatalf("Hotels: %v", err)
	}
	if len(hs) != 2 || hs[0].Name != "Casa Azul" || hs[0].Price() != "85" {
		t.Fatalf("Hotels = %+v", hs)
	}
	if hs[1].ID != "htl-1" || hs[1].Name != "Hotel" || hs[1].Currency != "€" {
		t.Errorf("defaults = %+v", hs[1])
	}

	bad := New(fstest.MapFS{"hotels.json": {Data: []byte(`{"id":"x"}`)}}, nil)
	if _, err := bad.Hotels(); !errors.Is(err, ErrHotelsNotArray) {
		t.Errorf("Hotels(non-array) = %v", err)
	}
}
