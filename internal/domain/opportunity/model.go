package opportunity

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// Sections in display order.
const (
	SectionNature    = "nature"
	SectionSocial    = "social"
	SectionCulture   = "culture"
	SectionEvents    = "events"
	SectionCrowd     = "crowd"
	SectionAnimals   = "animals"
	SectionHomeless  = "homeless"
	SectionSeniors   = "seniors"
	SectionEducation = "education"
)

// Sections lists every rail, in the order they appear on the page.
var Sections = []string{
	SectionNature, SectionSocial, SectionCulture, SectionEvents, SectionCrowd,
	SectionAnimals, SectionHomeless, SectionSeniors, SectionEducation,
}

// SectionTitles are the rail headings.
var SectionTitles = map[string]string{
	SectionNature:    "Nature & environment",
	SectionSocial:    "Social causes",
	SectionCulture:   "Culture & heritage",
	SectionEvents:    "Events",
	SectionCrowd:     "Crowd volunteering",
	SectionAnimals:   "Animals",
	SectionHomeless:  "Homeless support",
	SectionSeniors:   "Seniors",
	SectionEducation: "Education",
}

// PlaceholderImage is used for cards and details without an image.
const PlaceholderImage = "assets/sample/placeholder.svg"

// Filter values.
const (
	LanguageAny  = "Any"
	DurationAny  = "any"
	Duration1h   = "1h"
	Duration2to3 = "2–3h"
	DurationHalf = "half"
	DurationFull = "full"
)

// Languages are the accepted language filter values.
var Languages = []string{LanguageAny, "PT", "EN", "ES", "FR"}

// Durations are the accepted duration filter values.
var Durations = []string{DurationAny, Duration1h, Duration2to3, DurationHalf, DurationFull}

// Domain errors
var (
	ErrEmptyID        = errors.New("opportunity id cannot be empty")
	ErrEmptyTitle     = errors.New("opportunity title cannot be empty")
	ErrUnknownSection = errors.New("unknown opportunity section")
)

// Opportunity is one volunteering activity as published in the catalog.
type Opportunity struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Org         string   `json:"org"`
	Duration    string   `json:"duration"`
	Languages   []string `json:"languages"`
	Tags        []string `json:"tags"`
	Fee         string   `json:"fee"`
	Image       string   `json:"image"`
	Summary     string   `json:"summary"`
	Description string   `json:"description"` // Markdown
	MinAge      *int     `json:"minAge"`
	ContactMail string   `json:"contactEmail,omitempty"`
	Section     string   `json:"-"`
}

// Validate checks the fields every catalog entry needs.
// PRE: Opportunity is decoded from the catalog
// POST: Returns nil if valid, error otherwise
func (o *Opportunity) Validate() error {
	if strings.TrimSpace(o.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(o.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// SafeImage returns the image or the placeholder.
func (o Opportunity) SafeImage() string {
	if o.Image == "" {
		return PlaceholderImage
	}
	return o.Image
}

// DurationLabel is the duration or an em-dash.
func (o Opportunity) DurationLabel() string {
	if o.Duration == "" {
		return "—"
	}
	return o.Duration
}

// LanguagesLabel joins the languages, "Any" when none are listed.
func (o Opportunity) LanguagesLabel() string {
	if len(o.Languages) == 0 {
		return LanguageAny
	}
	return strings.Join(o.Languages, ", ")
}

// MinAgeLabel renders the minimum age as "N+", an em-dash when unknown.
func (o Opportunity) MinAgeLabel() string {
	if o.MinAge == nil {
		return "—"
	}
	return strconv.Itoa(*o.MinAge) + "+"
}

// TagsLabel joins the tags with commas.
func (o Opportunity) TagsLabel() string {
	return strings.Join(o.Tags, ", ")
}

// Body is the detail text: the description, falling back to the summary.
func (o Opportunity) Body() string {
	if o.Description != "" {
		return o.Description
	}
	return o.Summary
}

// Filters narrows the rails.
type Filters struct {
	Language string
	Duration string
}

// DefaultFilters lets everything through.
func DefaultFilters() Filters {
	return Filters{Language: LanguageAny, Duration: DurationAny}
}

// ParseFilters reads filter values, falling back to "any" for empty or unknown input.
func ParseFilters(language, duration string) Filters {
	f := DefaultFilters()
	for _, l := range Languages {
		if language == l {
			f.Language = l
		}
	}
	// "2-3h" with an ASCII hyphen is accepted as the en-dash form.
	if duration == "2-3h" {
		duration = Duration2to3
	}
	for _, d := range Durations {
		if duration == d {
			f.Duration = d
		}
	}
	return f
}

// IsDefault reports whether the filters let everything through.
func (f Filters) IsDefault() bool {
	return f == DefaultFilters()
}

var durationPatterns = map[string]*regexp.Regexp{
	DurationHalf: regexp.MustCompile(`half|3–4h|3-4h|3h|4h`),
	DurationFull: regexp.MustCompile(`full|6–8h|6-8h|6h|7h|8h`),
	Duration1h:   regexp.MustCompile(`1h`),
	Duration2to3: regexp.MustCompile(`(2–3h|2-3h|2h|3h)`),
}

// Passes reports whether o matches the filters. Language must be listed exactly;
// duration is matched by pattern against the lower-cased duration text.
func (f Filters) Passes(o Opportunity) bool {
	if f.Language != "" && f.Language != LanguageAny {
		found := false
		for _, l := range o.Languages {
			if l == f.Language {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Duration != "" && f.Duration != DurationAny {
		re, ok := durationPatterns[f.Duration]
		if ok && !re.MatchString(strings.ToLower(o.Duration)) {
			return false
		}
	}
	return true
}

// Filter returns the opportunities of list that pass f, in order.
func (f Filters) Filter(list []Opportunity) []Opportunity {
	out := make([]Opportunity, 0, len(list))
	for _, o := range list {
		if f.Passes(o) {
			out = append(out, o)
		}
	}
	return out
}

// IsSection reports whether s names a known rail.
func IsSection(s string) bool {
	_, ok := SectionTitles[s]
	return ok
}
