package projections

import (
	"context"
	"errors"
	"html/template"

	"voluntrip/internal/adapters/markdown"
	"voluntrip/internal/domain/opportunity"
)

// ErrOpportunityNotFound is returned for an ID missing from the catalog.
var ErrOpportunityNotFound = errors.New("opportunity not found")

// GetOpportunityQuery carries the opportunity ID.
type GetOpportunityQuery struct {
	ID string
}

// OpportunityDetail is the content of the detail modal.
type OpportunityDetail struct {
	ID           string                  `json:"id"`
	Section      string                  `json:"section"`
	SectionTitle string                  `json:"sectionTitle"`
	Title        string                  `json:"title"`
	Org          string                  `json:"org"`
	Fee          string                  `json:"fee"`
	Image        string                  `json:"image"`
	Description  string                  `json:"description"` // Markdown source
	Body         template.HTML           `json:"bodyHtml"`
	Duration     string                  `json:"duration"`
	Languages    string                  `json:"languages"`
	MinAge       string                  `json:"minAge"`
	Tags         string                  `json:"tags"`
	Raw          opportunity.Opportunity `json:"-"`
}

// GetOpportunityDeps holds dependencies for GetOpportunity.
type GetOpportunityDeps struct {
	Catalog OpportunityReader
}

// QueryGetOpportunity returns the detail of one opportunity.
// PRE: ID is non-empty
// POST: Returns ErrOpportunityNotFound when the ID is unknown
func QueryGetOpportunity(_ context.Context, query GetOpportunityQuery, deps GetOpportunityDeps) (OpportunityDetail, error) {
	o, ok := deps.Catalog.ByID(query.ID)
	if query.ID == "" || !ok {
		return OpportunityDetail{}, ErrOpportunityNotFound
	}
	return OpportunityDetail{
		ID:           o.ID,
		Section:      o.Section,
		SectionTitle: opportunity.SectionTitles[o.Section],
		Title:        o.Title,
		Org:          o.Org,
		Fee:          o.Fee,
		Image:        o.SafeImage(),
		Description:  o.Body(),
		Body:         markdown.ToHTML(o.Body()),
		Duration:     o.DurationLabel(),
		Languages:    o.LanguagesLabel(),
		MinAge:       o.MinAgeLabel(),
		Tags:         o.TagsLabel(),
		Raw:          o,
	}, nil
}
