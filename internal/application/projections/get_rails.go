package projections

import (
	"context"

	"voluntrip/internal/domain/opportunity"
)

// GetRailsQuery carries the rail filters.
type GetRailsQuery struct {
	Filters opportunity.Filters
}

// Rail is one horizontal list of opportunity cards.
type Rail struct {
	Section        string
	Title          string
	DOMID          string // "rail-<section>"
	Cards          []opportunity.Opportunity
	ShowSubmitCard bool // a non-empty rail ends with the "Submit your project" card
	Failed         bool // the section could not be loaded
}

// GetRailsResult carries the rails in display order plus the filter options.
type GetRailsResult struct {
	Rails     []Rail
	Filters   opportunity.Filters
	Languages []string
	Durations []string
	Matches   int
}

// GetRailsDeps holds dependencies for GetRails.
type GetRailsDeps struct {
	Catalog SectionReader
}

// QueryGetRails builds every rail with the filters applied.
// PRE: none; unknown filter values have already fallen back to "any"
// POST: one Rail per section in fixed order; a failing section is flagged, not fatal
func QueryGetRails(_ context.Context, query GetRailsQuery, deps GetRailsDeps) (GetRailsResult, error) {
	res := GetRailsResult{
		Filters:   query.Filters,
		Languages: opportunity.Languages,
		Durations: opportunity.Durations,
		Rails:     make([]Rail, 0, len(opportunity.Sections)),
	}
	for _, section := range opportunity.Sections {
		rail := Rail{
			Section: section,
			Title:   opportunity.SectionTitles[section],
			DOMID:   "rail-" + section,
		}
		list, err := deps.Catalog.Section(section)
		if err != nil {
			rail.Failed = true
			res.Rails = append(res.Rails, rail)
			continue
		}
		rail.Cards = query.Filters.Filter(list)
		rail.ShowSubmitCard = len(rail.Cards) > 0
		res.Matches += len(rail.Cards)
		res.Rails = append(res.Rails, rail)
	}
	return res, nil
}
