package projections

import (
	"voluntrip/internal/domain/hotel"
	"voluntrip/internal/domain/opportunity"
)

// SectionReader reads one rail of the catalog.
type SectionReader interface {
	Section(section string) ([]opportunity.Opportunity, error)
}

// OpportunityReader finds one opportunity by ID.
type OpportunityReader interface {
	ByID(id string) (opportunity.Opportunity, bool)
}

// HotelReader lists the hotels of the aside.
type HotelReader interface {
	Hotels() ([]hotel.Hotel, error)
}

// CatalogReader is everything the page projections read from the catalog.
type CatalogReader interface {
	SectionReader
	OpportunityReader
	HotelReader
}
