package projections

import (
	"context"
	"strconv"

	"voluntrip/internal/domain/hotel"
	"voluntrip/internal/domain/pilotform"
)

// GetHotelsQuery carries the form whose dates and party fill the booking links.
type GetHotelsQuery struct {
	Form pilotform.State
}

// GetHotelsResult is the hotels aside.
type GetHotelsResult struct {
	DatesLabel string
	Slots      []hotel.Slot
	Failed     bool
}

// GetHotelsDeps holds dependencies for GetHotels.
type GetHotelsDeps struct {
	Catalog HotelReader
}

// QueryGetHotels lays out the hotels with ads interleaved.
// POST: a catalog failure yields an empty, flagged aside rather than an error
func QueryGetHotels(_ context.Context, query GetHotelsQuery, deps GetHotelsDeps) (GetHotelsResult, error) {
	f := query.Form
	res := GetHotelsResult{DatesLabel: hotel.DatesLabel(f.DateStart, f.DateEnd)}
	hotels, err := deps.Catalog.Hotels()
	if err != nil {
		res.Failed = true
		return res, nil
	}
	adults := ""
	if f.Adults > 0 {
		adults = strconv.Itoa(f.Adults)
	}
	res.Slots = hotel.Interleave(hotels, f.DateStart, f.DateEnd, adults)
	return res, nil
}
