package projections

import (
	"context"
	"strconv"

	"voluntrip/internal/domain/daterange"
	"voluntrip/internal/domain/opportunity"
	"voluntrip/internal/domain/pilotform"
)

// AgeField is one child-age input of the pilot form.
type AgeField struct {
	Index int
	Label string
	Value string // "" while unset
}

// FormView is the pilot form as rendered.
type FormView struct {
	State        pilotform.State
	Summary      string
	DatesDisplay string
	DatesMode    daterange.DisplayMode
	Today        string // min of the start field
	EndMin       string
	Ages         []AgeField
	MinAdults    int
	MaxAdults    int
	MinChildren  int
	MaxChildren  int
	MinAge       int
	MaxAge       int
	Error        string // submit validation message, if any
}

// NewFormView derives the rendered form from a normalized state.
func NewFormView(s pilotform.State, today string) FormView {
	text, mode := daterange.DisplayFor(s.DateStart, s.DateEnd)
	v := FormView{
		State:        s,
		Summary:      s.Summary(),
		DatesDisplay: text,
		DatesMode:    mode,
		Today:        today,
		EndMin:       pilotform.EndMin(s.DateStart, today),
		MinAdults:    pilotform.MinAdults,
		MaxAdults:    pilotform.MaxAdults,
		MinChildren:  pilotform.MinChildren,
		MaxChildren:  pilotform.MaxChildren,
		MinAge:       pilotform.MinChildAge,
		MaxAge:       pilotform.MaxChildAge,
		Ages:         make([]AgeField, 0, s.Children),
	}
	for i := 0; i < s.Children; i++ {
		v.Ages = append(v.Ages, AgeField{
			Index: i,
			Label: "Child " + strconv.Itoa(i+1) + " age",
			Value: s.AgeValue(i),
		})
	}
	return v
}

// GetHomeQuery carries everything the home page depends on.
type GetHomeQuery struct {
	Form    pilotform.State // normalized
	Today   string
	Filters opportunity.Filters
}

// HomeView is the whole home page.
type HomeView struct {
	Form   FormView
	Rails  GetRailsResult
	Hotels GetHotelsResult
}

// GetHomeDeps holds dependencies for GetHome.
type GetHomeDeps struct {
	Catalog CatalogReader
}

// QueryGetHome assembles the pilot form, the rails and the hotels aside.
// PRE: query.Form is normalized
// POST: catalog failures are flagged on the affected parts only
func QueryGetHome(ctx context.Context, query GetHomeQuery, deps GetHomeDeps) (HomeView, error) {
	rails, err := QueryGetRails(ctx, GetRailsQuery{Filters: query.Filters}, GetRailsDeps{Catalog: deps.Catalog})
	if err != nil {
		return HomeView{}, err
	}
	hotels, err := QueryGetHotels(ctx, GetHotelsQuery{Form: query.Form}, GetHotelsDeps{Catalog: deps.Catalog})
	if err != nil {
		return HomeView{}, err
	}
	return HomeView{
		Form:   NewFormView(query.Form, query.Today),
		Rails:  rails,
		Hotels: hotels,
	}, nil
}
