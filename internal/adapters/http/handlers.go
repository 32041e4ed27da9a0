package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"voluntrip/internal/adapters/http/middleware"
	"voluntrip/internal/application/orchestrators"
	"voluntrip/internal/application/projections"
	"voluntrip/internal/domain/daterange"
	"voluntrip/internal/domain/opportunity"
	"voluntrip/internal/domain/pilotform"
)

// pageData is the data of a full page rendered through layout.html.
type pageData struct {
	Page     string // "home" or "opportunity"
	Title    string
	Home     projections.HomeView
	Picker   *pickerView // non-nil renders the date popover open
	Detail   *opportunityView
	Filtered bool // rails filters differ from the defaults
}

// today returns the site's current date as YYYY-MM-DD.
func today() string {
	return daterange.TodayIn(opts.Location, timeNow)().ISO()
}

// loadForm returns the visitor's normalized form.
func loadForm(r *http.Request) (pilotform.State, error) {
	return orchestrators.ExecuteLoadForm(r.Context(), orchestrators.LoadFormInput{
		VisitorID: middleware.VisitorFromContext(r.Context()),
	}, orchestrators.LoadFormDeps{
		FormStore:       stores.FormStore,
		DefaultLocation: opts.DefaultLocation,
	})
}

// applyFilters reads the rail filters from the query string.
func applyFilters(r *http.Request) opportunity.Filters {
	q := r.URL.Query()
	return orchestrators.ExecuteApplyFilters(r.Context(), orchestrators.ApplyFiltersInput{
		VisitorID: middleware.VisitorFromContext(r.Context()),
		Language:  q.Get("language"),
		Duration:  q.Get("duration"),
	}, orchestrators.ApplyFiltersDeps{Bus: services.Bus})
}

// renderHome renders the full home page for form, with an optional form error
// and an optional open date popover.
func renderHome(w http.ResponseWriter, r *http.Request, status int, form pilotform.State, formErr string, picker *pickerView) {
	filters := applyFilters(r)
	home, err := projections.QueryGetHome(r.Context(), projections.GetHomeQuery{
		Form:    form,
		Today:   today(),
		Filters: filters,
	}, projections.GetHomeDeps{Catalog: services.Catalog})
	if err != nil {
		internalError(w, err)
		return
	}
	home.Form.Error = formErr
	renderTemplate(w, r, status, "layout", pageData{
		Page:     "home",
		Title:    "Volunteer in " + form.Location,
		Home:     home,
		Picker:   picker,
		Filtered: !filters.IsDefault(),
	})
}

// handleHome handles GET / for the home page.
// ?picker=open renders the date popover open for browsers without JavaScript.
func handleHome(w http.ResponseWriter, r *http.Request) {
	form, err := loadForm(r)
	if err != nil {
		internalError(w, err)
		return
	}
	var picker *pickerView
	if r.URL.Query().Get("picker") == "open" {
		res, err := orchestrators.ExecutePickerAction(r.Context(), orchestrators.PickerInput{
			VisitorID: middleware.VisitorFromContext(r.Context()),
			Action:    orchestrators.PickerOpen,
		}, pickerDeps())
		if err != nil {
			internalError(w, err)
			return
		}
		picker = newPickerView(res)
	}
	renderHome(w, r, http.StatusOK, form, "", picker)
}

// formInput reads a post of the pilot form. Fields absent from the post stay nil
// so a single changed field can be saved on its own.
func formInput(v url.Values) pilotform.Input {
	field := func(k string) *string {
		if _, ok := v[k]; !ok {
			return nil
		}
		s := v.Get(k)
		return &s
	}
	in := pilotform.Input{
		Location:  field("location"),
		DateStart: field("dateStart"),
		DateEnd:   field("dateEnd"),
		Adults:    field("adults"),
		Children:  field("children"),
	}
	if ages, ok := v["childAge"]; ok {
		in.ChildAges = ages
		in.HasAges = true
	}
	return in
}

// isFormValidation reports whether err is a submit validation failure.
func isFormValidation(err error) bool {
	for _, target := range []error{pilotform.ErrEndBeforeStart, pilotform.ErrMissingAges, pilotform.ErrInvalidAge, pilotform.ErrPastDate} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// handleFormPost handles POST /form.
// intent=save persists the posted fields (site.js sends one per change);
// intent=submit validates, persists and announces the search.
func handleFormPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	intent := r.PostForm.Get("intent")
	if intent != "" && intent != "save" && intent != "submit" {
		http.Error(w, "unknown intent", http.StatusBadRequest)
		return
	}

	res, err := orchestrators.ExecuteSaveForm(r.Context(), orchestrators.SaveFormInput{
		VisitorID: middleware.VisitorFromContext(r.Context()),
		Fields:    formInput(r.PostForm),
		Submit:    intent == "submit",
	}, orchestrators.SaveFormDeps{
		FormStore:       stores.FormStore,
		Bus:             services.Bus,
		Metrics:         services.Metrics,
		Now:             timeNow,
		Location:        opts.Location,
		DefaultLocation: opts.DefaultLocation,
	})
	status := http.StatusOK
	formErr := ""
	if err != nil {
		if !isFormValidation(err) {
			internalError(w, err)
			return
		}
		status = http.StatusBadRequest
		formErr = err.Error()
	}

	if isFragmentRequest(r) {
		view := projections.NewFormView(res.State, res.Today)
		view.Error = formErr
		renderTemplate(w, r, status, "pilot-form", view)
		return
	}
	if formErr != "" {
		renderHome(w, r, status, res.State, formErr, nil)
		return
	}
	http.Redirect(w, r, "/#results", http.StatusSeeOther)
}

// formJSON is the body of GET /api/form.
type formJSON struct {
	State        pilotform.State `json:"state"`
	Summary      string          `json:"summary"`
	DatesDisplay string          `json:"datesDisplay"`
	DatesMode    string          `json:"datesMode"`
	Today        string          `json:"today"`
	EndMin       string          `json:"endMin"`
}

// handleAPIForm handles GET /api/form.
func handleAPIForm(w http.ResponseWriter, r *http.Request) {
	form, err := loadForm(r)
	if err != nil {
		internalError(w, err)
		return
	}
	v := projections.NewFormView(form, today())
	writeJSON(w, http.StatusOK, formJSON{
		State:        v.State,
		Summary:      v.Summary,
		DatesDisplay: v.DatesDisplay,
		DatesMode:    string(v.DatesMode),
		Today:        v.Today,
		EndMin:       v.EndMin,
	})
}

// handleRails handles GET /rails?language=&duration= and returns the rails fragment.
func handleRails(w http.ResponseWriter, r *http.Request) {
	if !isFragmentRequest(r) {
		http.Redirect(w, r, "/?"+r.URL.RawQuery+"#results", http.StatusSeeOther)
		return
	}
	rails, err := projections.QueryGetRails(r.Context(), projections.GetRailsQuery{Filters: applyFilters(r)},
		projections.GetRailsDeps{Catalog: services.Catalog})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "rails", rails)
}

// handleHotels handles GET /hotels and returns the hotels aside for the saved form.
func handleHotels(w http.ResponseWriter, r *http.Request) {
	if !isFragmentRequest(r) {
		http.Redirect(w, r, "/#hotels", http.StatusSeeOther)
		return
	}
	form, err := loadForm(r)
	if err != nil {
		internalError(w, err)
		return
	}
	hotels, err := projections.QueryGetHotels(r.Context(), projections.GetHotelsQuery{Form: form},
		projections.GetHotelsDeps{Catalog: services.Catalog})
	if err != nil {
		internalError(w, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "hotels", hotels)
}

// handleHealthz handles GET /healthz.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if services.Health != nil {
		if err := services.Health(r.Context()); err != nil {
			slog.Warn("health_check_failed", "error", err.Error())
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
