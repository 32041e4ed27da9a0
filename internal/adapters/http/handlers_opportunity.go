package web

import (
	"errors"
	"net/http"

	"voluntrip/internal/adapters/http/middleware"
	"voluntrip/internal/application/orchestrators"
	"voluntrip/internal/application/projections"
	"voluntrip/internal/domain/interest"
)

// interestForm is the "I want to help" form of the detail modal.
type interestForm struct {
	Name    string
	Email   string
	Message string
	Error   string
	Thanks  bool
}

// opportunityView is the data of opportunity.html.
type opportunityView struct {
	Detail   projections.OpportunityDetail
	Interest interestForm
	MaxChars int
}

func newOpportunityView(d projections.OpportunityDetail, f interestForm) *opportunityView {
	return &opportunityView{Detail: d, Interest: f, MaxChars: interest.MaxMessageLength}
}

// renderOpportunity renders the detail as a modal fragment or as a full page.
func renderOpportunity(w http.ResponseWriter, r *http.Request, status int, v *opportunityView) {
	if isFragmentRequest(r) {
		renderTemplate(w, r, status, "opportunity", v)
		return
	}
	renderTemplate(w, r, status, "layout", pageData{
		Page:   "opportunity",
		Title:  v.Detail.Title,
		Detail: v,
	})
}

// handleOpportunity handles GET /opportunities/{id}.
func handleOpportunity(w http.ResponseWriter, r *http.Request) {
	d, err := projections.QueryGetOpportunity(r.Context(), projections.GetOpportunityQuery{ID: r.PathValue("id")},
		projections.GetOpportunityDeps{Catalog: services.Catalog})
	if errors.Is(err, projections.ErrOpportunityNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	renderOpportunity(w, r, http.StatusOK, newOpportunityView(d, interestForm{Thanks: r.URL.Query().Get("thanks") == "1"}))
}

// handleAPIOpportunity handles GET /api/opportunities/{id}.
func handleAPIOpportunity(w http.ResponseWriter, r *http.Request) {
	d, err := projections.QueryGetOpportunity(r.Context(), projections.GetOpportunityQuery{ID: r.PathValue("id")},
		projections.GetOpportunityDeps{Catalog: services.Catalog})
	if errors.Is(err, projections.ErrOpportunityNotFound) {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// interestStatus maps a registration error to a status; 0 means unexpected.
func interestStatus(err error) int {
	switch {
	case errors.Is(err, orchestrators.ErrUnknownOpportunity):
		return http.StatusNotFound
	case errors.Is(err, orchestrators.ErrAlreadyRegistered):
		return http.StatusConflict
	case errors.Is(err, interest.ErrEmptyName),
		errors.Is(err, interest.ErrInvalidEmail),
		errors.Is(err, interest.ErrMessageTooLong),
		errors.Is(err, interest.ErrEmptyOpportunity):
		return http.StatusBadRequest
	}
	return 0
}

// handleInterestPost handles POST /opportunities/{id}/interest.
func handleInterestPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	form := interestForm{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Message: r.PostForm.Get("message"),
	}

	_, err := orchestrators.ExecuteRegisterInterest(r.Context(), orchestrators.RegisterInterestInput{
		OpportunityID: id,
		VisitorID:     middleware.VisitorFromContext(r.Context()),
		Name:          form.Name,
		Email:         form.Email,
		Message:       form.Message,
	}, orchestrators.RegisterInterestDeps{
		InterestStore:   stores.InterestStore,
		OutboxStore:     stores.OutboxStore,
		Opportunities:   services.Catalog,
		FormStore:       stores.FormStore,
		Metrics:         services.Metrics,
		GenerateID:      generateID,
		Now:             timeNow,
		DefaultLocation: opts.DefaultLocation,
		PartnerInbox:    opts.PartnerInbox,
		ReplyTo:         opts.ReplyTo,
	})
	if err != nil {
		status := interestStatus(err)
		if status == 0 {
			internalError(w, err)
			return
		}
		if status == http.StatusNotFound {
			http.NotFound(w, r)
			return
		}
		d, qerr := projections.QueryGetOpportunity(r.Context(), projections.GetOpportunityQuery{ID: id},
			projections.GetOpportunityDeps{Catalog: services.Catalog})
		if qerr != nil {
			internalError(w, qerr)
			return
		}
		form.Error = err.Error()
		renderOpportunity(w, r, status, newOpportunityView(d, form))
		return
	}

	if isFragmentRequest(r) {
		renderTemplate(w, r, http.StatusOK, "interest-thanks", form)
		return
	}
	http.Redirect(w, r, "/opportunities/"+id+"?thanks=1", http.StatusSeeOther)
}
