package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"voluntrip/internal/adapters/http/middleware"
	"voluntrip/internal/application/orchestrators"
	"voluntrip/internal/domain/daterange"
)

// pickerView is the data of picker.html.
type pickerView struct {
	View      daterange.View
	Display   string
	Mode      daterange.DisplayMode
	Accepted  bool
	Committed bool
	Summary   string // pilot form summary after the action
}

func newPickerView(res orchestrators.PickerResult) *pickerView {
	return &pickerView{
		View:      res.View,
		Display:   res.Display,
		Mode:      res.Mode,
		Accepted:  res.Accepted,
		Committed: res.Committed,
		Summary:   res.Form.Summary(),
	}
}

func pickerDeps() orchestrators.PickerDeps {
	return orchestrators.PickerDeps{
		FormStore:       stores.FormStore,
		Bus:             services.Bus,
		Metrics:         services.Metrics,
		Now:             timeNow,
		Location:        opts.Location,
		DefaultLocation: opts.DefaultLocation,
	}
}

// parseWindow reads the carried view window; anything out of range means
// "unknown" and the picker falls back to the current month.
func parseWindow(year, month int) (int, time.Month) {
	if year < 1 || month < 1 || month > 12 {
		return 0, 0
	}
	return year, time.Month(month)
}

// parsePickerCommand reads the "do" button of the popover form:
// "nav:-1", "nav:1", "select:2026-03-05", "clear" or "apply".
func parsePickerCommand(do string) (action string, delta int, day string) {
	action, arg, _ := strings.Cut(do, ":")
	switch action {
	case orchestrators.PickerNav:
		delta, _ = strconv.Atoi(arg)
	case orchestrators.PickerSelect:
		day = arg
	}
	return action, delta, day
}

// runPicker executes one picker action and maps the errors to a status.
func runPicker(w http.ResponseWriter, r *http.Request, in orchestrators.PickerInput) (orchestrators.PickerResult, bool) {
	in.VisitorID = middleware.VisitorFromContext(r.Context())
	res, err := orchestrators.ExecutePickerAction(r.Context(), in, pickerDeps())
	if errors.Is(err, orchestrators.ErrUnknownPickerAction) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return res, false
	}
	if err != nil {
		internalError(w, err)
		return res, false
	}
	return res, true
}

// handlePickerOpen handles GET /picker: the popover synced from the saved dates.
func handlePickerOpen(w http.ResponseWriter, r *http.Request) {
	if !isFragmentRequest(r) {
		http.Redirect(w, r, "/?picker=open", http.StatusSeeOther)
		return
	}
	res, ok := runPicker(w, r, orchestrators.PickerInput{Action: orchestrators.PickerOpen})
	if !ok {
		return
	}
	renderTemplate(w, r, http.StatusOK, "picker", newPickerView(res))
}

// handlePickerPost handles POST /picker. The in-progress selection and the
// visible month travel in hidden fields; only apply and clear are saved.
func handlePickerPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	action, delta, day := parsePickerCommand(r.PostForm.Get("do"))
	year, month := parseWindow(atoiOrZero(r.PostForm.Get("year")), atoiOrZero(r.PostForm.Get("month")))
	res, ok := runPicker(w, r, orchestrators.PickerInput{
		Action: action,
		Start:  r.PostForm.Get("start"),
		End:    r.PostForm.Get("end"),
		Year:   year,
		Month:  month,
		Delta:  delta,
		Day:    day,
	})
	if !ok {
		return
	}

	if isFragmentRequest(r) {
		renderTemplate(w, r, http.StatusOK, "picker", newPickerView(res))
		return
	}
	if res.Committed {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	renderHome(w, r, http.StatusOK, res.Form, "", newPickerView(res))
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// pickerRequest is the body of POST /api/picker.
type pickerRequest struct {
	Action string `json:"action"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Year   int    `json:"year"`
	Month  int    `json:"month"` // 1-12
	Delta  int    `json:"delta"`
	Day    string `json:"day"`
}

// pickerResponse is the picker after a POST /api/picker.
type pickerResponse struct {
	Display   string      `json:"display"`
	Mode      string      `json:"mode"`
	Accepted  bool        `json:"accepted"`
	Committed bool        `json:"committed"`
	State     string      `json:"state"`
	Start     string      `json:"start"`
	End       string      `json:"end"`
	Year      int         `json:"year"`
	Month     int         `json:"month"`
	Months    []monthJSON `json:"months"`
	Summary   string      `json:"summary"`
}

type monthJSON struct {
	Title    string     `json:"title"`
	Year     int        `json:"year"`
	Month    int        `json:"month"`
	Weekdays []string   `json:"weekdays"`
	Cells    []cellJSON `json:"cells"`
}

type cellJSON struct {
	Placeholder bool   `json:"placeholder,omitempty"`
	Date        string `json:"date,omitempty"`
	Day         int    `json:"day,omitempty"`
	Disabled    bool   `json:"disabled,omitempty"`
	InRange     bool   `json:"inRange,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
}

func newPickerResponse(res orchestrators.PickerResult) pickerResponse {
	v := res.View
	out := pickerResponse{
		Display:   res.Display,
		Mode:      string(res.Mode),
		Accepted:  res.Accepted,
		Committed: res.Committed,
		State:     string(v.State),
		Start:     v.Start,
		End:       v.End,
		Year:      v.Window.Year,
		Month:     int(v.Window.Month),
		Summary:   res.Form.Summary(),
	}
	for _, g := range v.Months {
		m := monthJSON{
			Title:    g.Title,
			Year:     g.Window.Year,
			Month:    int(g.Window.Month),
			Weekdays: g.Weekdays,
			Cells:    make([]cellJSON, 0, len(g.Cells)),
		}
		for _, c := range g.Cells {
			m.Cells = append(m.Cells, cellJSON{
				Placeholder: c.Placeholder,
				Date:        c.ISO(),
				Day:         c.Day(),
				Disabled:    c.Disabled,
				InRange:     c.InRange,
				Selected:    c.Selected,
			})
		}
		out.Months = append(out.Months, m)
	}
	return out
}

// handleAPIPicker handles POST /api/picker, the JSON rendition of the popover.
func handleAPIPicker(w http.ResponseWriter, r *http.Request) {
	var req pickerRequest
	if err := strictDecode(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	year, month := parseWindow(req.Year, req.Month)
	res, err := orchestrators.ExecutePickerAction(r.Context(), orchestrators.PickerInput{
		VisitorID: middleware.VisitorFromContext(r.Context()),
		Action:    req.Action,
		Start:     req.Start,
		End:       req.End,
		Year:      year,
		Month:     month,
		Delta:     req.Delta,
		Day:       req.Day,
	}, pickerDeps())
	if errors.Is(err, orchestrators.ErrUnknownPickerAction) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		internalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPickerResponse(res))
}
