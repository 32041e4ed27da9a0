package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/csrf"

	"voluntrip/internal/adapters/markdown"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// timeNow is a variable for testability.
var timeNow = time.Now

// generateID creates a new UUID string.
func generateID() string {
	return uuid.New().String()
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 64<<10))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json_encode_failed", "error", err.Error())
	}
}

// jsonError writes {"error": msg}.
func jsonError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// isFragmentRequest reports whether site.js asked for a partial page.
// Without JavaScript every form posts normally and gets a full page back.
func isFragmentRequest(r *http.Request) bool {
	return r.Header.Get("X-Fragment") == "1"
}

// assetURL makes catalog image paths absolute; remote URLs pass through.
func assetURL(p string) string {
	if p == "" || strings.HasPrefix(p, "/") || strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "http://") {
		return p
	}
	return "/" + p
}

// baseFuncs are replaced per request by renderTemplate; they exist so the
// templates parse.
var baseFuncs = template.FuncMap{
	"csrfField":    func() template.HTML { return "" },
	"csrfToken":    func() string { return "" },
	"visitorID":    func() string { return "" },
	"partnerInbox": func() string { return "" },
	"markdown":     markdown.ToHTML,
	"asset":        assetURL,
	"add":          func(a, b int) int { return a + b },
	"sub":          func(a, b int) int { return a - b },
	"year":         func() int { return timeNow().In(opts.Location).Year() },
}

var (
	tplMu     sync.Mutex
	tplCached *template.Template
)

// resetTemplates drops the parsed templates so the next render reparses them.
func resetTemplates() {
	tplMu.Lock()
	tplCached = nil
	tplMu.Unlock()
}

// templates returns the parsed template set. Outside production the files are
// reparsed on every render so edits show up without a restart.
func templates() (*template.Template, error) {
	tplMu.Lock()
	defer tplMu.Unlock()
	if tplCached != nil && opts.Production {
		return tplCached, nil
	}
	var fsys fs.FS = opts.Templates
	if fsys == nil {
		sub, err := fs.Sub(embeddedTemplates, "templates")
		if err != nil {
			return nil, err
		}
		fsys = sub
	}
	tpl, err := template.New("site").Funcs(baseFuncs).ParseFS(fsys, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	tplCached = tpl
	return tpl, nil
}

// renderTemplate executes the named template with request-bound helpers. Output
// is buffered so a failing template never sends half a page.
func renderTemplate(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	base, err := templates()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl, err := base.Clone()
	if err != nil {
		internalError(w, err)
		return
	}
	tpl.Funcs(template.FuncMap{
		"csrfField":    func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":    func() string { return csrf.Token(r) },
		"partnerInbox": func() string { return opts.PartnerInbox },
	})

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, name, data); err != nil {
		internalError(w, fmt.Errorf("render %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
