package web

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	_ "modernc.org/sqlite"

	"voluntrip/internal/adapters/catalog"
	"voluntrip/internal/adapters/http/middleware"
	"voluntrip/internal/adapters/http/perf"
	"voluntrip/internal/adapters/metrics"
	"voluntrip/internal/adapters/storage"
	formStateStore "voluntrip/internal/adapters/storage/formstate"
	interestStore "voluntrip/internal/adapters/storage/interest"
	outboxStore "voluntrip/internal/adapters/storage/outbox"
	"voluntrip/internal/application/events"
	"voluntrip/internal/domain/opportunity"
)

const testVisitor = "6f1c2d3e-0000-4000-8000-000000000001"

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// testCatalog has one opportunity in nature and one in social; the other
// sections are empty.
func testCatalog() fstest.MapFS {
	fsys := fstest.MapFS{
		"opportunities/nature.json": {Data: []byte(`[
			{"id":"nat-001","title":"Beach clean-up","org":"Ocean Friends","duration":"2–3h",
			 "languages":["PT","EN"],"tags":["outdoors"],"minAge":12,
			 "summary":"Collect litter","description":"Meet at the **pier**."}
		]`)},
		"opportunities/social.json": {Data: []byte(`[
			{"id":"soc-001","title":"Language café","org":"Casa Comum","duration":"1h","languages":["FR"]}
		]`)},
		"hotels.json": {Data: []byte(`[
			{"id":"h1","name":"Casa Azul","area":"Alfama","currency":"€","pricePerNight":85,
			 "affiliateUrl":"https://book.example/h1?ci={CHECKIN}&co={CHECKOUT}&a={ADULTS}"},
			{"id":"h2","name":"Baixa Rooms","area":"Baixa","pricePerNight":"112"},
			{"id":"h3","name":"Miradouro","area":"Graça","pricePerNight":74}
		]`)},
	}
	for _, s := range opportunity.Sections {
		name := catalog.SectionFile(s)
		if _, ok := fsys[name]; !ok {
			fsys[name] = &fstest.MapFile{Data: []byte(`[]`)}
		}
	}
	return fsys
}

// setupSite points the package globals at fresh in-memory stores.
func setupSite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db, ":memory:"); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	m := metrics.New(nil)
	stores = &Stores{
		FormStore:     formStateStore.NewSQLiteStore(db),
		InterestStore: interestStore.NewSQLiteStore(db),
		OutboxStore:   outboxStore.NewSQLiteStore(db),
	}
	services = &Services{
		Catalog: catalog.New(testCatalog(), m),
		Bus:     events.NewBus(),
		Metrics: m,
		Health:  db.PingContext,
	}
	opts = Options{
		Location:        time.UTC,
		DefaultLocation: "Lisbon",
		PartnerInbox:    "partners@voluntrip.pt",
		ReplyTo:         "hello@voluntrip.pt",
	}
	perfCollector = perf.NewCollector(100)
	resetTemplates()

	prev := timeNow
	timeNow = func() time.Time { return fixedTime }
	t.Cleanup(func() { timeNow = prev })
	return db
}

// visitorRequest builds a request from testVisitor. A non-nil form is sent
// url-encoded; fragment adds the X-Fragment header site.js sends.
func visitorRequest(method, target string, form url.Values, fragment bool) *http.Request {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if fragment {
		req.Header.Set("X-Fragment", "1")
	}
	return req.WithContext(middleware.ContextWithVisitor(req.Context(), testVisitor))
}

// TestNewMux tests the assembled middleware chain and routing.
func TestNewMux(t *testing.T) {
	db := setupSite(t)
	m := metrics.New(nil)
	h := NewMux(Options{
		Location:        time.UTC,
		DefaultLocation: "Lisbon",
		PartnerInbox:    "partners@voluntrip.pt",
		CSRFKey:         []byte("0123456789abcdef0123456789abcdef"),
	}, stores, &Services{
		Catalog: catalog.New(testCatalog(), m),
		Bus:     events.NewBus(),
		Metrics: m,
		Health:  db.PingContext,
	}, perf.NewCollector(100))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	if rec.Header().Get("Content-Security-Policy") == "" {
		t.Error("missing Content-Security-Policy")
	}
	var visitor bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.VisitorCookieName {
			visitor = true
		}
	}
	if !visitor {
		t.Error("visitor cookie not issued")
	}
	if !strings.Contains(rec.Body.String(), `name="gorilla.csrf.Token"`) {
		t.Error("pilot form has no CSRF field")
	}

	// a form post without the token is rejected before the handler
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/form", strings.NewReader("intent=save&adults=2"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("POST /form without token = %d, want 403", rec.Code)
	}

	for path, want := range map[string]int{
		"/metrics":    http.StatusOK,
		"/healthz":    http.StatusOK,
		"/debug/perf": http.StatusOK,
		"/nope":       http.StatusNotFound,
	} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		if rec.Code != want {
			t.Errorf("GET %s = %d, want %d", path, rec.Code, want)
		}
	}
}

// TestNewMux_ProductionHidesDebug tests that /debug is not routed in production.
func TestNewMux_ProductionHidesDebug(t *testing.T) {
	setupSite(t)
	h := NewMux(Options{
		Production: true,
		CSRFKey:    []byte("0123456789abcdef0123456789abcdef"),
	}, stores, services, perf.NewCollector(100))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/debug/outbox", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET /debug/outbox in production = %d, want 404", rec.Code)
	}
}

// TestHandleHealthz tests the healthy and failing database cases.
func TestHandleHealthz(t *testing.T) {
	setupSite(t)

	rec := httptest.NewRecorder()
	handleHealthz(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("healthy: %d %q", rec.Code, rec.Body.String())
	}

	services.Health = func(context.Context) error { return errors.New("database is locked") }
	rec = httptest.NewRecorder()
	handleHealthz(rec, httptest.NewRequest("GET", "/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing: %d, want 503", rec.Code)
	}
}

// TestAssetURL tests the image path helper of the templates.
func TestAssetURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"assets/sample/placeholder.svg", "/assets/sample/placeholder.svg"},
		{"/assets/a.jpg", "/assets/a.jpg"},
		{"https://cdn.example/a.jpg", "https://cdn.example/a.jpg"},
	}
	for _, tt := range tests {
		if got := assetURL(tt.in); got != tt.want {
			t.Errorf("assetURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
