package web

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"voluntrip/internal/adapters/http/middleware"
	"voluntrip/internal/adapters/http/perf"
	"voluntrip/internal/adapters/metrics"
	formStateStore "voluntrip/internal/adapters/storage/formstate"
	interestStore "voluntrip/internal/adapters/storage/interest"
	outboxStore "voluntrip/internal/adapters/storage/outbox"
	"voluntrip/internal/application/events"
	"voluntrip/internal/application/orchestrators"
	"voluntrip/internal/application/projections"
)

// Stores holds all storage dependencies.
type Stores struct {
	FormStore     formStateStore.Store
	InterestStore interestStore.Store
	OutboxStore   outboxStore.Store
}

// Catalog is what the handlers read from the opportunity and hotel catalog.
type Catalog interface {
	projections.CatalogReader
	orchestrators.OpportunityLookup
}

// Services holds the non-storage dependencies of the handlers.
type Services struct {
	Catalog Catalog
	Bus     *events.Bus
	Metrics *metrics.Metrics
	Outbox  *orchestrators.OutboxProcessor // manual retry from /debug/outbox; may be nil
	Health  func(ctx context.Context) error
}

// Options configures the site.
type Options struct {
	StaticDir       string
	Templates       fs.FS // nil uses the templates compiled into the binary
	Location        *time.Location
	DefaultLocation string
	PartnerInbox    string
	ReplyTo         string
	Production      bool // disables /debug and caches parsed templates

	CSRFKey          []byte
	TrustedOrigins   []string
	SecureCookies    bool
	RateLimitPerMin  int
	VisitorCookieTTL time.Duration
	SlowRequest      time.Duration
}

// DefaultRateLimitPerMin applies when Options.RateLimitPerMin is not set.
const DefaultRateLimitPerMin = 120

// Global stores instance (set by NewMux)
var stores *Stores

// Global services instance (set by NewMux)
var services *Services

// Global site options (set by NewMux)
var opts Options

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// NewMux wires HTTP handlers for the site.
func NewMux(o Options, s *Stores, svc *Services, collector *perf.Collector) http.Handler {
	stores = s
	services = svc
	opts = o
	perfCollector = collector
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RateLimitPerMin <= 0 {
		opts.RateLimitPerMin = DefaultRateLimitPerMin
	}
	resetTemplates()

	mux := http.NewServeMux()
	staticFiles := http.FileServer(http.Dir(opts.StaticDir))
	mux.Handle("GET /static/", http.StripPrefix("/static/", staticFiles))
	mux.Handle("GET /assets/", staticFiles)
	registerRoutes(mux)

	limiter := middleware.NewRateLimiter(opts.RateLimitPerMin, time.Minute)

	// Timing -> RateLimit -> Visitor -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(middleware.Routed(mux),
		middleware.SecurityHeaders,
		middleware.CSRF(middleware.CSRFOptions{
			Key:            opts.CSRFKey,
			TrustedOrigins: opts.TrustedOrigins,
			Secure:         opts.SecureCookies,
		}),
		middleware.Visitor(middleware.VisitorOptions{TTL: opts.VisitorCookieTTL, Secure: opts.SecureCookies}),
		middleware.RateLimit(limiter),
		middleware.Timing(middleware.TimingOptions{
			Collector:   collector,
			Metrics:     svc.Metrics,
			SlowRequest: opts.SlowRequest,
		}),
	)
}
