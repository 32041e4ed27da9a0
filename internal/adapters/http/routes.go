package web

import "net/http"

// registerRoutes adds every page, fragment and API route to mux.
func registerRoutes(mux *http.ServeMux) {
	// pages and fragments
	mux.HandleFunc("GET /{$}", handleHome)
	mux.HandleFunc("POST /form", handleFormPost)
	mux.HandleFunc("GET /picker", handlePickerOpen)
	mux.HandleFunc("POST /picker", handlePickerPost)
	mux.HandleFunc("GET /rails", handleRails)
	mux.HandleFunc("GET /hotels", handleHotels)
	mux.HandleFunc("GET /opportunities/{id}", handleOpportunity)
	mux.HandleFunc("POST /opportunities/{id}/interest", handleInterestPost)

	// JSON
	mux.HandleFunc("GET /api/form", handleAPIForm)
	mux.HandleFunc("POST /api/picker", handleAPIPicker)
	mux.HandleFunc("GET /api/opportunities/{id}", handleAPIOpportunity)

	// operations
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.Handle("GET /metrics", services.Metrics.Handler())

	if !opts.Production {
		mux.HandleFunc("GET /debug/perf", handleDebugPerf)
		mux.HandleFunc("GET /debug/outbox", handleDebugOutbox)
		mux.HandleFunc("POST /debug/outbox/{id}/{action}", handleDebugOutboxAction)
	}
}
