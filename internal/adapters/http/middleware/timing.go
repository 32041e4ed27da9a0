package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"voluntrip/internal/adapters/http/perf"
	"voluntrip/internal/adapters/metrics"
)

// DefaultSlowRequest is the default threshold for slow request warnings.
const DefaultSlowRequest = 200 * time.Millisecond

// unmatchedRoute labels requests no route pattern claimed, keeping metric
// label cardinality bounded.
const unmatchedRoute = "unmatched"

// requestIDCounter is an atomic counter for request IDs.
var requestIDCounter uint64

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
// PRE: code is a valid HTTP status code
// POST: status stored, header written to underlying ResponseWriter
func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// statusWriterPool reduces allocations on the hot path.
var statusWriterPool = sync.Pool{
	New: func() any {
		return &statusWriter{}
	},
}

// routeSlot receives the matched ServeMux pattern from Routed. It travels by
// pointer, so the copies made by r.WithContext further in still share it.
type routeSlot struct {
	pattern string
}

type routeKey struct{}

// Routed wraps the mux so the pattern it matched is reported back to Timing.
// It must be the innermost handler, directly around the ServeMux.
func Routed(mux http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mux.ServeHTTP(w, r)
		if slot, ok := r.Context().Value(routeKey{}).(*routeSlot); ok {
			slot.pattern = r.Pattern
		}
	})
}

// TimingOptions configures the Timing middleware. Nil sinks are skipped.
type TimingOptions struct {
	Collector   *perf.Collector
	Metrics     *metrics.Metrics
	SlowRequest time.Duration // zero uses DefaultSlowRequest
}

// Timing returns middleware that logs request duration.
// Requests to /static/ and /assets/ are excluded.
// Normal requests log at DEBUG; slow requests (above threshold) log at WARN.
// Entries are labelled by route pattern, e.g. "GET /opportunities/{id}".
func Timing(opts TimingOptions) func(http.Handler) http.Handler {
	threshold := opts.SlowRequest
	if threshold <= 0 {
		threshold = DefaultSlowRequest
	}
	thresholdMs := float64(threshold.Microseconds()) / 1000.0

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/assets/") {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			reqID := atomic.AddUint64(&requestIDCounter, 1)
			slot := &routeSlot{}
			r = r.WithContext(context.WithValue(r.Context(), routeKey{}, slot))

			sw := statusWriterPool.Get().(*statusWriter)
			sw.ResponseWriter = w
			sw.status = http.StatusOK
			defer func() {
				elapsed := time.Since(start)
				durationMs := float64(elapsed.Microseconds()) / 1000.0
				route := slot.pattern
				if route == "" {
					route = unmatchedRoute
				}

				if durationMs >= thresholdMs {
					slog.Warn("slow_request",
						"request_id", reqID,
						"method", r.Method,
						"path", path,
						"route", route,
						"status", sw.status,
						"duration_ms", durationMs,
					)
				} else {
					slog.Debug("request",
						"request_id", reqID,
						"method", r.Method,
						"path", path,
						"route", route,
						"status", sw.status,
						"duration_ms", durationMs,
					)
				}

				perfPath := slot.pattern
				if perfPath == "" {
					perfPath = r.Method + " " + path
				}
				opts.Collector.Record(perf.Entry{
					Kind:       perf.KindRequest,
					Path:       perfPath,
					StatusCode: sw.status,
					DurationMs: durationMs,
					Timestamp:  start,
				})
				opts.Metrics.ObserveRequest(route, sw.status, elapsed)

				sw.ResponseWriter = nil
				statusWriterPool.Put(sw)
			}()

			next.ServeHTTP(sw, r)
		})
	}
}
