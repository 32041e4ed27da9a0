// Package metrics exposes the Prometheus collectors of the site.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	requestDuration  *prometheus.HistogramVec
	queryDuration    *prometheus.HistogramVec
	pickerActions    *prometheus.CounterVec
	dateChanges      *prometheus.CounterVec
	filterChanges    *prometheus.CounterVec
	formSubmissions  *prometheus.CounterVec
	interests        prometheus.Counter
	emailDeliveries  *prometheus.CounterVec
	catalogLoadFails *prometheus.CounterVec
}

// New registers the collectors on reg. Passing nil uses a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	f := promauto.With(reg)
	return &Metrics{
		gatherer: reg,
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voluntrip_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voluntrip_db_query_duration_seconds",
			Help:    "Duration of database calls by operation",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
		}, []string{"op"}),
		pickerActions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voluntrip_picker_actions_total",
			Help: "Date picker actions by action and outcome",
		}, []string{"action", "outcome"}),
		dateChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voluntrip_dates_changed_total",
			Help: "Committed date changes by kind (applied, emptied, cleared)",
		}, []string{"kind"}),
		filterChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voluntrip_filters_changed_total",
			Help: "Filter changes by language and duration",
		}, []string{"language", "duration"}),
		formSubmissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voluntrip_form_submissions_total",
			Help: "Search form submissions by result",
		}, []string{"result"}),
		interests: f.NewCounter(prometheus.CounterOpts{
			Name: "voluntrip_interests_total",
			Help: "Volunteer interests registered",
		}),
		emailDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voluntrip_email_deliveries_total",
			Help: "Outbox e-mail delivery attempts by action and result",
		}, []string{"action", "result"}),
		catalogLoadFails: f.NewCounterVec(prometheus.CounterOpts{
			Name: "voluntrip_catalog_load_errors_total",
			Help: "Catalog files that failed to load, by section",
		}, []string{"section"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(route, strconv.Itoa(status)).Observe(d.Seconds())
}

// ObserveQuery records one database call.
func (m *Metrics) ObserveQuery(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.queryDuration.WithLabelValues(op).Observe(d.Seconds())
}

// PickerAction counts one picker action; outcome is "ok" or "rejected".
func (m *Metrics) PickerAction(action, outcome string) {
	if m == nil {
		return
	}
	m.pickerActions.WithLabelValues(action, outcome).Inc()
}

// DateChanged counts a committed date change.
func (m *Metrics) DateChanged(kind string) {
	if m == nil {
		return
	}
	m.dateChanges.WithLabelValues(kind).Inc()
}

// FiltersChanged counts a filter change.
func (m *Metrics) FiltersChanged(language, duration string) {
	if m == nil {
		return
	}
	m.filterChanges.WithLabelValues(language, duration).Inc()
}

// FormSubmitted counts a form submission; result is "ok" or "invalid".
func (m *Metrics) FormSubmitted(result string) {
	if m == nil {
		return
	}
	m.formSubmissions.WithLabelValues(result).Inc()
}

// InterestRegistered counts a volunteer interest.
func (m *Metrics) InterestRegistered() {
	if m == nil {
		return
	}
	m.interests.Inc()
}

// EmailDelivery counts an outbox delivery attempt; result is "sent" or "failed".
func (m *Metrics) EmailDelivery(action, result string) {
	if m == nil {
		return
	}
	m.emailDeliveries.WithLabelValues(action, result).Inc()
}

// CatalogLoadFailed counts a catalog file that could not be read.
func (m *Metrics) CatalogLoadFailed(section string) {
	if m == nil {
		return
	}
	m.catalogLoadFails.WithLabelValues(section).Inc()
}
