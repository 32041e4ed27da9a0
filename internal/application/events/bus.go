package events

import (
	"log/slog"
	"sync"

	"voluntrip/internal/adapters/metrics"
)

// Topics
const (
	TopicDatesChanged   = "dates_changed"
	TopicFiltersChanged = "filters_changed"
)

// Event is one published notification. Fields not relevant to the topic are empty.
type Event struct {
	Topic     string
	VisitorID string
	Kind      string // dates_changed: applied, emptied, cleared
	DateStart string
	DateEnd   string
	Display   string
	Language  string // filters_changed
	Duration  string // filters_changed
	Summary   string // filters_changed after a form submit
}

// Handler receives published events.
type Handler func(Event)

// Bus is an explicit observer list keyed by topic.
// Handlers run synchronously in subscription order on the publishing goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for topic.
func (b *Bus) Subscribe(topic string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
}

// Publish delivers e to every handler of e.Topic. A panicking handler is logged
// and does not stop the others.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[e.Topic]...)
	b.mu.RUnlock()

	for _, h := range hs {
		deliver(h, e)
	}
}

func deliver(h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("event_handler_panic", "topic", e.Topic, "panic", r)
		}
	}()
	h(e)
}

// LogHandler writes every event as a structured log line.
func LogHandler(e Event) {
	slog.Info("app_event", "event", e.Topic, "visitor_id", e.VisitorID, "kind", e.Kind,
		"date_start", e.DateStart, "date_end", e.DateEnd, "language", e.Language, "duration", e.Duration)
}

// MetricsHandler counts rail filter changes. Form submits carry no filters and
// are counted by the form orchestrator instead.
func MetricsHandler(m *metrics.Metrics) Handler {
	return func(e Event) {
		if e.Topic == TopicFiltersChanged && e.Language != "" {
			m.FiltersChanged(e.Language, e.Duration)
		}
	}
}
