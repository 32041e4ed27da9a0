package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	emailAdapter "voluntrip/internal/adapters/email"
	"voluntrip/internal/adapters/http/perf"
	"voluntrip/internal/adapters/metrics"
	domain "voluntrip/internal/domain/outbox"
)

// OutboxStoreForProcessor is the subset of the outbox store the processor uses.
type OutboxStoreForProcessor interface {
	GetByID(ctx context.Context, id string) (domain.Entry, error)
	Save(ctx context.Context, e domain.Entry) error
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)
}

// ActionExecutor executes a specific type of external action.
type ActionExecutor interface {
	// Execute runs the external action with the given payload.
	// Returns the external ID (the provider's message ID) and any error.
	Execute(ctx context.Context, payload string) (string, error)
}

// OutboxOptions tunes the processor. Zero values use the defaults below.
type OutboxOptions struct {
	BaseDelay time.Duration
	MaxDelay  time.Duration
	BatchSize int
	Now       func() time.Time
	Metrics   *metrics.Metrics
	Collector *perf.Collector // delivery timings for /debug/perf
}

// OutboxProcessor delivers queued e-mails, retrying failures with backoff.
type OutboxProcessor struct {
	store     OutboxStoreForProcessor
	executors map[string]ActionExecutor
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	now       func() time.Time
	metrics   *metrics.Metrics
	collector *perf.Collector
}

// NewOutboxProcessor creates a new outbox processor.
func NewOutboxProcessor(store OutboxStoreForProcessor, executors map[string]ActionExecutor, opts OutboxOptions) *OutboxProcessor {
	p := &OutboxProcessor{
		store:     store,
		executors: executors,
		baseDelay: 30 * time.Second,
		maxDelay:  1 * time.Hour,
		batchSize: 10,
		now:       time.Now,
		metrics:   opts.Metrics,
		collector: opts.Collector,
	}
	if opts.BaseDelay > 0 {
		p.baseDelay = opts.BaseDelay
	}
	if opts.MaxDelay > 0 {
		p.maxDelay = opts.MaxDelay
	}
	if opts.BatchSize > 0 {
		p.batchSize = opts.BatchSize
	}
	if opts.Now != nil {
		p.now = opts.Now
	}
	return p
}

// ProcessPending processes pending outbox entries with retries.
// PRE: Context is valid
// POST: due entries are attempted once; failures stay queued until their attempts run out
func (p *OutboxProcessor) ProcessPending(ctx context.Context) error {
	entries, err := p.store.ListPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("list pending outbox entries: %w", err)
	}

	for _, entry := range entries {
		if err := p.processEntry(ctx, entry); err != nil {
			slog.Error("outbox_process_failed", "entry_id", entry.ID, "action_type", entry.ActionType, "error", err.Error())
		}
	}
	return nil
}

// processEntry attempts one entry when its backoff has elapsed.
func (p *OutboxProcessor) processEntry(ctx context.Context, entry domain.Entry) error {
	if p.now().Before(entry.DueAt(p.baseDelay, p.maxDelay)) {
		return nil
	}
	return p.attempt(ctx, entry)
}

func (p *OutboxProcessor) attempt(ctx context.Context, entry domain.Entry) error {
	executor, ok := p.executors[entry.ActionType]
	if !ok {
		entry.MarkAttempt(p.now())
		entry.MarkFailed(fmt.Errorf("no executor registered for action type: %s", entry.ActionType))
		return p.store.Save(ctx, entry)
	}

	entry.MarkAttempt(p.now())
	started := time.Now()
	externalID, err := executor.Execute(ctx, entry.Payload)
	p.recordDelivery(entry.ActionType, started, err)
	if err != nil {
		entry.MarkFailed(err)
		p.metrics.EmailDelivery(entry.ActionType, "failed")
		slog.Warn("outbox_action_failed", "entry_id", entry.ID, "attempt", entry.Attempts, "status", entry.Status, "error", err.Error())
	} else {
		entry.MarkSuccess(externalID)
		p.metrics.EmailDelivery(entry.ActionType, "sent")
		slog.Info("outbox_action_succeeded", "entry_id", entry.ID, "action_type", entry.ActionType, "external_id", externalID)
	}
	return p.store.Save(ctx, entry)
}

func (p *OutboxProcessor) recordDelivery(action string, started time.Time, err error) {
	status := 0
	if err != nil {
		status = 1
	}
	p.collector.Record(perf.Entry{
		Kind:       perf.KindDelivery,
		Path:       action,
		StatusCode: status,
		DurationMs: float64(time.Since(started).Microseconds()) / 1000.0,
		Timestamp:  started,
	})
}

// ProcessSingle attempts one entry now, ignoring its backoff.
// PRE: entryID is non-empty
// POST: Entry is processed, status updated
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in terminal state and cannot be retried", entryID)
	}
	return p.attempt(ctx, entry)
}

// AbandonEntry stops delivery of an entry.
// PRE: entryID is non-empty
// POST: Entry status set to abandoned
func (p *OutboxProcessor) AbandonEntry(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	entry.MarkAbandoned()
	return p.store.Save(ctx, entry)
}

// --- Email Executor ---

// EmailExecutor replays an EmailPayload through an e-mail sender.
type EmailExecutor struct {
	Sender emailAdapter.Sender
	From   string
	Tag    string
}

// Execute sends an email from the payload.
// PRE: payload is valid JSON matching EmailPayload
// POST: email sent via the configured sender, returns the message ID
// INVARIANT: outbox entry status managed by caller
func (e *EmailExecutor) Execute(ctx context.Context, payload string) (string, error) {
	var p EmailPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return "", fmt.Errorf("unmarshal payload: %w", err)
	}
	res, err := e.Sender.Send(ctx, emailAdapter.SendRequest{
		To:      p.To,
		From:    e.From,
		Subject: p.Subject,
		HTML:    p.HTML,
		Text:    p.Text,
		ReplyTo: p.ReplyTo,
		Tag:     e.Tag,
	})
	if err != nil {
		return "", err
	}
	return res.MessageID, nil
}

// EmailExecutors returns one executor per e-mail action, all using sender.
func EmailExecutors(sender emailAdapter.Sender, from string) map[string]ActionExecutor {
	return map[string]ActionExecutor{
		domain.ActionVolunteerConfirmation: &EmailExecutor{Sender: sender, From: from, Tag: domain.ActionVolunteerConfirmation},
		domain.ActionPartnerNotification:   &EmailExecutor{Sender: sender, From: from, Tag: domain.ActionPartnerNotification},
	}
}

// --- Background Worker ---

// StartBackgroundWorker starts a background goroutine that periodically processes pending outbox entries.
// PRE: stopCh is provided to signal shutdown
// POST: Worker runs until stopCh is closed
func StartBackgroundWorker(processor *OutboxProcessor, interval time.Duration, stopCh <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
				if err := processor.ProcessPending(ctx); err != nil {
					slog.Error("outbox_background_process_failed", "error", err.Error())
				}
				cancel()
			case <-stopCh:
				slog.Info("outbox_background_worker_stopped")
				return
			}
		}
	}()
}
