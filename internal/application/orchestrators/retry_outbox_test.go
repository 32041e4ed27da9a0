package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	emailAdapter "voluntrip/internal/adapters/email"
	"voluntrip/internal/adapters/http/perf"
	"voluntrip/internal/adapters/metrics"
	domain "voluntrip/internal/domain/outbox"
)

// stubExecutor returns err for the first failures calls, then succeeds.
type stubExecutor struct {
	failures int
	calls    int
}

// Execute implements ActionExecutor.
func (s *stubExecutor) Execute(_ context.Context, _ string) (string, error) {
	s.calls++
	if s.calls <= s.failures {
		return "", errors.New("provider down")
	}
	return "msg-1", nil
}

// clock is a settable time source.
type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func seedEntry(t *testing.T, store *mockOutboxStore, id, action string) {
	t.Helper()
	e := domain.NewEntry(id, action, `{"to":["a@b.pt"],"subject":"Hi"}`, fixedTime)
	if err := store.Save(context.Background(), e); err != nil {
		t.Fatal(err)
	}
}

// TestOutboxProcessor_Success tests that a due entry is delivered.
func TestOutboxProcessor_Success(t *testing.T) {
	store := newMockOutboxStore()
	seedEntry(t, store, "e1", domain.ActionVolunteerConfirmation)
	exec := &stubExecutor{}
	collector := perf.NewCollector(10)
	p := NewOutboxProcessor(store, map[string]ActionExecutor{domain.ActionVolunteerConfirmation: exec},
		OutboxOptions{Now: fixedNow, Metrics: metrics.New(nil), Collector: collector})

	if err := p.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	got, _ := store.GetByID(context.Background(), "e1")
	if got.Status != domain.StatusDone || got.ExternalID != "msg-1" || got.Attempts != 1 {
		t.Errorf("entry = %+v", got)
	}
	snap := collector.Snapshot(time.Time{}, 5)
	if len(snap.SlowestDeliveries) != 1 || snap.SlowestDeliveries[0].Path != domain.ActionVolunteerConfirmation {
		t.Errorf("deliveries = %+v", snap.SlowestDeliveries)
	}
}

// TestOutboxProcessor_Backoff tests that a failed entry waits before the next attempt.
func TestOutboxProcessor_Backoff(t *testing.T) {
	store := newMockOutboxStore()
	seedEntry(t, store, "e1", domain.ActionVolunteerConfirmation)
	exec := &stubExecutor{failures: 1}
	c := &clock{t: fixedTime}
	p := NewOutboxProcessor(store, map[string]ActionExecutor{domain.ActionVolunteerConfirmation: exec},
		OutboxOptions{BaseDelay: time.Minute, MaxDelay: time.Hour, Now: c.now})
	ctx := context.Background()

	p.ProcessPending(ctx)
	got, _ := store.GetByID(ctx, "e1")
	if got.Status != domain.StatusRetrying || got.ErrorMessage != "provider down" {
		t.Fatalf("after failure: %+v", got)
	}

	// 2^1 * 1m = 2m backoff.
	c.t = fixedTime.Add(90 * time.Second)
	p.ProcessPending(ctx)
	if exec.calls != 1 {
		t.Fatalf("attempted during backoff: calls = %d", exec.calls)
	}

	c.t = fixedTime.Add(2 * time.Minute)
	p.ProcessPending(ctx)
	got, _ = store.GetByID(ctx, "e1")
	if exec.calls != 2 || got.Status != domain.StatusDone {
		t.Errorf("after backoff: calls = %d, entry = %+v", exec.calls, got)
	}
}

// TestOutboxProcessor_GivesUp tests that an entry fails after its last attempt.
func TestOutboxProcessor_GivesUp(t *testing.T) {
	store := newMockOutboxStore()
	seedEntry(t, store, "e1", domain.ActionPartnerNotification)
	exec := &stubExecutor{failures: 100}
	c := &clock{t: fixedTime}
	p := NewOutboxProcessor(store, map[string]ActionExecutor{domain.ActionPartnerNotification: exec},
		OutboxOptions{BaseDelay: time.Second, MaxDelay: time.Second, Now: c.now})
	ctx := context.Background()

	for i := 0; i < domain.DefaultMaxAttempts+2; i++ {
		p.ProcessPending(ctx)
		c.t = c.t.Add(time.Second)
	}
	got, _ := store.GetByID(ctx, "e1")
	if got.Status != domain.StatusFailed || got.Attempts != domain.DefaultMaxAttempts {
		t.Errorf("entry = %+v", got)
	}
	if exec.calls != domain.DefaultMaxAttempts {
		t.Errorf("calls = %d, want %d", exec.calls, domain.DefaultMaxAttempts)
	}
}

// TestOutboxProcessor_UnknownAction tests entries without an executor.
func TestOutboxProcessor_UnknownAction(t *testing.T) {
	store := newMockOutboxStore()
	seedEntry(t, store, "e1", "carrier_pigeon")
	p := NewOutboxProcessor(store, nil, OutboxOptions{Now: fixedNow})

	p.ProcessPending(context.Background())
	got, _ := store.GetByID(context.Background(), "e1")
	if got.Attempts != 1 || got.ErrorMessage == "" {
		t.Errorf("entry = %+v", got)
	}
}

// TestOutboxProcessor_ProcessSingleAndAbandon tests manual retry and abandon.
func TestOutboxProcessor_ProcessSingleAndAbandon(t *testing.T) {
	store := newMockOutboxStore()
	seedEntry(t, store, "e1", domain.ActionVolunteerConfirmation)
	seedEntry(t, store, "e2", domain.ActionVolunteerConfirmation)
	p := NewOutboxProcessor(store, map[string]ActionExecutor{domain.ActionVolunteerConfirmation: &stubExecutor{}},
		OutboxOptions{Now: fixedNow})
	ctx := context.Background()

	if err := p.ProcessSingle(ctx, "e1"); err != nil {
		t.Fatalf("ProcessSingle: %v", err)
	}
	if err := p.ProcessSingle(ctx, "e1"); err == nil {
		t.Error("expected error retrying a delivered entry")
	}
	if err := p.AbandonEntry(ctx, "e2"); err != nil {
		t.Fatalf("AbandonEntry: %v", err)
	}
	got, _ := store.GetByID(ctx, "e2")
	if got.Status != domain.StatusAbandoned {
		t.Errorf("status = %s", got.Status)
	}
	pending, _ := store.ListPending(ctx, 10)
	if len(pending) != 0 {
		t.Errorf("pending = %d, want 0", len(pending))
	}
}

// TestEmailExecutor tests replaying a payload through a sender.
func TestEmailExecutor(t *testing.T) {
	sender := emailAdapter.NewNoopSender()
	executors := EmailExecutors(sender, "Voluntrip <hello@voluntrip.pt>")
	raw, _ := json.Marshal(EmailPayload{
		To:      []string{"ana@example.pt"},
		ReplyTo: "hello@voluntrip.pt",
		Subject: "You offered to help",
		HTML:    "<p>Thanks</p>",
		Text:    "Thanks",
	})

	id, err := executors[domain.ActionVolunteerConfirmation].Execute(context.Background(), string(raw))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if id != "noop-1" {
		t.Errorf("message id = %q", id)
	}
	sent := sender.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent = %d", len(sent))
	}
	if sent[0].Tag != domain.ActionVolunteerConfirmation || sent[0].From != "Voluntrip <hello@voluntrip.pt>" || sent[0].To[0] != "ana@example.pt" {
		t.Errorf("request = %+v", sent[0])
	}

	if _, err := executors[domain.ActionPartnerNotification].Execute(context.Background(), "{"); err == nil {
		t.Error("expected error for malformed payload")
	}
	if _, err := executors[domain.ActionPartnerNotification].Execute(context.Background(), `{"subject":"x"}`); !errors.Is(err, emailAdapter.ErrNoRecipients) {
		t.Errorf("err = %v, want ErrNoRecipients", err)
	}
}

// TestStartBackgroundWorker tests that the worker delivers and stops.
func TestStartBackgroundWorker(t *testing.T) {
	store := newMockOutboxStore()
	seedEntry(t, store, "e1", domain.ActionVolunteerConfirmation)
	p := NewOutboxProcessor(store, map[string]ActionExecutor{domain.ActionVolunteerConfirmation: &stubExecutor{}},
		OutboxOptions{Now: fixedNow})

	stop := make(chan struct{})
	StartBackgroundWorker(p, 5*time.Millisecond, stop)
	defer close(stop)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, _ := store.GetByID(context.Background(), "e1")
		if got.Status == domain.StatusDone {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("worker did not deliver the entry")
}
