package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voluntrip/internal/adapters/markdown"
	"voluntrip/internal/adapters/metrics"
	"voluntrip/internal/domain/interest"
	"voluntrip/internal/domain/opportunity"
	"voluntrip/internal/domain/outbox"
	"voluntrip/internal/domain/pilotform"
)

// ErrUnknownOpportunity is returned when the opportunity is not in the catalog.
var ErrUnknownOpportunity = errors.New("opportunity not found")

// ErrAlreadyRegistered is returned when the address already asked to help with
// the same opportunity.
var ErrAlreadyRegistered = errors.New("you have already registered interest in this opportunity")

// InterestStoreForOrchestrator is the subset of the interest store used here.
type InterestStoreForOrchestrator interface {
	Save(ctx context.Context, value interest.Interest) error
	CountByEmail(ctx context.Context, opportunityID, email string) (int, error)
}

// OutboxWriter enqueues outbox entries.
type OutboxWriter interface {
	SaveAll(ctx context.Context, entries []outbox.Entry) error
}

// OpportunityLookup finds an opportunity by ID.
type OpportunityLookup interface {
	ByID(id string) (opportunity.Opportunity, bool)
}

// EmailPayload is the JSON stored in an outbox entry and replayed by EmailExecutor.
type EmailPayload struct {
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// --- Register Interest ---

// RegisterInterestInput carries the interest form of the detail modal.
type RegisterInterestInput struct {
	OpportunityID string
	VisitorID     string
	Name          string
	Email         string
	Message       string
}

// RegisterInterestDeps holds dependencies for RegisterInterest.
type RegisterInterestDeps struct {
	InterestStore   InterestStoreForOrchestrator
	OutboxStore     OutboxWriter
	Opportunities   OpportunityLookup
	FormStore       FormStore
	Metrics         *metrics.Metrics
	GenerateID      func() string
	Now             func() time.Time
	DefaultLocation string
	PartnerInbox    string // partner notifications for opportunities without a contact e-mail
	ReplyTo         string
}

// ExecuteRegisterInterest records a visitor's interest in an opportunity and
// enqueues the confirmation and partner e-mails.
// PRE: OpportunityID exists in the catalog
// POST: interest saved; a confirmation and, when the opportunity has a contact
// or a partner inbox is configured, a partner notification are pending
// INVARIANT: an address registers at most once per opportunity
func ExecuteRegisterInterest(ctx context.Context, input RegisterInterestInput, deps RegisterInterestDeps) (interest.Interest, error) {
	opp, ok := deps.Opportunities.ByID(input.OpportunityID)
	if !ok {
		return interest.Interest{}, ErrUnknownOpportunity
	}

	form := pilotform.Defaults(deps.DefaultLocation)
	if deps.FormStore != nil && input.VisitorID != "" {
		loaded, err := ExecuteLoadForm(ctx, LoadFormInput{VisitorID: input.VisitorID}, LoadFormDeps{
			FormStore:       deps.FormStore,
			DefaultLocation: deps.DefaultLocation,
		})
		if err != nil {
			return interest.Interest{}, err
		}
		form = loaded
	}

	now := deps.Now()
	in := interest.Interest{
		ID:               deps.GenerateID(),
		OpportunityID:    opp.ID,
		OpportunityTitle: opp.Title,
		VisitorID:        input.VisitorID,
		Name:             input.Name,
		Email:            input.Email,
		Message:          input.Message,
		DateStart:        form.DateStart,
		DateEnd:          form.DateEnd,
		Adults:           form.Adults,
		Children:         form.Children,
		CreatedAt:        now,
	}
	if err := in.Validate(); err != nil {
		return interest.Interest{}, err
	}

	n, err := deps.InterestStore.CountByEmail(ctx, in.OpportunityID, in.Email)
	if err != nil {
		return interest.Interest{}, fmt.Errorf("check existing interest: %w", err)
	}
	if n > 0 {
		return interest.Interest{}, ErrAlreadyRegistered
	}

	entries, err := interestEmails(in, opp, deps, now)
	if err != nil {
		return interest.Interest{}, err
	}

	if err := deps.InterestStore.Save(ctx, in); err != nil {
		return interest.Interest{}, fmt.Errorf("save interest: %w", err)
	}
	if err := deps.OutboxStore.SaveAll(ctx, entries); err != nil {
		// The interest is kept; the e-mails are the only thing lost.
		slog.Error("interest_event", "event", "interest_email_enqueue_failed", "interest_id", in.ID, "error", err.Error())
	}

	deps.Metrics.InterestRegistered()
	slog.Info("interest_event", "event", "interest_registered", "interest_id", in.ID,
		"opportunity_id", in.OpportunityID, "visitor_id", in.VisitorID, "emails", len(entries))
	return in, nil
}

// interestEmails builds the outbox entries for a new interest.
func interestEmails(in interest.Interest, opp opportunity.Opportunity, deps RegisterInterestDeps, now time.Time) ([]outbox.Entry, error) {
	dates := pilotform.FormatDates(in.DateStart, in.DateEnd)
	party := pilotform.FormatParty(in.Adults, in.Children)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", in.FirstName())
	fmt.Fprintf(&b, "Thanks for offering to help with **%s**", opp.Title)
	if opp.Org != "" {
		fmt.Fprintf(&b, " (%s)", opp.Org)
	}
	b.WriteString(". We have passed your details on and the organisers will be in touch.\n\n")
	fmt.Fprintf(&b, "- Dates: %s\n- Party: %s\n- Duration: %s\n", dates, party, opp.DurationLabel())
	confirmation := EmailPayload{
		To:      []string{in.Email},
		ReplyTo: deps.ReplyTo,
		Subject: "You offered to help: " + opp.Title,
		HTML:    markdown.String(b.String()),
		Text:    b.String(),
	}

	type queued struct {
		action string
		p      EmailPayload
	}
	payloads := []queued{{outbox.ActionVolunteerConfirmation, confirmation}}

	partner := opp.ContactMail
	if partner == "" {
		partner = deps.PartnerInbox
	}
	if partner != "" {
		var pb strings.Builder
		fmt.Fprintf(&pb, "New volunteer for **%s** (`%s`).\n\n", opp.Title, opp.ID)
		fmt.Fprintf(&pb, "- Name: %s\n- E-mail: %s\n- Dates: %s\n- Party: %s\n", in.Name, in.Email, dates, party)
		if in.Message != "" {
			fmt.Fprintf(&pb, "\n%s\n", in.Message)
		}
		payloads = append(payloads, queued{outbox.ActionPartnerNotification, EmailPayload{
			To:      []string{partner},
			ReplyTo: in.Email,
			Subject: "New volunteer interest: " + opp.Title,
			HTML:    markdown.String(pb.String()),
			Text:    pb.String(),
		}})
	}

	entries := make([]outbox.Entry, 0, len(payloads))
	for _, item := range payloads {
		raw, err := json.Marshal(item.p)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", item.action, err)
		}
		e := outbox.NewEntry(deps.GenerateID(), item.action, string(raw), now)
		if err := e.Validate(); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
