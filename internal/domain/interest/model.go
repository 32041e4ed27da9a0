package interest

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// MaxMessageLength bounds the free-text note a volunteer can leave.
const MaxMessageLength = 2000

// Domain errors
var (
	ErrEmptyOpportunity = errors.New("an opportunity is required")
	ErrEmptyName        = errors.New("please tell us your name")
	ErrInvalidEmail     = errors.New("please enter a valid e-mail address")
	ErrMessageTooLong   = errors.New("message must be 2000 characters or fewer")
)

// Interest is a visitor's request to help with one opportunity.
type Interest struct {
	ID               string
	OpportunityID    string
	OpportunityTitle string
	VisitorID        string
	Name             string
	Email            string
	Message          string
	// Dates and party copied from the visitor's search form when they asked.
	DateStart string
	DateEnd   string
	Adults    int
	Children  int
	CreatedAt time.Time
}

// Validate checks if the Interest has valid data. Name and e-mail are trimmed
// in place; the e-mail is reduced to its bare address.
// PRE: Interest struct is populated
// POST: Returns nil if valid, error otherwise
func (i *Interest) Validate() error {
	i.Name = strings.TrimSpace(i.Name)
	i.Email = strings.TrimSpace(i.Email)
	i.Message = strings.TrimSpace(i.Message)
	if strings.TrimSpace(i.OpportunityID) == "" {
		return ErrEmptyOpportunity
	}
	if i.Name == "" {
		return ErrEmptyName
	}
	addr, err := mail.ParseAddress(i.Email)
	if err != nil || !strings.Contains(addr.Address, ".") {
		return ErrInvalidEmail
	}
	i.Email = addr.Address
	if len([]rune(i.Message)) > MaxMessageLength {
		return ErrMessageTooLong
	}
	return nil
}

// FirstName returns the first word of the name, for greetings.
func (i Interest) FirstName() string {
	if f := strings.Fields(i.Name); len(f) > 0 {
		return f[0]
	}
	return ""
}
