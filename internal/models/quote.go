package models

import "time"

type Quote struct {
	QuoteID     string     `json:"quote_id"`
	RequestID   string     `json:"request_id"`
	Reference   string     `json:"reference"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Email       string     `json:"email"`
	Service     string     `json:"service"`
	Details     string     `json:"details,omitempty"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	QuotedAt    *time.Time `json:"quoted_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Note        string     `json:"note,omitempty"`
}

const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusQuoted    = "quoted"
	StatusWon       = "won"
	StatusLost      = "lost"
	StatusCancelled = "cancelled"
)

const (
	SourceWeb = "web"
	SourceAPI = "api"
)

// Closed reports whether the quote reached a terminal status.
func (q Quote) Closed() bool {
	switch q.Status {
	case StatusWon, StatusLost, StatusCancelled:
		return true
	default:
		return false
	}
}
