package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
)

type CreateQuoteInput struct {
	RequestID   string
	Name        string
	Phone       string
	Email       string
	Service     string
	ServiceCode string
	Details     string
	Source      string
	CreatedAt   time.Time
}

// CheckReplay accepts a resubmission of input only when it describes the
// quote already stored under the same request id.
func CheckReplay(existing models.Quote, input CreateQuoteInput) (models.Quote, error) {
	if existing.Service != input.Service || existing.Phone != input.Phone || existing.Email != input.Email {
		return models.Quote{}, ErrDuplicateRequest
	}
	return existing, nil
}

type QuoteActionInput struct {
	QuoteID    string
	Action     string
	Actor      string
	Note       string
	OccurredAt time.Time
}

type ListQuotesFilter struct {
	Status  string
	Service string
	Before  time.Time
	Limit   int
}

type SubscribeInput struct {
	Email     string
	Source    string
	CreatedAt time.Time
}

type QuoteStore interface {
	CreateQuote(ctx context.Context, input CreateQuoteInput) (models.Quote, bool, error)
	GetQuote(ctx context.Context, quoteID string) (models.Quote, error)
	GetQuoteByReference(ctx context.Context, reference string) (models.Quote, error)
	ListQuotes(ctx context.Context, filter ListQuotesFilter) ([]models.Quote, error)
	TransitionQuote(ctx context.Context, input QuoteActionInput) (models.Quote, error)
	ListQuoteEvents(ctx context.Context, quoteID string) ([]QuoteEvent, error)
	QuoteStats(ctx context.Context, from, to time.Time) ([]models.ServiceStat, error)
}

type NewsletterStore interface {
	Subscribe(ctx context.Context, input SubscribeInput) (models.Subscriber, bool, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, email string, expiresAt time.Time) (models.Session, error)
	GetSession(ctx context.Context, sessionID string) (models.Session, error)
}

type OutboxStore interface {
	ListOutboxEvents(ctx context.Context, offset OutboxOffset, limit int) ([]OutboxEvent, error)
	GetOffset(ctx context.Context, consumer string) (OutboxOffset, error)
	UpdateOffset(ctx context.Context, consumer string, offset OutboxOffset) error
}

type NotificationStore interface {
	OutboxStore
	InsertNotification(ctx context.Context, notification Notification) error
	MarkNotificationSent(ctx context.Context, notificationID string, attempts int) error
	MarkNotificationFailed(ctx context.Context, notificationID string, attempts int, lastError string) error
	InsertDLQ(ctx context.Context, notificationID, reason string) error
}

// Store is the full persistence surface shared by the Postgres and SQLite drivers.
type Store interface {
	QuoteStore
	NewsletterStore
	SessionStore
	NotificationStore
	Ping(ctx context.Context) error
	Close()
}

type OutboxEvent struct {
	EventID   string          `json:"event_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

type OutboxOffset struct {
	LastEventTime time.Time
	LastEventID   string
}

// Advance moves the offset past event.
func (o OutboxOffset) Advance(event OutboxEvent) OutboxOffset {
	return OutboxOffset{LastEventTime: event.CreatedAt, LastEventID: event.EventID}
}

type Notification struct {
	NotificationID string
	EventID        string
	Channel        string
	Recipient      string
	Template       string
	Status         string
	Attempts       int
	LastError      string
	CreatedAt      time.Time
}

const (
	NotificationPending = "pending"
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
)

const (
	EventQuoteCreated         = "quote.created"
	EventNewsletterSubscribed = "newsletter.subscribed"
)
