package store

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
)

type QuoteEvent struct {
	QuoteID   string          `json:"quote_id"`
	Seq       int             `json:"seq"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
}

type eventPayload struct {
	QuoteID     string     `json:"quote_id"`
	Reference   string     `json:"reference"`
	Status      string     `json:"status"`
	Name        string     `json:"name,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Email       string     `json:"email,omitempty"`
	Service     string     `json:"service,omitempty"`
	Details     string     `json:"details,omitempty"`
	Source      string     `json:"source,omitempty"`
	Actor       string     `json:"actor,omitempty"`
	Note        string     `json:"note,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	ContactedAt *time.Time `json:"contacted_at,omitempty"`
	QuotedAt    *time.Time `json:"quoted_at,omitempty"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// CreatedPayload is the payload recorded when a quote is first stored.
func CreatedPayload(quote models.Quote) (json.RawMessage, error) {
	createdAt := quote.CreatedAt
	return json.Marshal(eventPayload{
		QuoteID:   quote.QuoteID,
		Reference: quote.Reference,
		Status:    quote.Status,
		Name:      quote.Name,
		Phone:     quote.Phone,
		Email:     quote.Email,
		Service:   quote.Service,
		Details:   quote.Details,
		Source:    quote.Source,
		CreatedAt: &createdAt,
	})
}

// TransitionPayload is the payload recorded for a status change. Contact
// fields are included so outbox consumers can reach the visitor.
func TransitionPayload(quote models.Quote, actor, note string) (json.RawMessage, error) {
	return json.Marshal(eventPayload{
		QuoteID:     quote.QuoteID,
		Reference:   quote.Reference,
		Status:      quote.Status,
		Name:        quote.Name,
		Email:       quote.Email,
		Service:     quote.Service,
		Actor:       actor,
		Note:        note,
		ContactedAt: quote.ContactedAt,
		QuotedAt:    quote.QuotedAt,
		ClosedAt:    quote.ClosedAt,
	})
}

func ComputeQuoteEventHash(prevHash, quoteID, eventType string, payload json.RawMessage, createdAt time.Time, seq int) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%d|%s", prevHash, quoteID, eventType, createdAt.UTC().Format(time.RFC3339Nano), seq, payload)
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", sum)
}

// VerifyQuoteEvents checks that the hash chain is unbroken.
func VerifyQuoteEvents(events []QuoteEvent) error {
	prev := ""
	for i, event := range events {
		if event.PrevHash != prev {
			return fmt.Errorf("event %d: prev hash mismatch", event.Seq)
		}
		want := ComputeQuoteEventHash(prev, event.QuoteID, event.Type, event.Payload, event.CreatedAt, event.Seq)
		if event.Hash != want {
			return fmt.Errorf("event %d: hash mismatch", event.Seq)
		}
		if event.Seq != i+1 {
			return fmt.Errorf("event %d: out of sequence", event.Seq)
		}
		prev = event.Hash
	}
	return nil
}

func RehydrateQuote(events []QuoteEvent) (models.Quote, error) {
	var quote models.Quote
	for _, event := range events {
		if len(event.Payload) == 0 {
			continue
		}
		var payload eventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return models.Quote{}, err
		}
		if payload.QuoteID != "" {
			quote.QuoteID = payload.QuoteID
		}
		if payload.Reference != "" {
			quote.Reference = payload.Reference
		}
		if payload.Status != "" {
			quote.Status = payload.Status
		}
		if payload.Name != "" {
			quote.Name = payload.Name
		}
		if payload.Phone != "" {
			quote.Phone = payload.Phone
		}
		if payload.Email != "" {
			quote.Email = payload.Email
		}
		if payload.Service != "" {
			quote.Service = payload.Service
		}
		if payload.Details != "" {
			quote.Details = payload.Details
		}
		if payload.Source != "" {
			quote.Source = payload.Source
		}
		if payload.Note != "" {
			quote.Note = payload.Note
		}
		if payload.CreatedAt != nil {
			quote.CreatedAt = *payload.CreatedAt
		}
		if payload.ContactedAt != nil {
			quote.ContactedAt = payload.ContactedAt
		}
		if payload.QuotedAt != nil {
			quote.QuotedAt = payload.QuotedAt
		}
		if payload.ClosedAt != nil {
			quote.ClosedAt = payload.ClosedAt
		}
	}
	return quote, nil
}
