package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const zeroUUID = "00000000-0000-0000-0000-000000000000"

const quoteColumns = `quote_id, request_id, reference, name, phone, email, service, details, source, status, note,
	created_at, contacted_at, quoted_at, closed_at`

type Store struct {
	pool *pgxpool.Pool
}

var _ store.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	return NewStore(pool), nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) CreateQuote(ctx context.Context, input store.CreateQuoteInput) (models.Quote, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Quote{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := scanQuote(tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE request_id = $1`, input.RequestID))
	if err == nil {
		existing, err = store.CheckReplay(existing, input)
		return existing, false, err
	}
	if !errors.Is(err, store.ErrQuoteNotFound) {
		return models.Quote{}, false, err
	}

	var seq int
	if err := tx.QueryRow(ctx, `
		INSERT INTO quote_sequences (service, last_value) VALUES ($1, 1)
		ON CONFLICT (service) DO UPDATE SET last_value = quote_sequences.last_value + 1
		RETURNING last_value
	`, input.Service).Scan(&seq); err != nil {
		return models.Quote{}, false, err
	}
	reference, err := store.FormatReference(input.ServiceCode, seq)
	if err != nil {
		return models.Quote{}, false, err
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	quote := models.Quote{
		QuoteID:   uuid.NewString(),
		RequestID: input.RequestID,
		Reference: reference,
		Name:      input.Name,
		Phone:     input.Phone,
		Email:     input.Email,
		Service:   input.Service,
		Details:   input.Details,
		Source:    input.Source,
		Status:    models.StatusNew,
		CreatedAt: pgTime(createdAt),
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO quotes (quote_id, request_id, reference, name, phone, email, service, details, source, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (request_id) DO NOTHING
	`, quote.QuoteID, quote.RequestID, quote.Reference, quote.Name, quote.Phone, quote.Email, quote.Service, quote.Details, quote.Source, quote.Status, quote.CreatedAt)
	if err != nil {
		return models.Quote{}, false, err
	}
	if tag.RowsAffected() == 0 {
		// A concurrent submit with the same request id won the insert.
		_ = tx.Rollback(ctx)
		existing, err := s.getQuoteBy(ctx, "request_id", input.RequestID)
		if err != nil {
			return models.Quote{}, false, err
		}
		existing, err = store.CheckReplay(existing, input)
		return existing, false, err
	}

	payload, err := store.CreatedPayload(quote)
	if err != nil {
		return models.Quote{}, false, err
	}
	if err := appendEvent(ctx, tx, quote.QuoteID, store.EventQuoteCreated, payload, quote.CreatedAt); err != nil {
		return models.Quote{}, false, err
	}
	if err := insertOutboxEvent(ctx, tx, store.EventQuoteCreated, payload, quote.CreatedAt); err != nil {
		return models.Quote{}, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Quote{}, false, err
	}
	return quote, true, nil
}

func (s *Store) GetQuote(ctx context.Context, quoteID string) (models.Quote, error) {
	return s.getQuoteBy(ctx, "quote_id", quoteID)
}

func (s *Store) GetQuoteByReference(ctx context.Context, reference string) (models.Quote, error) {
	return s.getQuoteBy(ctx, "reference", reference)
}

func (s *Store) getQuoteBy(ctx context.Context, column, value string) (models.Quote, error) {
	return scanQuote(s.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE `+column+` = $1`, value))
}

func (s *Store) ListQuotes(ctx context.Context, filter store.ListQuotesFilter) ([]models.Quote, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Service != "" {
		args = append(args, filter.Service)
		conditions = append(conditions, fmt.Sprintf("service = $%d", len(args)))
	}
	if !filter.Before.IsZero() {
		args = append(args, filter.Before)
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", len(args)))
	}
	query := `SELECT ` + quoteColumns + ` FROM quotes`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	args = append(args, clampLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var quotes []models.Quote
	for rows.Next() {
		quote, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		quotes = append(quotes, quote)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *Store) TransitionQuote(ctx context.Context, input store.QuoteActionInput) (models.Quote, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Quote{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	quote, err := scanQuote(tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_id = $1 FOR UPDATE`, input.QuoteID))
	if err != nil {
		return models.Quote{}, err
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	occurredAt = pgTime(occurredAt)
	if err := store.ApplyTransition(&quote, input.Action, occurredAt); err != nil {
		return models.Quote{}, err
	}
	if input.Note != "" {
		quote.Note = input.Note
	}

	if _, err := tx.Exec(ctx, `
		UPDATE quotes
		SET status = $2, note = $3, contacted_at = $4, quoted_at = $5, closed_at = $6
		WHERE quote_id = $1
	`, quote.QuoteID, quote.Status, quote.Note, quote.ContactedAt, quote.QuotedAt, quote.ClosedAt); err != nil {
		return models.Quote{}, err
	}

	eventType := store.EventTypeForStatus(quote.Status)
	payload, err := store.TransitionPayload(quote, input.Actor, input.Note)
	if err != nil {
		return models.Quote{}, err
	}
	if err := appendEvent(ctx, tx, quote.QuoteID, eventType, payload, occurredAt); err != nil {
		return models.Quote{}, err
	}
	if err := insertOutboxEvent(ctx, tx, eventType, payload, occurredAt); err != nil {
		return models.Quote{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Quote{}, err
	}
	return quote, nil
}

func (s *Store) ListQuoteEvents(ctx context.Context, quoteID string) ([]store.QuoteEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT quote_id, seq, type, payload_json, created_at, prev_hash, hash
		FROM quote_events
		WHERE quote_id = $1
		ORDER BY seq ASC
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.QuoteEvent
	for rows.Next() {
		var event store.QuoteEvent
		var payload string
		if err := rows.Scan(&event.QuoteID, &event.Seq, &event.Type, &payload, &event.CreatedAt, &event.PrevHash, &event.Hash); err != nil {
			return nil, err
		}
		event.Payload = json.RawMessage(payload)
		event.CreatedAt = event.CreatedAt.UTC()
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		if _, err := s.GetQuote(ctx, quoteID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *Store) QuoteStats(ctx context.Context, from, to time.Time) ([]models.ServiceStat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT service, status, COUNT(*)
		FROM quotes
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY service, status
		ORDER BY service, status
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.ServiceStat
	for rows.Next() {
		var stat models.ServiceStat
		if err := rows.Scan(&stat.Service, &stat.Status, &stat.Count); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}
	return stats, rows.Err()
}

func (s *Store) Subscribe(ctx context.Context, input store.SubscribeInput) (models.Subscriber, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Subscriber{}, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	sub := models.Subscriber{
		SubscriberID: uuid.NewString(),
		Email:        input.Email,
		Source:       input.Source,
		CreatedAt:    createdAt.UTC(),
	}
	tag, err := tx.Exec(ctx, `
		INSERT INTO newsletter_subscribers (subscriber_id, email, email_lower, source, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email_lower) DO NOTHING
	`, sub.SubscriberID, sub.Email, strings.ToLower(sub.Email), sub.Source, sub.CreatedAt)
	if err != nil {
		return models.Subscriber{}, false, err
	}
	if tag.RowsAffected() == 0 {
		var existing models.Subscriber
		if err := tx.QueryRow(ctx, `
			SELECT subscriber_id, email, source, created_at
			FROM newsletter_subscribers
			WHERE email_lower = $1
		`, strings.ToLower(sub.Email)).Scan(&existing.SubscriberID, &existing.Email, &existing.Source, &existing.CreatedAt); err != nil {
			return models.Subscriber{}, false, err
		}
		return existing, false, nil
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return models.Subscriber{}, false, err
	}
	if err := insertOutboxEvent(ctx, tx, store.EventNewsletterSubscribed, payload, sub.CreatedAt); err != nil {
		return models.Subscriber{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return models.Subscriber{}, false, err
	}
	return sub, true, nil
}

func (s *Store) CreateSession(ctx context.Context, email string, expiresAt time.Time) (models.Session, error) {
	session := models.Session{
		SessionID: uuid.NewString(),
		Email:     email,
		ExpiresAt: expiresAt.UTC(),
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO admin_sessions (session_id, email, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`, session.SessionID, session.Email, session.ExpiresAt, time.Now().UTC())
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return models.Session{}, store.ErrSessionNotFound
	}
	var session models.Session
	err := s.pool.QueryRow(ctx, `
		SELECT session_id, email, expires_at
		FROM admin_sessions
		WHERE session_id = $1
	`, sessionID).Scan(&session.SessionID, &session.Email, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, store.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	if time.Now().After(session.ExpiresAt) {
		return models.Session{}, store.ErrSessionExpired
	}
	return session, nil
}

func (s *Store) ListOutboxEvents(ctx context.Context, offset store.OutboxOffset, limit int) ([]store.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	lastID := offset.LastEventID
	if lastID == "" {
		lastID = zeroUUID
	}
	rows, err := s.pool.Query(ctx, `
		SELECT event_id, type, payload_json, created_at
		FROM outbox_events
		WHERE (created_at, event_id) > ($1, $2)
		ORDER BY created_at ASC, event_id ASC
		LIMIT $3
	`, offset.LastEventTime, lastID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.OutboxEvent
	for rows.Next() {
		var event store.OutboxEvent
		if err := rows.Scan(&event.EventID, &event.Type, &event.Payload, &event.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (s *Store) GetOffset(ctx context.Context, consumer string) (store.OutboxOffset, error) {
	var offset store.OutboxOffset
	err := s.pool.QueryRow(ctx, `
		SELECT last_event_time, last_event_id
		FROM outbox_offsets
		WHERE consumer = $1
	`, consumer).Scan(&offset.LastEventTime, &offset.LastEventID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.OutboxOffset{}, nil
		}
		return store.OutboxOffset{}, err
	}
	return offset, nil
}

func (s *Store) UpdateOffset(ctx context.Context, consumer string, offset store.OutboxOffset) error {
	lastID := offset.LastEventID
	if lastID == "" {
		lastID = zeroUUID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO outbox_offsets (consumer, last_event_time, last_event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (consumer) DO UPDATE
		SET last_event_time = EXCLUDED.last_event_time, last_event_id = EXCLUDED.last_event_id
	`, consumer, offset.LastEventTime, lastID)
	return err
}

func (s *Store) InsertNotification(ctx context.Context, notification store.Notification) error {
	now := time.Now().UTC()
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = now
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (notification_id, event_id, channel, recipient, template, status, attempts, last_error, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, notification.NotificationID, notification.EventID, notification.Channel, notification.Recipient, notification.Template,
		notification.Status, notification.Attempts, notification.LastError, notification.CreatedAt, now)
	return err
}

func (s *Store) MarkNotificationSent(ctx context.Context, notificationID string, attempts int) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET status = $2, attempts = $3, last_error = '', updated_at = $4
		WHERE notification_id = $1
	`, notificationID, store.NotificationSent, attempts, time.Now().UTC())
	return err
}

func (s *Store) MarkNotificationFailed(ctx context.Context, notificationID string, attempts int, lastError string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET status = $2, attempts = $3, last_error = $4, updated_at = $5
		WHERE notification_id = $1
	`, notificationID, store.NotificationFailed, attempts, lastError, time.Now().UTC())
	return err
}

func (s *Store) InsertDLQ(ctx context.Context, notificationID, reason string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notification_dlq (notification_id, reason, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (notification_id) DO NOTHING
	`, notificationID, reason, time.Now().UTC())
	return err
}

func appendEvent(ctx context.Context, tx pgx.Tx, quoteID, eventType string, payload json.RawMessage, createdAt time.Time) error {
	var lastSeq int
	var prevHash string
	err := tx.QueryRow(ctx, `
		SELECT seq, hash FROM quote_events
		WHERE quote_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`, quoteID).Scan(&lastSeq, &prevHash)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	seq := lastSeq + 1
	hash := store.ComputeQuoteEventHash(prevHash, quoteID, eventType, payload, createdAt, seq)
	_, err = tx.Exec(ctx, `
		INSERT INTO quote_events (quote_id, seq, type, payload_json, created_at, prev_hash, hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, quoteID, seq, eventType, string(payload), createdAt, prevHash, hash)
	return err
}

func insertOutboxEvent(ctx context.Context, tx pgx.Tx, eventType string, payload json.RawMessage, createdAt time.Time) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, type, payload_json, created_at)
		VALUES ($1, $2, $3, $4)
	`, uuid.NewString(), eventType, payload, createdAt)
	return err
}

func scanQuote(row pgx.Row) (models.Quote, error) {
	var quote models.Quote
	err := row.Scan(&quote.QuoteID, &quote.RequestID, &quote.Reference, &quote.Name, &quote.Phone, &quote.Email,
		&quote.Service, &quote.Details, &quote.Source, &quote.Status, &quote.Note,
		&quote.CreatedAt, &quote.ContactedAt, &quote.QuotedAt, &quote.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Quote{}, store.ErrQuoteNotFound
		}
		return models.Quote{}, err
	}
	return quote, nil
}

// pgTime truncates to the microsecond precision timestamptz keeps, so event
// hashes computed here still verify after a round trip.
func pgTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 {
		return 200
	}
	return limit
}
