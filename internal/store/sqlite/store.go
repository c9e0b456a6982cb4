// Package sqlite provides a SQLite-backed store for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const quoteColumns = `quote_id, request_id, reference, name, phone, email, service, details, source, status, note,
	created_at, contacted_at, quoted_at, closed_at`

type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

func toNanos(value time.Time) int64 {
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}

func nullableNanos(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toNanos(*value), Valid: true}
}

func fromNullable(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromNanos(value.Int64)
	return &t
}

// Open opens the database at path and applies the embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer at a time; transactions never call back into the pool.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() {
	_ = s.db.Close()
}

func (s *Store) CreateQuote(ctx context.Context, input store.CreateQuoteInput) (models.Quote, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Quote{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

	existing, err := scanQuote(tx.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE request_id = ?`, input.RequestID))
	if err == nil {
		existing, err = store.CheckReplay(existing, input)
		return existing, false, err
	}
	if !errors.Is(err, store.ErrQuoteNotFound) {
		return models.Quote{}, false, err
	}

	var seq int
	if err := tx.QueryRowContext(ctx, `
		INSERT INTO quote_sequences (service, last_value) VALUES (?, 1)
		ON CONFLICT (service) DO UPDATE SET last_value = last_value + 1
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
		CreatedAt: createdAt.UTC(),
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO quotes (quote_id, request_id, reference, name, phone, email, service, details, source, status, created_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)
	`, quote.QuoteID, quote.RequestID, quote.Reference, quote.Name, quote.Phone, quote.Email, quote.Service,
		quote.Details, quote.Source, quote.Status, toNanos(quote.CreatedAt)); err != nil {
		return models.Quote{}, false, err
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
	if err := tx.Commit(); err != nil {
		return models.Quote{}, false, err
	}
	return quote, true, nil
}

func (s *Store) GetQuote(ctx context.Context, quoteID string) (models.Quote, error) {
	return scanQuote(s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_id = ?`, quoteID))
}

func (s *Store) GetQuoteByReference(ctx context.Context, reference string) (models.Quote, error) {
	return scanQuote(s.db.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE reference = ?`, reference))
}

func (s *Store) ListQuotes(ctx context.Context, filter store.ListQuotesFilter) ([]models.Quote, error) {
	var conditions []string
	var args []interface{}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.Service != "" {
		conditions = append(conditions, "service = ?")
		args = append(args, filter.Service)
	}
	if !filter.Before.IsZero() {
		conditions = append(conditions, "created_at < ?")
		args = append(args, toNanos(filter.Before))
	}
	query := `SELECT ` + quoteColumns + ` FROM quotes`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, clampLimit(filter.Limit))

	rows, err := s.db.QueryContext(ctx, query, args...)
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
	return quotes, rows.Err()
}

func (s *Store) TransitionQuote(ctx context.Context, input store.QuoteActionInput) (models.Quote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Quote{}, err
	}
	defer func() { _ = tx.Rollback() }()

	quote, err := scanQuote(tx.QueryRowContext(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE quote_id = ?`, input.QuoteID))
	if err != nil {
		return models.Quote{}, err
	}
	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	occurredAt = occurredAt.UTC()
	if err := store.ApplyTransition(&quote, input.Action, occurredAt); err != nil {
		return models.Quote{}, err
	}
	if input.Note != "" {
		quote.Note = input.Note
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE quotes
		SET status = ?, note = ?, contacted_at = ?, quoted_at = ?, closed_at = ?
		WHERE quote_id = ?
	`, quote.Status, quote.Note, nullableNanos(quote.ContactedAt), nullableNanos(quote.QuotedAt),
		nullableNanos(quote.ClosedAt), quote.QuoteID); err != nil {
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
	if err := tx.Commit(); err != nil {
		return models.Quote{}, err
	}
	return quote, nil
}

func (s *Store) ListQuoteEvents(ctx context.Context, quoteID string) ([]store.QuoteEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT quote_id, seq, type, payload_json, created_at, prev_hash, hash
		FROM quote_events
		WHERE quote_id = ?
		ORDER BY seq ASC
	`, quoteID)
	if err != nil {
		return nil, err
	}
	var events []store.QuoteEvent
	for rows.Next() {
		var event store.QuoteEvent
		var payload string
		var createdAt int64
		if err := rows.Scan(&event.QuoteID, &event.Seq, &event.Type, &payload, &createdAt, &event.PrevHash, &event.Hash); err != nil {
			_ = rows.Close()
			return nil, err
		}
		event.Payload = json.RawMessage(payload)
		event.CreatedAt = fromNanos(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()
	if len(events) == 0 {
		if _, err := s.GetQuote(ctx, quoteID); err != nil {
			return nil, err
		}
	}
	return events, nil
}

func (s *Store) QuoteStats(ctx context.Context, from, to time.Time) ([]models.ServiceStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT service, status, COUNT(*)
		FROM quotes
		WHERE created_at >= ? AND created_at < ?
		GROUP BY service, status
		ORDER BY service, status
	`, toNanos(from), toNanos(to))
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
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return models.Subscriber{}, false, err
	}
	defer func() { _ = tx.Rollback() }()

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
	result, err := tx.ExecContext(ctx, `
		INSERT INTO newsletter_subscribers (subscriber_id, email, email_lower, source, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (email_lower) DO NOTHING
	`, sub.SubscriberID, sub.Email, strings.ToLower(sub.Email), sub.Source, toNanos(sub.CreatedAt))
	if err != nil {
		return models.Subscriber{}, false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return models.Subscriber{}, false, err
	}
	if affected == 0 {
		var existing models.Subscriber
		var existingAt int64
		if err := tx.QueryRowContext(ctx, `
			SELECT subscriber_id, email, source, created_at
			FROM newsletter_subscribers
			WHERE email_lower = ?
		`, strings.ToLower(sub.Email)).Scan(&existing.SubscriberID, &existing.Email, &existing.Source, &existingAt); err != nil {
			return models.Subscriber{}, false, err
		}
		existing.CreatedAt = fromNanos(existingAt)
		return existing, false, nil
	}

	payload, err := json.Marshal(sub)
	if err != nil {
		return models.Subscriber{}, false, err
	}
	if err := insertOutboxEvent(ctx, tx, store.EventNewsletterSubscribed, payload, sub.CreatedAt); err != nil {
		return models.Subscriber{}, false, err
	}
	if err := tx.Commit(); err != nil {
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (session_id, email, expires_at, created_at)
		VALUES (?, ?, ?, ?)
	`, session.SessionID, session.Email, toNanos(session.ExpiresAt), toNanos(time.Now()))
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (models.Session, error) {
	var session models.Session
	var expiresAt int64
	err := s.db.QueryRowContext(ctx, `
		SELECT session_id, email, expires_at
		FROM admin_sessions
		WHERE session_id = ?
	`, sessionID).Scan(&session.SessionID, &session.Email, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, store.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	session.ExpiresAt = fromNanos(expiresAt)
	if time.Now().After(session.ExpiresAt) {
		return models.Session{}, store.ErrSessionExpired
	}
	return session, nil
}

func (s *Store) ListOutboxEvents(ctx context.Context, offset store.OutboxOffset, limit int) ([]store.OutboxEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	var after int64
	if !offset.LastEventTime.IsZero() {
		after = toNanos(offset.LastEventTime)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, type, payload_json, created_at
		FROM outbox_events
		WHERE (created_at, event_id) > (?, ?)
		ORDER BY created_at ASC, event_id ASC
		LIMIT ?
	`, after, offset.LastEventID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []store.OutboxEvent
	for rows.Next() {
		var event store.OutboxEvent
		var payload string
		var createdAt int64
		if err := rows.Scan(&event.EventID, &event.Type, &payload, &createdAt); err != nil {
			return nil, err
		}
		event.Payload = json.RawMessage(payload)
		event.CreatedAt = fromNanos(createdAt)
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *Store) GetOffset(ctx context.Context, consumer string) (store.OutboxOffset, error) {
	var offset store.OutboxOffset
	var lastTime int64
	err := s.db.QueryRowContext(ctx, `
		SELECT last_event_time, last_event_id
		FROM outbox_offsets
		WHERE consumer = ?
	`, consumer).Scan(&lastTime, &offset.LastEventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.OutboxOffset{}, nil
		}
		return store.OutboxOffset{}, err
	}
	offset.LastEventTime = fromNanos(lastTime)
	return offset, nil
}

func (s *Store) UpdateOffset(ctx context.Context, consumer string, offset store.OutboxOffset) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outbox_offsets (consumer, last_event_time, last_event_id)
		VALUES (?, ?, ?)
		ON CONFLICT (consumer) DO UPDATE
		SET last_event_time = excluded.last_event_time, last_event_id = excluded.last_event_id
	`, consumer, toNanos(offset.LastEventTime), offset.LastEventID)
	return err
}

func (s *Store) InsertNotification(ctx context.Context, notification store.Notification) error {
	now := time.Now()
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (notification_id, event_id, channel, recipient, template, status, attempts, last_error, created_at, updated_at)
		VALUES (?,?,?,?,?,?,?,?,?,?)
	`, notification.NotificationID, notification.EventID, notification.Channel, notification.Recipient, notification.Template,
		notification.Status, notification.Attempts, notification.LastError, toNanos(notification.CreatedAt), toNanos(now))
	return err
}

func (s *Store) MarkNotificationSent(ctx context.Context, notificationID string, attempts int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, attempts = ?, last_error = '', updated_at = ?
		WHERE notification_id = ?
	`, store.NotificationSent, attempts, toNanos(time.Now()), notificationID)
	return err
}

func (s *Store) MarkNotificationFailed(ctx context.Context, notificationID string, attempts int, lastError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE notifications
		SET status = ?, attempts = ?, last_error = ?, updated_at = ?
		WHERE notification_id = ?
	`, store.NotificationFailed, attempts, lastError, toNanos(time.Now()), notificationID)
	return err
}

func (s *Store) InsertDLQ(ctx context.Context, notificationID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notification_dlq (notification_id, reason, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (notification_id) DO NOTHING
	`, notificationID, reason, toNanos(time.Now()))
	return err
}

// NotificationStatus returns the stored status and attempt count of a
// notification. Used by the operator CLI and tests.
func (s *Store) NotificationStatus(ctx context.Context, notificationID string) (string, int, error) {
	var status string
	var attempts int
	err := s.db.QueryRowContext(ctx, `
		SELECT status, attempts FROM notifications WHERE notification_id = ?
	`, notificationID).Scan(&status, &attempts)
	return status, attempts, err
}

// DLQCount returns the number of dead-lettered notifications.
func (s *Store) DLQCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notification_dlq`).Scan(&count)
	return count, err
}

func appendEvent(ctx context.Context, tx *sql.Tx, quoteID, eventType string, payload json.RawMessage, createdAt time.Time) error {
	var lastSeq int
	var prevHash string
	err := tx.QueryRowContext(ctx, `
		SELECT seq, hash FROM quote_events
		WHERE quote_id = ?
		ORDER BY seq DESC
		LIMIT 1
	`, quoteID).Scan(&lastSeq, &prevHash)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	seq := lastSeq + 1
	hash := store.ComputeQuoteEventHash(prevHash, quoteID, eventType, payload, createdAt, seq)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO quote_events (quote_id, seq, type, payload_json, created_at, prev_hash, hash)
		VALUES (?,?,?,?,?,?,?)
	`, quoteID, seq, eventType, string(payload), toNanos(createdAt), prevHash, hash)
	return err
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, eventType string, payload json.RawMessage, createdAt time.Time) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outbox_events (event_id, type, payload_json, created_at)
		VALUES (?, ?, ?, ?)
	`, uuid.NewString(), eventType, string(payload), toNanos(createdAt))
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (models.Quote, error) {
	var quote models.Quote
	var createdAt int64
	var contactedAt, quotedAt, closedAt sql.NullInt64
	err := row.Scan(&quote.QuoteID, &quote.RequestID, &quote.Reference, &quote.Name, &quote.Phone, &quote.Email,
		&quote.Service, &quote.Details, &quote.Source, &quote.Status, &quote.Note,
		&createdAt, &contactedAt, &quotedAt, &closedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Quote{}, store.ErrQuoteNotFound
		}
		return models.Quote{}, err
	}
	quote.CreatedAt = fromNanos(createdAt)
	quote.ContactedAt = fromNullable(contactedAt)
	quote.QuotedAt = fromNullable(quotedAt)
	quote.ClosedAt = fromNullable(closedAt)
	return quote, nil
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
