package worker

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Consumer is the outbox offset name the worker reads under.
const Consumer = "notifications"

var (
	notificationsSent   = expvar.NewInt("notifications_sent_total")
	notificationsFailed = expvar.NewInt("notifications_failed_total")
)

type Config struct {
	BatchSize    int
	MaxAttempts  int
	RetryBackoff time.Duration
	SalesEmail   string
	SalesPhone   string

	// ServiceLabels maps a service value to the label used in messages.
	ServiceLabels map[string]string
	Providers     map[string]Provider
}

type Worker struct {
	store        store.NotificationStore
	logger       *zap.Logger
	tracer       trace.Tracer
	batchSize    int
	maxAttempts  int
	retryBackoff time.Duration
	salesEmail   string
	salesPhone   string
	labels       map[string]string
	providers    map[string]Provider
}

type target struct {
	channel   string
	recipient string
	template  string
}

func New(st store.NotificationStore, cfg Config, logger *zap.Logger) *Worker {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 50
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	providers := map[string]Provider{}
	for _, channel := range []string{ChannelEmail, ChannelSMS, ChannelWhatsApp} {
		providers[channel] = NewProvider("log", channel, ProviderOptions{Logger: logger})
	}
	for channel, provider := range cfg.Providers {
		providers[channel] = provider
	}
	return &Worker{
		store:        st,
		logger:       logger,
		tracer:       otel.Tracer("casa-terminal/worker"),
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		retryBackoff: cfg.RetryBackoff,
		salesEmail:   cfg.SalesEmail,
		salesPhone:   cfg.SalesPhone,
		labels:       cfg.ServiceLabels,
		providers:    providers,
	}
}

// Run processes one batch of outbox events and advances the offset past
// every event it finished. A store failure stops the batch so the event is
// retried on the next run.
func (w *Worker) Run(ctx context.Context) error {
	offset, err := w.store.GetOffset(ctx, Consumer)
	if err != nil {
		return fmt.Errorf("get offset: %w", err)
	}
	events, err := w.store.ListOutboxEvents(ctx, offset, w.batchSize)
	if err != nil {
		return fmt.Errorf("list outbox: %w", err)
	}

	next := offset
	var runErr error
	for _, event := range events {
		if err := w.processEvent(ctx, event); err != nil {
			runErr = fmt.Errorf("event %s: %w", event.EventID, err)
			break
		}
		next = next.Advance(event)
	}
	if next != offset {
		if err := w.store.UpdateOffset(ctx, Consumer, next); err != nil {
			return fmt.Errorf("update offset: %w", err)
		}
	}
	return runErr
}

func (w *Worker) processEvent(ctx context.Context, event store.OutboxEvent) error {
	ctx, span := w.tracer.Start(ctx, "notify "+event.Type, trace.WithAttributes(
		attribute.String("outbox.event_id", event.EventID),
		attribute.String("outbox.event_type", event.Type),
	))
	defer span.End()

	payload := payloadData{}
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		// An undecodable payload can never succeed; skip it.
		w.logger.Error("decode outbox payload", zap.String("event_id", event.EventID), zap.Error(err))
		span.RecordError(err)
		return nil
	}

	for _, t := range w.targetsFor(event.Type, payload) {
		if err := w.deliver(ctx, event, t, payload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	return nil
}

func (w *Worker) targetsFor(eventType string, payload payloadData) []target {
	var targets []target
	add := func(channel, recipient, template string) {
		if recipient != "" {
			targets = append(targets, target{channel: channel, recipient: recipient, template: template})
		}
	}
	switch eventType {
	case store.EventQuoteCreated:
		add(ChannelEmail, w.salesEmail, TemplateQuoteSales)
		add(ChannelSMS, w.salesPhone, TemplateQuoteSMS)
		add(ChannelWhatsApp, w.salesPhone, TemplateQuoteSMS)
		add(ChannelEmail, payload.str("email"), TemplateQuoteAck)
	case store.EventNewsletterSubscribed:
		add(ChannelEmail, payload.str("email"), TemplateNewsletterHi)
	}
	return targets
}

// deliver records one notification and attempts it up to maxAttempts times.
// Provider errors end in the dead-letter table; only store errors are
// returned.
func (w *Worker) deliver(ctx context.Context, event store.OutboxEvent, t target, payload payloadData) error {
	message := renderTemplate(defaultTemplates[t.template], payload, w.labels[payload.str("service")])
	notification := store.Notification{
		NotificationID: uuid.NewString(),
		EventID:        event.EventID,
		Channel:        t.channel,
		Recipient:      t.recipient,
		Template:       t.template,
		Status:         store.NotificationPending,
		CreatedAt:      time.Now().UTC(),
	}
	if err := w.store.InsertNotification(ctx, notification); err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}

	provider := w.providers[t.channel]
	var sendErr error
	attempts := 0
	for attempts < w.maxAttempts {
		attempts++
		sendErr = provider.Send(ctx, message, t.recipient)
		if sendErr == nil {
			break
		}
		w.logger.Warn("notification attempt failed",
			zap.String("notification_id", notification.NotificationID),
			zap.String("channel", t.channel),
			zap.Int("attempt", attempts),
			zap.Error(sendErr),
		)
		if attempts < w.maxAttempts && !w.wait(ctx) {
			break
		}
	}

	if sendErr == nil {
		notificationsSent.Add(1)
		return w.store.MarkNotificationSent(ctx, notification.NotificationID, attempts)
	}
	notificationsFailed.Add(1)
	if err := w.store.MarkNotificationFailed(ctx, notification.NotificationID, attempts, sendErr.Error()); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if err := w.store.InsertDLQ(ctx, notification.NotificationID, "max attempts reached"); err != nil {
		return fmt.Errorf("insert dlq: %w", err)
	}
	return nil
}

func (w *Worker) wait(ctx context.Context) bool {
	if w.retryBackoff <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(w.retryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// DefaultPollInterval applies when Start is given a non-positive interval.
const DefaultPollInterval = 5 * time.Second

// Start runs the worker every interval until ctx is cancelled.
func Start(ctx context.Context, interval time.Duration, w *Worker) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Run(ctx); err != nil {
				w.logger.Error("notification worker run", zap.Error(err))
			}
		}
	}
}
