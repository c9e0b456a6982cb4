package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store/sqlite"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type sent struct {
	message   string
	recipient string
}

type recordingProvider struct {
	mu       sync.Mutex
	messages []sent
	failures int
}

func (p *recordingProvider) Send(_ context.Context, message, recipient string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return ErrProviderFailure
	}
	p.messages = append(p.messages, sent{message: message, recipient: recipient})
	return nil
}

func (p *recordingProvider) sent() []sent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]sent(nil), p.messages...)
}

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func createQuote(t *testing.T, st *sqlite.Store) models.Quote {
	t.Helper()
	q, _, err := st.CreateQuote(context.Background(), store.CreateQuoteInput{
		RequestID:   uuid.NewString(),
		Name:        "Asha Menon",
		Phone:       "+91 98765 43210",
		Email:       "asha@example.com",
		Service:     "rental",
		ServiceCode: "RNT",
		Details:     "JCB for two days",
		Source:      models.SourceWeb,
		CreatedAt:   time.Date(2026, 3, 3, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return q
}

func newWorker(st store.NotificationStore, email, sms, wa Provider, maxAttempts int) *Worker {
	return New(st, Config{
		MaxAttempts:   maxAttempts,
		SalesEmail:    "sales@casaterminal.com",
		SalesPhone:    "+91 90000 00000",
		ServiceLabels: map[string]string{"rental": "Equipment Rental"},
		Providers: map[string]Provider{
			ChannelEmail:    email,
			ChannelSMS:      sms,
			ChannelWhatsApp: wa,
		},
	}, nil)
}

func TestRenderTemplate(t *testing.T) {
	payload := payloadData{"reference": "TRN-0004", "name": "Ravi", "phone": "9876543210", "service": "transport"}
	got := renderTemplate(defaultTemplates[TemplateQuoteSMS], payload, "")
	assert.Equal(t, "New transport lead TRN-0004 from Ravi, call 9876543210", got)

	got = renderTemplate(defaultTemplates[TemplateQuoteSales], payload, "Transport & Logistics")
	assert.Contains(t, got, "needs Transport & Logistics. Details: -")
}

func TestRunNotifiesSalesAndVisitor(t *testing.T) {
	st := openStore(t)
	q := createQuote(t, st)
	email, sms, wa := &recordingProvider{}, &recordingProvider{}, &recordingProvider{}
	w := newWorker(st, email, sms, wa, 3)

	require.NoError(t, w.Run(context.Background()))

	emails := email.sent()
	require.Len(t, emails, 2)
	assert.Equal(t, "sales@casaterminal.com", emails[0].recipient)
	assert.Contains(t, emails[0].message, q.Reference)
	assert.Contains(t, emails[0].message, "Equipment Rental")
	assert.Equal(t, "asha@example.com", emails[1].recipient)
	assert.Contains(t, emails[1].message, "Hi Asha Menon")

	require.Len(t, sms.sent(), 1)
	assert.Equal(t, "+91 90000 00000", sms.sent()[0].recipient)
	require.Len(t, wa.sent(), 1)

	offset, err := st.GetOffset(context.Background(), Consumer)
	require.NoError(t, err)
	assert.False(t, offset.LastEventTime.IsZero())

	// A second run finds nothing new.
	require.NoError(t, w.Run(context.Background()))
	assert.Len(t, email.sent(), 2)
}

func TestRunWelcomesSubscriber(t *testing.T) {
	st := openStore(t)
	_, _, err := st.Subscribe(context.Background(), store.SubscribeInput{Email: "new@example.com", Source: models.SourceWeb})
	require.NoError(t, err)
	email := &recordingProvider{}
	w := newWorker(st, email, &recordingProvider{}, &recordingProvider{}, 1)

	require.NoError(t, w.Run(context.Background()))
	require.Len(t, email.sent(), 1)
	assert.Equal(t, "new@example.com", email.sent()[0].recipient)
	assert.Contains(t, email.sent()[0].message, "Welcome")
}

func TestRunRetriesThenSucceeds(t *testing.T) {
	st := &recordingStore{}
	st.events = []store.OutboxEvent{outboxEvent(t, store.EventNewsletterSubscribed, map[string]string{"email": "a@example.com"})}
	email := &recordingProvider{failures: 2}
	w := newWorker(st, email, &recordingProvider{}, &recordingProvider{}, 3)

	require.NoError(t, w.Run(context.Background()))
	require.Len(t, email.sent(), 1)
	require.Len(t, st.sent, 1)
	assert.Equal(t, 3, st.sent[0])
	assert.Empty(t, st.dlq)
}

func TestRunDeadLettersExhaustedNotifications(t *testing.T) {
	st := openStore(t)
	createQuote(t, st)
	w := newWorker(st, failProvider{}, noopProvider{}, noopProvider{}, 2)

	require.NoError(t, w.Run(context.Background()))
	count, err := st.DLQCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunStopsOnStoreFailure(t *testing.T) {
	st := &recordingStore{insertErr: errors.New("disk full")}
	first := outboxEvent(t, store.EventNewsletterSubscribed, map[string]string{"email": "a@example.com"})
	st.events = []store.OutboxEvent{first}
	w := newWorker(st, noopProvider{}, noopProvider{}, noopProvider{}, 1)

	err := w.Run(context.Background())
	require.Error(t, err)
	assert.False(t, st.offsetUpdated)
}

func TestRunSkipsUndecodablePayload(t *testing.T) {
	st := &recordingStore{}
	st.events = []store.OutboxEvent{{EventID: "e-1", Type: store.EventQuoteCreated, Payload: json.RawMessage(`not json`), CreatedAt: time.Now()}}
	w := newWorker(st, noopProvider{}, noopProvider{}, noopProvider{}, 1)

	require.NoError(t, w.Run(context.Background()))
	assert.True(t, st.offsetUpdated)
	assert.Equal(t, "e-1", st.offset.LastEventID)
}

func TestStartStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	w := newWorker(&recordingStore{}, noopProvider{}, noopProvider{}, noopProvider{}, 1)
	go func() {
		Start(ctx, 5*time.Millisecond, w)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
}

func TestStartDefaultsNonPositiveInterval(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	w := newWorker(&recordingStore{}, noopProvider{}, noopProvider{}, noopProvider{}, 1)
	for _, interval := range []time.Duration{0, -time.Second} {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		assert.NotPanics(t, func() { Start(ctx, interval, w) })
	}
}

func TestWebhookProvider(t *testing.T) {
	var got map[string]string
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		if got["recipient"] == "reject" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	provider := NewProvider("webhook", ChannelSMS, ProviderOptions{WebhookURL: server.URL, Token: "t0k"})
	require.NoError(t, provider.Send(context.Background(), "hello", "+91 90000 00000"))
	assert.Equal(t, "Bearer t0k", auth)
	assert.Equal(t, map[string]string{"channel": "sms", "recipient": "+91 90000 00000", "message": "hello"}, got)

	err := NewProvider(server.URL, ChannelSMS, ProviderOptions{}).Send(context.Background(), "hello", "reject")
	require.ErrorIs(t, err, ErrProviderFailure)
}

func TestNewProviderFallbacks(t *testing.T) {
	assert.IsType(t, logProvider{}, NewProvider("webhook", ChannelEmail, ProviderOptions{}))
	assert.IsType(t, logProvider{}, NewProvider("carrier-pigeon", ChannelEmail, ProviderOptions{}))
	assert.IsType(t, noopProvider{}, NewProvider("noop", ChannelEmail, ProviderOptions{}))
	assert.IsType(t, failProvider{}, NewProvider("fail", ChannelEmail, ProviderOptions{}))
}

func outboxEvent(t *testing.T, eventType string, payload any) store.OutboxEvent {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return store.OutboxEvent{EventID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now().UTC()}
}

// recordingStore is an in-memory NotificationStore.
type recordingStore struct {
	mu            sync.Mutex
	events        []store.OutboxEvent
	offset        store.OutboxOffset
	offsetUpdated bool
	insertErr     error
	sent          []int
	dlq           []string
}

func (s *recordingStore) ListOutboxEvents(_ context.Context, offset store.OutboxOffset, limit int) ([]store.OutboxEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.offsetUpdated {
		return nil, nil
	}
	return s.events, nil
}

func (s *recordingStore) GetOffset(context.Context, string) (store.OutboxOffset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, nil
}

func (s *recordingStore) UpdateOffset(_ context.Context, _ string, offset store.OutboxOffset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = offset
	s.offsetUpdated = true
	return nil
}

func (s *recordingStore) InsertNotification(context.Context, store.Notification) error {
	return s.insertErr
}

func (s *recordingStore) MarkNotificationSent(_ context.Context, _ string, attempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, attempts)
	return nil
}

func (s *recordingStore) MarkNotificationFailed(context.Context, string, int, string) error {
	return nil
}

func (s *recordingStore) InsertDLQ(_ context.Context, notificationID, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dlq = append(s.dlq, notificationID)
	return nil
}
