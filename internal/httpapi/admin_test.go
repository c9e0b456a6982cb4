package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "correct horse battery staple"

func withAdminPassword(t *testing.T) func(*Options) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.MinCost)
	require.NoError(t, err)
	return func(o *Options) {
		o.AdminPasswordHash = string(hash)
		o.SessionTTL = time.Hour
	}
}

func sessionStore(st fakeStore) fakeStore {
	st.getSessionFn = func(_ context.Context, sessionID string) (models.Session, error) {
		switch sessionID {
		case "sess-1":
			return models.Session{SessionID: sessionID, Email: "admin@casaterminal.com", ExpiresAt: fixedNow.Add(time.Hour)}, nil
		case "sess-old":
			return models.Session{}, store.ErrSessionExpired
		default:
			return models.Session{}, store.ErrSessionNotFound
		}
	}
	return st
}

func adminRequest(method, path, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer sess-1")
	return req
}

func TestAdminLogin(t *testing.T) {
	var expires time.Time
	handler := newTestHandler(t, fakeStore{
		createSessFn: func(_ context.Context, email string, expiresAt time.Time) (models.Session, error) {
			expires = expiresAt
			return models.Session{SessionID: "sess-1", Email: email, ExpiresAt: expiresAt}, nil
		},
	}, withAdminPassword(t))

	rec := serve(handler, postJSON("/api/admin/login", `{"email":"Admin@CasaTerminal.com","password":"`+adminPassword+`"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session models.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.Equal(t, "sess-1", session.SessionID)
	assert.Equal(t, "admin@casaterminal.com", session.Email)
	assert.True(t, expires.Equal(fixedNow.Add(time.Hour)))

	rec = serve(handler, postJSON("/api/admin/login", `{"email":"admin@casaterminal.com","password":"wrong"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_credentials", decodeError(t, rec).Error.Code)

	rec = serve(handler, postJSON("/api/admin/login", `{"email":"someone@else.com","password":"`+adminPassword+`"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminLoginDisabledWithoutHash(t *testing.T) {
	handler := newTestHandler(t, fakeStore{})
	rec := serve(handler, postJSON("/api/admin/login", `{"email":"admin@casaterminal.com","password":"x"}`))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminRequiresSession(t *testing.T) {
	handler := newTestHandler(t, sessionStore(fakeStore{}))

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/api/admin/quotes", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing session", decodeError(t, rec).Error.Message)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/quotes", nil)
	req.Header.Set("Authorization", "Bearer sess-old")
	rec = serve(handler, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid session", decodeError(t, rec).Error.Message)

	req = httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	req.Header.Set("X-Session-ID", "sess-1")
	rec = serve(handler, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminListQuotes(t *testing.T) {
	var captured store.ListQuotesFilter
	handler := newTestHandler(t, sessionStore(fakeStore{
		listFn: func(_ context.Context, filter store.ListQuotesFilter) ([]models.Quote, error) {
			captured = filter
			return []models.Quote{{Reference: "RNT-0002"}}, nil
		},
	}))

	rec := serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes?status=new&service=rental&before=2026-03-01T00:00:00Z&limit=5", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusNew, captured.Status)
	assert.Equal(t, "rental", captured.Service)
	assert.Equal(t, 5, captured.Limit)
	assert.True(t, captured.Before.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	var quotes []models.Quote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quotes))
	require.Len(t, quotes, 1)

	for _, query := range []string{"status=pending", "before=yesterday", "limit=-1"} {
		rec = serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes?"+query, ""))
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestAdminGetQuote(t *testing.T) {
	quoteID := uuid.NewString()
	handler := newTestHandler(t, sessionStore(fakeStore{
		getFn: func(_ context.Context, id string) (models.Quote, error) {
			if id != quoteID {
				return models.Quote{}, store.ErrQuoteNotFound
			}
			return models.Quote{QuoteID: id, Reference: "CON-0001"}, nil
		},
	}))

	rec := serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes/"+quoteID, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "CON-0001")

	rec = serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes/"+uuid.NewString(), ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes/not-a-uuid", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminQuoteEventsReportsChain(t *testing.T) {
	quoteID := uuid.NewString()
	created := models.Quote{QuoteID: quoteID, Reference: "PRD-0001", Service: "products", Status: models.StatusNew, CreatedAt: fixedNow}
	payload, err := store.CreatedPayload(created)
	require.NoError(t, err)
	event := store.QuoteEvent{QuoteID: quoteID, Seq: 1, Type: store.EventQuoteCreated, Payload: payload, CreatedAt: fixedNow}
	event.Hash = store.ComputeQuoteEventHash("", quoteID, event.Type, payload, fixedNow, 1)

	events := []store.QuoteEvent{event}
	handler := newTestHandler(t, sessionStore(fakeStore{
		eventsFn: func(context.Context, string) ([]store.QuoteEvent, error) { return events, nil },
	}))

	rec := serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes/"+quoteID+"/events", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp quoteEventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.ChainValid)
	assert.Len(t, resp.Events, 1)

	events[0].Hash = "tampered"
	rec = serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes/"+quoteID+"/events", ""))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.ChainValid)

	events = nil
	rec = serve(handler, adminRequest(http.MethodGet, "/api/admin/quotes/"+quoteID+"/events", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminQuoteAction(t *testing.T) {
	quoteID := uuid.NewString()
	var captured store.QuoteActionInput
	handler := newTestHandler(t, sessionStore(fakeStore{
		transitionFn: func(_ context.Context, input store.QuoteActionInput) (models.Quote, error) {
			captured = input
			if input.Action == store.ActionWin {
				return models.Quote{}, store.ErrInvalidState
			}
			return models.Quote{QuoteID: input.QuoteID, Status: models.StatusContacted}, nil
		},
	}))

	rec := serve(handler, adminRequest(http.MethodPost, "/api/admin/quotes/"+quoteID+"/actions/contact", `{"note":" called back "}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, quoteID, captured.QuoteID)
	assert.Equal(t, store.ActionContact, captured.Action)
	assert.Equal(t, "admin@casaterminal.com", captured.Actor)
	assert.Equal(t, "called back", captured.Note)
	assert.True(t, captured.OccurredAt.Equal(fixedNow))

	rec = serve(handler, adminRequest(http.MethodPost, "/api/admin/quotes/"+quoteID+"/actions/win", ""))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_state", decodeError(t, rec).Error.Code)

	rec = serve(handler, adminRequest(http.MethodPost, "/api/admin/quotes/"+quoteID+"/actions/archive", ""))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_action", decodeError(t, rec).Error.Code)
}

func TestAdminStats(t *testing.T) {
	var from, to time.Time
	handler := newTestHandler(t, sessionStore(fakeStore{
		statsFn: func(_ context.Context, f, tt time.Time) ([]models.ServiceStat, error) {
			from, to = f, tt
			return []models.ServiceStat{{Service: "products", Status: models.StatusNew, Count: 3}}, nil
		},
	}))

	rec := serve(handler, adminRequest(http.MethodGet, "/api/admin/stats", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, to.Equal(fixedNow))
	assert.True(t, from.Equal(fixedNow.Add(-defaultStatsWindow)))

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Stats, 1)
	assert.Equal(t, 3, resp.Stats[0].Count)

	rec = serve(handler, adminRequest(http.MethodGet, "/api/admin/stats?from=2026-03-02T00:00:00Z&to=2026-03-01T00:00:00Z", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
