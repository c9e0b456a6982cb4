package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strings"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/quote"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/view"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the part of the persistence layer the site service uses.
type Store interface {
	store.QuoteStore
	store.NewsletterStore
	store.SessionStore
	Ping(ctx context.Context) error
}

type Options struct {
	ViewportDefault   int
	AdminEmail        string
	AdminPasswordHash string
	SessionTTL        time.Duration
	Logger            *zap.Logger
	Now               func() time.Time
}

type Handler struct {
	store   Store
	content content.Source
	logger  *zap.Logger
	now     func() time.Time

	viewportDefault   int
	adminEmail        string
	adminPasswordHash string
	sessionTTL        time.Duration
}

type errorResponse struct {
	RequestID string        `json:"request_id"`
	Error     responseError `json:"error"`
}

type responseError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func NewHandler(st Store, source content.Source, options Options) *Handler {
	h := &Handler{
		store:             st,
		content:           source,
		logger:            options.Logger,
		now:               options.Now,
		viewportDefault:   options.ViewportDefault,
		adminEmail:        strings.ToLower(strings.TrimSpace(options.AdminEmail)),
		adminPasswordHash: options.AdminPasswordHash,
		sessionTTL:        options.SessionTTL,
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.viewportDefault <= 0 {
		h.viewportDefault = 1280
	}
	if h.sessionTTL <= 0 {
		h.sessionTTL = 12 * time.Hour
	}
	return h
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.handleHealth)
	mux.Handle("GET /metrics", expvar.Handler())
	mux.Handle("GET /static/", http.FileServerFS(view.Static))

	mux.HandleFunc("GET /{$}", h.handleLanding)
	mux.HandleFunc("GET /search", h.handleSearchPage)
	mux.HandleFunc("GET /quote", h.handleQuotePage)
	mux.HandleFunc("POST /quote", h.handleQuoteSubmit)
	mux.HandleFunc("GET /quote/success", h.handleQuoteSuccess)
	mux.HandleFunc("POST /newsletter", h.handleNewsletterSubmit)
	mux.HandleFunc("GET /newsletter/thanks", h.handleNewsletterThanks)

	mux.HandleFunc("POST /api/quotes", h.handleCreateQuote)
	mux.HandleFunc("POST /api/newsletter", h.handleSubscribe)
	mux.HandleFunc("GET /api/content", h.handleContent)
	mux.HandleFunc("GET /api/search", h.handleSearch)

	admin := http.NewServeMux()
	admin.HandleFunc("POST /api/admin/login", h.handleLogin)
	admin.HandleFunc("GET /api/admin/quotes", h.handleListQuotes)
	admin.HandleFunc("GET /api/admin/quotes/{id}", h.handleGetQuote)
	admin.HandleFunc("GET /api/admin/quotes/{id}/events", h.handleQuoteEvents)
	admin.HandleFunc("POST /api/admin/quotes/{id}/actions/{action}", h.handleQuoteAction)
	admin.HandleFunc("GET /api/admin/stats", h.handleStats)
	mux.Handle("/api/admin/", AuthMiddleware(h.store, admin))
	return mux
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) site() *content.Site {
	return h.content.Site()
}

func isValidUUID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

const maxBodyBytes = 64 << 10

func decodeRequest(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return false
	}
	return true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrQuoteNotFound):
		return http.StatusNotFound, "quote_not_found", "quote not found"
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "quote status does not allow this action"
	case errors.Is(err, store.ErrUnknownAction):
		return http.StatusBadRequest, "unknown_action", "unknown quote action"
	case errors.Is(err, store.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate_request", "request_id was already used for a different quote"
	case errors.Is(err, store.ErrInvalidReference):
		return http.StatusBadRequest, "invalid_service", "service has no reference code"
	case errors.Is(err, store.ErrSessionNotFound), errors.Is(err, store.ErrSessionExpired):
		return http.StatusUnauthorized, "unauthorized", "invalid session"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeFieldErrors(w http.ResponseWriter, requestID string, errs quote.FieldErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
		RequestID: requestID,
		Error: responseError{
			Code:    "validation_failed",
			Message: "one or more fields are invalid",
			Fields:  errs,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func requestIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(requestIDHeader))
}
