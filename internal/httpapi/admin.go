package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const defaultStatsWindow = 30 * 24 * time.Hour

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type quoteActionRequest struct {
	Note string `json:"note"`
}

type quoteEventsResponse struct {
	QuoteID    string             `json:"quote_id"`
	ChainValid bool               `json:"chain_valid"`
	Events     []store.QuoteEvent `json:"events"`
}

type statsResponse struct {
	From  time.Time            `json:"from"`
	To    time.Time            `json:"to"`
	Stats []models.ServiceStat `json:"stats"`
}

var knownStatuses = map[string]bool{
	models.StatusNew:       true,
	models.StatusContacted: true,
	models.StatusQuoted:    true,
	models.StatusWon:       true,
	models.StatusLost:      true,
	models.StatusCancelled: true,
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	requestID := requestIDFromRequest(r)
	if h.adminPasswordHash == "" {
		writeError(w, requestID, http.StatusServiceUnavailable, "admin_disabled", "admin login is not configured")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	// The hash comparison runs even for an unknown email.
	passwordErr := bcrypt.CompareHashAndPassword([]byte(h.adminPasswordHash), []byte(req.Password))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(h.adminEmail)) == 1
	if passwordErr != nil || !emailOK {
		h.logger.Warn("admin login rejected", zap.String("request_id", requestID))
		writeError(w, requestID, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}
	session, err := h.store.CreateSession(r.Context(), email, h.now().Add(h.sessionTTL))
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, requestID, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleListQuotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	requestID := requestIDFromRequest(r)
	filter := store.ListQuotesFilter{
		Status:  strings.TrimSpace(query.Get("status")),
		Service: strings.TrimSpace(query.Get("service")),
	}
	if filter.Status != "" && !knownStatuses[filter.Status] {
		writeError(w, requestID, http.StatusBadRequest, "invalid_request", "unknown status")
		return
	}
	if raw := query.Get("before"); raw != "" {
		before, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, requestID, http.StatusBadRequest, "invalid_request", "before must be RFC3339 timestamp")
			return
		}
		filter.Before = before
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			writeError(w, requestID, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}
	quotes, err := h.store.ListQuotes(r.Context(), filter)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, requestID, status, code, msg)
		return
	}
	if quotes == nil {
		quotes = []models.Quote{}
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (h *Handler) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := quoteIDFromPath(w, r)
	if !ok {
		return
	}
	found, err := h.store.GetQuote(r.Context(), quoteID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, requestIDFromRequest(r), status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (h *Handler) handleQuoteEvents(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := quoteIDFromPath(w, r)
	if !ok {
		return
	}
	events, err := h.store.ListQuoteEvents(r.Context(), quoteID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, requestIDFromRequest(r), status, code, msg)
		return
	}
	if len(events) == 0 {
		writeError(w, requestIDFromRequest(r), http.StatusNotFound, "quote_not_found", "quote not found")
		return
	}
	valid := true
	if err := store.VerifyQuoteEvents(events); err != nil {
		valid = false
		h.logger.Error("quote event chain broken", zap.String("quote_id", quoteID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, quoteEventsResponse{QuoteID: quoteID, ChainValid: valid, Events: events})
}

func (h *Handler) handleQuoteAction(w http.ResponseWriter, r *http.Request) {
	quoteID, ok := quoteIDFromPath(w, r)
	if !ok {
		return
	}
	requestID := requestIDFromRequest(r)
	action := r.PathValue("action")
	if _, known := store.TargetStatus(action); !known {
		writeError(w, requestID, http.StatusBadRequest, "unknown_action", "unknown quote action")
		return
	}
	var req quoteActionRequest
	if r.ContentLength != 0 && !decodeRequest(w, r, &req) {
		return
	}
	session, ok := sessionFromContext(r.Context())
	if !ok {
		writeError(w, requestID, http.StatusUnauthorized, "unauthorized", "missing session")
		return
	}
	updated, err := h.store.TransitionQuote(r.Context(), store.QuoteActionInput{
		QuoteID:    quoteID,
		Action:     action,
		Actor:      session.Email,
		Note:       strings.TrimSpace(req.Note),
		OccurredAt: h.now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, requestID, status, code, msg)
		return
	}
	h.logger.Info("quote transitioned",
		zap.String("reference", updated.Reference),
		zap.String("action", action),
		zap.String("status", updated.Status),
		zap.String("actor", session.Email),
	)
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	requestID := requestIDFromRequest(r)
	to := h.now().UTC()
	if raw := query.Get("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, requestID, http.StatusBadRequest, "invalid_request", "to must be RFC3339 timestamp")
			return
		}
		to = parsed.UTC()
	}
	from := to.Add(-defaultStatsWindow)
	if raw := query.Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, requestID, http.StatusBadRequest, "invalid_request", "from must be RFC3339 timestamp")
			return
		}
		from = parsed.UTC()
	}
	if !from.Before(to) {
		writeError(w, requestID, http.StatusBadRequest, "invalid_request", "from must be before to")
		return
	}
	stats, err := h.store.QuoteStats(r.Context(), from, to)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, requestID, status, code, msg)
		return
	}
	if stats == nil {
		stats = []models.ServiceStat{}
	}
	writeJSON(w, http.StatusOK, statsResponse{From: from, To: to, Stats: stats})
}

func quoteIDFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	quoteID := r.PathValue("id")
	if !isValidUUID(quoteID) {
		writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "quote_id must be a UUID")
		return "", false
	}
	return quoteID, true
}
