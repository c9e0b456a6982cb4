package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/quote"
)

type createQuoteRequest struct {
	RequestID string `json:"request_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Service   string `json:"service"`
	Details   string `json:"details"`
}

type quoteReceipt struct {
	QuoteID   string    `json:"quote_id"`
	Reference string    `json:"reference"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type subscribeRequest struct {
	Email string `json:"email"`
}

type searchResponse struct {
	Query   string                 `json:"query"`
	Results []content.SearchResult `json:"results"`
}

func (h *Handler) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req createQuoteRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	form := quote.Form{
		RequestID: req.RequestID,
		Name:      req.Name,
		Phone:     req.Phone,
		Email:     req.Email,
		Service:   req.Service,
		Details:   req.Details,
	}.Normalize()

	if form.RequestID == "" {
		writeError(w, form.RequestID, http.StatusBadRequest, "invalid_request", "request_id is required")
		return
	}
	if !isValidUUID(form.RequestID) {
		writeError(w, form.RequestID, http.StatusBadRequest, "invalid_request", "request_id must be a UUID")
		return
	}
	site := h.site()
	if errs := quote.Validate(form, site); !errs.Empty() {
		writeFieldErrors(w, form.RequestID, errs)
		return
	}

	created, isNew, err := h.createQuote(r.Context(), site, form, models.SourceAPI)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, form.RequestID, status, code, msg)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, quoteReceipt{
		QuoteID:   created.QuoteID,
		Reference: created.Reference,
		Status:    created.Status,
		CreatedAt: created.CreatedAt,
	})
}

func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req subscribeRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if msg := newsletterError(email); msg != "" {
		writeFieldErrors(w, requestIDFromRequest(r), quote.FieldErrors{quote.FieldEmail: msg})
		return
	}
	sub, isNew, err := h.subscribe(r.Context(), email, models.SourceAPI)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, requestIDFromRequest(r), status, code, msg)
		return
	}
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	writeJSON(w, status, sub)
}

func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.site())
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, requestIDFromRequest(r), http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	results := h.site().Search(query, limit)
	if results == nil {
		results = []content.SearchResult{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: query, Results: results})
}
