package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/layout"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/quote"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/view"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// pageModel restores the landing page's toggle state from the query string
// and picks the layout width from the request.
func (h *Handler) pageModel(r *http.Request, site *content.Site) view.PageModel {
	values := r.URL.Query()
	return view.PageModel{
		Site:   site,
		Nav:    layout.ParseNavState(values, viewportWidth(r, h.viewportDefault)),
		Footer: layout.ParseFooterState(values),
		Year:   h.now().Year(),
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page view.PageModel) {
	advertiseViewportHints(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := view.Landing(page).Render(w); err != nil {
		h.logger.Warn("render page", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

func (h *Handler) handleLanding(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, h.pageModel(r, h.site()))
}

func (h *Handler) handleSearchPage(w http.ResponseWriter, r *http.Request) {
	site := h.site()
	page := h.pageModel(r, site)
	page.Nav = page.Nav.Apply(layout.OpenSearch())
	page.SearchQuery = strings.TrimSpace(r.URL.Query().Get("q"))
	page.SearchResults = site.Search(page.SearchQuery, 0)
	h.render(w, r, http.StatusOK, page)
}

func (h *Handler) handleQuotePage(w http.ResponseWriter, r *http.Request) {
	site := h.site()
	service := strings.TrimSpace(r.URL.Query().Get("service"))
	if _, ok := site.QuoteService(service); !ok {
		service = ""
	}
	page := h.pageModel(r, site)
	page.Quote = &view.QuoteModel{
		Step:   quote.StepContact,
		Form:   quote.NewForm(service),
		Errors: quote.FieldErrors{},
	}
	h.render(w, r, http.StatusOK, page)
}

func (h *Handler) handleQuoteSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	site := h.site()
	form := quote.FormFromValues(r.PostForm)
	if !isValidUUID(form.RequestID) {
		form.RequestID = uuid.NewString()
	}
	page := h.pageModel(r, site)

	if r.PostForm.Get("back") != "" {
		page.Quote = &view.QuoteModel{Step: quote.StepContact, Form: form, Errors: quote.FieldErrors{}}
		h.render(w, r, http.StatusOK, page)
		return
	}

	next, errs := quote.Advance(quote.ParseStep(r.PostForm.Get("step")), form, site)
	if !errs.Empty() {
		page.Quote = &view.QuoteModel{Step: next, Form: form, Errors: errs}
		h.render(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	if next != quote.StepSubmit {
		page.Quote = &view.QuoteModel{Step: next, Form: form, Errors: errs}
		h.render(w, r, http.StatusOK, page)
		return
	}

	created, _, err := h.createQuote(r.Context(), site, form, models.SourceWeb)
	if err != nil {
		status, _, msg := mapError(err)
		h.logger.Error("create quote", zap.String("request_id", form.RequestID), zap.Error(err))
		http.Error(w, msg, status)
		return
	}
	http.Redirect(w, r, "/quote/success?ref="+url.QueryEscape(created.Reference), http.StatusSeeOther)
}

func (h *Handler) handleQuoteSuccess(w http.ResponseWriter, r *http.Request) {
	reference := strings.TrimSpace(r.URL.Query().Get("ref"))
	if reference == "" {
		http.NotFound(w, r)
		return
	}
	created, err := h.store.GetQuoteByReference(r.Context(), reference)
	if err != nil {
		if errors.Is(err, store.ErrQuoteNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("load quote", zap.String("reference", reference), zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	page := h.pageModel(r, h.site())
	page.Quote = &view.QuoteModel{Success: true, Reference: created.Reference}
	h.render(w, r, http.StatusOK, page)
}

func (h *Handler) handleNewsletterSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	email := strings.TrimSpace(r.PostForm.Get("email"))
	if msg := newsletterError(email); msg != "" {
		page := h.pageModel(r, h.site())
		page.Newsletter = view.NewsletterModel{Email: email, Error: msg}
		h.render(w, r, http.StatusUnprocessableEntity, page)
		return
	}
	if _, _, err := h.subscribe(r.Context(), email, models.SourceWeb); err != nil {
		h.logger.Error("subscribe", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/newsletter/thanks", http.StatusSeeOther)
}

func (h *Handler) handleNewsletterThanks(w http.ResponseWriter, r *http.Request) {
	page := h.pageModel(r, h.site())
	page.Newsletter = view.NewsletterModel{Subscribed: true}
	h.render(w, r, http.StatusOK, page)
}

func newsletterError(email string) string {
	switch {
	case email == "":
		return "Please enter your email"
	case !quote.ValidEmail(email):
		return "Enter a valid email address"
	default:
		return ""
	}
}

// createQuote stores a validated form. The second result is false when the
// request id was already used for the same quote.
func (h *Handler) createQuote(ctx context.Context, site *content.Site, form quote.Form, source string) (models.Quote, bool, error) {
	form = form.Normalize()
	svc, ok := site.QuoteService(form.Service)
	if !ok {
		return models.Quote{}, false, store.ErrInvalidReference
	}
	created, isNew, err := h.store.CreateQuote(ctx, store.CreateQuoteInput{
		RequestID:   form.RequestID,
		Name:        form.Name,
		Phone:       form.Phone,
		Email:       form.Email,
		Service:     svc.Value,
		ServiceCode: svc.Code,
		Details:     form.Details,
		Source:      source,
		CreatedAt:   h.now().UTC(),
	})
	if err != nil {
		return models.Quote{}, false, err
	}
	if isNew {
		quotesCreated.Add(1)
		h.logger.Info("quote created",
			zap.String("reference", created.Reference),
			zap.String("service", created.Service),
			zap.String("source", source),
		)
	}
	return created, isNew, nil
}

func (h *Handler) subscribe(ctx context.Context, email, source string) (models.Subscriber, bool, error) {
	sub, isNew, err := h.store.Subscribe(ctx, store.SubscribeInput{
		Email:     email,
		Source:    source,
		CreatedAt: h.now().UTC(),
	})
	if err != nil {
		return models.Subscriber{}, false, err
	}
	if isNew {
		subscriptions.Add(1)
	}
	return sub, isNew, nil
}
