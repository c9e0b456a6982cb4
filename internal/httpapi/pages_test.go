package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuoteValues(step string) url.Values {
	return url.Values{
		"request_id": {uuid.NewString()},
		"step":       {step},
		"name":       {"Asha Menon"},
		"phone":      {"+91 98765 43210"},
		"email":      {"asha@example.com"},
		"service":    {"products"},
		"details":    {"40 bags of cement"},
	}
}

func TestLandingLayoutFollowsViewport(t *testing.T) {
	handler := newTestHandler(t, fakeStore{})

	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<body class="bp-xl nav-desktop"`)
	assert.Equal(t, "Sec-CH-Viewport-Width, Viewport-Width", rec.Header().Get("Accept-CH"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Sec-CH-Viewport-Width", "375")
	req.Header.Set("Viewport-Width", "1440")
	rec = serve(handler, req)
	assert.Contains(t, rec.Body.String(), `<body class="bp-xs nav-mobile"`)

	rec = serve(handler, httptest.NewRequest(http.MethodGet, "/?vw=800&menu=1", nil))
	assert.Contains(t, rec.Body.String(), `<body class="bp-md nav-mobile drawer-open body-locked"`)
	assert.Contains(t, rec.Body.String(), `id="mobile-drawer"`)

	// The drawer flag is dropped once the viewport is wide enough for the desktop links.
	rec = serve(handler, httptest.NewRequest(http.MethodGet, "/?vw=1024&menu=1", nil))
	assert.Contains(t, rec.Body.String(), `<body class="bp-lg nav-desktop"`)
	assert.NotContains(t, rec.Body.String(), `id="mobile-drawer"`)
}

func TestViewportWidthFallbacks(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?vw=abc", nil)
	assert.Equal(t, 1280, viewportWidth(req, 1280))

	req.Header.Set("Viewport-Width", "412.5")
	assert.Equal(t, 412, viewportWidth(req, 1280))

	req.Header.Set("Sec-CH-Viewport-Width", "-3")
	assert.Equal(t, 412, viewportWidth(req, 1280))
}

func TestSearchPage(t *testing.T) {
	handler := newTestHandler(t, fakeStore{})
	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/search?q=cranes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "search-open")
	assert.Contains(t, body, "Cranes &amp; Hoists")
}

func TestQuotePagePreselectsKnownService(t *testing.T) {
	handler := newTestHandler(t, fakeStore{})
	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/quote?service=rental", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="service" value="rental"`)

	rec = serve(handler, httptest.NewRequest(http.MethodGet, "/quote?service=marble", nil))
	assert.Contains(t, rec.Body.String(), `name="service" value=""`)
}

func TestQuoteSubmitBlocksBlankFields(t *testing.T) {
	called := false
	handler := newTestHandler(t, fakeStore{
		createFn: func(context.Context, store.CreateQuoteInput) (models.Quote, bool, error) {
			called = true
			return models.Quote{}, true, nil
		},
	})
	rec := serve(handler, postForm("/quote", url.Values{"step": {"1"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Please enter your full name")
	assert.Contains(t, body, "Please enter your phone number")
	assert.Contains(t, body, `aria-invalid="true"`)
	assert.False(t, called)
}

func TestQuoteSubmitAdvancesToProjectStep(t *testing.T) {
	handler := newTestHandler(t, fakeStore{})
	values := validQuoteValues("1")
	values.Del("email")
	rec := serve(handler, postForm("/quote", values))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="quote-email"`)
	assert.Contains(t, body, `name="request_id" value="`+values.Get("request_id")+`"`)
	assert.NotContains(t, body, "field-error")
}

func TestQuoteSubmitCreatesQuote(t *testing.T) {
	var captured store.CreateQuoteInput
	handler := newTestHandler(t, fakeStore{
		createFn: func(_ context.Context, input store.CreateQuoteInput) (models.Quote, bool, error) {
			captured = input
			return models.Quote{Reference: "PRD-0001"}, true, nil
		},
	})
	values := validQuoteValues("2")
	rec := serve(handler, postForm("/quote", values))
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/quote/success?ref=PRD-0001", rec.Header().Get("Location"))
	assert.Equal(t, values.Get("request_id"), captured.RequestID)
	assert.Equal(t, "PRD", captured.ServiceCode)
	assert.Equal(t, models.SourceWeb, captured.Source)
}

func TestQuoteSubmitFinalStepRevalidatesContact(t *testing.T) {
	called := false
	handler := newTestHandler(t, fakeStore{
		createFn: func(context.Context, store.CreateQuoteInput) (models.Quote, bool, error) {
			called = true
			return models.Quote{}, true, nil
		},
	})
	values := validQuoteValues("2")
	values.Set("phone", "12")
	rec := serve(handler, postForm("/quote", values))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Enter a valid phone number (10-15 digits)")
	assert.Contains(t, body, `id="quote-phone"`)
	assert.False(t, called)
}

func TestQuoteSubmitBack(t *testing.T) {
	handler := newTestHandler(t, fakeStore{})
	values := validQuoteValues("2")
	values.Set("back", "1")
	values.Set("email", "")
	rec := serve(handler, postForm("/quote", values))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="quote-name"`)
	assert.NotContains(t, body, "field-error")
}

func TestQuoteSubmitStoreFailure(t *testing.T) {
	handler := newTestHandler(t, fakeStore{
		createFn: func(context.Context, store.CreateQuoteInput) (models.Quote, bool, error) {
			return models.Quote{}, false, store.ErrDuplicateRequest
		},
	})
	rec := serve(handler, postForm("/quote", validQuoteValues("2")))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestQuoteSuccessPage(t *testing.T) {
	handler := newTestHandler(t, fakeStore{
		getByRefFn: func(_ context.Context, reference string) (models.Quote, error) {
			if reference != "PRD-0001" {
				return models.Quote{}, store.ErrQuoteNotFound
			}
			return models.Quote{Reference: reference}, nil
		},
	})
	rec := serve(handler, httptest.NewRequest(http.MethodGet, "/quote/success?ref=PRD-0001", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request received")
	assert.Contains(t, rec.Body.String(), "PRD-0001")

	rec = serve(handler, httptest.NewRequest(http.MethodGet, "/quote/success?ref=PRD-9999", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewsletterForm(t *testing.T) {
	var captured store.SubscribeInput
	handler := newTestHandler(t, fakeStore{
		subscribeFn: func(_ context.Context, input store.SubscribeInput) (models.Subscriber, bool, error) {
			captured = input
			return models.Subscriber{Email: input.Email}, true, nil
		},
	})

	rec := serve(handler, postForm("/newsletter", url.Values{"email": {"not-an-email"}}))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Enter a valid email address")
	assert.Empty(t, captured.Email)

	rec = serve(handler, postForm("/newsletter", url.Values{"email": {"asha@example.com"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/newsletter/thanks", rec.Header().Get("Location"))
	assert.Equal(t, models.SourceWeb, captured.Source)

	rec = serve(handler, httptest.NewRequest(http.MethodGet, "/newsletter/thanks", nil))
	assert.Contains(t, rec.Body.String(), "You&#39;re on the list")
}

func TestLandingRejectsWrongMethod(t *testing.T) {
	handler := newTestHandler(t, fakeStore{})
	rec := serve(handler, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
