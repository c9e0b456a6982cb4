package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

const (
	headerViewportHint   = "Sec-CH-Viewport-Width"
	headerViewportLegacy = "Viewport-Width"
	maxViewportWidth     = 10000
)

// viewportWidth picks the layout width for a page render: the client hint,
// then the legacy hint, then an explicit ?vw=, then fallback.
func viewportWidth(r *http.Request, fallback int) int {
	candidates := []string{
		r.Header.Get(headerViewportHint),
		r.Header.Get(headerViewportLegacy),
		r.URL.Query().Get("vw"),
	}
	for _, raw := range candidates {
		if width, ok := parseWidth(raw); ok {
			return width
		}
	}
	return fallback
}

func parseWidth(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 || value > maxViewportWidth {
		return 0, false
	}
	return int(value), true
}

// advertiseViewportHints asks the browser to send the width hint on later
// requests. The response varies on it.
func advertiseViewportHints(w http.ResponseWriter) {
	hints := headerViewportHint + ", " + headerViewportLegacy
	w.Header().Set("Accept-CH", hints)
	w.Header().Add("Vary", hints)
}
