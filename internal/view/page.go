package view

import (
	"net/url"
	"strconv"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/layout"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/quote"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// PageModel is everything the landing page needs for one render.
type PageModel struct {
	Site   *content.Site
	Nav    layout.NavState
	Footer layout.FooterState
	Year   int

	SearchQuery   string
	SearchResults []content.SearchResult

	// Quote is nil while the popup is closed.
	Quote      *QuoteModel
	Newsletter NewsletterModel
}

type QuoteModel struct {
	Step      quote.Step
	Form      quote.Form
	Errors    quote.FieldErrors
	Success   bool
	Reference string
}

type NewsletterModel struct {
	Email      string
	Error      string
	Subscribed bool
}

// href links back to the landing page with nav and footer state applied,
// carrying the search query while the search modal stays open.
func (p PageModel) href(nav layout.NavState, footer layout.FooterState) string {
	values := nav.Query()
	for key, vals := range footer.Query() {
		values[key] = vals
	}
	path := "/"
	if nav.SearchOpen {
		path = "/search"
		values.Del("search")
		if p.SearchQuery != "" {
			values.Set("q", p.SearchQuery)
		}
	}
	if encoded := values.Encode(); encoded != "" {
		return path + "?" + encoded
	}
	return path
}

func (p PageModel) navHref(e layout.Event) string {
	return p.href(p.Nav.Apply(e), p.Footer)
}

func (p PageModel) footerHref(section string) string {
	return p.href(p.Nav, p.Footer.ToggleSection(section))
}

// quoteHref opens the popup, optionally preselecting a service.
func quoteHref(service string) string {
	if service == "" {
		return "/quote"
	}
	return "/quote?service=" + url.QueryEscape(service)
}

// Landing renders the full page.
func Landing(p PageModel) g.Node {
	return Document(p.Site.Brand.Name+" | Construction Marketplace", p.Nav,
		Navbar(p),
		Main(ID("main"),
			Hero(p.Site.Hero),
			ServiceCarousel(p.Site.Carousel),
			CoreServices(p.Site.Core),
			WhyChoose(p.Site.Why),
		),
		SiteFooter(p),
		FloatingActionBar(p.Site),
		g.If(p.Nav.SearchOpen, SearchModal(p)),
		g.Iff(p.Quote != nil, func() g.Node { return QuotePopup(p, *p.Quote) }),
	)
}

// Document is the HTML shell. The nav state's classes go on body so CSS can
// switch layouts without inspecting the viewport itself.
func Document(title string, nav layout.NavState, body ...g.Node) g.Node {
	return Doctype(
		HTML(Lang("en"),
			Head(
				Meta(Charset("utf-8")),
				Meta(Name("viewport"), Content("width=device-width, initial-scale=1")),
				TitleEl(g.Text(title)),
				Link(Rel("stylesheet"), Href("/static/site.css")),
				Script(Src("/static/site.js"), Defer()),
			),
			Body(Class(nav.ClassString()),
				g.Attr("data-nav-min", strconv.Itoa(layout.DesktopNavMinWidth)),
				g.Group(body),
			),
		),
	)
}

func icon(name string) g.Node {
	return Span(Class("icon icon-"+name), Aria("hidden", "true"))
}
