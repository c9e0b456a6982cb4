package view

import (
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/layout"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func SearchModal(p PageModel) g.Node {
	return Div(Class("modal-backdrop search-modal"),
		Div(Class("modal search"), Role("dialog"), Aria("modal", "true"), Aria("label", "Search"),
			Form(Class("search-form"), Method("get"), Action("/search"), Role("search"),
				icon("search"),
				Input(Type("search"), Name("q"), Value(p.SearchQuery),
					Placeholder("Search materials, equipment..."), AutoFocus(), Aria("label", "Search query"),
				),
				A(Class("search-close"), Href(p.navHref(layout.CloseSearch())), g.Text("Close")),
			),
			searchResults(p.SearchQuery, p.SearchResults),
		),
	)
}

func searchResults(query string, results []content.SearchResult) g.Node {
	if query == "" {
		return nil
	}
	if len(results) == 0 {
		return P(Class("search-empty"), g.Textf("No results for %q", query))
	}
	return Ul(Class("search-results"),
		g.Map(results, func(r content.SearchResult) g.Node {
			return Li(Class("search-result kind-"+r.Kind),
				A(Href(r.Href),
					Span(Class("result-title"), g.Text(r.Title)),
					g.If(r.Section != "", Span(Class("result-section"), g.Text(r.Section))),
				),
			)
		}),
	)
}
