package view

import (
	"strconv"
	"strings"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/layout"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// SiteFooter renders the accordion sections below md width and the four
// column grid above it.
func SiteFooter(p PageModel) g.Node {
	site := p.Site
	wide := p.Nav.Breakpoint().AtLeast(layout.MD)
	return Footer(Class("site-footer"), ID("contact"),
		g.If(wide, footerGrid(p)),
		g.If(!wide, footerAccordion(p)),
		newsletterForm(site.Footer, p.Newsletter),
		Div(Class("footer-bottom"),
			P(g.Text("© "+strconv.Itoa(p.Year)+" "+site.Brand.Name+". All rights reserved.")),
			Div(Class("legal-links"),
				g.Map(site.Footer.Legal, func(link content.Link) g.Node {
					return A(Href(link.Href), g.Text(link.Label))
				}),
			),
		),
		A(Class(scrollTopClass(p.Footer)), Href("#home"), Aria("label", "Scroll to top"),
			g.Attr("data-show-after", strconv.Itoa(layout.ScrollTopScrollY)),
			icon("arrow-up"),
		),
		g.If(!wide, mobileBar(site.Footer.MobileBar)),
	)
}

func scrollTopClass(f layout.FooterState) string {
	if f.ShowScrollTop {
		return "scroll-top visible"
	}
	return "scroll-top"
}

func companyBlock(brand content.Brand, summary string, social []content.Link) g.Node {
	return Div(Class("footer-company"),
		brandLink(brand),
		P(g.Text(summary)),
		Div(Class("social-links"),
			g.Map(social, func(link content.Link) g.Node {
				return A(Href(link.Href), Aria("label", link.Label), icon(lowerSlug(link.Label)))
			}),
		),
	)
}

func contactBlock(title string, lines []content.ContactLine) g.Node {
	return Div(Class("footer-contact"),
		H4(g.Text(title)),
		g.Map(lines, func(line content.ContactLine) g.Node {
			if line.Href == "" {
				return Div(Class("contact-line"), icon(line.Icon), Span(g.Text(line.Text)))
			}
			return Div(Class("contact-line"), icon(line.Icon), A(Href(line.Href), g.Text(line.Text)))
		}),
	)
}

func footerGrid(p PageModel) g.Node {
	site := p.Site
	return Div(Class("footer-grid"),
		companyBlock(site.Brand, site.Brand.LongSummary, site.Footer.Social),
		g.Map(site.Footer.Sections, func(section content.FooterSection) g.Node {
			return Div(Class("footer-section"),
				H4(g.Text(section.Title)),
				Ul(g.Map(section.Links, func(link string) g.Node {
					return Li(A(Href("#"), g.Text(link)))
				})),
			)
		}),
		contactBlock(site.Footer.ContactTitle, site.Footer.Contact),
	)
}

func footerAccordion(p PageModel) g.Node {
	site := p.Site
	return Div(Class("footer-accordion"),
		companyBlock(site.Brand, site.Brand.Summary, site.Footer.Social),
		g.Map(site.Footer.Sections, func(section content.FooterSection) g.Node {
			open := p.Footer.Expanded(section.Title)
			return Div(Class("accordion-section"),
				A(Class("accordion-toggle"), Href(p.footerHref(section.Title)), Aria("expanded", boolAttr(open)),
					Span(g.Text(section.Title)),
					icon("chevron-right"),
				),
				g.If(open, Ul(Class("accordion-body"), g.Map(section.Links, func(link string) g.Node {
					return Li(A(Href("#"), g.Text(link)))
				}))),
			)
		}),
		contactBlock(site.Footer.ContactTitle, site.Footer.Contact),
	)
}

func newsletterForm(footer content.Footer, model NewsletterModel) g.Node {
	if model.Subscribed {
		return Div(Class("newsletter newsletter-done"), ID("newsletter"),
			H4(g.Text(footer.NewsletterTitle)),
			P(Role("status"), g.Text("You're on the list. Watch your inbox.")),
		)
	}
	return Div(Class("newsletter"), ID("newsletter"),
		H4(g.Text(footer.NewsletterTitle)),
		P(g.Text(footer.NewsletterText)),
		Form(Method("post"), Action("/newsletter"),
			Label(For("newsletter-email"), Class("sr-only"), g.Text("Email")),
			Input(Type("email"), ID("newsletter-email"), Name("email"), Value(model.Email),
				Placeholder("you@example.com"), Required(),
				g.If(model.Error != "", Aria("invalid", "true")),
			),
			Button(Type("submit"), Aria("label", "Subscribe"), icon("send")),
		),
		g.If(model.Error != "", P(Class("field-error"), Role("alert"), g.Text(model.Error))),
	)
}

func mobileBar(links []content.Link) g.Node {
	return Nav(Class("mobile-bar"), Aria("label", "Quick contact"),
		g.Map(links, func(link content.Link) g.Node {
			return A(Href(link.Href), icon(lowerSlug(link.Label)), Span(g.Text(link.Label)))
		}),
	)
}

func lowerSlug(label string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "-"))
}
