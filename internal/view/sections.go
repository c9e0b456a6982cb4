package view

import (
	"strconv"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/layout"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

func Hero(hero content.Hero) g.Node {
	return Section(Class("hero"), ID("home"),
		Img(Class("hero-image"), Src(hero.Image), Alt(hero.ImageAlt)),
		Div(Class("hero-content"),
			Div(Class("hero-badge"), Span(Class("pulse")), Span(g.Text(hero.Badge))),
			H1(Class("hero-heading"),
				g.Map(hero.Heading, func(line string) g.Node {
					if line == hero.Highlight {
						return Span(Class("hero-line hero-highlight"), g.Text(line))
					}
					return Span(Class("hero-line"), g.Text(line))
				}),
			),
			P(Class("hero-subheading"), g.Text(hero.Subheading)),
			Div(Class("hero-ctas"),
				A(Class("btn btn-primary"), Href(hero.PrimaryCTA.Href), g.Text(hero.PrimaryCTA.Label), icon("arrow-right")),
				A(Class("btn btn-outline"), Href(hero.SecondaryCTA.Href), g.Text(hero.SecondaryCTA.Label)),
			),
			Div(Class("hero-stats"),
				g.Map(hero.Stats, func(stat content.Stat) g.Node {
					return Div(Class("stat"),
						Div(Class("stat-value"), g.Text(stat.Value)),
						Div(Class("stat-label"), g.Text(stat.Label)),
					)
				}),
			),
		),
		A(Class("scroll-indicator"), Href("#services"), Aria("label", "Scroll to services"), icon("chevron-down")),
	)
}

// ServiceCarousel renders a horizontally scrolling card row. The prev/next
// anchors jump between cards without script; site.js upgrades them to
// smooth scrolling.
func ServiceCarousel(carousel content.Carousel) g.Node {
	last := len(carousel.Services) - 1
	return Section(Class("carousel"), ID("services"),
		Div(Class("carousel-header"),
			Div(
				Span(Class("eyebrow"), g.Text(carousel.Eyebrow)),
				H2(g.Text(carousel.Title)),
			),
			Div(Class("carousel-controls"),
				A(Class("carousel-prev"), Href("#"+cardID(carousel, 0)), g.Attr("data-scroll", "-320"), Aria("label", "Previous"), icon("chevron-left")),
				A(Class("carousel-next"), Href("#"+cardID(carousel, last)), g.Attr("data-scroll", "320"), Aria("label", "Next"), icon("chevron-right")),
			),
		),
		Div(Class("carousel-track"), g.Attr("data-carousel", ""),
			g.Map(carousel.Services, func(svc content.CarouselService) g.Node {
				return A(Class("carousel-card"), ID("card-"+svc.Slug), Href(svc.Href),
					Img(Src(svc.Image), Alt(svc.Title), g.Attr("loading", "lazy")),
					Div(Class("carousel-card-body"),
						H3(g.Text(svc.Title)),
						P(g.Text(svc.Description)),
						icon("arrow-right"),
					),
				)
			}),
		),
		Div(Class("carousel-dots"),
			g.Map(carousel.Services, func(svc content.CarouselService) g.Node {
				return A(Class("dot"), Href("#card-"+svc.Slug), Aria("label", svc.Title))
			}),
		),
	)
}

func cardID(carousel content.Carousel, i int) string {
	if i < 0 || i >= len(carousel.Services) {
		return "services"
	}
	return "card-" + carousel.Services[i].Slug
}

func CoreServices(core content.CoreSection) g.Node {
	return Section(Class("core-services"), ID("core-services"),
		sectionHeading(core.Eyebrow, core.Title),
		Div(Class("card-grid"),
			g.Map(core.Services, func(svc content.CoreService) g.Node {
				return Div(Class("service-card accent-"+svc.Accent),
					Div(Class("service-icon"), icon(svc.Icon)),
					H3(g.Text(svc.Title)),
					P(g.Text(svc.Description)),
					A(Class("learn-more"), Href(quoteHref(svc.Slug)), g.Text("Learn more →")),
				)
			}),
		),
	)
}

func WhyChoose(why content.ReasonSection) g.Node {
	return Section(Class("why-choose"), ID("why"),
		sectionHeading(why.Eyebrow, why.Title),
		Div(Class("card-grid"),
			g.Map(why.Reasons, func(reason content.Reason) g.Node {
				return Div(Class("reason-card"),
					Div(Class("reason-icon"), icon(reason.Icon)),
					H3(g.Text(reason.Title)),
					P(g.Text(reason.Description)),
				)
			}),
		),
	)
}

func sectionHeading(eyebrow, title string) g.Node {
	return Div(Class("section-heading"),
		Span(Class("eyebrow"), g.Text(eyebrow)),
		H2(g.Text(title)),
		Div(Class("rule")),
	)
}

// FloatingActionBar is hidden until the page scrolls past the action bar
// threshold; site.js reads the threshold from data-show-after.
func FloatingActionBar(site *content.Site) g.Node {
	var shortcuts []g.Node
	for _, line := range site.Footer.Contact {
		if line.Icon != "phone" && line.Icon != "message-circle" {
			continue
		}
		shortcuts = append(shortcuts, A(Class("icon-button"), Href(line.Href), Aria("label", line.Text), icon(line.Icon)))
	}
	return Div(Class("action-bar"), g.Attr("data-show-after", strconv.Itoa(layout.ActionBarScrollY)),
		A(Class("btn btn-primary"), Href(quoteHref("")), icon("send"), g.Text("Get Free Quote")),
		g.Group(shortcuts),
	)
}
