package view

import (
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/layout"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// Navbar renders the fixed top bar: logo, desktop links with mega menus,
// action icons and, below desktop width, the drawer toggle and drawer.
func Navbar(p PageModel) g.Node {
	site := p.Site
	nav := p.Nav
	return Nav(Class("navbar "+nav.ClassString()), ID("navbar"), Aria("label", "Primary"),
		Div(Class("navbar-inner"),
			brandLink(site.Brand),
			g.If(nav.Desktop(), desktopLinks(p)),
			Div(Class("navbar-actions"),
				A(Class("icon-button"), Href(p.navHref(layout.OpenSearch())), Aria("label", "Search"), icon("search")),
				g.If(nav.Breakpoint().AtLeast(layout.SM),
					A(Class("icon-button"), Href(site.Brand.Account.Href), Aria("label", "User account"), icon("user")),
				),
				g.If(nav.Breakpoint().AtLeast(layout.MD),
					A(Class("member-cta"), Href(site.Brand.MemberCTA.Href), g.Text(site.Brand.MemberCTA.Label)),
				),
				g.If(!nav.Desktop(), menuToggle(p)),
			),
		),
		g.If(!nav.Desktop() && nav.MenuOpen, mobileDrawer(p)),
	)
}

func brandLink(brand content.Brand) g.Node {
	return A(Class("brand"), Href("/"),
		Span(Class("brand-logo"),
			Img(Src(brand.Logo), Alt(brand.LogoAlt)),
			Span(Class("brand-fallback"), g.Text(brand.LogoFallback)),
		),
		Span(Class("brand-name"), g.Text(brand.Name)),
	)
}

func desktopLinks(p PageModel) g.Node {
	return Ul(Class("nav-links"),
		g.Map(p.Site.NavLinks, func(link content.NavLink) g.Node {
			open := link.HasMegaMenu() && p.Nav.ActiveMegaMenu == link.Label
			toggle := layout.HoverMegaMenu(link.Label, link.HasMegaMenu())
			if open {
				toggle = layout.LeaveMegaMenu()
			}
			return Li(Class("nav-link"),
				A(Href(link.Href), g.Text(link.Label)),
				g.If(link.HasMegaMenu(),
					A(Class("mega-toggle"), Href(p.navHref(toggle)),
						Aria("expanded", boolAttr(open)), Aria("label", link.Label+" menu"),
						icon("chevron-down"),
					),
				),
				g.If(open, megaMenu(link.MegaMenu)),
			)
		}),
	)
}

func megaMenu(columns []content.MegaMenuColumn) g.Node {
	return Div(Class("mega-menu"), Role("menu"),
		g.Map(columns, func(column content.MegaMenuColumn) g.Node {
			return Div(Class("mega-column"),
				H4(g.Text(column.Title)),
				Ul(g.Map(column.Links, func(item string) g.Node {
					return Li(A(Href(content.SearchHref(item)), g.Text(item)))
				})),
			)
		}),
	)
}

func menuToggle(p PageModel) g.Node {
	label := "Open menu"
	glyph := "menu"
	if p.Nav.MenuOpen {
		label = "Close menu"
		glyph = "x"
	}
	return A(Class("icon-button menu-toggle"), Href(p.navHref(layout.ToggleMenu())),
		Aria("label", label), Aria("expanded", boolAttr(p.Nav.MenuOpen)),
		icon(glyph),
	)
}

func mobileDrawer(p PageModel) g.Node {
	site := p.Site
	drawerClass := "drawer"
	if p.Nav.Scrolled {
		drawerClass += " drawer-compact"
	}
	return Div(Class(drawerClass), ID("mobile-drawer"),
		Ul(Class("drawer-links"),
			g.Map(site.NavLinks, func(link content.NavLink) g.Node {
				if !link.HasMegaMenu() {
					return Li(A(Href(link.Href), g.Text(link.Label)))
				}
				open := p.Nav.MobileSection == link.Label
				return Li(Class("drawer-section"),
					A(Class("drawer-section-toggle"), Href(p.navHref(layout.ToggleMobileSection(link.Label))),
						Aria("expanded", boolAttr(open)),
						Span(g.Text(link.Label)),
						icon("chevron-down"),
					),
					g.If(open, Div(Class("drawer-section-body"),
						g.Map(link.MegaMenu, func(column content.MegaMenuColumn) g.Node {
							return Div(
								H4(g.Text(column.Title)),
								Ul(g.Map(column.Links, func(item string) g.Node {
									return Li(A(Href(content.SearchHref(item)), g.Text(item)))
								})),
							)
						}),
					)),
				)
			}),
		),
		Div(Class("drawer-actions"),
			A(Class("member-cta member-cta-block"), Href(site.Brand.MemberCTA.Href), g.Text(site.Brand.MemberCTA.Label)),
			A(Class("account-link"), Href(site.Brand.Account.Href), icon("user"), g.Text(site.Brand.Account.Label)),
		),
		A(Class("drawer-backdrop"), Href(p.navHref(layout.CloseMenu())), Aria("label", "Close menu")),
	)
}

func boolAttr(v bool) string {
	if v {
		return "true"
	}
	return "false"
}
