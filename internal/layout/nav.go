package layout

import (
	"net/url"
	"strings"
)

type EventKind int

const (
	EventResize EventKind = iota
	EventScroll
	EventEscape
	EventToggleMenu
	EventCloseMenu
	EventOpenSearch
	EventCloseSearch
	EventToggleMobileSection
	EventHoverMegaMenu
	EventLeaveMegaMenu
)

type Event struct {
	Kind    EventKind
	Width   int
	ScrollY int
	Label   string
	HasMenu bool
}

func Resize(width int) Event { return Event{Kind: EventResize, Width: width} }
func ScrollTo(y int) Event { return Event{Kind: EventScroll, ScrollY: y} }
func Escape() Event { return Event{Kind: EventEscape} }
func ToggleMenu() Event { return Event{Kind: EventToggleMenu} }
func CloseMenu() Event { return Event{Kind: EventCloseMenu} }
func OpenSearch() Event { return Event{Kind: EventOpenSearch} }
func CloseSearch() Event { return Event{Kind: EventCloseSearch} }
func ToggleMobileSection(label string) Event {
	return Event{Kind: EventToggleMobileSection, Label: label}
}
func HoverMegaMenu(label string, hasMenu bool) Event {
	return Event{Kind: EventHoverMegaMenu, Label: label, HasMenu: hasMenu}
}
func LeaveMegaMenu() Event { return Event{Kind: EventLeaveMegaMenu} }

// NavState is the navbar's interactive state. It is a value; Apply returns
// the next state and never mutates the receiver.
type NavState struct {
	Width          int
	MenuOpen       bool
	Scrolled       bool
	ActiveMegaMenu string
	SearchOpen     bool
	MobileSection  string
}

func (s NavState) Desktop() bool {
	return Desktop(s.Width)
}

func (s NavState) Breakpoint() Breakpoint {
	return BreakpointFor(s.Width)
}

func (s NavState) Apply(e Event) NavState {
	switch e.Kind {
	case EventResize:
		s.Width = e.Width
		if Desktop(s.Width) {
			s.MenuOpen = false
			s.MobileSection = ""
		} else {
			s.ActiveMegaMenu = ""
		}
	case EventScroll:
		s.Scrolled = e.ScrollY > CompactNavScrollY
	case EventEscape:
		s.MenuOpen = false
		s.SearchOpen = false
	case EventToggleMenu:
		if s.Desktop() {
			return s
		}
		s.MenuOpen = !s.MenuOpen
	case EventCloseMenu:
		s.MenuOpen = false
	case EventOpenSearch:
		s.SearchOpen = true
	case EventCloseSearch:
		s.SearchOpen = false
	case EventToggleMobileSection:
		if s.MobileSection == e.Label {
			s.MobileSection = ""
		} else {
			s.MobileSection = e.Label
		}
	case EventHoverMegaMenu:
		if s.Desktop() && e.HasMenu {
			s.ActiveMegaMenu = e.Label
		}
	case EventLeaveMegaMenu:
		if s.Desktop() {
			s.ActiveMegaMenu = ""
		}
	}
	return s
}

// BodyLocked reports whether page scroll is locked behind the drawer.
func (s NavState) BodyLocked() bool {
	return s.MenuOpen
}

// Classes returns the layout classes for the state in a fixed order, so a
// given state always renders identically.
func (s NavState) Classes() []string {
	classes := []string{"bp-" + string(s.Breakpoint())}
	if s.Desktop() {
		classes = append(classes, "nav-desktop")
	} else {
		classes = append(classes, "nav-mobile")
	}
	if s.Scrolled {
		classes = append(classes, "nav-compact")
	}
	if s.MenuOpen {
		classes = append(classes, "drawer-open", "body-locked")
	}
	if s.SearchOpen {
		classes = append(classes, "search-open")
	}
	if s.ActiveMegaMenu != "" {
		classes = append(classes, "mega-open")
	}
	return classes
}

func (s NavState) ClassString() string {
	return strings.Join(s.Classes(), " ")
}

const (
	paramMenu    = "menu"
	paramSearch  = "search"
	paramMega    = "mega"
	paramSection = "section"
	paramQuery   = "q"
)

// Query encodes the toggles of s. Width is not encoded; it comes from the
// request on every page load.
func (s NavState) Query() url.Values {
	values := url.Values{}
	if s.MenuOpen {
		values.Set(paramMenu, "1")
	}
	if s.SearchOpen {
		values.Set(paramSearch, "1")
	}
	if s.ActiveMegaMenu != "" {
		values.Set(paramMega, s.ActiveMegaMenu)
	}
	if s.MobileSection != "" {
		values.Set(paramSection, s.MobileSection)
	}
	return values
}

// Href renders the state as a link to path.
func (s NavState) Href(path string) string {
	encoded := s.Query().Encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}

// ParseNavState restores a state from query values and normalizes it for
// width the same way a resize would.
func ParseNavState(values url.Values, width int) NavState {
	s := NavState{
		MenuOpen:       values.Get(paramMenu) == "1",
		SearchOpen:     values.Get(paramSearch) == "1" || strings.TrimSpace(values.Get(paramQuery)) != "",
		ActiveMegaMenu: values.Get(paramMega),
		MobileSection:  values.Get(paramSection),
	}
	return s.Apply(Resize(width))
}
