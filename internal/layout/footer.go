package layout

import "net/url"

const paramFooter = "footer"

// FooterState tracks the mobile accordion and the scroll-to-top button.
type FooterState struct {
	ExpandedSection string
	ShowScrollTop   bool
}

// ToggleSection opens section, or collapses it when it is already open.
// Only one section is open at a time.
func (f FooterState) ToggleSection(section string) FooterState {
	if f.ExpandedSection == section {
		f.ExpandedSection = ""
	} else {
		f.ExpandedSection = section
	}
	return f
}

func (f FooterState) Scroll(y int) FooterState {
	f.ShowScrollTop = y > ScrollTopScrollY
	return f
}

func (f FooterState) Expanded(section string) bool {
	return section != "" && f.ExpandedSection == section
}

func (f FooterState) Query() url.Values {
	values := url.Values{}
	if f.ExpandedSection != "" {
		values.Set(paramFooter, f.ExpandedSection)
	}
	return values
}

func ParseFooterState(values url.Values) FooterState {
	return FooterState{ExpandedSection: values.Get(paramFooter)}
}

// PageHref merges nav and footer state into one link.
func PageHref(path string, nav NavState, footer FooterState) string {
	values := nav.Query()
	for key, vals := range footer.Query() {
		values[key] = vals
	}
	encoded := values.Encode()
	if encoded == "" {
		return path
	}
	return path + "?" + encoded
}
