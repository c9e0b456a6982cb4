package content

import (
	"net/url"
	"sort"
	"strings"
)

const defaultSearchLimit = 10

const (
	KindCatalog = "catalog"
	KindBrowse  = "browse"
	KindService = "service"
)

type SearchResult struct {
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Section string `json:"section,omitempty"`
	Href    string `json:"href"`
}

// SearchHref is the link a mega-menu item points at.
func SearchHref(term string) string {
	return "/search?q=" + url.QueryEscape(term)
}

// Search matches query case-insensitively against mega-menu items, carousel
// services and core services. Prefix matches come first; catalog order
// breaks ties.
func (s *Site) Search(query string, limit int) []SearchResult {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	type hit struct {
		result SearchResult
		prefix bool
	}
	var hits []hit
	consider := func(result SearchResult, extra ...string) {
		title := strings.ToLower(result.Title)
		if strings.HasPrefix(title, needle) {
			hits = append(hits, hit{result: result, prefix: true})
			return
		}
		if strings.Contains(title, needle) {
			hits = append(hits, hit{result: result})
			return
		}
		for _, text := range extra {
			if strings.Contains(strings.ToLower(text), needle) {
				hits = append(hits, hit{result: result})
				return
			}
		}
	}

	for _, link := range s.NavLinks {
		for _, column := range link.MegaMenu {
			for _, item := range column.Links {
				consider(SearchResult{Title: item, Kind: KindCatalog, Section: column.Title, Href: SearchHref(item)})
			}
		}
	}
	for _, svc := range s.Carousel.Services {
		consider(SearchResult{Title: svc.Title, Kind: KindBrowse, Section: s.Carousel.Title, Href: svc.Href}, svc.Description)
	}
	for _, svc := range s.Core.Services {
		consider(SearchResult{Title: svc.Title, Kind: KindService, Section: s.Core.Title, Href: "/quote?service=" + url.QueryEscape(svc.Slug)}, svc.Description)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].prefix && !hits[j].prefix
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, h.result)
	}
	return results
}
