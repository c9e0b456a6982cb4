package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed default.toml
var defaultTOML []byte

var ErrInvalidContent = errors.New("invalid site content")

// Site is every piece of copy and navigation the landing page renders.
type Site struct {
	Brand         Brand          `toml:"brand" json:"brand"`
	NavLinks      []NavLink      `toml:"nav_links" json:"nav_links"`
	Hero          Hero           `toml:"hero" json:"hero"`
	Carousel      Carousel       `toml:"carousel" json:"carousel"`
	Core          CoreSection    `toml:"core" json:"core"`
	Why           ReasonSection  `toml:"why" json:"why"`
	Footer        Footer         `toml:"footer" json:"footer"`
	QuoteServices []QuoteService `toml:"quote_services" json:"quote_services"`
}

type Link struct {
	Label string `toml:"label" json:"label"`
	Href  string `toml:"href" json:"href"`
}

type Brand struct {
	Name         string `toml:"name" json:"name"`
	Logo         string `toml:"logo" json:"logo"`
	LogoFallback string `toml:"logo_fallback" json:"logo_fallback"`
	LogoAlt      string `toml:"logo_alt" json:"logo_alt"`
	Summary      string `toml:"summary" json:"summary"`
	LongSummary  string `toml:"long_summary" json:"long_summary"`
	MemberCTA    Link   `toml:"member_cta" json:"member_cta"`
	Account      Link   `toml:"account" json:"account"`
}

type NavLink struct {
	Label    string           `toml:"label" json:"label"`
	Href     string           `toml:"href" json:"href"`
	MegaMenu []MegaMenuColumn `toml:"mega_menu" json:"mega_menu,omitempty"`
}

func (l NavLink) HasMegaMenu() bool {
	return len(l.MegaMenu) > 0
}

type MegaMenuColumn struct {
	Title string   `toml:"title" json:"title"`
	Links []string `toml:"links" json:"links"`
}

type Stat struct {
	Value string `toml:"value" json:"value"`
	Label string `toml:"label" json:"label"`
}

type Hero struct {
	Badge        string   `toml:"badge" json:"badge"`
	Heading      []string `toml:"heading" json:"heading"`
	Highlight    string   `toml:"highlight" json:"highlight"`
	Subheading   string   `toml:"subheading" json:"subheading"`
	Image        string   `toml:"image" json:"image"`
	ImageAlt     string   `toml:"image_alt" json:"image_alt"`
	PrimaryCTA   Link     `toml:"primary_cta" json:"primary_cta"`
	SecondaryCTA Link     `toml:"secondary_cta" json:"secondary_cta"`
	Stats        []Stat   `toml:"stats" json:"stats"`
}

type CarouselService struct {
	Slug        string `toml:"slug" json:"slug"`
	Title       string `toml:"title" json:"title"`
	Description string `toml:"description" json:"description"`
	Image       string `toml:"image" json:"image"`
	Href        string `toml:"href" json:"href"`
}

type Carousel struct {
	Eyebrow  string            `toml:"eyebrow" json:"eyebrow"`
	Title    string            `toml:"title" json:"title"`
	Services []CarouselService `toml:"services" json:"services"`
}

type CoreService struct {
	Slug        string `toml:"slug" json:"slug"`
	Title       string `toml:"title" json:"title"`
	Description string `toml:"description" json:"description"`
	Icon        string `toml:"icon" json:"icon"`
	Accent      string `toml:"accent" json:"accent"`
}

type CoreSection struct {
	Eyebrow  string        `toml:"eyebrow" json:"eyebrow"`
	Title    string        `toml:"title" json:"title"`
	Services []CoreService `toml:"services" json:"services"`
}

type Reason struct {
	Title       string `toml:"title" json:"title"`
	Description string `toml:"description" json:"description"`
	Icon        string `toml:"icon" json:"icon"`
}

type ReasonSection struct {
	Eyebrow string   `toml:"eyebrow" json:"eyebrow"`
	Title   string   `toml:"title" json:"title"`
	Reasons []Reason `toml:"reasons" json:"reasons"`
}

type FooterSection struct {
	Title string   `toml:"title" json:"title"`
	Links []string `toml:"links" json:"links"`
}

// ContactLine is one "Get in Touch" row; Href is empty for plain text.
type ContactLine struct {
	Icon string `toml:"icon" json:"icon"`
	Text string `toml:"text" json:"text"`
	Href string `toml:"href" json:"href,omitempty"`
}

type Footer struct {
	ContactTitle    string          `toml:"contact_title" json:"contact_title"`
	NewsletterTitle string          `toml:"newsletter_title" json:"newsletter_title"`
	NewsletterText  string          `toml:"newsletter_text" json:"newsletter_text"`
	Sections        []FooterSection `toml:"sections" json:"sections"`
	Contact         []ContactLine   `toml:"contact" json:"contact"`
	Social          []Link          `toml:"social" json:"social"`
	Legal           []Link          `toml:"legal" json:"legal"`
	MobileBar       []Link          `toml:"mobile_bar" json:"mobile_bar"`
}

// QuoteService is one option of the quote form's service select. Code
// prefixes the visitor-facing quote reference.
type QuoteService struct {
	Value string `toml:"value" json:"value"`
	Label string `toml:"label" json:"label"`
	Code  string `toml:"code" json:"code"`
}

func Default() (*Site, error) {
	return Parse(defaultTOML)
}

func Load(path string) (*Site, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	return Parse(raw)
}

// Parse decodes TOML content and validates it.
func Parse(raw []byte) (*Site, error) {
	var site Site
	if err := toml.Unmarshal(raw, &site); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if err := site.Validate(); err != nil {
		return nil, err
	}
	return &site, nil
}

func (s *Site) Validate() error {
	if strings.TrimSpace(s.Brand.Name) == "" {
		return fmt.Errorf("%w: brand name is required", ErrInvalidContent)
	}
	if len(s.QuoteServices) == 0 {
		return fmt.Errorf("%w: at least one quote service is required", ErrInvalidContent)
	}
	values := make(map[string]bool, len(s.QuoteServices))
	codes := make(map[string]bool, len(s.QuoteServices))
	for _, svc := range s.QuoteServices {
		if strings.TrimSpace(svc.Value) == "" {
			return fmt.Errorf("%w: quote service value is required", ErrInvalidContent)
		}
		if !validCode(svc.Code) {
			return fmt.Errorf("%w: quote service %q code %q must be three upper-case letters", ErrInvalidContent, svc.Value, svc.Code)
		}
		if values[svc.Value] {
			return fmt.Errorf("%w: duplicate quote service %q", ErrInvalidContent, svc.Value)
		}
		if codes[svc.Code] {
			return fmt.Errorf("%w: duplicate quote service code %q", ErrInvalidContent, svc.Code)
		}
		values[svc.Value] = true
		codes[svc.Code] = true
	}
	for _, link := range s.NavLinks {
		for _, column := range link.MegaMenu {
			if strings.TrimSpace(column.Title) == "" {
				return fmt.Errorf("%w: mega menu column under %q has no title", ErrInvalidContent, link.Label)
			}
		}
	}
	return nil
}

func (s *Site) QuoteService(value string) (QuoteService, bool) {
	for _, svc := range s.QuoteServices {
		if svc.Value == value {
			return svc, true
		}
	}
	return QuoteService{}, false
}

// NavLink returns the nav link with the given label.
func (s *Site) NavLink(label string) (NavLink, bool) {
	for _, link := range s.NavLinks {
		if link.Label == label {
			return link, true
		}
	}
	return NavLink{}, false
}

func validCode(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
