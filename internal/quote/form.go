package quote

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"

	"github.com/google/uuid"
)

const (
	FieldName    = "name"
	FieldPhone   = "phone"
	FieldEmail   = "email"
	FieldService = "service"
	FieldDetails = "details"
)

const (
	MinNameLength  = 2
	MaxDetailsSize = 2000
)

var (
	phonePattern = regexp.MustCompile(`^[0-9+\-\s]{10,15}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ServiceLookup resolves a submitted service value.
type ServiceLookup interface {
	QuoteService(value string) (content.QuoteService, bool)
}

type Form struct {
	RequestID string `json:"request_id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Service   string `json:"service"`
	Details   string `json:"details"`
}

// NewForm starts an empty form with a fresh request id, optionally with a
// preselected service.
func NewForm(service string) Form {
	return Form{RequestID: uuid.NewString(), Service: service}
}

func FormFromValues(values url.Values) Form {
	return Form{
		RequestID: values.Get("request_id"),
		Name:      values.Get(FieldName),
		Phone:     values.Get(FieldPhone),
		Email:     values.Get(FieldEmail),
		Service:   values.Get(FieldService),
		Details:   values.Get(FieldDetails),
	}.Normalize()
}

// Normalize trims surrounding whitespace from every field but the phone,
// which is matched as entered.
func (f Form) Normalize() Form {
	f.RequestID = strings.TrimSpace(f.RequestID)
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Service = strings.TrimSpace(f.Service)
	f.Details = strings.TrimSpace(f.Details)
	return f
}

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

func (e FieldErrors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

func (e FieldErrors) Empty() bool {
	return len(e) == 0
}

// Validate checks every field of the form.
func Validate(form Form, services ServiceLookup) FieldErrors {
	errs := FieldErrors{}
	for _, field := range allFields {
		validateField(errs, field, form.Normalize(), services)
	}
	return errs
}

var allFields = []string{FieldName, FieldPhone, FieldEmail, FieldService, FieldDetails}

func validateField(errs FieldErrors, field string, form Form, services ServiceLookup) {
	switch field {
	case FieldName:
		switch {
		case form.Name == "":
			errs[FieldName] = "Please enter your full name"
		case utf8.RuneCountInString(form.Name) < MinNameLength:
			errs[FieldName] = "Name must be at least 2 characters"
		}
	case FieldPhone:
		switch {
		case strings.TrimSpace(form.Phone) == "":
			errs[FieldPhone] = "Please enter your phone number"
		case !phonePattern.MatchString(form.Phone):
			errs[FieldPhone] = "Enter a valid phone number (10-15 digits)"
		}
	case FieldEmail:
		switch {
		case form.Email == "":
			errs[FieldEmail] = "Please enter your email"
		case !emailPattern.MatchString(form.Email):
			errs[FieldEmail] = "Enter a valid email address"
		}
	case FieldService:
		if form.Service == "" {
			errs[FieldService] = "Please select a service"
			return
		}
		if services != nil {
			if _, ok := services.QuoteService(form.Service); !ok {
				errs[FieldService] = "Select one of the listed services"
			}
		}
	case FieldDetails:
		if utf8.RuneCountInString(form.Details) > MaxDetailsSize {
			errs[FieldDetails] = "Project details must be 2000 characters or fewer"
		}
	}
}

// ValidEmail reports whether email looks like a deliverable address.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(strings.TrimSpace(email))
}
