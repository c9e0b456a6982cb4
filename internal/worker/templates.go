package worker

import "strings"

const (
	TemplateQuoteSales   = "quote_created_sales"
	TemplateQuoteSMS     = "quote_created_sms"
	TemplateQuoteAck     = "quote_ack_visitor"
	TemplateNewsletterHi = "newsletter_welcome"
)

var defaultTemplates = map[string]string{
	TemplateQuoteSales:   "New quote request {reference}: {name} ({phone}, {email}) needs {service}. Details: {details}",
	TemplateQuoteSMS:     "New {service} lead {reference} from {name}, call {phone}",
	TemplateQuoteAck:     "Hi {name}, we received your {service} request {reference}. Our team will call you within one business day.",
	TemplateNewsletterHi: "Welcome to CASA TERMINAL updates. Expect material price drops and new vendors in your city, once a month.",
}

type payloadData map[string]any

func (p payloadData) str(key string) string {
	if value, ok := p[key]; ok {
		if text, ok := value.(string); ok {
			return text
		}
	}
	return ""
}

// renderTemplate fills {placeholders} from payload. Missing values render
// empty; details falls back to a dash so the sales line still reads.
func renderTemplate(template string, payload payloadData, serviceLabel string) string {
	details := payload.str("details")
	if details == "" {
		details = "-"
	}
	service := serviceLabel
	if service == "" {
		service = payload.str("service")
	}
	return strings.NewReplacer(
		"{reference}", payload.str("reference"),
		"{name}", payload.str("name"),
		"{phone}", payload.str("phone"),
		"{email}", payload.str("email"),
		"{service}", service,
		"{details}", details,
	).Replace(template)
}
