package view

import (
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/content"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/quote"

	g "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

// QuotePopup renders the "Get Free Quote" dialog for the wizard step in m,
// or its success state.
func QuotePopup(p PageModel, m QuoteModel) g.Node {
	closeHref := p.href(p.Nav, p.Footer)
	var body g.Node
	switch {
	case m.Success:
		body = quoteSuccess(m.Reference, closeHref)
	case m.Step == quote.StepProject:
		body = quoteStepProject(p.Site.QuoteServices, m)
	default:
		body = quoteStepContact(m)
	}
	return Div(Class("modal-backdrop quote-popup"),
		Div(Class("modal"), Role("dialog"), Aria("modal", "true"), Aria("labelledby", "quote-title"),
			Div(Class("modal-header"),
				H3(ID("quote-title"), g.Text("Get Free Quote")),
				A(Class("icon-button"), Href(closeHref), Aria("label", "Close"), icon("x")),
			),
			g.If(!m.Success, stepIndicator(m.Step)),
			body,
		),
	)
}

func stepIndicator(step quote.Step) g.Node {
	return Ol(Class("steps"),
		Li(Class(stepClass(step, quote.StepContact)), g.Text("Contact")),
		Li(Class(stepClass(step, quote.StepProject)), g.Text("Project")),
	)
}

func stepClass(current, step quote.Step) string {
	switch {
	case current == step:
		return "step current"
	case current > step:
		return "step done"
	default:
		return "step"
	}
}

func quoteStepContact(m QuoteModel) g.Node {
	return Form(Class("quote-form"), Method("post"), Action("/quote"), g.Attr("novalidate"),
		hiddenState(m, quote.StepContact),
		Input(Type("hidden"), Name(quote.FieldEmail), Value(m.Form.Email)),
		Input(Type("hidden"), Name(quote.FieldService), Value(m.Form.Service)),
		Input(Type("hidden"), Name(quote.FieldDetails), Value(m.Form.Details)),
		textField(quote.FieldName, "Full Name", "text", "John Doe", m.Form.Name, m.Errors),
		textField(quote.FieldPhone, "Phone Number", "tel", "+91 98765 43210", m.Form.Phone, m.Errors),
		Button(Class("btn btn-primary btn-block"), Type("submit"), g.Text("Next")),
	)
}

func quoteStepProject(services []content.QuoteService, m QuoteModel) g.Node {
	return Form(Class("quote-form"), Method("post"), Action("/quote"), g.Attr("novalidate"),
		hiddenState(m, quote.StepProject),
		Input(Type("hidden"), Name(quote.FieldName), Value(m.Form.Name)),
		Input(Type("hidden"), Name(quote.FieldPhone), Value(m.Form.Phone)),
		textField(quote.FieldEmail, "Email", "email", "john@example.com", m.Form.Email, m.Errors),
		Div(Class("field"),
			Label(For("quote-service"), g.Text("Service Required")),
			Select(ID("quote-service"), Name(quote.FieldService), Required(), invalidAttrs(quote.FieldService, m.Errors),
				Option(Value(""), g.Text("Select a service")),
				g.Map(services, func(svc content.QuoteService) g.Node {
					return Option(Value(svc.Value), g.If(svc.Value == m.Form.Service, Selected()), g.Text(svc.Label))
				}),
			),
			fieldError(quote.FieldService, m.Errors),
		),
		Div(Class("field"),
			Label(For("quote-details"), g.Text("Project Details")),
			Textarea(ID("quote-details"), Name(quote.FieldDetails), Rows("4"),
				Placeholder("Tell us about your project requirements..."),
				invalidAttrs(quote.FieldDetails, m.Errors),
				g.Text(m.Form.Details),
			),
			fieldError(quote.FieldDetails, m.Errors),
		),
		Div(Class("form-actions"),
			Button(Class("btn btn-outline"), Type("submit"), Name("back"), Value("1"), g.Text("Back")),
			Button(Class("btn btn-primary"), Type("submit"), icon("send"), g.Text("Submit Request")),
		),
	)
}

func hiddenState(m QuoteModel, step quote.Step) g.Node {
	return g.Group{
		Input(Type("hidden"), Name("request_id"), Value(m.Form.RequestID)),
		Input(Type("hidden"), Name("step"), Value(stepValue(step))),
	}
}

func stepValue(step quote.Step) string {
	if step == quote.StepProject {
		return "2"
	}
	return "1"
}

func textField(name, label, inputType, placeholder, value string, errs quote.FieldErrors) g.Node {
	id := "quote-" + name
	return Div(Class("field"),
		Label(For(id), g.Text(label)),
		Input(ID(id), Type(inputType), Name(name), Value(value), Placeholder(placeholder), Required(),
			invalidAttrs(name, errs),
		),
		fieldError(name, errs),
	)
}

func invalidAttrs(field string, errs quote.FieldErrors) g.Node {
	if !errs.Has(field) {
		return nil
	}
	return g.Group{Aria("invalid", "true"), Aria("describedby", "quote-"+field+"-error")}
}

func fieldError(field string, errs quote.FieldErrors) g.Node {
	if !errs.Has(field) {
		return nil
	}
	return P(Class("field-error"), ID("quote-"+field+"-error"), Role("alert"), g.Text(errs[field]))
}

func quoteSuccess(reference, closeHref string) g.Node {
	return Div(Class("quote-success"), Role("status"),
		icon("check"),
		H4(g.Text("Request received")),
		P(g.Text("Thank you! Our team will call you within one business day.")),
		g.If(reference != "", P(Class("quote-reference"), g.Text("Your reference: "), Strong(g.Text(reference)))),
		A(Class("btn btn-primary"), Href(closeHref), g.Text("Done")),
	)
}
