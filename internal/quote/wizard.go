package quote

type Step int

const (
	StepContact Step = 1
	StepProject Step = 2
	StepSubmit  Step = 3
)

var stepFields = map[Step][]string{
	StepContact: {FieldName, FieldPhone},
	StepProject: {FieldEmail, FieldService, FieldDetails},
}

// ParseStep reads a posted step number; anything unknown restarts at the
// first step.
func ParseStep(raw string) Step {
	switch raw {
	case "2":
		return StepProject
	default:
		return StepContact
	}
}

func (s Step) Fields() []string {
	return stepFields[s]
}

// ValidateStep checks only the fields collected on step.
func ValidateStep(step Step, form Form, services ServiceLookup) FieldErrors {
	errs := FieldErrors{}
	form = form.Normalize()
	for _, field := range stepFields[step] {
		validateField(errs, field, form, services)
	}
	return errs
}

// Advance validates step and returns the step to show next. A step with
// errors stays put. Passing the last step yields StepSubmit only when the
// whole form is valid, so an edited hidden field cannot skip a check.
func Advance(step Step, form Form, services ServiceLookup) (Step, FieldErrors) {
	errs := ValidateStep(step, form, services)
	if !errs.Empty() {
		return step, errs
	}
	switch step {
	case StepContact:
		return StepProject, errs
	case StepProject:
		all := Validate(form, services)
		if !all.Empty() {
			return firstStepWithError(all), all
		}
		return StepSubmit, all
	default:
		return StepContact, errs
	}
}

func firstStepWithError(errs FieldErrors) Step {
	for _, step := range []Step{StepContact, StepProject} {
		for _, field := range stepFields[step] {
			if errs.Has(field) {
				return step
			}
		}
	}
	return StepContact
}
