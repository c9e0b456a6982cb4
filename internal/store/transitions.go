package store

import (
	"fmt"
	"time"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/models"
)

const (
	ActionContact = "contact"
	ActionQuote   = "quote"
	ActionWin     = "win"
	ActionLose    = "lose"
	ActionCancel  = "cancel"
)

var transitionMap = map[string][]string{
	ActionContact: {models.StatusNew},
	ActionQuote:   {models.StatusContacted},
	ActionWin:     {models.StatusQuoted},
	ActionLose:    {models.StatusContacted, models.StatusQuoted},
	ActionCancel:  {models.StatusNew, models.StatusContacted},
}

var actionTargets = map[string]string{
	ActionContact: models.StatusContacted,
	ActionQuote:   models.StatusQuoted,
	ActionWin:     models.StatusWon,
	ActionLose:    models.StatusLost,
	ActionCancel:  models.StatusCancelled,
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

func TargetStatus(action string) (string, bool) {
	status, ok := actionTargets[action]
	return status, ok
}

// ApplyTransition moves quote to the status reached by action and stamps
// the matching timestamp.
func ApplyTransition(quote *models.Quote, action string, at time.Time) error {
	target, ok := TargetStatus(action)
	if !ok {
		return ErrUnknownAction
	}
	if !ValidTransition(action, quote.Status) {
		return fmt.Errorf("%w: %s from %s", ErrInvalidState, action, quote.Status)
	}
	at = at.UTC()
	quote.Status = target
	switch target {
	case models.StatusContacted:
		quote.ContactedAt = &at
	case models.StatusQuoted:
		quote.QuotedAt = &at
	default:
		quote.ClosedAt = &at
	}
	return nil
}

func EventTypeForStatus(status string) string {
	return "quote." + status
}
