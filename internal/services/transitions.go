package services

import (
	"fmt"
	"slices"

	"github.com/scdri/backend/internal/models"
)

// edge describes where an action may start and where it leads. An empty
// from list means any status; an empty to leaves the status untouched.
type edge struct {
	from   []models.Status
	except []models.Status
	to     models.Status
}

var transitions = map[models.Action]edge{
	models.ActionVerify:             {from: []models.Status{models.StatusOpen}, to: models.StatusVerifying},
	models.ActionFinishVerification: {from: []models.Status{models.StatusVerifying}, to: models.StatusInProgress},
	models.ActionCompleteCleanup:    {from: []models.Status{models.StatusInProgress}, to: models.StatusResolved},
	models.ActionResolveDirect:      {to: models.StatusResolved},
	models.ActionReject:             {except: []models.Status{models.StatusResolved}, to: models.StatusRejected},
	models.ActionMarkFalse:          {to: models.StatusRejected},
	models.ActionSetUrgency:         {},
}

// NextStatus returns the status a report in from ends up in after action.
// The returned status equals from for actions that do not move the report.
func NextStatus(action models.Action, from models.Status) (models.Status, error) {
	e, ok := transitions[action]
	if !ok {
		return "", invalidArgument("unknown action %q", action)
	}
	if len(e.from) > 0 && !slices.Contains(e.from, from) {
		return "", newError(ErrInvalidTransition, "report must be %s to %s (current: %s)", expected(e.from), action, from)
	}
	if slices.Contains(e.except, from) {
		return "", newError(ErrInvalidTransition, "a %s report cannot be %s", from, pastTense(action))
	}
	if e.to == "" {
		return from, nil
	}
	return e.to, nil
}

func expected(statuses []models.Status) string {
	if len(statuses) == 1 {
		return fmt.Sprintf("%q", statuses[0])
	}
	return fmt.Sprintf("one of %q", statuses)
}

func pastTense(action models.Action) string {
	if action == models.ActionReject {
		return "rejected"
	}
	return string(action)
}
