package appointment

import (
	"fmt"
	"slices"

	"github.com/pawcare/vetclinic_backend/internal/repo"
)

type Action string

const (
	ActionConfirm    Action = "confirm"
	ActionComplete   Action = "complete"
	ActionCancel     Action = "cancel"
	ActionDelete     Action = "delete"
	ActionReschedule Action = "reschedule"
)

type transition struct {
	staff    []repo.AppointmentStatus
	customer []repo.AppointmentStatus
	to       repo.AppointmentStatus // empty when status is unchanged
}

// transitions lists, per action, the statuses each side may act from.
// Completed has no outgoing edge.
var transitions = map[Action]transition{
	ActionConfirm: {
		staff: []repo.AppointmentStatus{repo.StatusPending},
		to:    repo.StatusConfirmed,
	},
	ActionComplete: {
		staff: []repo.AppointmentStatus{repo.StatusConfirmed},
		to:    repo.StatusCompleted,
	},
	ActionCancel: {
		staff:    []repo.AppointmentStatus{repo.StatusPending, repo.StatusConfirmed},
		customer: []repo.AppointmentStatus{repo.StatusPending},
		to:       repo.StatusCancelled,
	},
	ActionDelete: {
		staff: []repo.AppointmentStatus{repo.StatusPending, repo.StatusCancelled},
	},
	ActionReschedule: {
		staff:    []repo.AppointmentStatus{repo.StatusPending, repo.StatusConfirmed},
		customer: []repo.AppointmentStatus{repo.StatusPending},
	},
}

// ActionFor maps a status set directly by staff to the action reaching it.
// Completed is reached only through the medical record flow.
func ActionFor(status repo.AppointmentStatus) (Action, error) {
	switch status {
	case repo.StatusConfirmed:
		return ActionConfirm, nil
	case repo.StatusCompleted:
		return "", ErrCompletionViaVisit
	case repo.StatusCancelled:
		return ActionCancel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, status)
}

// Target is the status an action leaves the appointment in. ok is false for
// actions that do not change status.
func Target(a Action) (repo.AppointmentStatus, bool) {
	t := transitions[a]
	return t.to, t.to != ""
}

// CheckTransition reports whether role may apply action to an appointment in
// status current. A role with no edge for the action gets ErrForbidden; a
// legal role acting from the wrong status gets ErrInvalidTransition.
func CheckTransition(action Action, role repo.Role, current repo.AppointmentStatus) error {
	t, ok := transitions[action]
	if !ok {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	from := t.customer
	if role.IsStaff() {
		from = t.staff
	}
	if len(from) == 0 {
		return ErrForbidden
	}
	if !slices.Contains(from, current) {
		return fmt.Errorf("%w: cannot %s a %s appointment", ErrInvalidTransition, action, current)
	}
	return nil
}
