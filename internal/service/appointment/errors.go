package appointment

import "errors"

var (
	ErrNotFound           = errors.New("appointment not found")
	ErrForbidden          = errors.New("not allowed to act on this appointment")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrUnknownStatus      = errors.New("unknown appointment status")
	ErrCustomerNotFound   = errors.New("customer not found")
	ErrCompletionViaVisit = errors.New("appointments are completed by submitting medical records")
)
