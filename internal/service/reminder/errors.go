package reminder

import "errors"

var (
	ErrNotFound      = errors.New("appointment not found")
	ErrNotRemindable = errors.New("only pending or confirmed appointments can be reminded")
	ErrNoChannel     = errors.New("customer has no reachable contact or every channel is disabled")
	ErrDelivery      = errors.New("reminder delivery failed")
)
