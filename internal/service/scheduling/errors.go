package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrClosedDay       = errors.New("appointments are not available on Sundays")
	ErrDateNotInFuture = errors.New("appointment date must be after today")
	ErrDateInPast      = errors.New("appointment date cannot be in the past")
	ErrInvalidDate     = errors.New("appointment date must be formatted YYYY-MM-DD")
	ErrInvalidTimeSlot = errors.New("appointment time is not a bookable slot")
)

// SlotFullError reports a booking rejected because (Date, Time) is at
// capacity. Remaining holds the free seats per slot label for Date so the
// caller can offer alternatives.
type SlotFullError struct {
	Date      string
	Time      string
	Booked    int
	Max       int
	Remaining map[string]int
}

func (e *SlotFullError) Error() string {
	return fmt.Sprintf("the %s slot on %s is fully booked (%d/%d)", e.Time, e.Date, e.Booked, e.Max)
}
