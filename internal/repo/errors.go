package repo

import "errors"

var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicate         = errors.New("record already exists")
	ErrSlotFull          = errors.New("slot is at capacity")
	ErrStaleState        = errors.New("record is not in the expected state")
	ErrInsufficientStock = errors.New("insufficient stock")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
