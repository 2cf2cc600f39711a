package medical

import "errors"

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrPetNotFound       = errors.New("pet not found")
	ErrForbidden         = errors.New("not allowed to access these records")
	ErrInsufficientStock = errors.New("insufficient stock")
)
