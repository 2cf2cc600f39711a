package notification

import "errors"

var (
	ErrNoChannel     = errors.New("role has no notification channel")
	ErrInvalidEvent  = errors.New("malformed notification event")
	ErrInvalidCursor = errors.New("event id must look like <unix_ms> or <unix_ms>-<seq>")
)
