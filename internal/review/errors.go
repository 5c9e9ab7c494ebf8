package review

import "errors"

// Review errors
var (
	ErrUnknownEmployee      = errors.New("employee not present in this session")
	ErrInvalidStatus        = errors.New("status outside the allowed set")
	ErrNegativeAmount       = errors.New("amount must not be negative")
	ErrInconsistentOverride = errors.New("a not-entitled override cannot carry a positive amount")
	ErrSessionNotFound      = errors.New("review session not found")
)
