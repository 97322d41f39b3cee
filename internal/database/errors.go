package database

import "errors"

// Sentinel errors shared across the repository. Callers match them with
// errors.Is to map onto API responses.
var (
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidTransition = errors.New("invalid booking transition")
	ErrAlreadyCompleted  = errors.New("booking already completed")
	ErrChatInactive      = errors.New("chat is not active")
	ErrRateLimited       = errors.New("rate limit exceeded")
)
