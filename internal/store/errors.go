package store

import "errors"

var (
	ErrQuoteNotFound    = errors.New("quote not found")
	ErrInvalidState     = errors.New("invalid quote state")
	ErrUnknownAction    = errors.New("unknown quote action")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")
	ErrInvalidReference = errors.New("invalid service code")
	ErrDuplicateRequest = errors.New("request id reused for a different quote")
)
