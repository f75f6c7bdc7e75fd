package domain

import "errors"

// Verification and lookup errors. The HTTP handler and the bot-side client map them to and from status codes.
var (
	ErrNotFound      = errors.New("no pairing found")
	ErrExpired       = errors.New("pairing code expired")
	ErrMismatch      = errors.New("invalid code")
	ErrAlreadyPaired = errors.New("pairing code already used")
)
