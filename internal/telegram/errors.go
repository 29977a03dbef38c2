package telegram

import "errors"

var (
	ErrInvalidPayload   = errors.New("invalid telegram payload")
	ErrInvalidSignature = errors.New("telegram signature mismatch")
	ErrSessionCreation  = errors.New("failed to create session")
)

// Reason codes returned in 500 response bodies.
const (
	reasonSessionCreation = "FAILED_TO_CREATE_SESSION"
	reasonInternal        = "INTERNAL_SERVER_ERROR"
)
