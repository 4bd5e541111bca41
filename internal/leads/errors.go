package leads

import "errors"

var (
	// ErrInvalidName is returned when the name is blank
	ErrInvalidName = errors.New("name is required")

	// ErrLeadNotFound is returned when a lead is not found
	ErrLeadNotFound = errors.New("lead not found")

	// ErrInvalidFilter is returned when list query parameters cannot be parsed
	ErrInvalidFilter = errors.New("invalid list filter")
)
