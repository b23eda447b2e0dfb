package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyPosted indicates a document that cannot be edited anymore.
	ErrAlreadyPosted = errors.New("document already posted")
	// ErrInvalidAPIKey indicates a rejected API credential.
	ErrInvalidAPIKey = errors.New("invalid api key")
)
