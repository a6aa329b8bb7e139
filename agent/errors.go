package agent

import "errors"

var (
	// ErrEmptyDocument is returned when no text was supplied for verification
	ErrEmptyDocument = errors.New("document contains no text")

	// ErrTextTooShort is returned when the extracted text is below the
	// configured minimum and the pipeline refuses to start
	ErrTextTooShort = errors.New("document text too short to verify")

	// ErrInvalidSessionState is returned when Resume is called on a session
	// that is not suspended at the review gate
	ErrInvalidSessionState = errors.New("session is not awaiting review")

	// ErrSessionNotFound is returned by checkpoint stores for unknown session IDs
	ErrSessionNotFound = errors.New("session not found")
)
