// Package services defines the business logic for conversations, sessions,
// and the intent router. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer; mapping
// them to user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when an inbound turn carries an empty or
	// whitespace-only message. No side effects happen for such turns.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a message exceeds the configured
	// maximum length.
	ErrMessageTooLong = errors.New("message too long")

	// ErrUnauthorizedSession indicates that the session id exists but is
	// bound to a different owner identity. The caller must start a new
	// session.
	ErrUnauthorizedSession = errors.New("session belongs to another caller")

	// ErrSessionNotFound indicates that the requested session does not exist
	// or is not accessible to the current identity.
	ErrSessionNotFound = errors.New("session not found")
)
