package session

import "errors"

// Session errors.
var (
	// ErrNotFound is returned when a session (or a session value) does not exist.
	ErrNotFound = errors.New("session: not found")

	// ErrExpired is returned when a session has expired.
	ErrExpired = errors.New("session: expired")

	// ErrInvalidToken is returned when a session token is empty or malformed.
	ErrInvalidToken = errors.New("session: invalid token")

	// ErrEncode is returned when a session or value cannot be serialized.
	ErrEncode = errors.New("session: failed to encode")

	// ErrDecode is returned when a stored session or value cannot be deserialized.
	ErrDecode = errors.New("session: failed to decode")

	// ErrClosed is returned when an operation is attempted on a closed store.
	ErrClosed = errors.New("session: store closed")
)
