package session

import "context"

// Store defines the interface for session persistence.
// Sessions are looked up by token and addressed by ID for writes, so a token
// rotation is just an Update carrying a new Token.
type Store interface {
	// Create persists a new session.
	Create(ctx context.Context, s *Session) error

	// Get retrieves a session by its token.
	// Returns ErrNotFound if the session doesn't exist.
	// Returns ErrExpired if the session has expired.
	Get(ctx context.Context, token string) (*Session, error)

	// Update saves changes to an existing session. If the token changed since
	// the last write, the previous token must stop resolving.
	Update(ctx context.Context, s *Session) error

	// Delete removes a session by its ID. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes all sessions for a user.
	DeleteByUserID(ctx context.Context, userID string) error
}
