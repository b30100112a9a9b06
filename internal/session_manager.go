package internal

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/waypoint/pkg/cookie"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

// Default session configuration.
const (
	defaultSessionCookieName = "__sid"
	defaultSessionMaxAge     = 86400 * 30 // 30 days
)

// SessionManager handles session lifecycle and cookie management.
type SessionManager struct {
	store      session.Store
	cookies    *cookie.Manager
	cookieOpts []cookie.Option
	cookieName string
	maxAge     int
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// NewSessionManager creates a new SessionManager with the given store and options.
func NewSessionManager(store session.Store, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		store:      store,
		cookieName: defaultSessionCookieName,
		maxAge:     defaultSessionMaxAge,
	}

	for _, opt := range opts {
		opt(sm)
	}

	sm.cookies = cookie.New(sm.cookieOpts...)
	return sm
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSessionMaxAge sets the session max age in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return func(sm *SessionManager) {
		if seconds > 0 {
			sm.maxAge = seconds
		}
	}
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return func(sm *SessionManager) {
		sm.cookieOpts = append(sm.cookieOpts, cookie.WithDomain(domain))
	}
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return func(sm *SessionManager) {
		if path != "" {
			sm.cookieOpts = append(sm.cookieOpts, cookie.WithPath(path))
		}
	}
}

// WithSessionSecure sets the session cookie Secure flag.
func WithSessionSecure(secure bool) SessionOption {
	return func(sm *SessionManager) {
		sm.cookieOpts = append(sm.cookieOpts, cookie.WithSecure(secure))
	}
}

// WithSessionHTTPOnly sets the session cookie HttpOnly flag.
func WithSessionHTTPOnly(httpOnly bool) SessionOption {
	return func(sm *SessionManager) {
		sm.cookieOpts = append(sm.cookieOpts, cookie.WithHTTPOnly(httpOnly))
	}
}

// WithSessionSameSite sets the session cookie SameSite attribute.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return func(sm *SessionManager) {
		sm.cookieOpts = append(sm.cookieOpts, cookie.WithSameSite(sameSite))
	}
}

// WithSessionSecret signs the session cookie with an HMAC.
// Secrets shorter than 32 bytes are ignored.
func WithSessionSecret(secret string) SessionOption {
	return func(sm *SessionManager) {
		sm.cookieOpts = append(sm.cookieOpts, cookie.WithSecret(secret))
	}
}

// Load loads an existing session from the request cookie.
// Returns nil, nil if no session cookie exists.
// Returns session.ErrNotFound if the session doesn't exist in the store.
// Returns session.ErrExpired if the session has expired.
// Returns cookie.ErrBadSig if a signed cookie fails verification.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*session.Session, error) {
	token, err := sm.cookies.Read(r, sm.cookieName)
	if err != nil {
		if errors.Is(err, cookie.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	return sm.store.Get(ctx, token)
}

// New builds an unsaved session with metadata extracted from the request.
func (sm *SessionManager) New(r *http.Request) (*session.Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	expiresAt := time.Now().Add(time.Duration(sm.maxAge) * time.Second)

	sess := session.New(uuid.NewString(), token, expiresAt)
	sess.IP = remoteIP(r)
	sess.UserAgent = r.UserAgent()

	return sess, nil
}

// Save persists the session, creating it on first write.
func (sm *SessionManager) Save(ctx context.Context, sess *session.Session) error {
	sess.LastActiveAt = time.Now()

	if sess.IsNew() {
		if err := sm.store.Create(ctx, sess); err != nil {
			return err
		}
		sess.ClearNew()
	} else if err := sm.store.Update(ctx, sess); err != nil {
		return err
	}

	sess.ClearDirty()
	return nil
}

// Rotate generates a new token for the session.
// Called after authentication to prevent session fixation attacks by invalidating
// the old token and requiring a fresh one from the attacker.
func (sm *SessionManager) Rotate(ctx context.Context, sess *session.Session) error {
	oldToken := sess.Token
	newToken, err := generateToken()
	if err != nil {
		return fmt.Errorf("generate session token: %w", err)
	}
	sess.Token = newToken
	sess.MarkDirty()

	if err := sm.Save(ctx, sess); err != nil {
		sess.Token = oldToken // Rollback on error
		return err
	}

	return nil
}

// Destroy removes the session from the store.
func (sm *SessionManager) Destroy(ctx context.Context, sess *session.Session) error {
	return sm.store.Delete(ctx, sess.ID)
}

// Cookie returns the cookie carrying the session token.
func (sm *SessionManager) Cookie(sess *session.Session) *http.Cookie {
	return sm.cookies.Issue(sm.cookieName, sess.Token, sm.maxAge)
}

// ExpiredCookie returns a cookie that clears the session cookie.
func (sm *SessionManager) ExpiredCookie() *http.Cookie {
	return sm.cookies.Expire(sm.cookieName)
}

// CookieName returns the session cookie name.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Store returns the underlying session store.
func (sm *SessionManager) Store() session.Store {
	return sm.store
}

// generateToken creates a cryptographically secure random token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
