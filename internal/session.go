package internal

import (
	"context"
	"errors"
	"net/http"

	"github.com/dmitrymomot/waypoint/pkg/cookie"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

// SessionStore is the per-request view of the client's session.
// It is the only way request-scoped code reads or writes session state.
type SessionStore interface {
	// Get returns the value stored under key.
	Get(key string) (string, bool, error)

	// Set stores value under key, starting a session if none exists.
	Set(key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error

	// Rotate issues a fresh token for the session and invalidates the old
	// one. Stored values survive rotation.
	Rotate() error

	// Destroy deletes the session with all of its values.
	Destroy() error

	// Token returns the current session token, or "" without a session.
	Token() string
}

// sessionHandle is the SessionStore used by the kernel. It loads the session
// lazily and collects the cookies that must go out with the response.
type sessionHandle struct {
	ctx     context.Context
	manager *SessionManager
	req     *http.Request
	sess    *session.Session
	cookies []*http.Cookie
	loaded  bool
}

func newSessionHandle(ctx context.Context, manager *SessionManager, r *http.Request) *sessionHandle {
	return &sessionHandle{ctx: ctx, manager: manager, req: r}
}

func (h *sessionHandle) load() (*session.Session, error) {
	if h.loaded {
		return h.sess, nil
	}

	sess, err := h.manager.Load(h.ctx, h.req)
	switch {
	case err == nil:
		h.sess = sess
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, session.ErrExpired),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, session.ErrDecode),
		errors.Is(err, cookie.ErrBadSig):
		// Stale, corrupt or forged cookie: behave as if there were none.
		h.setCookie(h.manager.ExpiredCookie())
	default:
		return nil, err
	}

	h.loaded = true
	return h.sess, nil
}

// ensure returns the current session, creating and persisting one if needed.
func (h *sessionHandle) ensure() (*session.Session, error) {
	sess, err := h.load()
	if err != nil {
		return nil, err
	}
	if sess != nil {
		return sess, nil
	}

	sess, err = h.manager.New(h.req)
	if err != nil {
		return nil, err
	}
	if err := h.manager.Save(h.ctx, sess); err != nil {
		return nil, err
	}

	h.sess = sess
	h.setCookie(h.manager.Cookie(sess))
	return sess, nil
}

func (h *sessionHandle) Get(key string) (string, bool, error) {
	sess, err := h.load()
	if err != nil || sess == nil {
		return "", false, err
	}
	v, ok := sess.GetValue(key)
	return v, ok, nil
}

func (h *sessionHandle) Set(key, value string) error {
	sess, err := h.ensure()
	if err != nil {
		return err
	}
	sess.SetValue(key, value)
	return h.manager.Save(h.ctx, sess)
}

func (h *sessionHandle) Delete(key string) error {
	sess, err := h.load()
	if err != nil || sess == nil {
		return err
	}
	sess.DeleteValue(key)
	if !sess.IsDirty() {
		return nil
	}
	return h.manager.Save(h.ctx, sess)
}

func (h *sessionHandle) Rotate() error {
	sess, err := h.ensure()
	if err != nil {
		return err
	}
	if err := h.manager.Rotate(h.ctx, sess); err != nil {
		return err
	}
	h.setCookie(h.manager.Cookie(sess))
	return nil
}

func (h *sessionHandle) Destroy() error {
	sess, err := h.load()
	if err != nil {
		return err
	}
	if sess != nil {
		if err := h.manager.Destroy(h.ctx, sess); err != nil {
			return err
		}
		h.sess = nil
	}
	h.setCookie(h.manager.ExpiredCookie())
	return nil
}

func (h *sessionHandle) Token() string {
	sess, _ := h.load()
	if sess == nil {
		return ""
	}
	return sess.Token
}

// BindUser records the owner of the session so that all of a user's
// sessions can be revoked at once.
func (h *sessionHandle) BindUser(userID string) error {
	sess, err := h.ensure()
	if err != nil {
		return err
	}
	sess.UserID = &userID
	sess.MarkDirty()
	return h.manager.Save(h.ctx, sess)
}

// setCookie queues c, replacing an earlier cookie with the same name.
func (h *sessionHandle) setCookie(c *http.Cookie) {
	for i, existing := range h.cookies {
		if existing.Name == c.Name {
			h.cookies[i] = c
			return
		}
	}
	h.cookies = append(h.cookies, c)
}

var _ SessionStore = (*sessionHandle)(nil)
