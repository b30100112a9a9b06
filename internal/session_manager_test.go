package internal_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
	"github.com/dmitrymomot/waypoint/pkg/cookie"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newManager(t *testing.T, opts ...internal.SessionOption) (*internal.SessionManager, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(session.WithCleanupInterval(0))
	t.Cleanup(func() { _ = store.Close() })
	return internal.NewSessionManager(store, opts...), store
}

func TestSessionManager_Cookie(t *testing.T) {
	t.Parallel()

	sm, _ := newManager(t,
		internal.WithSessionCookieName("sid"),
		internal.WithSessionMaxAge(3600),
		internal.WithSessionDomain("example.com"),
		internal.WithSessionPath("/app"),
		internal.WithSessionSecure(true),
		internal.WithSessionSameSite(http.SameSiteStrictMode),
	)

	sess, err := sm.New(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NotEmpty(t, sess.ID)
	require.NotEmpty(t, sess.Token)
	require.Equal(t, "192.0.2.1", sess.IP)
	require.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

	c := sm.Cookie(sess)
	require.Equal(t, "sid", c.Name)
	require.Equal(t, sess.Token, c.Value)
	require.Equal(t, 3600, c.MaxAge)
	require.Equal(t, "example.com", c.Domain)
	require.Equal(t, "/app", c.Path)
	require.True(t, c.Secure)
	require.True(t, c.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)

	expired := sm.ExpiredCookie()
	require.Equal(t, "sid", expired.Name)
	require.Negative(t, expired.MaxAge)
}

func TestSessionManager_LoadSaveRotate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm, store := newManager(t)

	t.Run("no cookie", func(t *testing.T) {
		sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
		require.NoError(t, err)
		require.Nil(t, sess)
	})

	sess, err := sm.New(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetValue("k", "v")
	require.NoError(t, sm.Save(ctx, sess))
	require.False(t, sess.IsNew())
	require.False(t, sess.IsDirty())

	t.Run("load by cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(sm.Cookie(sess))

		got, err := sm.Load(ctx, req)
		require.NoError(t, err)
		require.Equal(t, sess.ID, got.ID)
	})

	t.Run("rotate keeps values and retires the old token", func(t *testing.T) {
		old := sess.Token
		require.NoError(t, sm.Rotate(ctx, sess))
		require.NotEqual(t, old, sess.Token)

		_, err := store.Get(ctx, old)
		require.ErrorIs(t, err, session.ErrNotFound)

		got, err := store.Get(ctx, sess.Token)
		require.NoError(t, err)
		v, _ := got.GetValue("k")
		require.Equal(t, "v", v)
	})

	t.Run("destroy", func(t *testing.T) {
		require.NoError(t, sm.Destroy(ctx, sess))
		_, err := store.Get(ctx, sess.Token)
		require.ErrorIs(t, err, session.ErrNotFound)
	})
}

type failingStore struct {
	session.Store
}

var errStoreDown = errors.New("store down")

func (failingStore) Update(context.Context, *session.Session) error { return errStoreDown }

func TestSessionManager_RotateRollsBack(t *testing.T) {
	t.Parallel()

	sm := internal.NewSessionManager(failingStore{})
	sess := session.New("id", "original", time.Now().Add(time.Hour))
	sess.ClearNew()

	err := sm.Rotate(context.Background(), sess)
	require.ErrorIs(t, err, errStoreDown)
	require.Equal(t, "original", sess.Token)
}

func TestSessionManager_SignedCookie(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sm, _ := newManager(t, internal.WithSessionSecret(testSecret))

	sess, err := sm.New(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.NoError(t, sm.Save(ctx, sess))

	c := sm.Cookie(sess)
	require.NotEqual(t, sess.Token, c.Value)
	require.True(t, strings.Contains(c.Value, "."))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(c)
	got, err := sm.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, sess.ID, got.ID)

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: sm.CookieName(), Value: sess.Token})
	_, err = sm.Load(ctx, tampered)
	require.ErrorIs(t, err, cookie.ErrBadSig)
}
