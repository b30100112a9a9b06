package cookie_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/pkg/cookie"
)

const testSecret = "this-is-a-32-byte-or-longer-key!"

func requestWith(c *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if c != nil {
		r.AddCookie(c)
	}
	return r
}

func TestPlainCookies(t *testing.T) {
	t.Parallel()

	m := cookie.New()
	require.False(t, m.Signed())

	t.Run("missing cookie", func(t *testing.T) {
		t.Parallel()

		_, err := m.Read(requestWith(nil), "missing")
		require.ErrorIs(t, err, cookie.ErrNotFound)
	})

	t.Run("issue and read", func(t *testing.T) {
		t.Parallel()

		c := m.Issue("name", "value", 3600)
		require.Equal(t, "value", c.Value)
		require.Equal(t, 3600, c.MaxAge)
		require.False(t, c.Expires.IsZero())

		val, err := m.Read(requestWith(c), "name")
		require.NoError(t, err)
		require.Equal(t, "value", val)
	})

	t.Run("expire", func(t *testing.T) {
		t.Parallel()

		c := m.Expire("name")
		require.Equal(t, -1, c.MaxAge)
		require.Empty(t, c.Value)
	})

	t.Run("set and delete write headers", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		m.Set(w, "a", "1", 0)
		m.Delete(w, "b")

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 2)
		require.Equal(t, "a", cookies[0].Name)
		require.Equal(t, "b", cookies[1].Name)
	})
}

func TestSignedCookies(t *testing.T) {
	t.Parallel()

	m := cookie.New(cookie.WithSecret(testSecret))
	require.True(t, m.Signed())

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		c := m.Issue("session", "token-123", 60)
		require.NotEqual(t, "token-123", c.Value)

		val, err := m.Read(requestWith(c), "session")
		require.NoError(t, err)
		require.Equal(t, "token-123", val)
	})

	t.Run("tampered value", func(t *testing.T) {
		t.Parallel()

		c := m.Issue("session", "token-123", 60)
		parts := strings.SplitN(c.Value, ".", 2)
		c.Value = "dG9rZW4tNDU2." + parts[1]

		_, err := m.Read(requestWith(c), "session")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("unsigned value", func(t *testing.T) {
		t.Parallel()

		_, err := m.Read(requestWith(&http.Cookie{Name: "session", Value: "plain"}), "session")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("different secret", func(t *testing.T) {
		t.Parallel()

		other := cookie.New(cookie.WithSecret(strings.Repeat("x", 32)))
		_, err := other.Read(requestWith(m.Issue("session", "v", 0)), "session")
		require.ErrorIs(t, err, cookie.ErrBadSig)
	})

	t.Run("short secret is ignored", func(t *testing.T) {
		t.Parallel()

		require.False(t, cookie.New(cookie.WithSecret("short")).Signed())
		require.ErrorIs(t, cookie.ValidateSecret("short"), cookie.ErrBadSecret)
		require.NoError(t, cookie.ValidateSecret(""))
		require.NoError(t, cookie.ValidateSecret(testSecret))
	})
}

func TestCookieAttributes(t *testing.T) {
	t.Parallel()

	m := cookie.New(
		cookie.WithDomain("example.com"),
		cookie.WithPath("/app"),
		cookie.WithSecure(true),
		cookie.WithHTTPOnly(false),
		cookie.WithSameSite(http.SameSiteStrictMode),
	)

	c := m.Issue("n", "v", 0)
	require.Equal(t, "example.com", c.Domain)
	require.Equal(t, "/app", c.Path)
	require.True(t, c.Secure)
	require.False(t, c.HttpOnly)
	require.Equal(t, http.SameSiteStrictMode, c.SameSite)
	require.True(t, c.Expires.IsZero())

	d := cookie.New().Issue("n", "v", 0)
	require.Equal(t, "/", d.Path)
	require.True(t, d.HttpOnly)
	require.Equal(t, http.SameSiteLaxMode, d.SameSite)
}
