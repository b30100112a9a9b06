package internal_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
)

func TestGuardOutcome(t *testing.T) {
	t.Parallel()

	require.True(t, internal.Allow().Allowed())
	require.NoError(t, internal.Allow().Err())

	denied := internal.Deny(http.StatusUnauthorized, "who are you", nil)
	require.False(t, denied.Allowed())
	require.Equal(t, http.StatusUnauthorized, denied.Status())
	require.Equal(t, "who are you", denied.Reason())
	require.ErrorIs(t, denied.Err(), internal.ErrUnauthenticated)

	require.ErrorIs(t, internal.Deny(http.StatusForbidden, "", nil).Err(), internal.ErrForbidden)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	member := f.login(t, f.member)

	t.Run("guest", func(t *testing.T) {
		out, err := internal.Evaluate(internal.GuardAuthenticated(), f.newRequest(nil))
		require.NoError(t, err)
		require.False(t, out.Allowed())
		require.Equal(t, http.StatusUnauthorized, out.Status())
		require.Equal(t, "/login", out.Response().Header.Get("Location"))
	})

	t.Run("none", func(t *testing.T) {
		out, err := internal.Evaluate(internal.GuardNone(), f.newRequest(nil))
		require.NoError(t, err)
		require.True(t, out.Allowed())
	})

	t.Run("permission granted", func(t *testing.T) {
		out, err := internal.Evaluate(internal.GuardPermission("users.read"), f.newRequest(member))
		require.NoError(t, err)
		require.True(t, out.Allowed())
	})

	t.Run("permission denied", func(t *testing.T) {
		out, err := internal.Evaluate(internal.GuardPermission("users.write"), f.newRequest(member))
		require.NoError(t, err)
		require.Equal(t, http.StatusForbidden, out.Status())
		require.Equal(t, "/", out.Response().Header.Get("Location"))
	})

	t.Run("authorize for embedders", func(t *testing.T) {
		require.ErrorIs(t, internal.Authorize(f.newRequest(nil), internal.GuardAuthenticated()), internal.ErrUnauthenticated)
		require.ErrorIs(t, internal.Authorize(f.newRequest(member), internal.GuardRole("admin")), internal.ErrForbidden)
		require.NoError(t, internal.Authorize(f.newRequest(member), internal.GuardRole("member")))
	})
}

func TestKernel_RequireGuard(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := f.kernel.RequireGuard(internal.GuardRole("admin"))(next)

	serve := func(c *http.Cookie, accept string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/reports", nil)
		if c != nil {
			req.AddCookie(c)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve(nil, "application/json")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.JSONEq(t, `{"success":false,"error":{"message":"Authentication required"}}`, rec.Body.String())

	rec = serve(f.login(t, f.member), "")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	rec = serve(f.login(t, f.admin), "")
	require.Equal(t, http.StatusAccepted, rec.Code)
}

func TestKernel_RequireGuardForwardsQueuedCookies(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil)
	stamp := internal.GuardFunc(func(r *internal.Request) (internal.GuardOutcome, error) {
		r.SetCookie(&http.Cookie{Name: "visited", Value: "1", Path: "/"})
		return internal.Allow(), nil
	})
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	})
	h := f.kernel.RequireGuard(internal.GuardSequence(
		internal.GuardCustom("stamp", stamp),
		internal.GuardAuthenticated(),
	))(next)

	rec := serve(h, http.MethodGet, "/reports", f.login(t, f.member))
	require.Equal(t, http.StatusAccepted, rec.Code)

	c := findCookie(rec, "visited")
	require.NotNil(t, c, "cookies queued by a guard must reach the client")
	require.Equal(t, "1", c.Value)
}
