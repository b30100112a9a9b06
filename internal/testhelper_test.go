package internal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
	"github.com/dmitrymomot/waypoint/pkg/identity"
	"github.com/dmitrymomot/waypoint/pkg/password"
	"github.com/dmitrymomot/waypoint/pkg/session"
)

const (
	testPassword      = "correct horse battery staple"
	testSessionCookie = "__sid"
)

// cheapParams keeps argon2id fast in tests.
var cheapParams = password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

type fixture struct {
	users    *identity.MemoryStore
	sessions *session.MemoryStore
	kernel   *internal.Kernel
	admin    identity.Identity
	member   identity.Identity
	inactive identity.Identity
	roles    map[string]identity.Role
}

// newFixture builds a kernel over defs with an admin, a member and an
// inactive user. A GET /_login/{id} route is appended to obtain session
// cookies for a user.
func newFixture(t *testing.T, defs []internal.RouteDef, mws ...internal.Middleware) *fixture {
	t.Helper()

	ctx := context.Background()
	f := &fixture{
		users:    identity.NewMemoryStore(),
		sessions: session.NewMemoryStore(session.WithCleanupInterval(0)),
		roles:    make(map[string]identity.Role),
	}
	t.Cleanup(func() { _ = f.sessions.Close() })

	for _, r := range []identity.Role{
		{Name: "admin", Permissions: identity.EncodePermissions("users.read", "users.write")},
		{Name: "member", Permissions: identity.EncodePermissions("users.read")},
	} {
		created, err := f.users.CreateRole(ctx, r)
		require.NoError(t, err)
		f.roles[created.Name] = created
	}

	hash, err := password.HashWithParams(testPassword, cheapParams)
	require.NoError(t, err)

	create := func(email, role string, active bool) identity.Identity {
		ident, err := f.users.CreateUser(ctx, identity.Credentials{
			Identity:     identity.Identity{Email: email, Name: email, RoleID: f.roles[role].ID, IsActive: active},
			PasswordHash: hash,
		})
		require.NoError(t, err)
		return ident
	}
	f.admin = create("admin@example.com", "admin", true)
	f.member = create("member@example.com", "member", true)
	f.inactive = create("gone@example.com", "member", false)

	defs = append(defs, internal.RouteDef{
		Method:  http.MethodGet,
		Pattern: "/_login/{id}",
		Handler: func(r *internal.Request, params ...string) (*internal.Response, error) {
			id, _ := strconv.ParseInt(params[0], 10, 64)
			ok, err := r.Auth().LoginByID(id)
			if err != nil {
				return nil, err
			}
			if !ok {
				return internal.Text(http.StatusNotFound, "no such user"), nil
			}
			return internal.NoContent(), nil
		},
	})

	table, err := internal.NewRouteTable(defs, nil, nil)
	require.NoError(t, err)

	f.kernel = internal.NewKernel(table, internal.KernelConfig{
		Sessions:    internal.NewSessionManager(f.sessions),
		Identities:  f.users,
		Middlewares: mws,
	})
	return f
}

// login returns the session cookie of a fresh session for ident.
func (f *fixture) login(t *testing.T, ident identity.Identity) *http.Cookie {
	t.Helper()

	rec := f.do(t, http.MethodGet, "/_login/"+strconv.FormatInt(ident.ID, 10), nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	c := findCookie(rec, testSessionCookie)
	require.NotNil(t, c, "login must issue a session cookie")
	return c
}

// do serves a request through the kernel. Header pairs follow the path.
func (f *fixture) do(t *testing.T, method, path string, c *http.Cookie, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	return serve(f.kernel, method, path, c, headers...)
}

// kernelWithStore builds a kernel over defs that shares the fixture's users
// but keeps sessions in store.
func (f *fixture) kernelWithStore(t *testing.T, store session.Store, defs []internal.RouteDef) *internal.Kernel {
	t.Helper()

	table, err := internal.NewRouteTable(defs, nil, nil)
	require.NoError(t, err)

	return internal.NewKernel(table, internal.KernelConfig{
		Sessions:   internal.NewSessionManager(store),
		Identities: f.users,
	})
}

func serve(h http.Handler, method, path string, c *http.Cookie, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if c != nil {
		req.AddCookie(c)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// counting is a handler that records its invocation.
func counting(called *int) internal.HandlerFunc {
	return func(r *internal.Request, _ ...string) (*internal.Response, error) {
		*called++
		return internal.Text(http.StatusOK, "ok"), nil
	}
}
