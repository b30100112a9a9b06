package internal_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/waypoint/internal"
)

type usersController struct{}

func (usersController) Actions() map[string]internal.HandlerFunc {
	return map[string]internal.HandlerFunc{
		"index": func(*internal.Request, ...string) (*internal.Response, error) {
			return internal.Text(http.StatusOK, "users"), nil
		},
	}
}

func TestNewRouteTable(t *testing.T) {
	t.Parallel()

	controllers := internal.Controllers{"Users": usersController{}}
	guards := map[string]internal.Guard{
		"verified": internal.GuardFunc(func(*internal.Request) (internal.GuardOutcome, error) { return internal.Allow(), nil }),
	}

	t.Run("valid table", func(t *testing.T) {
		t.Parallel()

		table, err := internal.NewRouteTable([]internal.RouteDef{
			{Method: " get ", Pattern: "/users", Handler: "Users.index", Guard: []string{"auth", "verified"}},
			{Method: "GET", Pattern: "/legacy", Handler: "Users@index"},
			{Method: "GET", Pattern: "/users", Handler: noop},
		}, controllers, guards)
		require.NoError(t, err)
		require.Equal(t, 3, table.Len())

		routes := table.Routes()
		require.Equal(t, "GET", routes[0].Method)
		require.Equal(t, "Users.index", routes[0].HandlerRef)
		require.Equal(t, internal.GuardKindSequence, routes[0].Guard.Kind())
		require.Equal(t, "[auth, verified]", routes[0].Guard.String())

		m := table.Match("GET", "/users")
		require.Same(t, routes[0], m.Route, "duplicate pairs are kept and the first wins")
	})

	malformed := []struct {
		name string
		def  internal.RouteDef
	}{
		{name: "empty method", def: internal.RouteDef{Pattern: "/x", Handler: noop}},
		{name: "relative pattern", def: internal.RouteDef{Method: "GET", Pattern: "x", Handler: noop}},
		{name: "partial placeholder", def: internal.RouteDef{Method: "GET", Pattern: "/x{id}", Handler: noop}},
		{name: "unbalanced placeholder", def: internal.RouteDef{Method: "GET", Pattern: "/{id", Handler: noop}},
		{name: "empty placeholder", def: internal.RouteDef{Method: "GET", Pattern: "/{}", Handler: noop}},
		{name: "duplicate placeholder", def: internal.RouteDef{Method: "GET", Pattern: "/{id}/{id}", Handler: noop}},
		{name: "missing handler", def: internal.RouteDef{Method: "GET", Pattern: "/x"}},
		{name: "unknown controller", def: internal.RouteDef{Method: "GET", Pattern: "/x", Handler: "Ghost.index"}},
		{name: "unknown action", def: internal.RouteDef{Method: "GET", Pattern: "/x", Handler: "Users.destroy"}},
		{name: "bad reference", def: internal.RouteDef{Method: "GET", Pattern: "/x", Handler: "Users"}},
		{name: "unsupported handler", def: internal.RouteDef{Method: "GET", Pattern: "/x", Handler: 42}},
		{name: "unknown guard", def: internal.RouteDef{Method: "GET", Pattern: "/x", Handler: noop, Guard: "admin-only"}},
		{name: "role without name", def: internal.RouteDef{Method: "GET", Pattern: "/x", Handler: noop, Guard: "role:"}},
		{name: "guard of wrong type", def: internal.RouteDef{Method: "GET", Pattern: "/x", Handler: noop, Guard: 3.14}},
	}

	for _, tt := range malformed {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := internal.NewRouteTable([]internal.RouteDef{tt.def}, controllers, guards)
			require.ErrorIs(t, err, internal.ErrMalformedRouteSource)
		})
	}

	t.Run("resolver errors are wrapped", func(t *testing.T) {
		t.Parallel()

		_, err := internal.NewRouteTable([]internal.RouteDef{
			{Method: "GET", Pattern: "/x", Handler: "a.b", Source: "routes/web.yaml"},
		}, failingResolver{}, nil)
		require.ErrorIs(t, err, internal.ErrMalformedRouteSource)
		require.ErrorIs(t, err, errResolve)
		require.Contains(t, err.Error(), "routes/web.yaml")
	})

	t.Run("string handler without registry", func(t *testing.T) {
		t.Parallel()

		_, err := internal.NewRouteTable([]internal.RouteDef{
			{Method: "GET", Pattern: "/x", Handler: "Users.index"},
		}, nil, nil)
		require.ErrorIs(t, err, internal.ErrMalformedRouteSource)
	})
}

var errResolve = errors.New("resolver offline")

type failingResolver struct{}

func (failingResolver) Resolve(string) (internal.HandlerFunc, error) { return nil, errResolve }
