// Package waypoint is a request dispatch kernel for server-rendered web
// applications that also expose a JSON API.
//
// Routes are declared as data: method, path pattern, handler reference and
// an optional guard. The kernel matches a request against the route table,
// evaluates the route's guard against the session-backed identity, invokes
// the handler with positional path parameters, and renders the result.
// Browsers get redirects and plain pages; API clients (JSON Content-Type or
// Accept, X-Requested-With, or an /api/ path) get JSON envelopes.
//
// # Quick Start
//
//	app, err := waypoint.New(
//	    waypoint.WithLogger("web"),
//	    waypoint.WithIdentityStore(users),
//	    waypoint.WithController("Dashboard", dashboard),
//	    waypoint.WithRoutes(
//	        waypoint.RouteDef{Method: "GET", Pattern: "/dashboard", Handler: "Dashboard.index", Guard: "auth"},
//	        waypoint.RouteDef{Method: "GET", Pattern: "/admin/users/{id}", Handler: "Dashboard.user", Guard: []string{"auth", "role:admin"}},
//	    ),
//	)
//	if err != nil {
//	    return err
//	}
//	return app.Run(ctx)
//
// # Route Files
//
// Routes may also live in YAML files loaded with WithRouteFile, WithRouteDir
// or WithRouteFS:
//
//	- [GET, /, Home.index]
//	- [GET, /dashboard, Dashboard.index, auth]
//	- method: DELETE
//	  path: /admin/users/{id}
//	  handler: Admin.destroy
//	  guard: [auth, "permission:users.write"]
//
// A malformed file, an unknown controller or an unknown guard name fails
// New; the application never starts with a partial table.
//
// # Handlers
//
// Handlers receive the request and the path parameters in pattern order:
//
//	func (c *Admin) show(r *waypoint.Request, params ...string) (*waypoint.Response, error) {
//	    id := waypoint.Param[int64](r, "id")
//	    ...
//	    return waypoint.JSONSuccess(http.StatusOK, user, ""), nil
//	}
//
// Returning an *HTTPError renders its status and message. Any other error,
// or a panic, is logged as a handler fault and answered with a bare 500.
//
// # Authentication
//
// Request.Auth exposes the AuthGate: Attempt verifies credentials, Login
// stores the identity and rotates the session token, Logout destroys the
// session. Identity and role are re-read from the identity store on every
// request, so deactivating a user or changing a role applies immediately.
//
// # Shutdown
//
// Run handles SIGINT/SIGTERM for graceful shutdown. Register cleanup
// functions with WithShutdownHook:
//
//	waypoint.WithShutdownHook(db.Shutdown(pool))
package waypoint
