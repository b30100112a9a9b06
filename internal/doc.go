// Package internal provides the core types and implementation for the Waypoint dispatch kernel.
//
// This package is internal and should not be used directly. Import "github.com/dmitrymomot/waypoint"
// instead, which re-exports the public API.
//
// # Core Types
//
//   - RouteTable: ordered, immutable set of routes built once from RouteDef tuples
//   - Kernel: matches a request, evaluates the route's guard, invokes the handler
//   - Request: explicit per-request context passed to guards and handlers
//   - AuthGate: session-backed identity, role and permission checks
//   - GuardSpec: typed access policy (none, auth, role, permission, custom, sequence)
//   - Response: status, headers, body and cookies produced by a handler or guard
//   - App: wires the kernel behind a chi router and runs the HTTP server
//
// # Dispatch
//
// Each request goes through one state machine:
//
//	match ── not found ──────────► 404
//	  │ ─── wrong method ────────► 405 (Allow header)
//	  ▼
//	guard ── deny ───────────────► guard's response (401/403 or redirect)
//	  ▼
//	middleware + handler ── err ─► HTTPError status, else 500
//	  ▼
//	response
//
// Handle never panics. Panics and unexpected errors become a 500 with no
// detail in the body.
//
// # Routes
//
// Routes are declared as tuples, in code or in YAML route files:
//
//	app, err := internal.New(
//	    internal.WithController("Admin", admin),
//	    internal.WithRoutes(
//	        internal.RouteDef{Method: "GET", Pattern: "/admin/users/{id}", Handler: "Admin.show", Guard: []string{"auth", "role:admin"}},
//	    ),
//	)
//
// Guards are parsed when the table is built. An unknown guard name, a bad
// pattern or an unresolvable handler makes New fail.
//
// # Handlers
//
// Handlers receive path parameters positionally:
//
//	func (c *AdminController) show(r *internal.Request, params ...string) (*internal.Response, error) {
//	    id := internal.Param[int64](r, "id") // or params[0]
//	    ...
//	    return internal.JSONSuccess(http.StatusOK, user, ""), nil
//	}
//
// Success and Fail pick the response shape from IsAPIRequest: JSON
// envelopes for API clients, flash data plus a redirect for browsers.
package internal
