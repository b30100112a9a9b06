// Package middlewares provides middleware for waypoint applications.
//
// Two kinds of middleware live here. HTTP middleware wraps the whole
// application and runs before route matching; register it with
// WithHTTPMiddleware. Kernel middleware wraps a matched route's handler and
// runs only after the route's guard allowed the request; register it with
// WithMiddleware.
//
// # Request ID (HTTP)
//
// RequestID assigns a unique ID to each request. Upstream IDs from
// X-Request-ID or X-Correlation-ID are kept; otherwise a UUID is generated.
// Use RequestIDExtractor with WithLogger so every kernel log line carries it:
//
//	app, err := waypoint.New(
//	    waypoint.WithLogger("web", middlewares.RequestIDExtractor()),
//	    waypoint.WithHTTPMiddleware(middlewares.RequestID()),
//	)
//
// # CORS (HTTP)
//
// CORS adds Cross-Origin Resource Sharing headers and answers preflight
// requests before they reach route matching:
//
//	waypoint.WithHTTPMiddleware(
//	    middlewares.CORS(
//	        middlewares.WithAllowOrigins("https://app.example.com"),
//	        middlewares.WithAllowCredentials(),
//	    ),
//	)
//
// # Timeout (HTTP) and GatewayTimeout (kernel)
//
// Timeout bounds the request context. GatewayTimeout turns handler errors
// caused by the expired deadline into 504 responses:
//
//	waypoint.WithHTTPMiddleware(middlewares.Timeout(5*time.Second)),
//	waypoint.WithMiddleware(middlewares.GatewayTimeout(5*time.Second)),
//
// # Recover (kernel)
//
// Recover converts handler panics into a *PanicError carrying the stack.
// The kernel logs it as a handler fault and answers 500:
//
//	waypoint.WithMiddleware(middlewares.Recover())
//
// # Recommended Order
//
//	waypoint.WithHTTPMiddleware(
//	    middlewares.CORS(),
//	    middlewares.RequestID(),
//	    middlewares.Timeout(5*time.Second),
//	),
//	waypoint.WithMiddleware(
//	    middlewares.Recover(),
//	    middlewares.GatewayTimeout(5*time.Second),
//	),
package middlewares
