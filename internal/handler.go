package internal

// HandlerFunc is the signature for route handlers. Path parameters are
// passed positionally in the order the route pattern declares them.
// Returning an *HTTPError renders that status; any other error is a fault
// and becomes a 500. A nil response with a nil error is sent as 204.
type HandlerFunc func(r *Request, params ...string) (*Response, error)

// Middleware wraps a HandlerFunc to add cross-cutting concerns.
// Kernel middleware runs only after the route's guard has allowed the
// request.
//
// Example:
//
//	func Timing(next waypoint.HandlerFunc) waypoint.HandlerFunc {
//	    return func(r *waypoint.Request, params ...string) (*waypoint.Response, error) {
//	        start := time.Now()
//	        defer func() { r.Logger().Debug("handled", "took", time.Since(start)) }()
//	        return next(r, params...)
//	    }
//	}
type Middleware func(next HandlerFunc) HandlerFunc

// chain wraps h with mws. The first middleware is the outermost.
func chain(h HandlerFunc, mws []Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
