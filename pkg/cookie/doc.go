// Package cookie builds and reads the session cookie.
//
// A [Manager] holds the shared attributes (path, domain, Secure, HttpOnly,
// SameSite). Cookies are returned as values from [Manager.Issue] and
// [Manager.Expire] so callers can attach them to any response, including
// ones produced before a ResponseWriter is in reach.
//
// With [WithSecret] the value is HMAC-SHA256 signed; [Manager.Read] rejects
// tampered values with [ErrBadSig].
//
//	m := cookie.New(cookie.WithSecret(secret), cookie.WithSecure(true))
//	c := m.Issue("waypoint_session", token, 86400)
//	value, err := m.Read(r, "waypoint_session")
package cookie
