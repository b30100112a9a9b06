// Package health serves liveness and readiness probes.
//
// Readiness runs every registered [CheckFunc] concurrently under a shared
// timeout and answers 503 when any of them fails:
//
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//		"redis":    redis.Healthcheck(client),
//		"identity": db.SQLHealthcheck(conn),
//	}))
//
// Responses are plain text unless the client asks for JSON via the Accept
// header or ?format=json.
package health
