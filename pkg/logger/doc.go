// Package logger builds the process logger on log/slog.
//
// [New] picks a JSON or text handler from [Config], wraps it with a
// decorator that adds request-scoped attributes through [ContextExtractor]
// functions, and optionally fans warnings and errors out to Sentry.
//
//	log := logger.New(cfg.Log, requestid.Extractor())
//	log.InfoContext(ctx, "dispatch", slog.String("route", pattern))
//
// [NewNope] is the default when no logger is configured.
package logger
