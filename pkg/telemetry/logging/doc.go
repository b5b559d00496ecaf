// Package logging provides structured logging with secret redaction.
//
// The Logger wraps log/slog. Every record, including those written through
// the *slog.Logger returned by Slog, passes through a handler that
//   - adds request_id, session_id, remote_addr and trace_id from the context
//   - replaces values of credential-named attributes with [REDACTED]
//   - rewrites bearer tokens, OAuth access tokens and JWTs found in strings
//
// Usage:
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json", RedactSecrets: true})
//	slog.SetDefault(logger.Slog())
//	logger.InfoContext(logging.WithSession(ctx, id), "session opened")
package logging
