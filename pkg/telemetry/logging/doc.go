// Package logging builds the structured logger used across fanc.
//
// Loggers are plain *slog.Logger values. New wraps the JSON or text handler
// with a handler that adds request-scoped fields from the context and,
// when enabled, redacts credentials before anything is written.
//
//	logger, err := logging.New(logging.Config{
//		Level:         "info",
//		Format:        "json",
//		RedactSecrets: true,
//	})
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	ctx = logging.WithSegment(ctx, 648518346486614449)
//	logger.InfoContext(ctx, "annotation posted", "token", token) // token is redacted
//
// Redaction covers datastore bearer tokens, Slack tokens and any attribute
// whose key names a secret (token, secret, password, authorization).
package logging
