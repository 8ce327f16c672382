package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

// Redacted replaces secret values.
const Redacted = "***"

// Redactor scrubs credentials from log attributes.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

var sensitiveKeys = []string{
	"password", "passwd", "secret", "token", "authorization", "auth_token", "api_key", "apikey",
}

// NewRedactor creates a Redactor with the built-in patterns.
func NewRedactor() *Redactor {
	defs := []struct {
		regex       string
		replacement string
	}{
		// Authorization headers sent to the annotation datastore.
		{`Bearer\s+[A-Za-z0-9\-._~+/]+=*`, "Bearer " + Redacted},
		// Slack bot, app and user tokens.
		{`xox[abposr]-[A-Za-z0-9-]+`, "xox-" + Redacted},
		{`xapp-[A-Za-z0-9-]+`, "xapp-" + Redacted},
		// Query-string credentials.
		{`((?:auth_token|token|middle_auth_token)=)[^&\s]+`, "${1}" + Redacted},
	}

	r := &Redactor{}
	for _, d := range defs {
		r.patterns = append(r.patterns, &redactPattern{
			regex:       regexp.MustCompile(d.regex),
			replacement: d.replacement,
		})
	}
	return r
}

// RedactString scrubs credentials embedded in s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range r.patterns {
		s = p.regex.ReplaceAllString(s, p.replacement)
	}
	return s
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr function.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	switch a.Value.Kind() {
	case slog.KindString:
		if s := a.Value.String(); s != "" {
			return slog.String(a.Key, r.RedactString(s))
		}
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
