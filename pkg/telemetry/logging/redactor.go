package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/dineshabey/gemini-multimodal-api-websocket/pkg/config"
)

// RedactedValue replaces the value of any attribute whose key names a secret.
const RedactedValue = "[REDACTED]"

// Redactor masks credentials in log attributes and free-form strings.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternBearerToken = "bearer_token"
	PatternBearerJSON  = "bearer_json"
	PatternGoogleOAuth = "google_oauth"
	PatternJWT         = "jwt"
	PatternAPIKey      = "api_key"
	PatternPassword    = "password"
)

// Order matters: the JSON field pattern runs before the generic token shapes
// so a whole auth message collapses into one marker.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternBearerJSON, `"bearer_token"\s*:\s*"[^"]*"`, `"bearer_token":"***"`},
	{PatternBearerToken, `(?i)bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternGoogleOAuth, `ya29\.[a-zA-Z0-9\-_.]+`, "ya29.***"},
	{PatternJWT, `eyJ[a-zA-Z0-9\-_]+\.[a-zA-Z0-9\-_]+\.[a-zA-Z0-9\-_]+`, "***.jwt.***"},
	{PatternAPIKey, `(AIza[0-9A-Za-z\-_]{35}|sk-[a-zA-Z0-9]{8,})`, "***key***"},
	{PatternPassword, `(password|passwd|pwd)[:=]\s*[^\s]+`, "$1: ***"},
}

var sensitiveKeys = []string{
	"token", "bearer", "authorization",
	"secret", "password", "passwd",
	"api_key", "apikey", "private_key", "credential",
}

// NewRedactor creates a Redactor with the built-in patterns followed by the
// custom ones. Custom patterns that fail to compile are skipped.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{}

	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}

	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}

	return r
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}

	redacted := value
	for _, pattern := range r.patterns {
		redacted = pattern.regex.ReplaceAllString(redacted, pattern.replacement)
	}
	return redacted
}

// RedactArgs redacts alternating key/value arguments as passed to slog.
func (r *Redactor) RedactArgs(args ...any) []any {
	if len(args) == 0 {
		return args
	}

	redacted := make([]any, len(args))
	copy(redacted, args)

	for i := 1; i < len(redacted); i += 2 {
		if key, ok := redacted[i-1].(string); ok && IsSensitiveKey(key) {
			redacted[i] = RedactedValue
			continue
		}
		if str, ok := redacted[i].(string); ok {
			redacted[i] = r.RedactString(str)
		}
	}

	return redacted
}

// RedactAttr redacts a single slog attribute, descending into groups.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactedValue)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(v.String()))
	case slog.KindGroup:
		group := v.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = r.RedactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}

// IsSensitiveKey reports whether an attribute key names a credential.
func IsSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)
	for _, sensitive := range sensitiveKeys {
		if strings.Contains(lowerKey, sensitive) {
			return true
		}
	}
	return false
}

// Truncate shortens s to at most n bytes, marking the cut.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
