package logging

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

// credentialKeys are attribute keys whose values are always masked.
var credentialKeys = map[string]struct{}{
	"password":      {},
	"current":       {},
	"credential":    {},
	"authorization": {},
}

// credentialKeyParts mask any key containing them, e.g. jwt_secret or new_password.
var credentialKeyParts = []string{"password", "secret", "token"}

// Redact is a slog ReplaceAttr func. It masks attributes named like
// credentials and string values that look like bearer tokens, JWTs or
// bcrypt hashes, whatever their key.
func Redact(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch a.Key {
		case slog.TimeKey, slog.LevelKey, slog.SourceKey, slog.MessageKey:
			return a
		}
	}

	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		return a
	}
	if isCredentialKey(a.Key) {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() == slog.KindString && looksLikeCredential(a.Value.String()) {
		return slog.String(a.Key, redacted)
	}
	return a
}

func isCredentialKey(key string) bool {
	key = strings.ToLower(key)
	if _, ok := credentialKeys[key]; ok {
		return true
	}
	for _, part := range credentialKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

func looksLikeCredential(v string) bool {
	switch {
	case len(v) > 7 && strings.EqualFold(v[:7], "bearer "):
		return true
	case strings.HasPrefix(v, "$2a$"), strings.HasPrefix(v, "$2b$"), strings.HasPrefix(v, "$2y$"):
		return true
	case strings.HasPrefix(v, "eyJ") && strings.Count(v, ".") == 2:
		return true
	}
	return false
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, record.Level) {
			errs = append(errs, h.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
