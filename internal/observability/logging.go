package observability

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cebeepredict/admin/internal/config"
	"github.com/cebeepredict/admin/model"
)

// ServiceName tags every log line and span emitted by the admin server.
const ServiceName = "cebee-admin"

// NewLogger creates the server's JSON logger.
//
// Level conventions:
//   - error: backend unreachable, panics, 5xx answers
//   - warn:  4xx answers, breaker open, session cleared on 401
//   - info:  request end, login/logout, writes, definitions loaded
//   - debug: backend calls with redacted bodies, list pipeline counts
func NewLogger(cfg config.ObservabilityConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.MillisDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
		InitialFields:    map[string]any{"service": ServiceName},
	}

	return zapCfg.Build()
}

// RequestLogger returns base with the signed-in admin and request ids of
// ctx attached. Empty ids are left out. A nil base yields a no-op logger.
func RequestLogger(ctx context.Context, base *zap.Logger) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	rctx, ok := model.RequestContextFrom(ctx)
	if !ok {
		return base
	}

	var fields []zap.Field
	add := func(key, val string) {
		if val != "" {
			fields = append(fields, zap.String(key, val))
		}
	}
	add("admin_id", rctx.SubjectID)
	add("session", rctx.SessionID)
	add("correlation_id", rctx.CorrelationID)
	add("trace_id", rctx.TraceID)
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}

// Redaction markers.
const (
	Redacted        = "[REDACTED]"
	maxLoggedString = 256
)

// Keys are compared after lower-casing and dropping separators, so
// "accessToken", "access_token" and "Access-Token" are the same key.
var (
	sensitiveKeys     = []string{"otp", "pin", "cookie", "authorization"}
	sensitiveSuffixes = []string{"password", "secret", "token", "apikey"}
)

func normalizeKey(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range k {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

func isSensitive(key string, extra map[string]bool) bool {
	k := normalizeKey(key)
	if extra[k] {
		return true
	}
	for _, s := range sensitiveKeys {
		if k == s {
			return true
		}
	}
	for _, s := range sensitiveSuffixes {
		if strings.HasSuffix(k, s) {
			return true
		}
	}
	return false
}

// RedactBody returns a copy of a backend request body fit for debug logs.
// Credentials (passwords, tokens, secrets, one-time codes) are replaced by
// Redacted at any depth, including inside arrays; extra names more keys to
// hide. Long strings such as CMS markdown bodies are cut to a prefix and
// their length.
func RedactBody(body map[string]any, extra []string) map[string]any {
	if body == nil {
		return nil
	}
	extraSet := make(map[string]bool, len(extra))
	for _, f := range extra {
		extraSet[normalizeKey(f)] = true
	}
	return redactMap(body, extraSet)
}

func redactMap(m map[string]any, extra map[string]bool) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSensitive(k, extra) {
			out[k] = Redacted
			continue
		}
		out[k] = redactValue(v, extra)
	}
	return out
}

func redactValue(v any, extra map[string]bool) any {
	switch t := v.(type) {
	case map[string]any:
		return redactMap(t, extra)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = redactValue(e, extra)
		}
		return out
	case string:
		if len(t) > maxLoggedString {
			return fmt.Sprintf("%s... (%d bytes)", t[:maxLoggedString], len(t))
		}
		return t
	default:
		return v
	}
}
