// Package logging defines the structured, context-aware logger used across
// custodykeeper, with slog and zerolog backends.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/rs/zerolog"
)

// Logger takes key-value pairs after the message:
//
//	log.Info(ctx, "wallet created", "wallet_id", id, "address", addr)
//
// Never pass passwords, private keys, derived keys or tokens as values.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always carries args.
	With(args ...any) Logger
}

// redactedKeys are masked by both backends in case a secret slips into a
// log call.
var redactedKeys = map[string]bool{
	"password":       true,
	"private_key":    true,
	"token":          true,
	"session_token":  true,
	"operator_token": true,
}

const redacted = "[REDACTED]"

func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if redactedKeys[a.Key] {
		return slog.String(a.Key, redacted)
	}
	return a
}

// redactArgs masks values of redactedKeys in a key-value list.
func redactArgs(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok || !redactedKeys[k] {
			continue
		}
		if out == nil {
			out = append([]any(nil), args...)
		}
		out[i+1] = redacted
	}
	if out == nil {
		return args
	}
	return out
}

// New builds a logger writing to w in the given format ("json" or "zerolog").
func New(format string, w io.Writer) (Logger, error) {
	switch format {
	case "", "json":
		return NewSlogLogger(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{ReplaceAttr: redactAttr}))), nil
	case "zerolog":
		return NewZerologLogger(zerolog.New(w).With().Timestamp().Logger()), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}
