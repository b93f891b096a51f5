package internal

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
)

// Prefix creates a consistent prefix for the logs of one search session.
//
// id is the session id, of which only the first 8 characters are used; root is truncated to keep lines short.
func Prefix(id, root string) string {
	if len(id) > 8 {
		id = id[:8]
	}

	return fmt.Sprintf(`[%s] "%s" - `, id, TruncateLeftWithPrefix(root, 40, "..."))
}

// NewLogger returns a logger that writes to stderr if verbose is true, or discards everything otherwise.
func NewLogger(verbose bool) *log.Logger {
	if verbose {
		return log.New(os.Stderr, "", log.LstdFlags)
	}

	return log.New(io.Discard, "", 0)
}

type loggerKey struct{}

// WithLogger attaches the logger to context.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// WithPrefixLogger creates a new logger using the given prefix, then attaches it to context.
//
// The new logger writes to the same destination as the logger already attached to context, or stderr if none.
func WithPrefixLogger(ctx context.Context, prefix string) context.Context {
	var w io.Writer = os.Stderr
	flags := 0
	if parent, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		w, flags = parent.Writer(), parent.Flags()
	}

	logger := log.New(w, prefix, flags)
	return context.WithValue(ctx, loggerKey{}, logger)
}

// MustLogger returns the logger attached to the given context.
func MustLogger(ctx context.Context) *log.Logger {
	return ctx.Value(loggerKey{}).(*log.Logger)
}
