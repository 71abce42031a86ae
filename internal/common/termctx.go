package common

import "context"

type ctxKey string

const terminalIDKey ctxKey = "pos/terminal-id"

// WithTerminalID stores the originating terminal identifier on the context.
func WithTerminalID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, terminalIDKey, id)
}

// TerminalID extracts the terminal identifier from the context, or an empty
// string when the request carried none.
func TerminalID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(terminalIDKey).(string); ok {
		return id
	}
	return ""
}
