package aggregate

import "context"

type ctxKey int

const requestIDKey ctxKey = iota

// CtxWithRequestID stores the causation/correlation request id which will
// be attached to every event saved within this context
func CtxWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx returns the request id stored in the context
// (empty string when not set)
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)

	return id
}
