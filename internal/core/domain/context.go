package domain

import "context"

type requestIDContextKey struct{}

// ContextWithRequestID attaches the request identifier the surrounding
// system propagates end-to-end. The engine never generates one itself; it
// only keys audit traces by whatever the caller provides.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	requestID, _ := ctx.Value(requestIDContextKey{}).(string)
	return requestID
}
