package context

import (
	"context"
)

type key int

const (
	requestIDKey key = iota
	sendIDKey
)

// WithRequestID tags ctx with the id of the HTTP request being served.
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithSendID tags ctx with the id of one dispatcher send attempt.
func WithSendID(ctx context.Context, sendID string) context.Context {
	return context.WithValue(ctx, sendIDKey, sendID)
}

func SendID(ctx context.Context) string {
	v, _ := ctx.Value(sendIDKey).(string)
	return v
}

// TraceID is the id outgoing calls are tagged with: the request id, else the send id.
func TraceID(ctx context.Context) string {
	if id := RequestID(ctx); id != "" {
		return id
	}
	return SendID(ctx)
}
