package logging

import (
	"context"
	"unicode/utf8"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const maxIDLen = 128

type (
	requestCtxKey      struct{}
	userCtxKey         struct{}
	conversationCtxKey struct{}
)

// ContextFields extracts correlation data from ctx: the active span, the
// request id, the user id and the conversation id.
func ContextFields(ctx context.Context) []zap.Field {
	fields := make([]zap.Field, 0, 5)

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("request.id", id))
	}
	if id := UserIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("user.id", id))
	}
	if id := ConversationIDFromContext(ctx); id != "" {
		fields = append(fields, zap.String("conversation.id", id))
	}
	return fields
}

// WithRequestID adds a request id to ctx. Empty, oversized or invalid UTF-8
// ids are ignored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withID(ctx, requestCtxKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx.
func RequestIDFromContext(ctx context.Context) string {
	return idFrom(ctx, requestCtxKey{})
}

// WithUserID adds a user id to ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return withID(ctx, userCtxKey{}, id)
}

// UserIDFromContext returns the user id stored in ctx.
func UserIDFromContext(ctx context.Context) string {
	return idFrom(ctx, userCtxKey{})
}

// WithConversationID adds a conversation id to ctx.
func WithConversationID(ctx context.Context, id string) context.Context {
	return withID(ctx, conversationCtxKey{}, id)
}

// ConversationIDFromContext returns the conversation id stored in ctx.
func ConversationIDFromContext(ctx context.Context) string {
	return idFrom(ctx, conversationCtxKey{})
}

func withID(ctx context.Context, key any, id string) context.Context {
	if id == "" || len(id) > maxIDLen || !utf8.ValidString(id) {
		return ctx
	}
	return context.WithValue(ctx, key, id)
}

func idFrom(ctx context.Context, key any) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}
