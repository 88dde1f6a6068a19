// Package appcontext carries request-scoped identifiers through context.
package appcontext

import "context"

type contextKey string

var (
	requestIDKey = contextKey("X-Request-Id")
	actorIDKey   = contextKey("X-Actor-Id")
	methodKey    = contextKey("X-Method")
	routeKey     = contextKey("X-Route")
)

func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	value, ok := ctx.Value(requestIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

// SetActorID records the authenticated buyer or vendor user id. The engine
// uses it as the actor on proposal audit entries.
func SetActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, actorID)
}

func GetActorID(ctx context.Context) string {
	value, ok := ctx.Value(actorIDKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetMethod(ctx context.Context, method string) context.Context {
	return context.WithValue(ctx, methodKey, method)
}

func GetMethod(ctx context.Context) string {
	value, ok := ctx.Value(methodKey).(string)
	if !ok {
		return ""
	}
	return value
}

func SetRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey, route)
}

func GetRoute(ctx context.Context) string {
	value, ok := ctx.Value(routeKey).(string)
	if !ok {
		return ""
	}
	return value
}
