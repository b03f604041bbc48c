package services

import "context"

type contextKey string

const (
	playerIDKey  contextKey = "player_id"
	tickKey      contextKey = "tick"
	componentKey contextKey = "component"
	requestIDKey contextKey = "request_id"
)

// WithPlayerID annotates context with the player machine identifier.
func WithPlayerID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, playerIDKey, id)
}

// PlayerIDFromContext extracts the player machine identifier if present.
func PlayerIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(playerIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithTick annotates context with the poll tick sequence number.
func WithTick(ctx context.Context, tick uint64) context.Context {
	return context.WithValue(ctx, tickKey, tick)
}

// TickFromContext returns the poll tick sequence number if present.
func TickFromContext(ctx context.Context) (uint64, bool) {
	switch val := ctx.Value(tickKey).(type) {
	case uint64:
		return val, true
	case int:
		if val < 0 {
			return 0, false
		}
		return uint64(val), true
	default:
		return 0, false
	}
}

// WithComponent annotates context with the emitting component name.
func WithComponent(ctx context.Context, component string) context.Context {
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext returns the component name if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	v := ctx.Value(componentKey)
	if str, ok := v.(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
