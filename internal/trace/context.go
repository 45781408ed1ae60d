package trace

import "context"

type ctxKey uint8

const (
	tracerKey ctxKey = iota
	heartbeatKey
)

// WithTracer returns a context carrying t. A nil t is stored as Nop.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, tracerKey, t)
}

// FromContext returns the tracer stored by WithTracer, or Nop.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(tracerKey).(Tracer); ok {
		return t
	}
	return Nop
}

// WithHeartbeat returns a context carrying h, so the code that drives the
// runtime can report steps to it without knowing how tracing was set up.
func WithHeartbeat(ctx context.Context, h *Heartbeat) context.Context {
	return context.WithValue(ctx, heartbeatKey, h)
}

// HeartbeatFrom returns the heartbeat stored by WithHeartbeat. The result may
// be nil; Observe and Stop accept a nil receiver.
func HeartbeatFrom(ctx context.Context) *Heartbeat {
	if ctx == nil {
		return nil
	}
	h, _ := ctx.Value(heartbeatKey).(*Heartbeat)
	return h
}
