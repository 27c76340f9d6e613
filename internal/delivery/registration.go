package delivery

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// Registration binds a consumer to the execution context it was registered
// from. The context keeps the caller's values and trace identity but not its
// cancellation, so deliveries keep flowing after the registering call returns.
type Registration struct {
	consumer Consumer
	ctx      context.Context
	span     trace.SpanContext
}

// NewRegistration captures ctx for later deliveries to c.
func NewRegistration(ctx context.Context, c Consumer) *Registration {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Registration{
		consumer: c,
		ctx:      context.WithoutCancel(ctx),
		span:     trace.SpanContextFromContext(ctx),
	}
}

// Context returns the captured execution context.
func (r *Registration) Context() context.Context { return r.ctx }

// SpanContext returns the trace identity of the registering caller, which is
// invalid if the caller was not traced.
func (r *Registration) SpanContext() trace.SpanContext { return r.span }
