package delivery

import (
	"context"

	apperrors "github.com/agbru/spectator/internal/errors"
	"github.com/agbru/spectator/internal/gcevent"
)

//go:generate mockgen -source=consumer.go -destination=mocks/mock_consumer.go -package=mocks

// Consumer receives one record per observed collection, on the application
// goroutine. It should return promptly; errors and panics are contained by
// the channel and never reach the host.
type Consumer interface {
	Consume(ctx context.Context, rec gcevent.Record) error
}

// ConsumerFunc adapts a function to Consumer.
type ConsumerFunc func(ctx context.Context, rec gcevent.Record) error

// Consume calls f.
func (f ConsumerFunc) Consume(ctx context.Context, rec gcevent.Record) error { return f(ctx, rec) }

// AsConsumer converts a caller-supplied value into a Consumer. It accepts a
// Consumer or any of the function shapes
//
//	func(gcevent.Record)
//	func(context.Context, gcevent.Record)
//	func(context.Context, gcevent.Record) error
//
// Nil values and anything else yield an apperrors.ArgumentError.
func AsConsumer(v any) (Consumer, error) {
	switch fn := v.(type) {
	case ConsumerFunc:
		if fn != nil {
			return fn, nil
		}
	case func(context.Context, gcevent.Record) error:
		if fn != nil {
			return ConsumerFunc(fn), nil
		}
	case func(context.Context, gcevent.Record):
		if fn != nil {
			return ConsumerFunc(func(ctx context.Context, rec gcevent.Record) error {
				fn(ctx, rec)
				return nil
			}), nil
		}
	case func(gcevent.Record):
		if fn != nil {
			return ConsumerFunc(func(_ context.Context, rec gcevent.Record) error {
				fn(rec)
				return nil
			}), nil
		}
	case Consumer:
		if fn != nil {
			return fn, nil
		}
	}
	return nil, apperrors.NewNotCallableError(v)
}
