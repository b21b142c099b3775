package ports

import "context"

// ObjectEventHandler is invoked once per notification with the key of the
// uploaded payload object. Returning an error leaves the offset unmarked so
// the event is redelivered.
type ObjectEventHandler func(ctx context.Context, objectKey string) error

type Consumer interface {
	Consume(ctx context.Context, handler ObjectEventHandler) error
	Close() error
	HealthCheck(ctx context.Context) error
}
