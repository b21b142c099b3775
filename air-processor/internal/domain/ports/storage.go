package ports

import "context"

type DocumentStore interface {
	Download(ctx context.Context, objectKey string) ([]byte, error)
	Exists(ctx context.Context, objectKey string) (bool, error)
	HealthCheck(ctx context.Context) error
}
