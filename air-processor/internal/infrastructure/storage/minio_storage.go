package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/kurta17/Environmental-Monitoring-System/air-processor/internal/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioStorage struct {
	client *minio.Client
	logger logger.Logger
}

// MinioDocumentStore binds the generic client to the payload bucket the
// fetcher uploads into.
type MinioDocumentStore struct {
	storage *MinioStorage
	bucket  string
	logger  logger.Logger
}

func NewMinioStorage(endpoint, accessKey, secretKey string, useSSL bool) (*MinioStorage, error) {
	log := logger.New("info", "development").WithField("component", "minio_storage")

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = client.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list Minio buckets: %w", err)
	}

	log.Info("Minio storage initialized successfully")
	return &MinioStorage{
		client: client,
		logger: log,
	}, nil
}

func (m *MinioStorage) Download(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	object, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download object: %w", err)
	}

	_, err = object.Stat()
	if err != nil {
		object.Close()
		return nil, fmt.Errorf("object not found: %w", err)
	}

	return object, nil
}

func (m *MinioStorage) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := m.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

func (m *MinioStorage) BucketExists(ctx context.Context, bucket string) (bool, error) {
	exists, err := m.client.BucketExists(ctx, bucket)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	return exists, nil
}

func (m *MinioStorage) HealthCheck(ctx context.Context) error {
	_, err := m.client.ListBuckets(ctx)
	return err
}

func NewMinioDocumentStore(storage *MinioStorage, bucket string) *MinioDocumentStore {
	return &MinioDocumentStore{
		storage: storage,
		bucket:  bucket,
		logger:  logger.New("info", "development").WithField("component", "minio_document_store"),
	}
}

func (m *MinioDocumentStore) Download(ctx context.Context, objectKey string) ([]byte, error) {
	object, err := m.storage.Download(ctx, m.bucket, objectKey)
	if err != nil {
		return nil, err
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", objectKey, err)
	}

	m.logger.Debugf("Downloaded object %s (%d bytes)", objectKey, len(data))
	return data, nil
}

func (m *MinioDocumentStore) Exists(ctx context.Context, objectKey string) (bool, error) {
	return m.storage.Exists(ctx, m.bucket, objectKey)
}

func (m *MinioDocumentStore) HealthCheck(ctx context.Context) error {
	exists, err := m.storage.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("payload bucket %s does not exist", m.bucket)
	}
	return nil
}
