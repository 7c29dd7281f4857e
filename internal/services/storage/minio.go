package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Carima-SSY/AWS-Client/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOPresigner подписывает URL локально ключами minio/S3
type MinIOPresigner struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewMinIOPresigner(cfg *config.AppConfig) (*MinIOPresigner, error) {
	endpoint := strings.TrimSpace(cfg.Storage.MinIOEndpoint)
	if endpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT is required when STORAGE_BACKEND=minio")
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.MinIOAccessKey, cfg.Storage.MinIOSecretKey, ""),
		Secure: cfg.Storage.MinIOUseSSL,
		Region: cfg.Storage.MinIORegion,
	})
	if err != nil {
		return nil, err
	}
	bucket := strings.TrimSpace(cfg.Storage.MinIOBucket)
	if bucket == "" {
		bucket = "device-artifacts"
	}
	return &MinIOPresigner{client: client, bucket: bucket, expiry: cfg.Storage.PresignExpiry}, nil
}

func (p *MinIOPresigner) Presign(ctx context.Context, method, key string) (string, error) {
	var (
		u   *url.URL
		err error
	)
	switch method {
	case MethodGet:
		u, err = p.client.PresignedGetObject(ctx, p.bucket, key, p.expiry, url.Values{})
	case MethodPut:
		u, err = p.client.PresignedPutObject(ctx, p.bucket, key, p.expiry)
	default:
		return "", fmt.Errorf("неизвестный метод %q", method)
	}
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// EnsureBucket создает бакет, если его нет
func (p *MinIOPresigner) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{})
	}
	return nil
}
