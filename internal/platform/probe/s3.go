package probe

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Prober looks artifacts up as objects, keyed by their path without "./".
type S3Prober struct {
	client *minio.Client
	bucket string
}

func NewS3Prober(cfg S3Config) (*S3Prober, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("probe.NewS3Prober: %w", err)
	}
	return &S3Prober{client: client, bucket: cfg.Bucket}, nil
}

func (p *S3Prober) Exists(ctx context.Context, path string) (bool, error) {
	_, err := p.client.StatObject(ctx, p.bucket, objectKey(path), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return false, nil
	}
	return false, fmt.Errorf("probe.S3Prober: %w", err)
}

// Ping checks that the bucket is reachable.
func (p *S3Prober) Ping(ctx context.Context) error {
	ok, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("probe.S3Prober: bucket %q does not exist", p.bucket)
	}
	return nil
}
