// SPDX-License-Identifier: EPL-2.0

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

var (
	ErrNoBucket = errors.New("bucket name is empty")
	ErrEmptyKey = errors.New("object key is empty")
)

// Config locates a bucket on an S3 compatible server.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	// PublicURL is the base of returned object URLs. When empty URLs point
	// at the endpoint.
	PublicURL string
}

// MinioUploader stores recordings and mixdowns in a bucket. It implements
// engine.Uploader.
type MinioUploader struct {
	client *minio.Client
	cfg    Config
	log    *zap.Logger
}

func NewMinioUploader(cfg Config, log *zap.Logger) (*MinioUploader, error) {
	if cfg.Bucket == "" {
		return nil, ErrNoBucket
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	return &MinioUploader{client: client, cfg: cfg, log: log}, nil
}

// EnsureBucket creates the bucket when it does not exist.
func (u *MinioUploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.cfg.Bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", u.cfg.Bucket, err)
	}
	if exists {
		return nil
	}

	if err := u.client.MakeBucket(ctx, u.cfg.Bucket, minio.MakeBucketOptions{Region: u.cfg.Region}); err != nil {
		return fmt.Errorf("creating bucket %s: %w", u.cfg.Bucket, err)
	}
	u.log.Info("bucket created", zap.String("bucket", u.cfg.Bucket))
	return nil
}

// Upload puts data under key and returns its URL. Failures are returned as
// they are, without retrying.
func (u *MinioUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	info, err := u.client.PutObject(ctx, u.cfg.Bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", key, err)
	}

	u.log.Debug("object uploaded",
		zap.String("bucket", info.Bucket),
		zap.String("key", info.Key),
		zap.Int64("size", info.Size))

	return ObjectURL(u.cfg, key), nil
}

// ObjectURL is the URL an object is served from.
func ObjectURL(cfg Config, key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()

	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/") + "/" + strings.TrimLeft(escaped, "/")
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, cfg.Endpoint, cfg.Bucket, strings.TrimLeft(escaped, "/"))
}
