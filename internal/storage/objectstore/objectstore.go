// Package objectstore issues presigned URLs so clients upload and download
// project files directly against the bucket.
package objectstore

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const DefaultTTL = 15 * time.Minute

// Presigner signs object URLs for a single bucket.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type Config struct {
	Driver    string // "s3" or "minio"
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return fmt.Errorf("storage bucket is required")
	}
	switch c.Driver {
	case "s3":
	case "minio":
		if c.Endpoint == "" || c.AccessKey == "" || c.SecretKey == "" {
			return fmt.Errorf("minio requires endpoint, access key and secret key")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Driver)
	}
	return nil
}

// New selects the presigner for cfg.Driver.
func New(ctx context.Context, cfg Config) (Presigner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Driver == "minio" {
		return NewMinioPresigner(cfg)
	}
	return NewS3Presigner(ctx, cfg)
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}
