package source

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the object store settings. Empty keys fall back to the default AWS
// credential chain.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	// Endpoint is set for S3-compatible stores such as MinIO; path-style addressing is used.
	Endpoint string
}

// S3Fetcher downloads objects with the S3 transfer manager.
type S3Fetcher struct {
	downloader *manager.Downloader
	timeout    time.Duration
}

// NewS3Fetcher loads AWS configuration and creates a downloader.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Fetcher{downloader: manager.NewDownloader(client), timeout: 5 * time.Minute}, nil
}

// Fetch downloads bucket/key into w.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()
	n, err := f.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return 0, fmt.Errorf("s3 download failed: %w", err)
	}
	return n, nil
}
