// Package source resolves ingestion inputs to local files. Local paths pass through; s3://
// objects are downloaded to a temporary directory.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrNoFetcher is returned for remote sources when no object store is configured.
var ErrNoFetcher = errors.New("remote sources are not configured")

// Fetcher downloads an object into w.
type Fetcher interface {
	Fetch(ctx context.Context, bucket, key string, w io.WriterAt) (int64, error)
}

// Resolver maps a source string to a readable local path.
type Resolver struct {
	fetcher Fetcher
	tmpDir  string
	logger  *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithFetcher enables s3:// sources.
func WithFetcher(f Fetcher) Option {
	return func(r *Resolver) {
		r.fetcher = f
	}
}

// WithTempDir sets where downloads are written (os.TempDir by default).
func WithTempDir(dir string) Option {
	return func(r *Resolver) {
		r.tmpDir = dir
	}
}

// NewResolver creates a resolver.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// IsRemote reports whether src names an object store location.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "s3://")
}

// ParseS3URI splits s3://bucket/key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", fmt.Errorf("parse %q: %w", uri, err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", fmt.Errorf("not an s3 URI: %q", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" || strings.HasSuffix(key, "/") {
		return "", "", fmt.Errorf("s3 URI %q does not name an object", uri)
	}
	return u.Host, key, nil
}

// Resolve returns a local path for src and a cleanup function that removes anything
// downloaded. Downloads keep the object's base name. A local path that does not exist
// returns an error wrapping os.ErrNotExist.
func (r *Resolver) Resolve(ctx context.Context, src string) (string, func(), error) {
	noop := func() {}
	if !IsRemote(src) {
		if _, err := os.Stat(src); err != nil {
			return "", noop, err
		}
		return src, noop, nil
	}
	if r.fetcher == nil {
		return "", noop, fmt.Errorf("%w: %s", ErrNoFetcher, src)
	}
	bucket, key, err := ParseS3URI(src)
	if err != nil {
		return "", noop, err
	}

	dir := filepath.Join(r.tmpDir, "shiryo-"+uuid.NewString())
	if r.tmpDir == "" {
		dir = filepath.Join(os.TempDir(), "shiryo-"+uuid.NewString())
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", noop, fmt.Errorf("create download dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	local := filepath.Join(dir, path.Base(key))
	f, err := os.Create(local)
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("create download file: %w", err)
	}
	n, err := r.fetcher.Fetch(ctx, bucket, key, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("download %s: %w", src, err)
	}
	r.logger.Debug("downloaded source", zap.String("source", src), zap.Int64("bytes", n))
	return local, cleanup, nil
}
