package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	body string
	err  error
	got  [2]string
}

func (f *fakeFetcher) Fetch(_ context.Context, bucket, key string, w io.WriterAt) (int64, error) {
	f.got = [2]string{bucket, key}
	if f.err != nil {
		return 0, f.err
	}
	n, err := w.WriteAt([]byte(f.body), 0)
	return int64(n), err
}

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		uri       string
		bucket    string
		key       string
		expectErr bool
	}{
		{"s3://docs/reports/q1.pdf", "docs", "reports/q1.pdf", false},
		{"s3://docs/a.txt", "docs", "a.txt", false},
		{"s3://docs/", "", "", true},
		{"s3:///a.txt", "", "", true},
		{"https://docs/a.txt", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			b, k, err := ParseS3URI(tt.uri)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.bucket, b)
			assert.Equal(t, tt.key, k)
		})
	}
}

func TestResolve_local(t *testing.T) {
	p := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0644))
	r := NewResolver()

	got, cleanup, err := r.Resolve(context.Background(), p)
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, p, got)

	_, _, err = r.Resolve(context.Background(), p+".missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_s3(t *testing.T) {
	f := &fakeFetcher{body: "remote text"}
	r := NewResolver(WithFetcher(f), WithTempDir(t.TempDir()))

	local, cleanup, err := r.Resolve(context.Background(), "s3://bucket/dir/notes.md")
	require.NoError(t, err)
	assert.Equal(t, "notes.md", filepath.Base(local))
	assert.Equal(t, [2]string{"bucket", "dir/notes.md"}, f.got)
	b, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "remote text", string(b))

	cleanup()
	_, err = os.Stat(local)
	assert.True(t, os.IsNotExist(err))
}

func TestResolve_s3Errors(t *testing.T) {
	_, _, err := NewResolver().Resolve(context.Background(), "s3://bucket/a.txt")
	assert.ErrorIs(t, err, ErrNoFetcher)

	dir := t.TempDir()
	r := NewResolver(WithFetcher(&fakeFetcher{err: errors.New("denied")}), WithTempDir(dir))
	_, _, err = r.Resolve(context.Background(), "s3://bucket/a.txt")
	require.Error(t, err)
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries, "failed download should be cleaned up")
}
