package export

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/spf13/afero"
)

// Sink is a destination for exported raster files.
type Sink interface {
	Name() string
	Write(ctx context.Context, path string, data []byte) error
}

// FSSink writes files onto a filesystem, creating parent directories.
type FSSink struct {
	fs afero.Fs
}

// NewFSSink wraps fs. Use afero.NewOsFs for local disk.
func NewFSSink(fs afero.Fs) *FSSink {
	return &FSSink{fs: fs}
}

func (s *FSSink) Name() string {
	return "filesystem"
}

func (s *FSSink) Write(_ context.Context, p string, data []byte) error {
	if dir := filepath.Dir(p); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(s.fs, p, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", p, err)
	}
	return nil
}

// GCSSink uploads files as objects in a Cloud Storage bucket.
type GCSSink struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// NewGCSSink writes into bucket under prefix.
func NewGCSSink(client *storage.Client, bucket, prefix string) *GCSSink {
	return &GCSSink{
		bucket: client.Bucket(bucket),
		name:   bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (s *GCSSink) Name() string {
	return "gs://" + s.name
}

func (s *GCSSink) Write(ctx context.Context, p string, data []byte) error {
	object, err := objectName(s.prefix, p)
	if err != nil {
		return err
	}
	w := s.bucket.Object(object).NewWriter(ctx)
	w.ContentType = "image/tiff"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("upload %s: %w", object, err)
	}
	return nil
}

// objectName places p under prefix. Paths that climb above the prefix are
// rejected.
func objectName(prefix, p string) (string, error) {
	rel := path.Clean(filepath.ToSlash(p))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("object path %q escapes the bucket prefix", p)
	}
	return path.Join(prefix, rel), nil
}
