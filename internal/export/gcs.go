package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
)

// Uploader copies a finished export somewhere else.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// ParseGCSURI splits "gs://bucket/prefix" into bucket and object prefix.
func ParseGCSURI(uri string) (bucket, prefix string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI %q: missing gs:// scheme", uri)
	}
	bucket, prefix, _ = strings.Cut(strings.TrimPrefix(uri, "gs://"), "/")
	if bucket == "" {
		return "", "", fmt.Errorf("invalid GCS URI %q: missing bucket", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// GCSUploader stores exports in a Cloud Storage bucket using Application
// Default Credentials.
type GCSUploader struct {
	bucket string
	prefix string
}

// NewGCSUploader creates an uploader for a gs://bucket/prefix URI.
func NewGCSUploader(uri string) (*GCSUploader, error) {
	bucket, prefix, err := ParseGCSURI(uri)
	if err != nil {
		return nil, err
	}
	return &GCSUploader{bucket: bucket, prefix: prefix}, nil
}

// ObjectName returns the object name a local file is stored under.
func (u *GCSUploader) ObjectName(localPath string) string {
	return path.Join(u.prefix, filepath.Base(localPath))
}

// Upload copies localPath to the bucket and returns its gs:// URI.
func (u *GCSUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open file %q: %w", localPath, err)
	}
	defer f.Close()

	client, err := storage.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("create storage client: %w", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	object := u.ObjectName(localPath)
	w := client.Bucket(u.bucket).Object(object).NewWriter(ctx)
	w.ContentType = "text/csv; charset=utf-8"

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("copy file to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", u.bucket, object), nil
}
