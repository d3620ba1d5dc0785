// Package storage holds the object store used for uploaded reports, audio
// files and signed contract PDFs. Backends stream bodies and never touch local disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"backoffice/internal/config"
)

const (
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

const (
	DefaultPresignExpiry = 15 * time.Minute
	// MaxPresignExpiry is the longest lifetime SigV4 accepts.
	MaxPresignExpiry = 7 * 24 * time.Hour
)

var ErrUnknownDriver = errors.New("unknown storage driver")

func presignExpiry(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultPresignExpiry
	case d > MaxPresignExpiry:
		return MaxPresignExpiry
	default:
		return d
	}
}

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known, or -1 when unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object store bound to one bucket.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited download URL. Expiry is clamped to
	// [DefaultPresignExpiry when zero, MaxPresignExpiry].
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// New builds the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", DriverMinIO:
		return NewMinIO(ctx, cfg.MinIO)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}

// ObjectKey builds "<prefix>/<owner>/<uuid>-<name>" with the file name reduced
// to a safe base name.
func ObjectKey(prefix, owner, filename string) string {
	name := SafeName(filename)
	return path.Join(prefix, owner, uuid.NewString()+"-"+name)
}

// SafeName strips directories and characters that are awkward in object keys.
func SafeName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
