// Package storage provides object storage for user media uploads.
package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Uploader stores a blob under a key and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error)
}

// UploaderFunc adapts a function into an Uploader.
type UploaderFunc func(ctx context.Context, key string, body io.Reader, contentType string) (string, error)

// Upload satisfies the Uploader interface.
func (f UploaderFunc) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	return f(ctx, key, body, contentType)
}

// RandomObjectKey builds a date partitioned key with a random suffix so
// concurrent uploads never collide.
func RandomObjectKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%d/%d/%v", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}
