// Package storage is the upload filesystem. Product, article, workshop and
// profile images are written through a Disk:
//
//	storage.Connect()
//	err := storage.Default().PutStream(ctx, "uploads/u1/p9/image_x.jpg", r)
//
// The local driver confines every path to its root; the s3 driver writes
// to an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrOutsideRoot is returned when a path resolves outside the disk root.
var ErrOutsideRoot = errors.New("storage: path escapes root")

// Disk is the driver interface.
type Disk interface {
	// Name is the driver name ("local", "s3").
	Name() string

	// Put writes content to path, creating parent directories as needed.
	Put(ctx context.Context, path string, content []byte) error
	PutStream(ctx context.Context, path string, r io.Reader) error

	// GetStream returns a ReadCloser for the file. Caller must close it.
	GetStream(ctx context.Context, path string) (io.ReadCloser, error)
	Exists(ctx context.Context, path string) bool

	// URL returns the public URL for path.
	URL(path string) string

	// Delete removes a file. Missing files are not an error.
	Delete(ctx context.Context, path string) error
	// DeleteDirectory removes a directory and everything under it.
	DeleteDirectory(ctx context.Context, path string) error
}
