// Package services holds the business rules behind the HTTP actions and
// the CLI. Services take a context, talk to the repositories and return
// *apperr.Error values for anything a client should see.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/pkg/apperr"
	"github.com/shashiranjanraj/wellness360/pkg/logger"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

// UploadsPrefix is prepended to disk keys in stored image paths, so
// "u1/p9/image_x.jpg" is saved as "uploads/u1/p9/image_x.jpg".
const UploadsPrefix = "uploads/"

// MaxImageBytes caps a single uploaded image.
const MaxImageBytes = 8 << 20

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// IsImageName reports whether name has an accepted image extension.
func IsImageName(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFoundf("%s", msg)
	}
	return err
}

// storeImage writes an image under dir on disk and returns the stored
// image path.
func storeImage(ctx context.Context, disk storage.Disk, dir string, up Upload) (string, error) {
	ext := strings.ToLower(filepath.Ext(up.Filename))
	if !imageExts[ext] {
		return "", apperr.Invalidf("Image must be a jpg, jpeg, png, gif or webp file.")
	}
	if up.Size > MaxImageBytes {
		return "", apperr.Invalidf("Image must not exceed %d MB.", MaxImageBytes>>20)
	}
	key := path.Join(dir, "image_"+uuid.NewString()+ext)
	if err := disk.PutStream(ctx, key, io.LimitReader(up.Reader, MaxImageBytes+1)); err != nil {
		return "", fmt.Errorf("store image %s: %w", key, err)
	}
	return UploadsPrefix + key, nil
}

// removeUpload deletes a previously stored image. Failures are logged.
func removeUpload(ctx context.Context, disk storage.Disk, imagePath string) {
	key, ok := strings.CutPrefix(imagePath, UploadsPrefix)
	if !ok || key == "" {
		return
	}
	if err := disk.Delete(ctx, key); err != nil {
		logger.WithCtx(ctx).Warn("upload delete failed", "path", imagePath, "error", err)
	}
}

func productDir(adminID, productID uint) string { return fmt.Sprintf("u%d/p%d", adminID, productID) }
