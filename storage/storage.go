// Package storage uploads client images to the configured image host.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"dietcoach/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmpty           = errors.New("empty file")
)

var allowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// Object is a stored file. Key is what Delete expects.
type Object struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// Uploader stores and removes public files.
type Uploader interface {
	Upload(ctx context.Context, img *Image) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// Image is an upload whose content type has been sniffed.
type Image struct {
	Data        []byte
	ContentType string
	Ext         string
}

// ReadImage reads at most max bytes from r and accepts only the allowed image
// formats, detected from the content rather than the file name.
func ReadImage(r io.Reader, max int64) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if int64(len(data)) > max {
		return nil, ErrTooLarge
	}
	mt := mimetype.Detect(data)
	if !mimetype.EqualsAny(mt.String(), allowedImageTypes...) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
	}
	return &Image{Data: data, ContentType: mt.String(), Ext: mt.Extension()}, nil
}

// objectName returns folder/<uuid> without an extension.
func objectName(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return uuid.NewString()
	}
	return path.Join(folder, uuid.NewString())
}

// New returns the Uploader selected by cfg.Upload.Provider. It returns
// (nil, nil) when the selected provider has no credentials.
func New(ctx context.Context, cfg *config.Config) (Uploader, error) {
	switch cfg.Upload.Provider {
	case config.UploadProviderS3:
		if cfg.S3.Bucket == "" {
			return nil, nil
		}
		return NewS3(ctx, cfg.S3, cfg.Upload.Folder)
	case config.UploadProviderCloudinary, "":
		if cfg.Upload.CloudinaryURL == "" {
			return nil, nil
		}
		return NewCloudinary(cfg.Upload.CloudinaryURL, cfg.Upload.Folder)
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Upload.Provider)
	}
}
