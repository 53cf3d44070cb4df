// Package images stores uploaded profile photos and community images.
package images

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/pkg/config"
)

// Store persists uploaded images under generated names.
type Store interface {
	// UploadFile saves the upload and returns the generated file name.
	UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error)

	// DeleteImage removes a stored image. Deleting a missing image succeeds.
	DeleteImage(ctx context.Context, name string) error

	// Open streams a stored image.
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// New builds the store selected by cfg.Backend.
func New(cfg *config.ImagesConfig) (Store, error) {
	switch cfg.Backend {
	case config.ImageBackendS3:
		return NewS3Store(cfg)
	case config.ImageBackendLocal, "":
		return NewLocalStore(cfg.Dir)
	default:
		return nil, fmt.Errorf("unknown image backend %q", cfg.Backend)
	}
}

// baseName reduces a stored value, which may be a full URL, to the file name.
func baseName(name string) (string, error) {
	if i := strings.IndexAny(name, "?#"); i >= 0 {
		name = name[:i]
	}
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", apperrors.BadRequest("invalid image name")
	}
	return name, nil
}

// extension keeps a short, plain extension from the uploaded file name.
func extension(filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	if len(ext) < 2 || len(ext) > 8 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
