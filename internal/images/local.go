package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/pkg/logging"
)

// LocalStore keeps images in a directory on disk.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		return nil, errors.New("image directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create image directory %s: %w", dir, err)
	}
	logging.WithComponent("images").Info("Local image store ready", zap.String("dir", dir))
	return &LocalStore{dir: dir}, nil
}

// UploadFile copies the upload into the directory under a uuid name.
func (s *LocalStore) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", apperrors.BadRequest("no image uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + extension(file.Filename)
	dstPath := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dstPath)
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	logging.WithComponent("images").Debug("Image stored",
		zap.String("original", file.Filename),
		zap.String("name", name),
		zap.Int64("size", file.Size))
	return name, nil
}

// DeleteImage removes the named file.
func (s *LocalStore) DeleteImage(ctx context.Context, name string) error {
	if name == "" {
		return nil
	}
	base, err := baseName(name)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, base)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Open opens the named file for reading.
func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	base, err := baseName(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, base))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NotFound("image not found")
		}
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return f, nil
}
