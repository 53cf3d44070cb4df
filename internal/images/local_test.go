package images

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/pkg/config"
)

// fileHeader builds an upload the way net/http parses multipart forms.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("profilePhoto", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write(content)
	w.Close()

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["profilePhoto"][0]
}

func TestLocalStore_UploadOpenDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	ctx := context.Background()

	name, err := store.UploadFile(ctx, fileHeader(t, "me.PNG", []byte("png bytes")))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if !strings.HasSuffix(name, ".png") || name == "me.png" {
		t.Errorf("expected generated name with .png extension, got %q", name)
	}

	rc, err := store.Open(ctx, "http://localhost:8080/api/images/"+name)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "png bytes" {
		t.Errorf("Open() content = %q", data)
	}

	if err := store.DeleteImage(ctx, name); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Error("expected file to be removed")
	}
	if err := store.DeleteImage(ctx, name); err != nil {
		t.Errorf("deleting a missing image should succeed, got %v", err)
	}

	if _, err := store.Open(ctx, name); !apperrors.IsNotFound(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestLocalStore_UniqueNames(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	ctx := context.Background()

	first, err := store.UploadFile(ctx, fileHeader(t, "a.jpg", []byte("1")))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	second, err := store.UploadFile(ctx, fileHeader(t, "a.jpg", []byte("2")))
	if err != nil {
		t.Fatalf("UploadFile() error = %v", err)
	}
	if first == second {
		t.Errorf("expected distinct names, both %q", first)
	}
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStore(filepath.Join(dir, "images"))
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	secret := filepath.Join(dir, "secret.txt")
	os.WriteFile(secret, []byte("x"), 0o644)

	if _, err := store.Open(context.Background(), "../secret.txt"); !apperrors.IsNotFound(err) {
		t.Errorf("expected traversal to resolve inside the store, got %v", err)
	}
	if err := store.DeleteImage(context.Background(), "../secret.txt"); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	if _, err := os.Stat(secret); err != nil {
		t.Error("file outside the store was removed")
	}
	if _, err := store.Open(context.Background(), ".."); err == nil {
		t.Error("expected error for invalid name")
	}
}

func TestExtension(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"photo.jpg", ".jpg"},
		{"photo.JPEG", ".jpeg"},
		{"noext", ""},
		{"weird.j$g", ""},
		{"archive.tar.gz", ".gz"},
		{"long.abcdefghij", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := extension(tt.filename); got != tt.expected {
				t.Errorf("extension(%q) = %q, want %q", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.ImagesConfig
		wantErr bool
	}{
		{"local", config.ImagesConfig{Backend: config.ImageBackendLocal, Dir: t.TempDir()}, false},
		{"local without dir", config.ImagesConfig{Backend: config.ImageBackendLocal}, true},
		{"s3", config.ImagesConfig{Backend: config.ImageBackendS3, S3Bucket: "threads", S3Region: "us-east-1", S3Endpoint: "http://127.0.0.1:9000"}, false},
		{"s3 without bucket", config.ImagesConfig{Backend: config.ImageBackendS3}, true},
		{"unknown", config.ImagesConfig{Backend: "ftp"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(&tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && store == nil {
				t.Error("expected a store")
			}
		})
	}
}
