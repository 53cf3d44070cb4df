package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/steemit/threads/internal/db"
	"github.com/steemit/threads/internal/db/dbtest"
)

const testImageBaseURL = "http://images.test/api/images/"

// memStore is an in-memory image store that records deletions.
type memStore struct {
	mu        sync.Mutex
	files     map[string][]byte
	deleted   []string
	uploadErr error
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (s *memStore) UploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return "", err
	}

	name := uuid.NewString() + ".png"
	s.mu.Lock()
	s.files[name] = data
	s.mu.Unlock()
	return name, nil
}

func (s *memStore) DeleteImage(ctx context.Context, name string) error {
	base := name[strings.LastIndex(name, "/")+1:]
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, base)
	s.deleted = append(s.deleted, base)
	return nil
}

func (s *memStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}

func (s *memStore) wasDeleted(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.deleted {
		if d == name {
			return true
		}
	}
	return false
}

type fixture struct {
	*Services
	db     *db.DB
	images *memStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.New(t)
	store := newMemStore()
	return &fixture{
		Services: New(database, store, nil, Options{ImageBaseURL: testImageBaseURL}),
		db:       database,
		images:   store,
	}
}

// user creates an onboarded user with the given handle.
func (f *fixture) user(t *testing.T, id, name string) {
	t.Helper()
	username := strings.ToLower(name)
	if _, err := f.Users.UpdateUser(context.Background(), id, UpdateUserData{Name: &name, Username: &username}); err != nil {
		t.Fatalf("create user %s: %v", id, err)
	}
}

func photo(t *testing.T, content string) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("profilePhoto", "photo.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	part.Write([]byte(content))
	w.Close()

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["profilePhoto"][0]
}

func ptr[T any](v T) *T {
	return &v
}

func TestPage(t *testing.T) {
	tests := []struct {
		name       string
		skip, take int
		expected   db.Page
	}{
		{"first page", 0, 10, db.Page{Offset: 0, Limit: 10}},
		{"skip is a page index", 2, 10, db.Page{Offset: 20, Limit: 10}},
		{"default take", 1, 0, db.Page{Offset: defaultTake, Limit: defaultTake}},
		{"negative skip", -3, 5, db.Page{Offset: 0, Limit: 5}},
		{"take capped", 0, 1000, db.Page{Offset: 0, Limit: maxTake}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := page(tt.skip, tt.take); got != tt.expected {
				t.Errorf("page(%d, %d) = %+v, want %+v", tt.skip, tt.take, got, tt.expected)
			}
		})
	}
}

func TestSuggestCount(t *testing.T) {
	b := &base{opts: Options{DefaultSuggestCount: 4}}

	tests := []struct {
		name     string
		count    *int
		expected int
		wantErr  bool
	}{
		{"nil uses default", nil, 4, false},
		{"zero", ptr(0), 0, false},
		{"explicit", ptr(7), 7, false},
		{"capped", ptr(1000), maxSuggest, false},
		{"negative", ptr(-1), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.suggestCount(tt.count)
			if (err != nil) != tt.wantErr {
				t.Fatalf("suggestCount() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("suggestCount() = %d, want %d", got, tt.expected)
			}
		})
	}
}
