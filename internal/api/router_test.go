package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/steemit/threads/internal/db/dbtest"
	"github.com/steemit/threads/internal/images"
	"github.com/steemit/threads/internal/service"
)

const testBaseURL = "http://localhost:8080/api/images/"

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database := dbtest.New(t)
	store, err := images.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore() error = %v", err)
	}
	services := service.New(database, store, nil, service.Options{ImageBaseURL: testBaseURL})

	engine := gin.New()
	NewRouter(services, store, map[string]HealthChecker{"database": database}).SetupRoutes(engine)
	return engine
}

func do(t *testing.T, engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// formRequest builds a multipart request. A non-empty fileField attaches
// fileContent as photo.png.
func formRequest(t *testing.T, target string, fields map[string]string, fileField, fileContent string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	if fileField != "" {
		part, err := w.CreateFormFile(fileField, "photo.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write([]byte(fileContent))
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(t)
	w := do(t, engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decode[map[string]interface{}](t, w)
	if body["status"] != "OK" {
		t.Errorf("unexpected health body %v", body)
	}
}

func TestUserRoutes(t *testing.T) {
	engine := newTestEngine(t)

	w := do(t, engine, formRequest(t, "/api/users/u1", map[string]string{"name": "Alice", "username": "alice"}, "profilePhoto", "png bytes"))
	if w.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	user := decode[map[string]interface{}](t, w)
	photo, _ := user["profilePhoto"].(string)
	if !strings.HasPrefix(photo, testBaseURL) || user["onboarded"] != true {
		t.Fatalf("unexpected user %v", user)
	}

	// The stored photo is served back under its name.
	w = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/images/"+strings.TrimPrefix(photo, testBaseURL), nil))
	if w.Code != http.StatusOK || w.Body.String() != "png bytes" {
		t.Errorf("image: got %d %q", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("image: expected image/png, got %q", ct)
	}

	// Absent form fields keep their values.
	w = do(t, engine, formRequest(t, "/api/users/u1", map[string]string{"bio": "gopher"}, "", ""))
	if w.Code != http.StatusOK {
		t.Fatalf("partial update: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	user = decode[map[string]interface{}](t, w)
	if user["name"] != "Alice" || user["bio"] != "gopher" {
		t.Errorf("unexpected user after partial update %v", user)
	}

	do(t, engine, formRequest(t, "/api/users/u2", map[string]string{"name": "Bob", "username": "bob"}, "", ""))

	tests := []struct {
		name   string
		target string
		status int
		check  func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{"get", "/api/users/u1", http.StatusOK, nil},
		{"missing", "/api/users/nobody", http.StatusNotFound, func(t *testing.T, w *httptest.ResponseRecorder) {
			if body := decode[ErrorResponse](t, w); body.Error != "user not found" {
				t.Errorf("unexpected error body %+v", body)
			}
		}},
		{"list excludes requester", "/api/users?userId=u1", http.StatusOK, func(t *testing.T, w *httptest.ResponseRecorder) {
			users := decode[[]map[string]interface{}](t, w)
			if len(users) != 1 || users[0]["id"] != "u2" {
				t.Errorf("unexpected users %v", users)
			}
		}},
		{"list bad query", "/api/users?take=abc", http.StatusBadRequest, nil},
		{"suggest zero", "/api/users/suggest?count=0", http.StatusOK, func(t *testing.T, w *httptest.ResponseRecorder) {
			if users := decode[[]interface{}](t, w); len(users) != 0 {
				t.Errorf("expected empty list, got %v", users)
			}
		}},
		{"suggest", "/api/users/suggest?userId=u1", http.StatusOK, func(t *testing.T, w *httptest.ResponseRecorder) {
			if users := decode[[]interface{}](t, w); len(users) != 1 {
				t.Errorf("expected 1 suggestion, got %v", users)
			}
		}},
		{"profile", "/api/users/u1/profile", http.StatusOK, func(t *testing.T, w *httptest.ResponseRecorder) {
			body := decode[map[string]interface{}](t, w)
			if _, ok := body["threads"].([]interface{}); !ok {
				t.Errorf("expected threads array, got %v", body)
			}
		}},
		{"activity missing user", "/api/users/nobody/activity", http.StatusNotFound, nil},
		{"missing image", "/api/images/nothing.png", http.StatusNotFound, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, engine, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.check != nil {
				tt.check(t, w)
			}
		})
	}
}

func TestCommunityAndThreadRoutes(t *testing.T) {
	engine := newTestEngine(t)
	do(t, engine, formRequest(t, "/api/users/owner", map[string]string{"name": "Owner", "username": "owner"}, "", ""))
	do(t, engine, formRequest(t, "/api/users/m1", map[string]string{"name": "Member", "username": "member"}, "", ""))

	fields := map[string]string{"id": "c1", "name": "Gophers", "username": "gophers", "createdById": "owner"}
	w := do(t, engine, formRequest(t, "/api/communities", fields, "image", "logo"))
	if w.Code != http.StatusCreated {
		t.Fatalf("create community: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w = do(t, engine, formRequest(t, "/api/communities", fields, "", ""))
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate community: expected 409, got %d: %s", w.Code, w.Body.String())
	}

	for i := 0; i < 2; i++ {
		w = do(t, engine, httptest.NewRequest(http.MethodPost, "/api/communities/c1/members/m1", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("add member: expected 204, got %d: %s", w.Code, w.Body.String())
		}
	}
	w = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/communities/c1", nil))
	if community := decode[map[string]interface{}](t, w); community["membersCount"] != float64(2) {
		t.Errorf("expected 2 members, got %v", community)
	}
	w = do(t, engine, httptest.NewRequest(http.MethodPost, "/api/communities/missing/members/m1", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("add member to missing community: expected 404, got %d", w.Code)
	}

	w = do(t, engine, jsonRequest(http.MethodPost, "/api/threads", map[string]interface{}{
		"text": "hello", "authorId": "owner", "communityId": "c1",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("create thread: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	post := decode[map[string]interface{}](t, w)
	postID, _ := post["id"].(string)

	w = do(t, engine, jsonRequest(http.MethodPost, "/api/threads", map[string]interface{}{"text": "", "authorId": "owner"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty thread: expected 400, got %d", w.Code)
	}

	w = do(t, engine, jsonRequest(http.MethodPost, "/api/threads/add/comment", map[string]interface{}{
		"threadId": postID, "text": "hi", "authorId": "m1",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("add comment: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/threads/"+postID, nil))
	thread := decode[map[string]interface{}](t, w)
	if comments, _ := thread["comments"].([]interface{}); len(comments) != 1 || thread["commentsCount"] != float64(1) {
		t.Errorf("expected one comment, got %v", thread)
	}

	w = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/threads/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad thread id: expected 400, got %d", w.Code)
	}

	w = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/threads/community/c1", nil))
	byCommunity := decode[map[string]interface{}](t, w)
	if threads, _ := byCommunity["threads"].([]interface{}); len(threads) != 1 {
		t.Errorf("expected one community thread, got %v", byCommunity)
	}

	w = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/communities/c1/profile", nil))
	profile := decode[map[string]interface{}](t, w)
	if members, _ := profile["members"].([]interface{}); len(members) != 2 {
		t.Errorf("expected two members in profile, got %v", profile)
	}

	w = do(t, engine, httptest.NewRequest(http.MethodDelete, "/api/communities/c1/members/m1", nil))
	if w.Code != http.StatusNoContent {
		t.Errorf("remove member: expected 204, got %d", w.Code)
	}
	w = do(t, engine, httptest.NewRequest(http.MethodGet, "/api/communities/suggest?userId=m1", nil))
	if suggestions := decode[[]interface{}](t, w); len(suggestions) != 1 {
		t.Errorf("expected c1 suggested after leaving, got %v", suggestions)
	}
}

func TestJSONRPC(t *testing.T) {
	engine := newTestEngine(t)
	do(t, engine, formRequest(t, "/api/users/u1", map[string]string{"name": "Alice", "username": "alice"}, "", ""))

	tests := []struct {
		name     string
		body     string
		wantCode int
		check    func(t *testing.T, resp JSONRPCResponse)
	}{
		{
			name: "get user",
			body: `{"jsonrpc":"2.0","id":1,"method":"threads_api.get_user","params":{"id":"u1"}}`,
			check: func(t *testing.T, resp JSONRPCResponse) {
				result, _ := resp.Result.(map[string]interface{})
				if result["username"] != "alice" {
					t.Errorf("unexpected result %v", resp.Result)
				}
			},
		},
		{
			name: "list users without params",
			body: `{"jsonrpc":"2.0","id":2,"method":"threads_api.list_users"}`,
			check: func(t *testing.T, resp JSONRPCResponse) {
				if result, _ := resp.Result.([]interface{}); len(result) != 1 {
					t.Errorf("unexpected result %v", resp.Result)
				}
			},
		},
		{
			name:     "missing user",
			body:     `{"jsonrpc":"2.0","id":3,"method":"threads_api.get_user","params":{"id":"nobody"}}`,
			wantCode: ErrNotFound,
		},
		{
			name:     "bad thread id",
			body:     `{"jsonrpc":"2.0","id":4,"method":"threads_api.get_thread","params":{"id":"x"}}`,
			wantCode: ErrInvalidParams,
		},
		{
			name:     "unknown method",
			body:     `{"jsonrpc":"2.0","id":5,"method":"threads_api.nope"}`,
			wantCode: ErrMethodNotFound,
		},
		{
			name:     "wrong version",
			body:     `{"jsonrpc":"1.0","id":6,"method":"threads_api.get_user"}`,
			wantCode: ErrInvalidRequest,
		},
		{
			name:     "parse error",
			body:     `{not json`,
			wantCode: ErrParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := do(t, engine, req)
			if w.Code != http.StatusOK {
				t.Fatalf("expected HTTP 200, got %d", w.Code)
			}

			resp := decode[JSONRPCResponse](t, w)
			if tt.wantCode != 0 {
				if resp.Error == nil || resp.Error.Code != tt.wantCode {
					t.Fatalf("expected error code %d, got %+v", tt.wantCode, resp.Error)
				}
				return
			}
			if resp.Error != nil {
				t.Fatalf("unexpected error %+v", resp.Error)
			}
			tt.check(t, resp)
		})
	}
}

func TestRegisteredMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(&service.Services{}, nil, nil)
	methods := r.handler.Methods()
	if len(methods) != 13 {
		t.Errorf("expected 13 methods, got %d", len(methods))
	}
	for _, m := range methods {
		if !strings.HasPrefix(m, "threads_api.") {
			t.Errorf("method %s outside threads_api namespace", m)
		}
	}
}
