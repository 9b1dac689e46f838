package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ninglab/ning-backend/internal/config"
	"github.com/ninglab/ning-backend/internal/kvstore"
)

// newTestApp wires the full application over an in-memory store, the same
// path the server takes with USE_MEMORY_STORE=true.
func newTestApp() *App {
	cfg := &config.Config{
		Env:         "test",
		Port:        0,
		Auth:        config.AuthConfig{SessionTTL: time.Hour},
		CORSOrigins: []string{"http://localhost:3000"},
	}
	a := New(cfg, kvstore.NewMemory())
	a.RegisterRoutes()
	return a
}

func do(t *testing.T, a *App, method, path, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echoHeaderContentType, "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.Echo.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON response for %s %s: %v\nbody: %s", method, path, err, rec.Body.String())
		}
	}
	return rec, decoded
}

const echoHeaderContentType = "Content-Type"

func TestHealthz(t *testing.T) {
	a := newTestApp()

	rec, body := do(t, a, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["ok"] != true {
		t.Errorf("expected ok=true, got %v", body["ok"])
	}
	redis, _ := body["redis"].(map[string]any)
	if redis["connected"] != true {
		t.Errorf("expected connected=true over the memory store, got %v", redis)
	}
}

func TestHealthz_StoreDown(t *testing.T) {
	cfg := &config.Config{Env: "test", Auth: config.AuthConfig{SessionTTL: time.Hour}}
	a := New(cfg, kvstore.NewUnavailable(errStoreDown))
	a.RegisterRoutes()

	rec, body := do(t, a, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health must never fail on a dead store, got %d", rec.Code)
	}
	redis, _ := body["redis"].(map[string]any)
	if redis["connected"] != false {
		t.Errorf("expected connected=false, got %v", redis)
	}
}

var errStoreDown = errors.New("connection refused")

func TestAuthFlow(t *testing.T) {
	a := newTestApp()

	// Register.
	rec, body := do(t, a, http.MethodPost, "/auth/register", "",
		`{"username":"alice","password":"secret123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["id"] != "1" || body["username"] != "alice" {
		t.Errorf("unexpected register response: %v", body)
	}
	if _, leaked := body["password_hash"]; leaked {
		t.Error("password hash must never appear in responses")
	}

	// Duplicate username conflicts.
	rec, body = do(t, a, http.MethodPost, "/auth/register", "",
		`{"username":"alice","password":"other-pass"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if body["type"] != "conflict" {
		t.Errorf("expected type conflict, got %v", body["type"])
	}

	// Wrong password is a 401.
	rec, _ = do(t, a, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"wrong-pass"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	// Login issues a token.
	rec, body = do(t, a, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"secret123"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}

	// The token resolves the caller.
	rec, body = do(t, a, http.MethodGet, "/auth/me", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["username"] != "alice" {
		t.Errorf("expected alice, got %v", body["username"])
	}

	// Logout, then the token is dead.
	rec, _ = do(t, a, http.MethodPost, "/auth/logout", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rec, _ = do(t, a, http.MethodGet, "/auth/me", token, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}

	// Logging out again is still a success.
	rec, _ = do(t, a, http.MethodPost, "/auth/logout", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected idempotent logout, got %d", rec.Code)
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	a := newTestApp()

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodPost, "/forum/posts"},
		{http.MethodGet, "/study/mistakes"},
		{http.MethodPost, "/agent/session"},
	} {
		rec, _ := do(t, a, route.method, route.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", route.method, route.path, rec.Code)
		}
	}
}

func TestMalformedIntQueryParamsRejected(t *testing.T) {
	a := newTestApp()

	_, _ = do(t, a, http.MethodPost, "/auth/register", "",
		`{"username":"alice","password":"secret123"}`)
	_, body := do(t, a, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"secret123"}`)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}

	for _, route := range []struct{ path, token string }{
		{"/forum/posts?offset=abc", ""},
		{"/forum/posts?limit=1.5", ""},
		{"/study/stats?days=xyz", token},
		{"/study/recommendations?limit=many", token},
	} {
		rec, resp := do(t, a, http.MethodGet, route.path, route.token, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s: expected 400, got %d", route.path, rec.Code)
		}
		if resp["type"] != "bad_request" {
			t.Errorf("GET %s: expected type bad_request, got %v", route.path, resp["type"])
		}
	}

	// Absent parameters still fall back to defaults.
	rec, _ := do(t, a, http.MethodGet, "/forum/posts", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 without params, got %d", rec.Code)
	}
}

func TestForumFlowOverHTTP(t *testing.T) {
	a := newTestApp()

	_, _ = do(t, a, http.MethodPost, "/auth/register", "",
		`{"username":"alice","password":"secret123"}`)
	_, body := do(t, a, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"secret123"}`)
	token, _ := body["token"].(string)
	if token == "" {
		t.Fatal("expected a token")
	}

	rec, body := do(t, a, http.MethodPost, "/forum/posts", token,
		`{"title":"hello","content":"first post"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	postID, _ := body["id"].(string)
	if postID == "" {
		t.Fatal("expected a post id")
	}

	// Reads are public.
	rec, body = do(t, a, http.MethodGet, "/forum/posts/"+postID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body["title"] != "hello" {
		t.Errorf("unexpected post: %v", body)
	}

	// Like toggle round-trips.
	rec, body = do(t, a, http.MethodPost, "/forum/posts/"+postID+"/like", token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if body["liked"] != true || body["likes"] != float64(1) {
		t.Errorf("unexpected like result: %v", body)
	}
}
