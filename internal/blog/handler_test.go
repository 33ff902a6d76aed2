package blog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/blog-platform/internal/auth"
	"github.com/ayush/blog-platform/internal/logging"
	"github.com/ayush/blog-platform/internal/middleware"
)

type testServer struct {
	router http.Handler
	issuer *auth.TokenIssuer
	f      *fixture
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	f := newFixture(t)
	issuer := auth.NewTokenIssuer([]byte("test-secret"), auth.SessionTTL)
	log := logging.Discard()

	r := chi.NewRouter()
	r.Route("/api/blogs", func(r chi.Router) {
		NewHandler(f.svc, log).Mount(r, middleware.RequireAuth(issuer, log))
	})
	return &testServer{router: r, issuer: issuer, f: f}
}

func (s *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	tok, _, err := s.issuer.Issue(userID+"@x.com", userID)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body []byte, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHandler_CreateAndRead(t *testing.T) {
	s := newTestServer(t)
	body := []byte(`{"title":"Hello Go","content":"some words here","category":"Technology","tags":["Go"]}`)

	rec := s.do(t, http.MethodPost, "/api/blogs/", "application/json", body, s.token(t, "u1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)["blog"].(map[string]any)
	assert.Equal(t, "hello-go", created["slug"])
	assert.Equal(t, []any{"go"}, created["tags"])

	rec = s.do(t, http.MethodGet, "/api/blogs/hello-go", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	post := decode(t, rec)
	blog := post["blog"].(map[string]any)
	assert.Equal(t, "Hello Go", blog["title"])
	assert.Equal(t, "some words here", blog["content"])
	assert.Equal(t, "alice", blog["author"])
	assert.Equal(t, []any{}, post["related"])

	rec = s.do(t, http.MethodGet, "/api/blogs/?q=hello&category=Technology&page=abc", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode(t, rec)
	assert.EqualValues(t, 1, list["total"])
	assert.EqualValues(t, 1, list["page"])
	assert.EqualValues(t, 6, list["pageSize"])
	assert.Len(t, list["blogs"], 1)
	assert.Equal(t, []any{}, list["featured"])
}

func TestHandler_CreateRequiresAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/blogs/", "application/json", []byte(`{"title":"t","content":"c"}`), "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", decode(t, rec)["message"])
	assert.Empty(t, s.f.blogs.blogs)
}

func TestHandler_CreateErrors(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "u1")
	s.do(t, http.MethodPost, "/api/blogs/", "application/json", []byte(`{"title":"Taken","content":"c"}`), tok)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"missing content", `{"title":"t"}`, http.StatusBadRequest},
		{"bad json", `{"title":`, http.StatusBadRequest},
		{"duplicate slug", `{"title":"taken","content":"x"}`, http.StatusConflict},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/blogs/", "application/json", []byte(tc.body), tok)
			assert.Equal(t, tc.status, rec.Code)
			assert.NotEmpty(t, decode(t, rec)["message"])
		})
	}
}

func TestHandler_Engagement(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/blogs/", "application/json", []byte(`{"title":"A","content":"c"}`), s.token(t, "u1"))

	rec := s.do(t, http.MethodPost, "/api/blogs/a/like", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["likes"])

	rec = s.do(t, http.MethodDelete, "/api/blogs/a/like", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/blogs/a/like", "", nil, "")
	assert.EqualValues(t, 0, decode(t, rec)["likes"])

	rec = s.do(t, http.MethodPost, "/api/blogs/a/view", "", nil, "")
	assert.EqualValues(t, 1, decode(t, rec)["views"])

	rec = s.do(t, http.MethodPost, "/api/blogs/missing/view", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Blog not found", decode(t, rec)["message"])
}

func TestHandler_Cover(t *testing.T) {
	s := newTestServer(t)
	s.do(t, http.MethodPost, "/api/blogs/", "application/json", []byte(`{"title":"A","content":"c"}`), s.token(t, "u1"))
	png := []byte("\x89PNG\r\n\x1a\n")

	rec := s.do(t, http.MethodGet, "/api/blogs/a/cover", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/blogs/a/cover", "image/png", png, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/blogs/a/cover", "image/png", png, s.token(t, "u2"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/blogs/a/cover", "text/plain", png, s.token(t, "u1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	big := bytes.Repeat([]byte{0}, MaxCoverBytes+1)
	rec = s.do(t, http.MethodPut, "/api/blogs/a/cover", "image/png", big, s.token(t, "u1"))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = s.do(t, http.MethodPut, "/api/blogs/a/cover", "image/png", png, s.token(t, "u1"))
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/blogs/a/cover", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "\x89PNG"))
}

func TestHandler_DeleteCover(t *testing.T) {
	s := newTestServer(t)
	owner := s.token(t, "u1")
	s.do(t, http.MethodPost, "/api/blogs/", "application/json", []byte(`{"title":"A","content":"c"}`), owner)
	s.do(t, http.MethodPut, "/api/blogs/a/cover", "image/png", []byte("img"), owner)

	rec := s.do(t, http.MethodDelete, "/api/blogs/a/cover", "", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/blogs/a/cover", "", nil, s.token(t, "u2"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/blogs/a/cover", "", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/blogs/a/cover", "", nil, owner)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/blogs/a/cover", "", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Cover not found", decode(t, rec)["message"])
}
