package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/blog-platform/internal/auth"
	"github.com/ayush/blog-platform/internal/logging"
)

func protected(t *testing.T, issuer *auth.TokenIssuer) http.Handler {
	t.Helper()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, ok := auth.FromContext(r.Context())
		require.True(t, ok)
		w.Write([]byte(c.UserID))
	})
	return RequireAuth(issuer, logging.Discard())(next)
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Message
}

func TestRequireAuth_ValidToken(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("k"), time.Hour)
	token, _, err := issuer.Issue("a@x.com", "user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	protected(t, issuer).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestRequireAuth_Rejects(t *testing.T) {
	issuer := auth.NewTokenIssuer([]byte("k"), time.Hour)
	foreign, _, err := auth.NewTokenIssuer([]byte("other"), time.Hour).Issue("a@x.com", "user-1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing", "", "Not authenticated"},
		{"wrong scheme", "Basic abc", "Not authenticated"},
		{"empty bearer", "Bearer   ", "Not authenticated"},
		{"garbage", "Bearer not.a.jwt", "Invalid session token"},
		{"foreign secret", "Bearer " + foreign, "Invalid session token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()

			protected(t, issuer).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tc.want, message(t, rec))
		})
	}
}

func TestRequireAuth_Expired(t *testing.T) {
	issued := time.Unix(1_700_000_000, 0)
	token, _, err := auth.NewTokenIssuer([]byte("k"), time.Hour).
		WithClock(func() time.Time { return issued }).
		Issue("a@x.com", "user-1")
	require.NoError(t, err)

	later := auth.NewTokenIssuer([]byte("k"), time.Hour).
		WithClock(func() time.Time { return issued.Add(2 * time.Hour) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer "+token)
	rec := httptest.NewRecorder()

	protected(t, later).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Session expired", message(t, rec))
}
