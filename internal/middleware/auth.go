package middleware

import (
	"net/http"
	"strings"

	"github.com/ayush/blog-platform/internal/apperror"
	"github.com/ayush/blog-platform/internal/auth"
	"github.com/ayush/blog-platform/internal/httpx"
	"github.com/ayush/blog-platform/internal/logging"
)

// ClaimVerifier checks a signed session claim.
type ClaimVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// RequireAuth is middleware that validates the bearer session claim and
// injects the verified claims into the request context.
func RequireAuth(verifier ClaimVerifier, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				httpx.WriteError(w, r, log, apperror.NewAuth("Not authenticated", nil))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				httpx.WriteError(w, r, log, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
