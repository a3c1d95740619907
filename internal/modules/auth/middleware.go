package auth

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/evendi-backend/internal/platform/apperr"
	"github.com/georgemunganga/evendi-backend/internal/platform/httpx"
)

// Middleware resolves the bearer token and stores the principal on the request.
func Middleware(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if header == "" || token == header {
				httpx.Fail(w, r, nil, apperr.Unauthorized("missing bearer token"))
				return
			}
			p, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				httpx.Fail(w, r, nil, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole rejects principals of any other role with 403.
func RequireRole(role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := FromContext(r.Context())
			if !ok {
				httpx.Fail(w, r, nil, apperr.Unauthorized("authentication required"))
				return
			}
			if p.Role != role {
				httpx.Fail(w, r, nil, apperr.Forbidden("%s access required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminKey guards operator endpoints with the X-Admin-Key header, compared
// against a bcrypt hash. An empty hash disables the endpoints entirely.
func AdminKey(hash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Admin-Key")
			if hash == "" || key == "" {
				httpx.Fail(w, r, nil, apperr.Unauthorized("admin key required"))
				return
			}
			if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
				httpx.Fail(w, r, nil, apperr.Forbidden("invalid admin key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
