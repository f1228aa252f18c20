package transport

import (
	"context"
	"net/http"
	"strings"

	"github.com/carebridge/carebridge/internal/domain/user"
)

type claimsKey struct{}

// TokenVerifier validates an access token and returns its claims.
type TokenVerifier interface {
	VerifyAccess(token string) (*user.Claims, error)
}

// ClaimsFromContext returns the verified token claims from context, if present.
func ClaimsFromContext(ctx context.Context) (*user.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*user.Claims)
	return claims, ok
}

// AuthMiddleware enforces bearer token authentication.
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.VerifyAccess(token)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose token carries a different
// role. It must be mounted after AuthMiddleware.
func RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			if claims.Role != role {
				writeError(w, http.StatusForbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
