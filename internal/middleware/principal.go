package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/billwave/billwave/internal/domain"
)

// PrincipalContextKey is the context key for the authenticated principal
const PrincipalContextKey contextKey = "principal"

// WithPrincipal resolves an optional session token from the Authorization
// header into a principal. Requests without a token, or with a token that no
// longer resolves, proceed anonymously; handlers decide what anonymity means
// per resource.
func WithPrincipal(store domain.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := store.GetUserBySessionToken(r.Context(), token)
			if err != nil {
				GetLogger(r.Context()).Debug("session token did not resolve", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			principal := &domain.Principal{ID: user.ID, Role: user.Role}
			ctx := context.WithValue(r.Context(), PrincipalContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the authenticated principal from the context.
// Returns nil for anonymous requests.
func GetPrincipal(ctx context.Context) *domain.Principal {
	if p, ok := ctx.Value(PrincipalContextKey).(*domain.Principal); ok {
		return p
	}
	return nil
}

// RequireAuth rejects anonymous requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetPrincipal(r.Context()) == nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":"unauthorized","message":"Authentication required"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts a Bearer token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
