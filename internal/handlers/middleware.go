package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/cryptic/delivery-user-service/pkg/auth"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// RequireJWT verifies the bearer token and, when roles are given, gates the
// route on the token's role claim. Refresh tokens are never accepted here.
func (h *Handlers) RequireJWT(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				writeError(w, http.StatusUnauthorized, "invalid authorization header", CodeInvalidCredentials)
				return
			}
			raw := strings.TrimPrefix(authz, "Bearer ")

			claims, err := h.tokens.Parse(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid authorization token", CodeInvalidCredentials)
				return
			}
			if claims.Typ != auth.TypeAccess {
				writeError(w, http.StatusUnauthorized, "invalid authorization token", CodeInvalidCredentials)
				return
			}

			if len(roles) > 0 && !hasRole(claims.Role, roles) {
				writeError(w, http.StatusForbidden, "insufficient role", CodeForbidden)
				return
			}

			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func hasRole(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(CtxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
