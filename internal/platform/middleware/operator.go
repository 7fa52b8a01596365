package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	jwttoken "fairdraw/internal/jwt_token"
	dErrors "fairdraw/pkg/domain-errors"
	"fairdraw/pkg/platform/httputil"
)

// TokenValidator validates bearer tokens for operator endpoints.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.Claims, error)
}

// RequireOperator guards lifecycle endpoints: a valid bearer token with
// the operator role is required. Entrant-facing endpoints stay public.
func RequireOperator(validator TokenValidator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "operator token required"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				log.Warn("operator token rejected", "error", err)
				httputil.WriteError(w, err)
				return
			}
			if claims.Role != jwttoken.RoleOperator {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "operator role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
