package middleware

import (
	"net/http"

	"github.com/daap14/blueprints/internal/api/response"
	"github.com/daap14/blueprints/internal/auth"
)

// RequireScope returns middleware that rejects identities lacking scope with 403.
func RequireScope(scope auth.Scope) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GetRequestID(r.Context())

			identity := GetIdentity(r.Context())
			if identity == nil {
				response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "API key is required", requestID)
				return
			}

			if !identity.HasScope(scope) {
				response.Err(w, http.StatusForbidden, "FORBIDDEN", "Missing scope "+string(scope), requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
