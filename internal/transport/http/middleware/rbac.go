package middleware

import (
	"net/http"

	"flexitime/internal/transport/http/api"
)

// RequireAuth rejects requests that carry no valid bearer token.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole additionally restricts a route to the named roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
				return
			}
			for _, role := range roles {
				if user.RoleName == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient role", GetRequestID(r.Context()))
		})
	}
}
