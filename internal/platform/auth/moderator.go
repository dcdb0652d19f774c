package auth

import (
	"net/http"
	"strings"
)

// IsModerator reports whether the role grants moderation rights.
// Platform admins moderate everything.
func IsModerator(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "moderator", "admin":
		return true
	}
	return false
}

// RequireModerator allows the request only if RequireUser already injected a
// moderator-grade role into the context.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, _ := RoleFromContext(r.Context())
		if !IsModerator(role) {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
