package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Permissions lists what the role is granted under the default policy.
func Permissions(role string) []string { return defaultChecker.Permissions(role) }

func guard(allowed func(role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !allowed(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.Has(role, perm) })
}

// RequireAny enforces that the role has at least one of the permissions.
func RequireAny(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.Any(role, perms...) })
}

// RequireAll enforces that the role has all of the permissions.
func RequireAll(perms ...string) func(http.Handler) http.Handler {
	return guard(func(role string) bool { return defaultChecker.All(role, perms...) })
}
