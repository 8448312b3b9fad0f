package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mind-engage/motorskill/internal/rbac"
	"github.com/mind-engage/motorskill/internal/users"
)

type RoleLookup interface {
	Role(ctx context.Context, sub string) (string, error)
}

// AttachRoleFromDB replaces the token role with the stored one so role
// changes apply before the token expires. Deleted users are refused.
// allowClaimFallback keeps the claim role on lookup errors (offline/dev).
func AttachRoleFromDB(lookup RoleLookup, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, err := lookup.Role(ctx, SubjectFromContext(ctx))
			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, users.ErrNotFound):
				http.Error(w, "forbidden", http.StatusForbidden)
			case allowClaimFallback && rbac.RoleFromContext(ctx) != "":
				next.ServeHTTP(w, r)
			default:
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
