package rbac

import (
	"context"
	"sort"
	"strings"
)

// Policy maps a role to the permission patterns it holds. A pattern is an
// exact permission, "*", or a "<scope>:*" prefix.
type Policy map[string][]string

// Checker answers permission questions against a Policy.
type Checker struct {
	policy Policy
}

func NewChecker(p Policy) *Checker {
	if p == nil {
		p = RolePermissions
	}
	return &Checker{policy: p}
}

func (c *Checker) Has(role, perm string) bool {
	for _, pat := range c.policy[role] {
		if grants(pat, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role string, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func (c *Checker) All(role string, perms ...string) bool {
	for _, p := range perms {
		if !c.Has(role, p) {
			return false
		}
	}
	return len(perms) > 0
}

// Permissions expands the role's patterns against the known permission set.
func (c *Checker) Permissions(role string) []string {
	var out []string
	for _, p := range AllPermissions {
		if c.Has(role, p) {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func grants(pattern, perm string) bool {
	switch {
	case pattern == "*", pattern == perm:
		return true
	case strings.HasSuffix(pattern, ":*"):
		scope, _, _ := strings.Cut(perm, ":")
		return scope == strings.TrimSuffix(pattern, ":*")
	}
	return false
}

type roleKey struct{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleKey{}, role)
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey{}).(string)
	return role
}
