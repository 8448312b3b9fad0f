package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/motorskill/internal/rbac"
	"github.com/mind-engage/motorskill/internal/users"
)

type fakeAccounts map[string]users.User // key: username|password

func (f fakeAccounts) Authenticate(_ context.Context, u, p string) (users.User, error) {
	if acc, ok := f[u+"|"+p]; ok {
		return acc, nil
	}
	return users.User{}, users.ErrInvalidCredentials
}

func (f fakeAccounts) Role(_ context.Context, sub string) (string, error) {
	for _, acc := range f {
		if acc.ID == sub {
			return acc.Role, nil
		}
	}
	if sub == "broken" {
		return "", errors.New("db down")
	}
	return "", users.ErrNotFound
}

func echo() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(SubjectFromContext(r.Context()) + "/" + rbac.RoleFromContext(r.Context())))
	})
}

func TestLoginAndMiddleware(t *testing.T) {
	a := NewAuthService("test-secret")
	accounts := fakeAccounts{"ayse|pw": {ID: "u1", Username: "ayse", Role: rbac.RoleEvaluator}}

	rec := httptest.NewRecorder()
	LoginHandler(a, accounts)(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ayse","password":"pw"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"evaluator"`)
	assert.Contains(t, rec.Body.String(), `"records:write"`)

	tok, err := a.IssueJWT("u1", rbac.RoleEvaluator)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/records", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec = httptest.NewRecorder()
	JWTMiddleware(a)(echo()).ServeHTTP(rec, req)
	assert.Equal(t, "u1/evaluator", rec.Body.String())

	rec = httptest.NewRecorder()
	LoginHandler(a, accounts)(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"ayse","password":"nope"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	a := NewAuthService("test-secret")
	other, err := NewAuthService("other-secret").IssueJWT("u1", rbac.RoleAdmin)
	require.NoError(t, err)

	old := TokenTTL
	TokenTTL = -time.Minute
	expired, err := a.IssueJWT("u1", rbac.RoleAdmin)
	TokenTTL = old
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Sub: "u1", Role: "admin"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, header := range map[string]string{
		"missing":   "",
		"basic":     "Basic abc",
		"foreign":   "Bearer " + other,
		"expired":   "Bearer " + expired,
		"alg none":  "Bearer " + none,
		"malformed": "Bearer x.y.z",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		JWTMiddleware(a)(echo()).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, name)
	}
}

func TestAttachRoleFromDB(t *testing.T) {
	accounts := fakeAccounts{"veli|pw": {ID: "u2", Role: rbac.RoleViewer}}
	run := func(sub, claimRole string, fallback bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		ctx := rbac.WithRole(WithSubject(req.Context(), sub), claimRole)
		rec := httptest.NewRecorder()
		AttachRoleFromDB(accounts, fallback)(echo()).ServeHTTP(rec, req.WithContext(ctx))
		return rec
	}

	// stored role wins over the claim
	assert.Equal(t, "u2/viewer", run("u2", rbac.RoleAdmin, false).Body.String())
	assert.Equal(t, http.StatusForbidden, run("gone", rbac.RoleAdmin, true).Code)
	assert.Equal(t, http.StatusForbidden, run("broken", rbac.RoleAdmin, false).Code)
	assert.Equal(t, "broken/admin", run("broken", rbac.RoleAdmin, true).Body.String())
}
