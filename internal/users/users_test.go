package users

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/motorskill/internal/db"
)

func newRepo(t *testing.T) *Repo {
	t.Helper()
	BcryptCost = bcrypt.MinCost
	ctx := context.Background()
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	h, err := db.Open(ctx, db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return NewRepo(h)
}

func TestUpsertAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	ins, upd, err := r.Upsert(ctx, []Row{
		{Username: "ayse", Role: "evaluator", Password: "s3cret"},
		{ID: "v1", Username: "veli", Role: "viewer", Password: "pw"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, ins)
	assert.Equal(t, 0, upd)

	u, err := r.Authenticate(ctx, "ayse", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "evaluator", u.Role)
	assert.NotEmpty(t, u.ID)

	_, err = r.Authenticate(ctx, "ayse", "wrong")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))
	_, err = r.Authenticate(ctx, "nobody", "x")
	assert.True(t, errors.Is(err, ErrInvalidCredentials))

	// role change without password keeps the hash
	ins, upd, err = r.Upsert(ctx, []Row{{Username: "veli", Role: "evaluator"}})
	require.NoError(t, err)
	assert.Equal(t, 0, ins)
	assert.Equal(t, 1, upd)
	role, err := r.Role(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "evaluator", role)
	_, err = r.Authenticate(ctx, "veli", "pw")
	assert.NoError(t, err)

	list, err := r.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ayse", list[0].Username)
}

func TestUpsert_Rejects(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	_, _, err := r.Upsert(ctx, []Row{{Username: "x", Role: "student", Password: "p"}})
	assert.ErrorContains(t, err, "invalid role")
	_, _, err = r.Upsert(ctx, []Row{{Username: "x", Role: "viewer"}})
	assert.ErrorContains(t, err, "password required")

	list, err := r.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = r.Role(ctx, "x")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestEnsureHash(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.MinCost)
	require.NoError(t, err)

	require.NoError(t, r.EnsureHash(ctx, "admin", string(hash), "admin"))
	require.NoError(t, r.EnsureHash(ctx, "admin", string(hash), "admin"))
	u, err := r.Authenticate(ctx, "admin", "admin")
	require.NoError(t, err)
	assert.Equal(t, "admin", u.Role)

	assert.Error(t, r.EnsureHash(ctx, "admin", "not-a-hash", "admin"))
}

func TestParseCSV(t *testing.T) {
	rows, err := ParseCSV(strings.NewReader("username, role, password\nayse, Evaluator, pw\nveli, viewer,\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{Username: "ayse", Role: "evaluator", Password: "pw"}, rows[0])
	assert.Equal(t, "", rows[1].Password)

	_, err = ParseCSV(strings.NewReader("id,username\n1,a\n"))
	assert.ErrorContains(t, err, "missing column: role")
}
