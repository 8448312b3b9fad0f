package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker(t *testing.T) {
	c := NewChecker(nil)
	cases := []struct {
		role, perm string
		want       bool
	}{
		{RoleEvaluator, PermRecordsWrite, true},
		{RoleEvaluator, PermSheetExport, true},
		{RoleEvaluator, PermSheetImport, false},
		{RoleEvaluator, PermRecordsReset, false},
		{RoleViewer, PermReportsView, true},
		{RoleViewer, PermRecordsWrite, false},
		{RoleAdmin, PermRecordsReset, true},
		{"student", PermRecordsView, false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}

	wild := NewChecker(Policy{"ops": {"records:*"}})
	if !wild.Has("ops", PermRecordsDelete) || wild.Has("ops", PermUsersList) {
		t.Fatal("scope wildcard mismatch")
	}
	if wild.Has("ops", "recordsx:view") {
		t.Fatal("scope wildcard must match whole scope")
	}
	if c.All(RoleAdmin) {
		t.Fatal("All with no permissions must be false")
	}
	if !c.Any(RoleViewer, PermRecordsWrite, PermRecordsView) || c.All(RoleViewer, PermRecordsWrite, PermRecordsView) {
		t.Fatal("any/all mismatch")
	}
}

func TestRequire(t *testing.T) {
	h := Require(PermRecordsWrite)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for role, want := range map[string]int{
		"":            http.StatusForbidden,
		RoleViewer:    http.StatusForbidden,
		RoleEvaluator: http.StatusNoContent,
		RoleAdmin:     http.StatusNoContent,
	} {
		req := httptest.NewRequest(http.MethodPost, "/records", nil)
		req = req.WithContext(WithRole(req.Context(), role))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Errorf("role %q: status %d, want %d", role, rec.Code, want)
		}
	}
}

func TestPermissions(t *testing.T) {
	got := Permissions(RoleViewer)
	want := []string{PermRecordsView, PermReportsView}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("viewer permissions = %v, want %v", got, want)
	}
	if n := len(Permissions(RoleAdmin)); n != len(AllPermissions) {
		t.Fatalf("admin has %d permissions, want %d", n, len(AllPermissions))
	}
	if Permissions("nobody") != nil {
		t.Fatal("unknown role must have no permissions")
	}
}
