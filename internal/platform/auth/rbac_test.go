package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func contextWithRoles(roles ...string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(context.Background(), "u", roles))
	return e.NewContext(req, httptest.NewRecorder())
}

func TestRequireRole_Allowed(t *testing.T) {
	c := contextWithRoles("clinician")
	if err := RequireRole("admin", "clinician")(okHandler)(c); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	c := contextWithRoles("viewer")
	err := RequireRole("admin", "clinician")(okHandler)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	if err := RequireRole("clinician")(okHandler)(c); err == nil {
		t.Error("expected error without roles")
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	c := contextWithRoles("admin")
	if err := RequireRole("clinician")(okHandler)(c); err != nil {
		t.Errorf("expected admin to pass, got %v", err)
	}
}

func TestHasRole(t *testing.T) {
	tests := []struct {
		granted  []string
		required []string
		want     bool
	}{
		{[]string{"clinician"}, []string{"clinician"}, true},
		{[]string{"viewer", "clinician"}, []string{"admin", "clinician"}, true},
		{[]string{"admin"}, []string{"clinician"}, true},
		{[]string{"viewer"}, []string{"clinician"}, false},
		{nil, []string{"clinician"}, false},
	}
	for _, tt := range tests {
		if got := HasRole(tt.granted, tt.required...); got != tt.want {
			t.Errorf("HasRole(%v, %v) = %v, want %v", tt.granted, tt.required, got, tt.want)
		}
	}
}
