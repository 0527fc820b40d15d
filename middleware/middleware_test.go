package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"task-manager/backend/utils"
)

func TestProtect_MissingHeaderReturnsUnauthorized(t *testing.T) {
	handler := Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not run without a token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProtect_InvalidTokenReturnsUnauthorized(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	handler := Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not run with an invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestProtect_ValidTokenStoresClaims(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken("507f1f77bcf86cd799439011", "user@example.com", "member")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	called := false
	handler := Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("expected claims in context")
		}
		if claims.UserID != "507f1f77bcf86cd799439011" || claims.Role != "member" {
			t.Fatalf("unexpected claims: %+v", claims)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected next handler to run")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAdminOnly_MemberForbidden(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken("507f1f77bcf86cd799439011", "user@example.com", "member")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handler := Protect(AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("admin handler should not run for a member")
	})))

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/123", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestAdminOnly_AdminAllowed(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := utils.GenerateToken("507f1f77bcf86cd799439012", "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	called := false
	handler := Protect(AdminOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})))

	req := httptest.NewRequest(http.MethodDelete, "/api/tasks/123", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called {
		t.Fatalf("expected admin handler to run")
	}
}
