package utils

import "testing"

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	token, err := GenerateToken("507f1f77bcf86cd799439011", "admin@example.com", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if claims.UserID != "507f1f77bcf86cd799439011" {
		t.Fatalf("unexpected userId claim: %q", claims.UserID)
	}
	if claims.Email != "admin@example.com" {
		t.Fatalf("unexpected email claim: %q", claims.Email)
	}
	if claims.Role != "admin" {
		t.Fatalf("unexpected role claim: %q", claims.Role)
	}
}

func TestValidateToken_RejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := ValidateToken("not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestValidateToken_RejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret-one")
	token, err := GenerateToken("507f1f77bcf86cd799439011", "user@example.com", "member")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Setenv("JWT_SECRET", "secret-two")
	if _, err := ValidateToken(token); err == nil {
		t.Fatalf("expected error for token signed with a different secret")
	}
}
