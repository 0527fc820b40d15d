package utils

import "testing"

func TestHashAndCheckPassword(t *testing.T) {
	hashed, err := HashPassword("Sup3rSecret!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hashed == "Sup3rSecret!" {
		t.Fatalf("password stored in plaintext")
	}

	if !CheckPassword(hashed, "Sup3rSecret!") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hashed, "wrong-password") {
		t.Fatalf("expected wrong password to fail verification")
	}
}

func TestValidatePassword_MinimumLength(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Fatalf("expected error for short password")
	}
	if err := ValidatePassword("longenough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
