package token

import (
	"testing"

	"github.com/google/uuid"
)

func TestGeneratePassword(t *testing.T) {
	pw, err := GeneratePassword(PasswordLength)
	if err != nil {
		t.Fatalf("GeneratePassword failed: %v", err)
	}

	if len(pw) != PasswordLength {
		t.Errorf("password length = %d, want %d", len(pw), PasswordLength)
	}

	for _, c := range pw {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			t.Errorf("password contains invalid character: %c", c)
		}
	}
}

func TestGeneratePasswordUniqueness(t *testing.T) {
	const n = 100
	seen := make(map[string]bool, n)

	for i := 0; i < n; i++ {
		pw, err := GeneratePassword(PasswordLength)
		if err != nil {
			t.Fatalf("GeneratePassword failed: %v", err)
		}
		if seen[pw] {
			t.Errorf("duplicate password generated: %s", pw)
		}
		seen[pw] = true
	}
}

func TestNewTransactionID(t *testing.T) {
	a := NewTransactionID()
	b := NewTransactionID()
	if a == b {
		t.Error("expected distinct transaction ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("transaction id %q is not a uuid: %v", a, err)
	}
}
