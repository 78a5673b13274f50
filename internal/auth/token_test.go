package auth

import (
	"testing"
	"time"

	"dropngo/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", time.Hour)
	token, expires, err := m.Issue("user-1", "user@dropngo.com", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Errorf("expected expiry in the future, got %v", expires)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != domain.RoleCustomer {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	t.Parallel()

	token, _, err := NewTokenManager("secret-a", time.Hour).Issue("u", "e", domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Parse(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := m.Issue("u", "e", domain.RolePorter)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	m.now = time.Now
	if _, err := m.Parse(token); err != ErrInvalidToken {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestPassword_HashAndVerify(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("s3cret!")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	ok, err := VerifyPassword(hash, "s3cret!")
	if err != nil || !ok {
		t.Errorf("expected password to verify, ok=%v err=%v", ok, err)
	}

	ok, err = VerifyPassword(hash, "wrong")
	if err != nil || ok {
		t.Errorf("expected mismatch, ok=%v err=%v", ok, err)
	}
}
