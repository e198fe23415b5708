package token

import (
	"testing"
	"time"
)

func TestIssuer_RoundTrip(t *testing.T) {
	iss := NewIssuer("secret")

	signed, err := iss.Issue("user_1", "user", "", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := iss.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != "user_1" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti")
	}
}

func TestIssuer_Expired(t *testing.T) {
	iss := NewIssuer("secret")

	signed, err := iss.Issue("user_1", "user", "", -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := iss.Verify(signed); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for expired token, got %v", err)
	}
}

func TestIssuer_WrongSecret(t *testing.T) {
	signed, err := NewIssuer("secret-a").Issue("user_1", "admin", "admin", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := NewIssuer("secret-b").Verify(signed); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid under wrong secret, got %v", err)
	}
}

func TestIssuer_Tampered(t *testing.T) {
	iss := NewIssuer("secret")
	signed, err := iss.Issue("user_1", "user", "", time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tampered := signed[:len(signed)-2] + "xx"
	if _, err := iss.Verify(tampered); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for tampered token, got %v", err)
	}
}

func TestIssuer_UniqueJTI(t *testing.T) {
	iss := NewIssuer("secret")
	a, _ := iss.Issue("user_1", "user", "", time.Hour)
	b, _ := iss.Issue("user_1", "user", "", time.Hour)
	ca, err := iss.Verify(a)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	cb, err := iss.Verify(b)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ca.ID == cb.ID {
		t.Fatalf("expected distinct jti per token")
	}
}
