package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestInspectTokenReadsExpiry(t *testing.T) {
	exp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	token := signedToken(t, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	})

	info, err := InspectToken(token)
	if err != nil {
		t.Fatalf("inspect token: %v", err)
	}
	if info.Opaque {
		t.Fatal("jwt should not be opaque")
	}
	if info.Subject != "7" {
		t.Fatalf("unexpected subject %q", info.Subject)
	}
	if info.ExpiresAt == nil || !info.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected expiry %v", info.ExpiresAt)
	}
	if !info.Expired(exp) || info.Expired(exp.Add(-time.Second)) {
		t.Fatal("unexpected expiry evaluation")
	}
}

func TestInspectTokenAllowsExpiredTokens(t *testing.T) {
	token := signedToken(t, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})
	info, err := InspectToken(token)
	if err != nil {
		t.Fatalf("expired tokens must still be inspectable: %v", err)
	}
	if !info.Expired(time.Now()) {
		t.Fatal("expected token to be expired")
	}
}

func TestInspectTokenOpaque(t *testing.T) {
	info, err := InspectToken("12|plainTextToken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !info.Opaque || info.Expired(time.Now()) {
		t.Fatalf("opaque tokens never expire locally: %+v", info)
	}
}

func TestInspectTokenErrors(t *testing.T) {
	if _, err := InspectToken("  "); err != ErrEmptyToken {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if _, err := InspectToken("not.a.jwt"); err == nil {
		t.Fatal("expected malformed jwt error")
	}
}

func TestUserValid(t *testing.T) {
	var nilUser *User
	if nilUser.Valid() {
		t.Fatal("nil user must be invalid")
	}
	if (&User{}).Valid() {
		t.Fatal("zero id must be invalid")
	}
	if !(&User{ID: 3}).Valid() {
		t.Fatal("expected valid user")
	}
}

func TestBearerHeader(t *testing.T) {
	if got := BearerHeader(" abc "); got != "Bearer abc" {
		t.Fatalf("unexpected header %q", got)
	}
}
