package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signTestToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return token
}

func TestParseBearerToken(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		expected string
	}{
		{"valid bearer", "Bearer abc.def.ghi", "abc.def.ghi"},
		{"lowercase scheme", "bearer token123", "token123"},
		{"missing scheme", "abc.def.ghi", ""},
		{"empty", "", ""},
		{"wrong scheme", "Basic dXNlcg==", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseBearerToken(tc.header); got != tc.expected {
				t.Fatalf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestVerifyAccessToken(t *testing.T) {
	claims := Claims{
		UserID: "42",
		Email:  "barista@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := signTestToken(t, claims, "secret")

	got, err := VerifyAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if got.UserID != "42" || got.Email != "barista@example.com" {
		t.Fatalf("unexpected claims: %+v", got)
	}

	if _, err := VerifyAccessToken(token, "wrong"); err == nil {
		t.Fatal("expected failure with wrong secret")
	}
	if _, err := VerifyAccessToken("", "secret"); err == nil {
		t.Fatal("expected failure for empty token")
	}
}

func TestIssueAccessToken(t *testing.T) {
	token, err := IssueAccessToken(7, "barista@example.com", "Ana", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	claims, err := VerifyAccessToken(token, "secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.UserID != "7" || claims.Email != "barista@example.com" || claims.Name != "Ana" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "staff-access" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestVerifyAccessTokenExpired(t *testing.T) {
	claims := Claims{
		UserID: "42",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token := signTestToken(t, claims, "secret")
	if _, err := VerifyAccessToken(token, "secret"); err == nil {
		t.Fatal("expected failure for expired token")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("espresso-machine")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !CheckPassword(hash, "espresso-machine") {
		t.Fatal("expected password to verify")
	}
	if CheckPassword(hash, "wrong-password") {
		t.Fatal("expected wrong password to fail")
	}
}
