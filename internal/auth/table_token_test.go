package auth

import (
	"testing"
	"time"
)

func TestTableTokenRoundTrip(t *testing.T) {
	token, err := IssueTableToken(7, "T-07", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	claims, err := VerifyTableToken(token, "secret")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if claims.TableID != 7 {
		t.Fatalf("expected table id 7, got %d", claims.TableID)
	}
	if claims.TableNumber != "T-07" {
		t.Fatalf("expected table number T-07, got %s", claims.TableNumber)
	}
}

func TestTableTokenWrongSecret(t *testing.T) {
	token, err := IssueTableToken(7, "T-07", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := VerifyTableToken(token, "other-secret"); err == nil {
		t.Fatal("expected verification to fail with wrong secret")
	}
}

func TestTableTokenExpired(t *testing.T) {
	token, err := IssueTableToken(7, "T-07", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	if _, err := VerifyTableToken(token, "secret"); err == nil {
		t.Fatal("expected verification to fail for expired token")
	}
}

func TestTableTokenTampered(t *testing.T) {
	token, err := IssueTableToken(7, "T-07", "secret", time.Hour)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	tampered := token[:len(token)-2] + "xx"
	if _, err := VerifyTableToken(tampered, "secret"); err == nil {
		t.Fatal("expected verification to fail for tampered token")
	}
}

func TestVerifyTableTokenEmpty(t *testing.T) {
	if _, err := VerifyTableToken("", "secret"); err == nil {
		t.Fatal("expected error for empty token")
	}
}
