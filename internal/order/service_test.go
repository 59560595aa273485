package order

import (
	"regexp"
	"testing"
	"time"
)

func TestNewOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^ORD-20260831-[0-9A-F]{6}$`)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		n := newOrderNumber(now)
		if !pattern.MatchString(n) {
			t.Fatalf("unexpected order number format: %s", n)
		}
		seen[n] = true
	}
	if len(seen) < 2 {
		t.Fatal("expected random suffixes to differ")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []Status{"", "pending", "DELIVERED"} {
		if s.Valid() {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
