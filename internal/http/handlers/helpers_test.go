package handlers

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestReadQueryInt(t *testing.T) {
	cases := []struct {
		name     string
		url      string
		key      string
		fallback int
		expected int
	}{
		{"present", "/x?page=3", "page", 1, 3},
		{"missing", "/x", "page", 1, 1},
		{"blank", "/x?page=", "page", 7, 7},
		{"garbage", "/x?page=abc", "page", 5, 5},
		{"negative", "/x?page=-2", "page", 1, -2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			if got := readQueryInt(r, tc.key, tc.fallback); got != tc.expected {
				t.Fatalf("expected %d, got %d", tc.expected, got)
			}
		})
	}
}

func TestReadQueryTime(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?from=2026-08-01T10:30:00Z&to=2026-08-15&bad=yesterday", nil)

	from, err := readQueryTime(r, "from")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2026, 8, 1, 10, 30, 0, 0, time.UTC)
	if from == nil || !from.Equal(want) {
		t.Fatalf("expected %v, got %v", want, from)
	}

	to, err := readQueryTime(r, "to")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if to == nil || to.Year() != 2026 || to.Month() != time.August || to.Day() != 15 {
		t.Fatalf("unexpected date: %v", to)
	}

	if _, err := readQueryTime(r, "bad"); err == nil {
		t.Fatal("expected error for unparseable value")
	}

	missing, err := readQueryTime(r, "absent")
	if err != nil || missing != nil {
		t.Fatalf("expected nil, nil for absent key, got %v, %v", missing, err)
	}
}
