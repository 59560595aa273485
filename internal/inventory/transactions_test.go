package inventory

import "testing"

func TestTransactionFilterNormalize(t *testing.T) {
	cases := []struct {
		name        string
		page, limit int
		wantPage    int
		wantLimit   int
	}{
		{"defaults", 0, 0, 1, 20},
		{"negative page", -3, 50, 1, 50},
		{"limit capped", 2, 500, 2, 100},
		{"in range untouched", 4, 25, 4, 25},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := TransactionFilter{Page: tc.page, Limit: tc.limit}
			f.Normalize()
			if f.Page != tc.wantPage || f.Limit != tc.wantLimit {
				t.Fatalf("expected page=%d limit=%d, got page=%d limit=%d",
					tc.wantPage, tc.wantLimit, f.Page, f.Limit)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	cases := []struct {
		total    int64
		limit    int
		expected int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 20, 5},
		{101, 20, 6},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := TotalPages(tc.total, tc.limit); got != tc.expected {
			t.Fatalf("TotalPages(%d, %d): expected %d, got %d", tc.total, tc.limit, tc.expected, got)
		}
	}
}
