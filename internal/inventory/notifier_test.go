package inventory

import "testing"

func floatPtr(v float64) *float64 { return &v }

func TestReorderThreshold(t *testing.T) {
	cases := []struct {
		name     string
		item     Item
		expected float64
	}{
		{
			name:     "explicit threshold wins",
			item:     Item{ReorderPoint: 10, AutoReorderThreshold: floatPtr(4)},
			expected: 4,
		},
		{
			name:     "falls back to reorder point",
			item:     Item{ReorderPoint: 10},
			expected: 10,
		},
		{
			name:     "zero threshold is still explicit",
			item:     Item{ReorderPoint: 10, AutoReorderThreshold: floatPtr(0)},
			expected: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ReorderThreshold(&tc.item); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestQuantityNeeded(t *testing.T) {
	cases := []struct {
		name     string
		item     Item
		current  float64
		expected float64
	}{
		{
			name:     "configured quantity wins",
			item:     Item{ReorderPoint: 10, AutoReorderQuantity: floatPtr(25)},
			current:  3,
			expected: 25,
		},
		{
			name:     "zero configured quantity is ignored",
			item:     Item{ReorderPoint: 10, AutoReorderQuantity: floatPtr(0)},
			current:  3,
			expected: 7,
		},
		{
			name:     "gap to reorder point rounds up",
			item:     Item{ReorderPoint: 10},
			current:  7.5,
			expected: 3,
		},
		{
			name:     "never negative",
			item:     Item{ReorderPoint: 5},
			current:  8,
			expected: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := QuantityNeeded(&tc.item, tc.current); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from    NotificationStatus
		to      NotificationStatus
		allowed bool
	}{
		{StatusPending, StatusOrdered, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusReceived, false},
		{StatusOrdered, StatusReceived, true},
		{StatusOrdered, StatusCancelled, false},
		{StatusOrdered, StatusPending, false},
		{StatusReceived, StatusOrdered, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusOrdered, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			if got := ValidTransition(tc.from, tc.to); got != tc.allowed {
				t.Fatalf("expected %v, got %v", tc.allowed, got)
			}
		})
	}
}
