package inventory

import "testing"

func TestTransactionTypeValid(t *testing.T) {
	valid := []TransactionType{TypeRestock, TypeUsage, TypeAdjustment, TypeWaste}
	for _, tt := range valid {
		if !tt.Valid() {
			t.Fatalf("expected %q to be valid", tt)
		}
	}

	invalid := []TransactionType{"", "RESTOCK", "refund", "transfer"}
	for _, tt := range invalid {
		if tt.Valid() {
			t.Fatalf("expected %q to be invalid", tt)
		}
	}
}

func TestTransactionTypeDecreases(t *testing.T) {
	cases := []struct {
		tt        TransactionType
		decreases bool
	}{
		{TypeRestock, false},
		{TypeUsage, true},
		{TypeAdjustment, false},
		{TypeWaste, true},
	}
	for _, tc := range cases {
		if got := tc.tt.Decreases(); got != tc.decreases {
			t.Fatalf("%s: expected %v, got %v", tc.tt, tc.decreases, got)
		}
	}
}

func TestNotificationStatusValid(t *testing.T) {
	for _, s := range []NotificationStatus{StatusPending, StatusOrdered, StatusReceived, StatusCancelled} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	for _, s := range []NotificationStatus{"", "pending", "DONE"} {
		if s.Valid() {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}
