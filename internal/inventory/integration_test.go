package inventory

import (
	"context"
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"

	"brewtab-cafe-service/internal/db"
)

// These tests run against a throwaway Postgres pointed to by
// TEST_DATABASE_URL and skip otherwise. schema.sql is applied on
// connect; every test creates its own rows and asserts only on them.
func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	t.Cleanup(pool.Close)

	ddl, err := os.ReadFile("../../schema.sql")
	if err != nil {
		t.Fatalf("read schema failed: %v", err)
	}
	if _, err := pool.Exec(ctx, string(ddl)); err != nil {
		t.Fatalf("apply schema failed: %v", err)
	}
	return NewService(pool, zap.NewNop(), nil)
}

func createTestItem(t *testing.T, s *Service, p CreateItemParams) *Item {
	t.Helper()
	if p.Unit == "" {
		p.Unit = "l"
	}
	if p.Category == "" {
		p.Category = "Dairy"
	}
	item, err := s.CreateItem(context.Background(), p)
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	return item
}

func itemTransactions(t *testing.T, s *Service, itemID int64) []Transaction {
	t.Helper()
	txns, _, err := s.ListTransactions(context.Background(), TransactionFilter{ItemID: &itemID, Limit: 100})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	return txns
}

func pendingNotifications(t *testing.T, s *Service, itemID int64) []ReorderNotification {
	t.Helper()
	all, err := s.ListNotifications(context.Background(), string(StatusPending))
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	out := make([]ReorderNotification, 0)
	for _, n := range all {
		if n.InventoryItemID == itemID {
			out = append(out, n)
		}
	}
	return out
}

func TestAdjustQuantityLedgerChain(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := createTestItem(t, s, CreateItemParams{Name: "Oat Milk", Quantity: 0, CostPerUnit: 2})

	steps := []struct {
		typ      TransactionType
		quantity float64
		want     float64
	}{
		{TypeRestock, 10, 10},
		{TypeUsage, 6, 4},
		{TypeRestock, 5, 9},
		{TypeWaste, 2, 7},
		{TypeAdjustment, 3, 3},
	}
	for _, step := range steps {
		res, err := s.AdjustQuantity(ctx, AdjustParams{
			ItemID: item.ID, Type: step.typ, Quantity: step.quantity, PerformedBy: "tester",
		})
		if err != nil {
			t.Fatalf("%s %v failed: %v", step.typ, step.quantity, err)
		}
		if res.Item.Quantity != step.want {
			t.Fatalf("%s %v: expected quantity %v, got %v", step.typ, step.quantity, step.want, res.Item.Quantity)
		}
	}

	txns := itemTransactions(t, s, item.ID)
	if len(txns) != len(steps) {
		t.Fatalf("expected %d transactions, got %d", len(steps), len(txns))
	}

	// Newest first; replay oldest-to-newest and check the chain.
	var running float64
	for i := len(txns) - 1; i >= 0; i-- {
		txn := txns[i]
		if txn.PreviousQuantity != running {
			t.Fatalf("transaction %d: expected previous %v, got %v", txn.ID, running, txn.PreviousQuantity)
		}
		switch {
		case txn.Type == TypeAdjustment:
			running += txn.Quantity
		case txn.Type.Decreases():
			running -= txn.Quantity
		default:
			running += txn.Quantity
		}
		if txn.NewQuantity != running {
			t.Fatalf("transaction %d: expected new %v, got %v", txn.ID, running, txn.NewQuantity)
		}
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if got.Quantity != running {
		t.Fatalf("ledger %v diverged from transaction sum %v", got.Quantity, running)
	}
}

func TestAdjustQuantityRejectsInsufficientStock(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := createTestItem(t, s, CreateItemParams{Name: "Milk", Quantity: 2})

	_, err := s.AdjustQuantity(ctx, AdjustParams{
		ItemID: item.ID, Type: TypeUsage, Quantity: 6, PerformedBy: "tester",
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if got.Quantity != 2 {
		t.Fatalf("expected quantity untouched at 2, got %v", got.Quantity)
	}
	if txns := itemTransactions(t, s, item.ID); len(txns) != 0 {
		t.Fatalf("expected no transactions after a rejected usage, got %d", len(txns))
	}
}

type recordingPublisher struct {
	events []ReorderCreatedEvent
}

func (p *recordingPublisher) PublishJSON(_ context.Context, _, _ string, payload any) error {
	if event, ok := payload.(*ReorderCreatedEvent); ok {
		p.events = append(p.events, *event)
	}
	return nil
}

func TestReorderNotificationSinglePending(t *testing.T) {
	s := newTestService(t)
	publisher := &recordingPublisher{}
	s.Events = publisher
	ctx := context.Background()

	threshold := 5.0
	reorderQty := 8.0
	item := createTestItem(t, s, CreateItemParams{
		Name:                 "Milk",
		Quantity:             10,
		ReorderPoint:         5,
		AutoReorderNotify:    true,
		AutoReorderThreshold: &threshold,
		AutoReorderQuantity:  &reorderQty,
	})

	if _, err := s.AdjustQuantity(ctx, AdjustParams{ItemID: item.ID, Type: TypeUsage, Quantity: 6, PerformedBy: "tester"}); err != nil {
		t.Fatalf("usage failed: %v", err)
	}
	pending := pendingNotifications(t, s, item.ID)
	if len(pending) != 1 {
		t.Fatalf("expected exactly one pending notification, got %d", len(pending))
	}
	if pending[0].QuantityNeeded != reorderQty {
		t.Fatalf("expected quantityNeeded %v, got %v", reorderQty, pending[0].QuantityNeeded)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected one reorder event, got %d", len(publisher.events))
	}

	// A second crossing refreshes the pending row instead of duplicating
	// it, and publishes nothing.
	if _, err := s.AdjustQuantity(ctx, AdjustParams{ItemID: item.ID, Type: TypeUsage, Quantity: 1, PerformedBy: "tester"}); err != nil {
		t.Fatalf("second usage failed: %v", err)
	}
	pending = pendingNotifications(t, s, item.ID)
	if len(pending) != 1 {
		t.Fatalf("expected still one pending notification, got %d", len(pending))
	}
	if pending[0].CurrentQuantity != 3 {
		t.Fatalf("expected refreshed currentQuantity 3, got %v", pending[0].CurrentQuantity)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected no event on refresh, got %d", len(publisher.events))
	}
}

func TestNotificationReceivedRestocks(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	item := createTestItem(t, s, CreateItemParams{
		Name: "Beans", Quantity: 10, ReorderPoint: 5, AutoReorderNotify: true,
	})
	if _, err := s.AdjustQuantity(ctx, AdjustParams{ItemID: item.ID, Type: TypeUsage, Quantity: 7, PerformedBy: "tester"}); err != nil {
		t.Fatalf("usage failed: %v", err)
	}
	pending := pendingNotifications(t, s, item.ID)
	if len(pending) != 1 {
		t.Fatalf("expected one pending notification, got %d", len(pending))
	}
	id := pending[0].ID

	if _, err := s.TransitionNotification(ctx, id, TransitionParams{Status: StatusReceived, PerformedBy: "tester"}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for PENDING->RECEIVED, got %v", err)
	}

	n, err := s.TransitionNotification(ctx, id, TransitionParams{Status: StatusOrdered, PerformedBy: "tester"})
	if err != nil {
		t.Fatalf("transition to ORDERED failed: %v", err)
	}
	if n.Status != StatusOrdered || n.OrderedAt == nil {
		t.Fatalf("expected ORDERED with orderedAt, got %+v", n)
	}

	n, err = s.TransitionNotification(ctx, id, TransitionParams{Status: StatusReceived, PerformedBy: "tester"})
	if err != nil {
		t.Fatalf("transition to RECEIVED failed: %v", err)
	}
	if n.Status != StatusReceived || n.ReceivedAt == nil {
		t.Fatalf("expected RECEIVED with receivedAt, got %+v", n)
	}

	got, err := s.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if want := 3 + n.QuantityNeeded; got.Quantity != want {
		t.Fatalf("expected restocked quantity %v, got %v", want, got.Quantity)
	}
}

func TestCompleteBatchAllOrNothing(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	first := createTestItem(t, s, CreateItemParams{Name: "Sugar", Quantity: 0})
	second := createTestItem(t, s, CreateItemParams{Name: "Syrup", Quantity: 0})

	batch, err := s.CreateBatch(ctx, CreateBatchParams{
		Name:      "weekly restock",
		CreatedBy: "tester",
		Items: []BatchItemParams{
			{InventoryItemID: first.ID, Quantity: 5},
			{InventoryItemID: second.ID, Quantity: 5},
		},
	})
	if err != nil {
		t.Fatalf("create batch failed: %v", err)
	}

	// An item deleted between staging and completion fails the replay;
	// the whole completion must roll back, leaving the batch retryable.
	if err := s.DeleteItem(ctx, second.ID); err != nil {
		t.Fatalf("delete item failed: %v", err)
	}
	if _, err := s.CompleteBatch(ctx, batch.ID, "tester"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound from failed replay, got %v", err)
	}

	got, err := s.GetBatch(ctx, batch.ID)
	if err != nil {
		t.Fatalf("get batch failed: %v", err)
	}
	if got.Status != BatchPending {
		t.Fatalf("expected batch still PENDING after failed completion, got %s", got.Status)
	}
	firstItem, err := s.GetItem(ctx, first.ID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if firstItem.Quantity != 0 {
		t.Fatalf("expected no restock applied after rollback, got %v", firstItem.Quantity)
	}

	if _, err := s.DB.Exec(ctx, `update inventory_items set deleted_at = null where id = $1`, second.ID); err != nil {
		t.Fatalf("restore item failed: %v", err)
	}

	completed, err := s.CompleteBatch(ctx, batch.ID, "tester")
	if err != nil {
		t.Fatalf("complete batch failed: %v", err)
	}
	if completed.Status != BatchCompleted || completed.CompletedAt == nil {
		t.Fatalf("expected COMPLETED with completedAt, got %+v", completed)
	}
	for _, id := range []int64{first.ID, second.ID} {
		item, err := s.GetItem(ctx, id)
		if err != nil {
			t.Fatalf("get item failed: %v", err)
		}
		if item.Quantity != 5 {
			t.Fatalf("expected quantity 5 for item %d, got %v", id, item.Quantity)
		}
	}

	if _, err := s.CompleteBatch(ctx, batch.ID, "tester"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("expected ErrAlreadyCompleted on second completion, got %v", err)
	}
	firstItem, err = s.GetItem(ctx, first.ID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if firstItem.Quantity != 5 {
		t.Fatalf("expected second completion not to double-apply, got %v", firstItem.Quantity)
	}
}
