package order

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/db"
	"brewtab-cafe-service/internal/inventory"
)

// Runs against TEST_DATABASE_URL like the inventory suite; skipped when
// the variable is unset.
func newTestServices(t *testing.T) (*Service, *inventory.Service, *pgxpool.Pool) {
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

	inv := inventory.NewService(pool, zap.NewNop(), nil)
	return NewService(pool, zap.NewNop(), inv), inv, pool
}

func createMenuItemWithRecipe(t *testing.T, pool *pgxpool.Pool, price float64, inventoryItemID int64, perUnit float64) int64 {
	t.Helper()
	ctx := context.Background()
	var menuID int64
	err := pool.QueryRow(ctx, `
		insert into menu_items (name, category, price, is_active)
		values ('Latte', 'Coffee', $1, true)
		returning id
	`, price).Scan(&menuID)
	if err != nil {
		t.Fatalf("create menu item failed: %v", err)
	}
	if _, err := pool.Exec(ctx, `
		insert into menu_item_ingredients (menu_item_id, inventory_item_id, quantity)
		values ($1, $2, $3)
	`, menuID, inventoryItemID, perUnit); err != nil {
		t.Fatalf("set recipe failed: %v", err)
	}
	return menuID
}

func TestCreateConsumesInventory(t *testing.T) {
	svc, inv, pool := newTestServices(t)
	ctx := context.Background()

	threshold := 5.0
	reorderQty := 10.0
	milk, err := inv.CreateItem(ctx, inventory.CreateItemParams{
		Name:                 "Milk",
		Category:             "Dairy",
		Unit:                 "l",
		Quantity:             10,
		ReorderPoint:         5,
		AutoReorderNotify:    true,
		AutoReorderThreshold: &threshold,
		AutoReorderQuantity:  &reorderQty,
	})
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	menuID := createMenuItemWithRecipe(t, pool, 4.5, milk.ID, 6)

	o, report, err := svc.Create(ctx, CreateParams{
		PlacedBy: "table:T-01",
		Items:    []CreateLineParams{{MenuItemID: menuID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if o.Subtotal != 4.5 || o.Total != 4.5 {
		t.Fatalf("expected totals 4.5, got %v / %v", o.Subtotal, o.Total)
	}
	if len(report.Applied) != 1 || len(report.Skipped) != 0 {
		t.Fatalf("expected one applied consumption, got %+v", report)
	}
	if report.Applied[0].NewQuantity != 4 {
		t.Fatalf("expected quantity 4 after consumption, got %v", report.Applied[0].NewQuantity)
	}

	got, err := inv.GetItem(ctx, milk.ID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if got.Quantity != 4 {
		t.Fatalf("expected ledger at 4, got %v", got.Quantity)
	}

	txns, _, err := inv.ListTransactions(ctx, inventory.TransactionFilter{ItemID: &milk.ID, Limit: 10})
	if err != nil {
		t.Fatalf("list transactions failed: %v", err)
	}
	if len(txns) != 1 {
		t.Fatalf("expected one usage transaction, got %d", len(txns))
	}
	txn := txns[0]
	if txn.Type != inventory.TypeUsage || txn.PreviousQuantity != 10 || txn.NewQuantity != 4 {
		t.Fatalf("unexpected transaction: %+v", txn)
	}
	if txn.MenuItemID == nil || *txn.MenuItemID != menuID {
		t.Fatalf("expected menuItemId %d on transaction, got %+v", menuID, txn.MenuItemID)
	}
	if txn.OrderID == nil || *txn.OrderID != o.ID {
		t.Fatalf("expected orderId %d on transaction, got %+v", o.ID, txn.OrderID)
	}

	pending, err := inv.ListNotifications(ctx, string(inventory.StatusPending))
	if err != nil {
		t.Fatalf("list notifications failed: %v", err)
	}
	count := 0
	for _, n := range pending {
		if n.InventoryItemID == milk.ID {
			count++
			if n.QuantityNeeded < reorderQty {
				t.Fatalf("expected quantityNeeded >= %v, got %v", reorderQty, n.QuantityNeeded)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one pending notification, got %d", count)
	}
}

func TestCreateSkipsInsufficientStock(t *testing.T) {
	svc, inv, pool := newTestServices(t)
	ctx := context.Background()

	milk, err := inv.CreateItem(ctx, inventory.CreateItemParams{
		Name: "Milk", Category: "Dairy", Unit: "l", Quantity: 2,
	})
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	menuID := createMenuItemWithRecipe(t, pool, 4.5, milk.ID, 6)

	o, report, err := svc.Create(ctx, CreateParams{
		PlacedBy: "table:T-02",
		Items:    []CreateLineParams{{MenuItemID: menuID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("expected the order to complete despite the shortage, got %v", err)
	}
	if o.Status != StatusPending {
		t.Fatalf("expected PENDING order, got %s", o.Status)
	}
	if len(report.Applied) != 0 || len(report.Skipped) != 1 {
		t.Fatalf("expected one skipped consumption, got %+v", report)
	}
	if report.Skipped[0].InventoryItemID != milk.ID {
		t.Fatalf("expected skip for item %d, got %+v", milk.ID, report.Skipped[0])
	}

	got, err := inv.GetItem(ctx, milk.ID)
	if err != nil {
		t.Fatalf("get item failed: %v", err)
	}
	if got.Quantity != 2 {
		t.Fatalf("expected quantity untouched at 2, got %v", got.Quantity)
	}
}

func TestCreateSurvivesBridgeFailure(t *testing.T) {
	svc, inv, pool := newTestServices(t)
	ctx := context.Background()

	milk, err := inv.CreateItem(ctx, inventory.CreateItemParams{
		Name: "Milk", Category: "Dairy", Unit: "l", Quantity: 10,
	})
	if err != nil {
		t.Fatalf("create item failed: %v", err)
	}
	menuID := createMenuItemWithRecipe(t, pool, 3, milk.ID, 1)

	// Point the bridge at a dead pool so every adjustment fails with a
	// non-skippable error. The committed order must still come back.
	deadPool, err := db.NewPool(ctx, os.Getenv("TEST_DATABASE_URL"))
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	deadPool.Close()
	svc.Inventory = inventory.NewService(deadPool, zap.NewNop(), nil)

	o, report, err := svc.Create(ctx, CreateParams{
		PlacedBy: "table:T-03",
		Items:    []CreateLineParams{{MenuItemID: menuID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("expected the committed order to be returned, got %v", err)
	}
	if o == nil || o.ID == 0 {
		t.Fatalf("expected a persisted order, got %+v", o)
	}
	if report == nil || len(report.Applied) != 0 {
		t.Fatalf("expected an empty report, got %+v", report)
	}

	persisted, err := svc.GetByNumber(ctx, o.OrderNumber)
	if err != nil {
		t.Fatalf("expected the order persisted, got %v", err)
	}
	if persisted.ID != o.ID {
		t.Fatalf("expected order %d, got %d", o.ID, persisted.ID)
	}
}
