package inventory

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"brewtab-cafe-service/internal/utils"
)

// ReorderThreshold returns the level a falling quantity is compared
// against: the explicit auto-reorder threshold when configured, the
// reorder point otherwise.
func ReorderThreshold(item *Item) float64 {
	if item.AutoReorderThreshold != nil {
		return *item.AutoReorderThreshold
	}
	return item.ReorderPoint
}

// QuantityNeeded is the restock size for a notification: the configured
// auto-reorder quantity, or enough to climb back to the reorder point.
func QuantityNeeded(item *Item, currentQty float64) float64 {
	if item.AutoReorderQuantity != nil && *item.AutoReorderQuantity > 0 {
		return *item.AutoReorderQuantity
	}
	needed := item.ReorderPoint - currentQty
	if needed < 0 {
		return 0
	}
	return math.Ceil(needed)
}

// evaluateReorder runs under the item's row lock after a decreasing
// adjustment. A breach while a PENDING notification exists refreshes
// that notification instead of duplicating it; the partial unique index
// on (inventory_item_id) where status = 'PENDING' backs this up.
func (s *Service) evaluateReorder(ctx context.Context, tx pgx.Tx, item *Item, newQty float64) (*ReorderCreatedEvent, error) {
	if !item.AutoReorderNotify {
		return nil, nil
	}
	threshold := ReorderThreshold(item)
	if newQty > threshold {
		return nil, nil
	}

	needed := QuantityNeeded(item, newQty)

	res, err := tx.Exec(ctx, `
		update reorder_notifications
		set current_quantity = $2, quantity_needed = $3, threshold_snapshot = $4, updated_at = now()
		where inventory_item_id = $1 and status = 'PENDING'
	`, item.ID, newQty, needed, threshold)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() > 0 {
		return nil, nil
	}

	var (
		notificationID int64
		createdAt      time.Time
	)
	err = tx.QueryRow(ctx, `
		insert into reorder_notifications
			(inventory_item_id, supplier_id, quantity_needed, current_quantity, threshold_snapshot, status)
		values ($1, $2, $3, $4, $5, 'PENDING')
		returning id, created_at
	`, item.ID, item.SupplierID, needed, newQty, threshold).Scan(&notificationID, &createdAt)
	if err != nil {
		return nil, err
	}

	return &ReorderCreatedEvent{
		Type:            "inventory.reorder.created",
		NotificationID:  notificationID,
		InventoryItemID: item.ID,
		ItemName:        item.Name,
		QuantityNeeded:  needed,
		CurrentQuantity: newQty,
		SupplierID:      item.SupplierID,
		CreatedAt:       createdAt,
	}, nil
}

const notificationColumns = `
	n.id, n.inventory_item_id, i.name, n.supplier_id, n.quantity_needed,
	n.current_quantity, n.threshold_snapshot, n.status, n.notes,
	n.purchase_order_url, n.created_at, n.ordered_at, n.received_at,
	n.cancelled_at, n.updated_at
`

func scanNotification(row pgx.Row) (*ReorderNotification, error) {
	var (
		n           ReorderNotification
		supplierID  pgtype.Int8
		needed      pgtype.Numeric
		current     pgtype.Numeric
		threshold   pgtype.Numeric
		notes       pgtype.Text
		poURL       pgtype.Text
		orderedAt   pgtype.Timestamptz
		receivedAt  pgtype.Timestamptz
		cancelledAt pgtype.Timestamptz
	)
	if err := row.Scan(
		&n.ID,
		&n.InventoryItemID,
		&n.ItemName,
		&supplierID,
		&needed,
		&current,
		&threshold,
		&n.Status,
		&notes,
		&poURL,
		&n.CreatedAt,
		&orderedAt,
		&receivedAt,
		&cancelledAt,
		&n.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if supplierID.Valid {
		n.SupplierID = &supplierID.Int64
	}
	n.QuantityNeeded = utils.NumericToFloat64(needed)
	n.CurrentQuantity = utils.NumericToFloat64(current)
	n.ThresholdSnapshot = utils.NumericToFloat64(threshold)
	if notes.Valid {
		n.Notes = &notes.String
	}
	if poURL.Valid {
		n.PurchaseOrderURL = &poURL.String
	}
	if orderedAt.Valid {
		n.OrderedAt = &orderedAt.Time
	}
	if receivedAt.Valid {
		n.ReceivedAt = &receivedAt.Time
	}
	if cancelledAt.Valid {
		n.CancelledAt = &cancelledAt.Time
	}
	return &n, nil
}

func (s *Service) ListNotifications(ctx context.Context, status string) ([]ReorderNotification, error) {
	query := `
		select ` + notificationColumns + `
		from reorder_notifications n
		join inventory_items i on i.id = n.inventory_item_id
	`
	args := []any{}
	if status != "" {
		query += ` where n.status = $1`
		args = append(args, status)
	}
	query += ` order by n.created_at desc`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReorderNotification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

func (s *Service) GetNotification(ctx context.Context, id int64) (*ReorderNotification, error) {
	row := s.DB.QueryRow(ctx, `
		select `+notificationColumns+`
		from reorder_notifications n
		join inventory_items i on i.id = n.inventory_item_id
		where n.id = $1
	`, id)
	return scanNotification(row)
}

// ValidTransition encodes the staff-driven status machine:
// PENDING -> ORDERED -> RECEIVED, or PENDING -> CANCELLED. RECEIVED and
// CANCELLED are terminal.
func ValidTransition(from, to NotificationStatus) bool {
	switch from {
	case StatusPending:
		return to == StatusOrdered || to == StatusCancelled
	case StatusOrdered:
		return to == StatusReceived
	}
	return false
}

type TransitionParams struct {
	Status      NotificationStatus
	Notes       *string
	PerformedBy string
}

// TransitionNotification moves a notification through its status
// machine. RECEIVED replays the quantity as a restock in the same DB
// transaction so the stock and the notification can not drift apart.
func (s *Service) TransitionNotification(ctx context.Context, id int64, p TransitionParams) (*ReorderNotification, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var (
		current NotificationStatus
		itemID  int64
		needed  pgtype.Numeric
	)
	err = tx.QueryRow(ctx, `
		select status, inventory_item_id, quantity_needed
		from reorder_notifications where id = $1 for update
	`, id).Scan(&current, &itemID, &needed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !ValidTransition(current, p.Status) {
		return nil, ErrInvalidTransition
	}

	if p.Status == StatusReceived {
		qty := utils.NumericToFloat64(needed)
		if qty > 0 {
			if _, _, err := s.applyAdjustment(ctx, tx, AdjustParams{
				ItemID:      itemID,
				Type:        TypeRestock,
				Quantity:    qty,
				PerformedBy: p.PerformedBy,
				Notes:       strPtr("reorder received"),
			}); err != nil {
				return nil, err
			}
		}
	}

	_, err = tx.Exec(ctx, `
		update reorder_notifications
		set status = $2,
		    notes = coalesce($3, notes),
		    ordered_at = case when $2 = 'ORDERED' then now() else ordered_at end,
		    received_at = case when $2 = 'RECEIVED' then now() else received_at end,
		    cancelled_at = case when $2 = 'CANCELLED' then now() else cancelled_at end,
		    updated_at = now()
		where id = $1
	`, id, p.Status, p.Notes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetNotification(ctx, id)
}

// SetPurchaseOrderURL links the generated supplier purchase order
// document to its notification.
func (s *Service) SetPurchaseOrderURL(ctx context.Context, id int64, url string) error {
	res, err := s.DB.Exec(ctx, `update reorder_notifications set purchase_order_url = $2, updated_at = now() where id = $1`, id, url)
	if err != nil {
		return err
	}
	if res.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

func strPtr(s string) *string { return &s }
