package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/db"
	"brewtab-cafe-service/internal/utils"
)

type EventPublisher interface {
	PublishJSON(ctx context.Context, exchange, routingKey string, payload any) error
}

// Service is the single entrypoint for every inventory write. All
// writers (manual restock, order bridge, batch completion, reorder
// received) go through AdjustQuantity so the non-negativity guard and
// the transaction trail are enforced in one place.
type Service struct {
	DB     *pgxpool.Pool
	Logger *zap.Logger
	Events EventPublisher

	ReorderExchange   string
	ReorderRoutingKey string
}

func NewService(pool *pgxpool.Pool, log *zap.Logger, events EventPublisher) *Service {
	return &Service{
		DB:                pool,
		Logger:            log,
		Events:            events,
		ReorderExchange:   "cafe.events",
		ReorderRoutingKey: "inventory.reorder.created",
	}
}

const itemColumns = `
	id, name, category, unit, quantity, cost_per_unit, reorder_point,
	supplier_id, auto_reorder_notify, auto_reorder_threshold,
	auto_reorder_quantity, created_at, updated_at, deleted_at
`

func scanItem(row pgx.Row) (*Item, error) {
	var (
		item       Item
		quantity   pgtype.Numeric
		costPU     pgtype.Numeric
		reorderPt  pgtype.Numeric
		supplierID pgtype.Int8
		threshold  pgtype.Numeric
		reorderQty pgtype.Numeric
		deletedAt  pgtype.Timestamptz
	)
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Category,
		&item.Unit,
		&quantity,
		&costPU,
		&reorderPt,
		&supplierID,
		&item.AutoReorderNotify,
		&threshold,
		&reorderQty,
		&item.CreatedAt,
		&item.UpdatedAt,
		&deletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	item.Quantity = utils.NumericToFloat64(quantity)
	item.CostPerUnit = utils.NumericToFloat64(costPU)
	item.ReorderPoint = utils.NumericToFloat64(reorderPt)
	if supplierID.Valid {
		item.SupplierID = &supplierID.Int64
	}
	if threshold.Valid {
		v := utils.NumericToFloat64(threshold)
		item.AutoReorderThreshold = &v
	}
	if reorderQty.Valid {
		v := utils.NumericToFloat64(reorderQty)
		item.AutoReorderQuantity = &v
	}
	if deletedAt.Valid {
		item.DeletedAt = &deletedAt.Time
	}
	item.LowStock = item.Quantity <= item.ReorderPoint
	return &item, nil
}

func (s *Service) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.DB.QueryRow(ctx, `select `+itemColumns+` from inventory_items where id = $1 and deleted_at is null`, id)
	return scanItem(row)
}

func (s *Service) ListItems(ctx context.Context, category string, lowStockOnly bool) ([]Item, error) {
	query := `select ` + itemColumns + ` from inventory_items where deleted_at is null`
	args := []any{}
	if category != "" && !strings.EqualFold(category, "All") {
		args = append(args, category)
		query += ` and category = $1`
	}
	if lowStockOnly {
		query += ` and quantity <= reorder_point`
	}
	query += ` order by name asc`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

type CreateItemParams struct {
	Name                 string
	Category             string
	Unit                 string
	Quantity             float64
	CostPerUnit          float64
	ReorderPoint         float64
	SupplierID           *int64
	AutoReorderNotify    bool
	AutoReorderThreshold *float64
	AutoReorderQuantity  *float64
}

func (s *Service) CreateItem(ctx context.Context, p CreateItemParams) (*Item, error) {
	row := s.DB.QueryRow(ctx, `
		insert into inventory_items
			(name, category, unit, quantity, cost_per_unit, reorder_point,
			 supplier_id, auto_reorder_notify, auto_reorder_threshold, auto_reorder_quantity)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning `+itemColumns,
		p.Name, p.Category, p.Unit, p.Quantity, p.CostPerUnit, p.ReorderPoint,
		p.SupplierID, p.AutoReorderNotify, p.AutoReorderThreshold, p.AutoReorderQuantity,
	)
	return scanItem(row)
}

type UpdateItemParams struct {
	Name                 *string
	Category             *string
	Unit                 *string
	CostPerUnit          *float64
	ReorderPoint         *float64
	SupplierID           *int64
	ClearSupplier        bool
	AutoReorderNotify    *bool
	AutoReorderThreshold *float64
	AutoReorderQuantity  *float64
}

// UpdateItem never touches quantity; quantity changes only happen through
// AdjustQuantity so they always leave a transaction behind.
func (s *Service) UpdateItem(ctx context.Context, id int64, p UpdateItemParams) (*Item, error) {
	row := s.DB.QueryRow(ctx, `
		update inventory_items set
			name = coalesce($2, name),
			category = coalesce($3, category),
			unit = coalesce($4, unit),
			cost_per_unit = coalesce($5, cost_per_unit),
			reorder_point = coalesce($6, reorder_point),
			supplier_id = case when $8 then null else coalesce($7, supplier_id) end,
			auto_reorder_notify = coalesce($9, auto_reorder_notify),
			auto_reorder_threshold = coalesce($10, auto_reorder_threshold),
			auto_reorder_quantity = coalesce($11, auto_reorder_quantity),
			updated_at = now()
		where id = $1 and deleted_at is null
		returning `+itemColumns,
		id, p.Name, p.Category, p.Unit, p.CostPerUnit, p.ReorderPoint,
		p.SupplierID, p.ClearSupplier, p.AutoReorderNotify,
		p.AutoReorderThreshold, p.AutoReorderQuantity,
	)
	return scanItem(row)
}

// DeleteItem soft-deletes so historical transactions keep a valid
// reference.
func (s *Service) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.DB.Exec(ctx, `update inventory_items set deleted_at = now() where id = $1 and deleted_at is null`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() != 1 {
		return ErrNotFound
	}
	return nil
}

type AdjustResult struct {
	Item        *Item
	Transaction *Transaction
}

// AdjustQuantity applies one quantity change atomically: the guarded
// ledger update, the transaction record and the reorder evaluation all
// commit or roll back together. The reorder event, if any, is published
// after commit.
func (s *Service) AdjustQuantity(ctx context.Context, p AdjustParams) (*AdjustResult, error) {
	if !p.Type.Valid() {
		return nil, ErrInvalidType
	}
	if p.Quantity < 0 || (p.Type != TypeAdjustment && p.Quantity == 0) {
		return nil, ErrInvalidQuantity
	}

	var (
		result *AdjustResult
		event  *ReorderCreatedEvent
	)
	err := db.WithRetry(ctx, func(ctx context.Context) error {
		var err error
		result, event, err = s.adjustOnce(ctx, p)
		return err
	})
	if err != nil {
		return nil, err
	}

	if event != nil {
		s.publishReorderEvent(ctx, event)
	}
	return result, nil
}

func (s *Service) adjustOnce(ctx context.Context, p AdjustParams) (*AdjustResult, *ReorderCreatedEvent, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	result, event, err := s.applyAdjustment(ctx, tx, p)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return result, event, nil
}

func (s *Service) applyAdjustment(ctx context.Context, tx pgx.Tx, p AdjustParams) (*AdjustResult, *ReorderCreatedEvent, error) {
	// The row lock serializes concurrent adjustments per item so the
	// previous/new chain in the transaction log never interleaves.
	item, err := scanItem(tx.QueryRow(ctx, `select `+itemColumns+` from inventory_items where id = $1 and deleted_at is null for update`, p.ItemID))
	if err != nil {
		return nil, nil, err
	}

	var delta float64
	switch p.Type {
	case TypeRestock:
		delta = p.Quantity
	case TypeUsage, TypeWaste:
		delta = -p.Quantity
	case TypeAdjustment:
		delta = p.Quantity - item.Quantity
	}

	previous := item.Quantity
	newQty := previous + delta
	if newQty < 0 {
		return nil, nil, ErrInsufficientStock
	}

	// Guarded update in the teacher's conditional style; with the row
	// lock held this can only miss if the item vanished mid-flight.
	res, err := tx.Exec(ctx, `
		update inventory_items
		set quantity = quantity + $2, updated_at = now()
		where id = $1 and deleted_at is null and quantity + $2 >= 0
	`, p.ItemID, delta)
	if err != nil {
		return nil, nil, err
	}
	if res.RowsAffected() != 1 {
		return nil, nil, ErrInsufficientStock
	}

	unitCost := item.CostPerUnit
	if p.UnitCost != nil {
		unitCost = *p.UnitCost
	}
	recordedQty := p.Quantity
	if p.Type == TypeAdjustment {
		recordedQty = delta
	}

	txn, err := s.recordTransaction(ctx, tx, recordParams{
		ItemID:      p.ItemID,
		Type:        p.Type,
		Quantity:    recordedQty,
		Previous:    previous,
		New:         newQty,
		UnitCost:    unitCost,
		BatchID:     p.BatchID,
		MenuItemID:  p.MenuItemID,
		OrderID:     p.OrderID,
		PerformedBy: p.PerformedBy,
		Notes:       p.Notes,
	})
	if err != nil {
		return nil, nil, err
	}

	var event *ReorderCreatedEvent
	if delta < 0 {
		event, err = s.evaluateReorder(ctx, tx, item, newQty)
		if err != nil {
			return nil, nil, err
		}
	}

	item.Quantity = newQty
	item.LowStock = newQty <= item.ReorderPoint
	item.UpdatedAt = time.Now()
	return &AdjustResult{Item: item, Transaction: txn}, event, nil
}

func (s *Service) publishReorderEvent(ctx context.Context, event *ReorderCreatedEvent) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishJSON(ctx, s.ReorderExchange, s.ReorderRoutingKey, event); err != nil {
		s.Logger.Warn("reorder event publish failed",
			zap.Int64("notificationId", event.NotificationID),
			zap.Error(err))
	}
}
