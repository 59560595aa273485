package inventory

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"brewtab-cafe-service/internal/utils"
)

type CreateBatchParams struct {
	Name      string
	CreatedBy string
	Items     []BatchItemParams
}

type BatchItemParams struct {
	InventoryItemID int64
	Quantity        float64
	UnitCost        *float64
}

// CreateBatch stages a named group of restocks without touching the
// ledger; quantities only move when the batch is completed.
func (s *Service) CreateBatch(ctx context.Context, p CreateBatchParams) (*Batch, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	batch := &Batch{Name: p.Name, Status: BatchPending, CreatedBy: p.CreatedBy}
	err = tx.QueryRow(ctx, `
		insert into inventory_batches (name, status, created_by)
		values ($1, 'PENDING', $2)
		returning id, created_at
	`, p.Name, p.CreatedBy).Scan(&batch.ID, &batch.CreatedAt)
	if err != nil {
		return nil, err
	}

	for _, bi := range p.Items {
		if bi.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		item, err := scanItem(tx.QueryRow(ctx, `select `+itemColumns+` from inventory_items where id = $1 and deleted_at is null`, bi.InventoryItemID))
		if err != nil {
			return nil, err
		}
		unitCost := item.CostPerUnit
		if bi.UnitCost != nil {
			unitCost = *bi.UnitCost
		}
		out := BatchItem{InventoryItemID: bi.InventoryItemID, ItemName: item.Name, Quantity: bi.Quantity, UnitCost: unitCost}
		err = tx.QueryRow(ctx, `
			insert into inventory_batch_items (batch_id, inventory_item_id, quantity, unit_cost)
			values ($1, $2, $3, $4)
			returning id
		`, batch.ID, bi.InventoryItemID, bi.Quantity, unitCost).Scan(&out.ID)
		if err != nil {
			return nil, err
		}
		batch.Items = append(batch.Items, out)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context, status string) ([]Batch, error) {
	query := `select id, name, status, created_by, created_at, completed_at from inventory_batches`
	args := []any{}
	if status != "" {
		query += ` where status = $1`
		args = append(args, status)
	}
	query += ` order by created_at desc`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Batch, 0)
	for rows.Next() {
		var (
			b           Batch
			completedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&b.ID, &b.Name, &b.Status, &b.CreatedBy, &b.CreatedAt, &completedAt); err != nil {
			return nil, err
		}
		if completedAt.Valid {
			b.CompletedAt = &completedAt.Time
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Service) GetBatch(ctx context.Context, id int64) (*Batch, error) {
	var (
		b           Batch
		completedAt pgtype.Timestamptz
	)
	err := s.DB.QueryRow(ctx, `
		select id, name, status, created_by, created_at, completed_at
		from inventory_batches where id = $1
	`, id).Scan(&b.ID, &b.Name, &b.Status, &b.CreatedBy, &b.CreatedAt, &completedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}

	rows, err := s.DB.Query(ctx, `
		select bi.id, bi.inventory_item_id, i.name, bi.quantity, bi.unit_cost
		from inventory_batch_items bi
		join inventory_items i on i.id = bi.inventory_item_id
		where bi.batch_id = $1
		order by bi.id asc
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bi       BatchItem
			quantity pgtype.Numeric
			unitCost pgtype.Numeric
		)
		if err := rows.Scan(&bi.ID, &bi.InventoryItemID, &bi.ItemName, &quantity, &unitCost); err != nil {
			return nil, err
		}
		bi.Quantity = utils.NumericToFloat64(quantity)
		bi.UnitCost = utils.NumericToFloat64(unitCost)
		b.Items = append(b.Items, bi)
	}
	return &b, rows.Err()
}

// CompleteBatch replays every staged item as a restock transaction,
// inside the same DB transaction as the status flip: either the batch
// turns COMPLETED with all its restocks applied, or nothing moves. The
// flip is guarded on PENDING, so completing twice is rejected instead
// of double-applying.
func (s *Service) CompleteBatch(ctx context.Context, id int64, performedBy string) (*Batch, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	res, err := tx.Exec(ctx, `
		update inventory_batches
		set status = 'COMPLETED', completed_at = now()
		where id = $1 and status = 'PENDING'
	`, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() != 1 {
		var exists bool
		if err := tx.QueryRow(ctx, `select exists(select 1 from inventory_batches where id = $1)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyCompleted
	}

	items, err := loadBatchItemsForReplay(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	for _, bi := range items {
		unitCost := bi.UnitCost
		batchID := id
		if _, _, err := s.applyAdjustment(ctx, tx, AdjustParams{
			ItemID:      bi.InventoryItemID,
			Type:        TypeRestock,
			Quantity:    bi.Quantity,
			UnitCost:    &unitCost,
			BatchID:     &batchID,
			PerformedBy: performedBy,
		}); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetBatch(ctx, id)
}

func loadBatchItemsForReplay(ctx context.Context, tx pgx.Tx, batchID int64) ([]BatchItem, error) {
	rows, err := tx.Query(ctx, `
		select inventory_item_id, quantity, unit_cost
		from inventory_batch_items where batch_id = $1 order by id asc
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]BatchItem, 0)
	for rows.Next() {
		var (
			bi       BatchItem
			quantity pgtype.Numeric
			unitCost pgtype.Numeric
		)
		if err := rows.Scan(&bi.InventoryItemID, &quantity, &unitCost); err != nil {
			return nil, err
		}
		bi.Quantity = utils.NumericToFloat64(quantity)
		bi.UnitCost = utils.NumericToFloat64(unitCost)
		out = append(out, bi)
	}
	return out, rows.Err()
}

func (s *Service) CancelBatch(ctx context.Context, id int64) (*Batch, error) {
	res, err := s.DB.Exec(ctx, `
		update inventory_batches set status = 'CANCELLED' where id = $1 and status = 'PENDING'
	`, id)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() != 1 {
		var exists bool
		if err := s.DB.QueryRow(ctx, `select exists(select 1 from inventory_batches where id = $1)`, id).Scan(&exists); err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrNotFound
		}
		return nil, ErrAlreadyCompleted
	}
	return s.GetBatch(ctx, id)
}
