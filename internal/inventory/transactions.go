package inventory

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"brewtab-cafe-service/internal/utils"
)

type recordParams struct {
	ItemID      int64
	Type        TransactionType
	Quantity    float64
	Previous    float64
	New         float64
	UnitCost    float64
	BatchID     *int64
	MenuItemID  *int64
	OrderID     *int64
	PerformedBy string
	Notes       *string
}

// recordTransaction appends to the audit trail inside the caller's
// transaction; it is never called outside AdjustQuantity.
func (s *Service) recordTransaction(ctx context.Context, tx pgx.Tx, p recordParams) (*Transaction, error) {
	totalCost := p.Quantity * p.UnitCost
	if totalCost < 0 {
		totalCost = -totalCost
	}
	row := tx.QueryRow(ctx, `
		insert into inventory_transactions
			(inventory_item_id, type, quantity, previous_quantity, new_quantity,
			 unit_cost, total_cost, batch_id, menu_item_id, order_id, performed_by, notes)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		returning id, created_at
	`, p.ItemID, p.Type, p.Quantity, p.Previous, p.New, p.UnitCost, totalCost,
		p.BatchID, p.MenuItemID, p.OrderID, p.PerformedBy, p.Notes)

	txn := &Transaction{
		InventoryItemID:  p.ItemID,
		Type:             p.Type,
		Quantity:         p.Quantity,
		PreviousQuantity: p.Previous,
		NewQuantity:      p.New,
		UnitCost:         p.UnitCost,
		TotalCost:        totalCost,
		BatchID:          p.BatchID,
		MenuItemID:       p.MenuItemID,
		OrderID:          p.OrderID,
		PerformedBy:      p.PerformedBy,
		Notes:            p.Notes,
	}
	if err := row.Scan(&txn.ID, &txn.CreatedAt); err != nil {
		return nil, err
	}
	return txn, nil
}

type TransactionFilter struct {
	ItemID *int64
	Type   *TransactionType
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Normalize clamps page and limit into their valid ranges.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
}

func TotalPages(total int64, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

func (s *Service) ListTransactions(ctx context.Context, f TransactionFilter) ([]Transaction, int64, error) {
	f.Normalize()

	where := ` where 1=1`
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if f.ItemID != nil {
		where += ` and inventory_item_id = ` + arg(*f.ItemID)
	}
	if f.Type != nil {
		where += ` and type = ` + arg(*f.Type)
	}
	if f.From != nil {
		where += ` and created_at >= ` + arg(*f.From)
	}
	if f.To != nil {
		where += ` and created_at <= ` + arg(*f.To)
	}

	var total int64
	if err := s.DB.QueryRow(ctx, `select count(*) from inventory_transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		select id, inventory_item_id, type, quantity, previous_quantity, new_quantity,
		       unit_cost, total_cost, batch_id, menu_item_id, order_id, performed_by, notes, created_at
		from inventory_transactions` + where + `
		order by created_at desc, id desc
		limit ` + arg(f.Limit) + ` offset ` + arg((f.Page-1)*f.Limit)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Transaction, 0, f.Limit)
	for rows.Next() {
		var (
			txn        Transaction
			quantity   pgtype.Numeric
			previous   pgtype.Numeric
			newQty     pgtype.Numeric
			unitCost   pgtype.Numeric
			totalCost  pgtype.Numeric
			batchID    pgtype.Int8
			menuItemID pgtype.Int8
			orderID    pgtype.Int8
			notes      pgtype.Text
		)
		if err := rows.Scan(
			&txn.ID,
			&txn.InventoryItemID,
			&txn.Type,
			&quantity,
			&previous,
			&newQty,
			&unitCost,
			&totalCost,
			&batchID,
			&menuItemID,
			&orderID,
			&txn.PerformedBy,
			&notes,
			&txn.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		txn.Quantity = utils.NumericToFloat64(quantity)
		txn.PreviousQuantity = utils.NumericToFloat64(previous)
		txn.NewQuantity = utils.NumericToFloat64(newQty)
		txn.UnitCost = utils.NumericToFloat64(unitCost)
		txn.TotalCost = utils.NumericToFloat64(totalCost)
		if batchID.Valid {
			txn.BatchID = &batchID.Int64
		}
		if menuItemID.Valid {
			txn.MenuItemID = &menuItemID.Int64
		}
		if orderID.Valid {
			txn.OrderID = &orderID.Int64
		}
		if notes.Valid {
			txn.Notes = &notes.String
		}
		out = append(out, txn)
	}
	return out, total, rows.Err()
}
