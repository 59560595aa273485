package order

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/utils"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrEmptyOrder    = errors.New("order has no items")
	ErrMenuItem      = errors.New("menu item not found or inactive")
	ErrInvalidStatus = errors.New("invalid order status")
)

type Service struct {
	DB        *pgxpool.Pool
	Logger    *zap.Logger
	Inventory *inventory.Service
}

func NewService(pool *pgxpool.Pool, log *zap.Logger, inv *inventory.Service) *Service {
	return &Service{DB: pool, Logger: log, Inventory: inv}
}

func newOrderNumber(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(hex.EncodeToString(buf)))
}

// Create persists the order first, then runs the inventory bridge. The
// order is the customer-facing fact; ingredient shortages are logged
// and skipped rather than failing the sale.
func (s *Service) Create(ctx context.Context, p CreateParams) (*Order, *ConsumptionReport, error) {
	if len(p.Items) == 0 {
		return nil, nil, ErrEmptyOrder
	}
	for _, line := range p.Items {
		if line.Quantity <= 0 {
			return nil, nil, ErrEmptyOrder
		}
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now()
	out := &Order{
		OrderNumber: newOrderNumber(now),
		TableID:     p.TableID,
		TableNumber: p.TableNumber,
		Status:      StatusPending,
		Notes:       p.Notes,
	}

	var subtotal float64
	for _, line := range p.Items {
		var (
			name     string
			price    pgtype.Numeric
			isActive bool
		)
		err := tx.QueryRow(ctx, `
			select name, price, is_active from menu_items
			where id = $1 and deleted_at is null
		`, line.MenuItemID).Scan(&name, &price, &isActive)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, nil, ErrMenuItem
			}
			return nil, nil, err
		}
		if !isActive {
			return nil, nil, ErrMenuItem
		}

		unitPrice := utils.NumericToFloat64(price)
		lineSubtotal := unitPrice * float64(line.Quantity)
		subtotal += lineSubtotal
		out.Items = append(out.Items, Line{
			MenuItemID: line.MenuItemID,
			MenuName:   name,
			Quantity:   line.Quantity,
			UnitPrice:  unitPrice,
			Subtotal:   lineSubtotal,
			Notes:      line.Notes,
		})
	}
	out.Subtotal = subtotal
	out.Total = subtotal

	err = tx.QueryRow(ctx, `
		insert into orders (order_number, table_id, table_number, status, subtotal, total, notes, placed_at)
		values ($1, $2, $3, 'PENDING', $4, $5, $6, $7)
		returning id, placed_at, created_at, updated_at
	`, out.OrderNumber, p.TableID, p.TableNumber, out.Subtotal, out.Total, p.Notes, now).
		Scan(&out.ID, &out.PlacedAt, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return nil, nil, err
	}

	for i := range out.Items {
		line := &out.Items[i]
		err := tx.QueryRow(ctx, `
			insert into order_items (order_id, menu_item_id, menu_name, quantity, unit_price, subtotal, notes)
			values ($1, $2, $3, $4, $5, $6, $7)
			returning id
		`, out.ID, line.MenuItemID, line.MenuName, line.Quantity, line.UnitPrice, line.Subtotal, line.Notes).
			Scan(&line.ID)
		if err != nil {
			return nil, nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	// The order row is already committed; failing the request here
	// would push the client into replaying a sale that exists. Bridge
	// failures are logged and the order returned as placed.
	report, err := s.consumeInventory(ctx, out, p.PlacedBy)
	if err != nil {
		s.Logger.Error("inventory consumption failed after order commit",
			zap.String("orderNumber", out.OrderNumber),
			zap.Error(err))
		report = &ConsumptionReport{
			Applied: make([]AppliedConsumption, 0),
			Skipped: make([]SkippedConsumption, 0),
		}
	}
	return out, report, nil
}

const orderColumns = `
	id, order_number, table_id, table_number, status, subtotal, total, notes,
	placed_at, created_at, updated_at
`

func scanOrder(row pgx.Row) (*Order, error) {
	var (
		o           Order
		tableID     pgtype.Int8
		tableNumber pgtype.Text
		subtotal    pgtype.Numeric
		total       pgtype.Numeric
		notes       pgtype.Text
	)
	if err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&tableID,
		&tableNumber,
		&o.Status,
		&subtotal,
		&total,
		&notes,
		&o.PlacedAt,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if tableID.Valid {
		o.TableID = &tableID.Int64
	}
	if tableNumber.Valid {
		o.TableNumber = &tableNumber.String
	}
	o.Subtotal = utils.NumericToFloat64(subtotal)
	o.Total = utils.NumericToFloat64(total)
	if notes.Valid {
		o.Notes = &notes.String
	}
	return &o, nil
}

func (s *Service) loadLines(ctx context.Context, o *Order) error {
	rows, err := s.DB.Query(ctx, `
		select id, menu_item_id, menu_name, quantity, unit_price, subtotal, notes
		from order_items where order_id = $1 order by id asc
	`, o.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line      Line
			unitPrice pgtype.Numeric
			subtotal  pgtype.Numeric
			notes     pgtype.Text
		)
		if err := rows.Scan(&line.ID, &line.MenuItemID, &line.MenuName, &line.Quantity, &unitPrice, &subtotal, &notes); err != nil {
			return err
		}
		line.UnitPrice = utils.NumericToFloat64(unitPrice)
		line.Subtotal = utils.NumericToFloat64(subtotal)
		if notes.Valid {
			line.Notes = &notes.String
		}
		o.Items = append(o.Items, line)
	}
	return rows.Err()
}

func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (*Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `select `+orderColumns+` from orders where order_number = $1`, orderNumber))
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `select `+orderColumns+` from orders where id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *Service) List(ctx context.Context, status string) ([]Order, error) {
	query := `select ` + orderColumns + ` from orders`
	args := []any{}
	if status != "" {
		query += ` where status = $1`
		args = append(args, status)
	}
	query += ` order by placed_at desc limit 200`

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status Status) (*Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	res, err := s.DB.Exec(ctx, `update orders set status = $2, updated_at = now() where id = $1`, id, status)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() != 1 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}
