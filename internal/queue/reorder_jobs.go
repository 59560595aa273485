package queue

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "cafe.events"
	ReordersQueue  = "cafe.reorders"
	ReordersRK     = "inventory.reorder.#"

	ReorderJobsExchange = "cafe.reorder_jobs"
	ReorderJobsQueue    = "cafe.reorder_jobs.process"
	ReorderJobsDLQ      = "cafe.reorder_jobs.dlq"
	ReorderJobsRK       = "process"
	ReorderJobsDeadRK   = "dead"
)

type reorderCreatedEvent struct {
	Type            string  `json:"type"`
	NotificationID  int64   `json:"notificationId"`
	InventoryItemID int64   `json:"inventoryItemId"`
	ItemName        string  `json:"itemName"`
	QuantityNeeded  float64 `json:"quantityNeeded"`
	CurrentQuantity float64 `json:"currentQuantity"`
	SupplierID      *int64  `json:"supplierId"`
}

func EnsureReorderJobsTopology(ctx context.Context, qc *Client) error {
	if qc == nil {
		return nil
	}

	if err := qc.EnsureExchangeKind(ReorderJobsExchange, "direct"); err != nil {
		return err
	}

	if _, err := qc.EnsureQueue(ReorderJobsDLQ); err != nil {
		return err
	}
	if err := qc.BindQueue(ReorderJobsDLQ, ReorderJobsExchange, ReorderJobsDeadRK); err != nil {
		return err
	}

	_, err := qc.EnsureQueueWithArgs(ReorderJobsQueue, amqp.Table{
		"x-dead-letter-exchange":    ReorderJobsExchange,
		"x-dead-letter-routing-key": ReorderJobsDeadRK,
	})
	if err != nil {
		return err
	}
	return qc.BindQueue(ReorderJobsQueue, ReorderJobsExchange, ReorderJobsRK)
}

// ProcessReorderEvent translates an inventory.reorder.created event into
// a supplier-notification job on the reorder_jobs queue, enriched with
// the supplier contact details the downstream mailer needs.
func ProcessReorderEvent(ctx context.Context, db *pgxpool.Pool, qc *Client, body []byte) error {
	if db == nil || qc == nil {
		return nil
	}

	var evt reorderCreatedEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return err
	}
	if strings.TrimSpace(evt.Type) == "" {
		// unknown envelope
		return nil
	}
	if evt.Type != "inventory.reorder.created" {
		// ignore
		return nil
	}

	var (
		itemName     string
		itemUnit     string
		supplierName pgtype.Text
		contactName  pgtype.Text
		email        pgtype.Text
		phone        pgtype.Text
	)
	query := `
		select i.name, i.unit, s.name, s.contact_name, s.email, s.phone
		from inventory_items i
		left join suppliers s on s.id = i.supplier_id
		where i.id = $1
	`
	if err := db.QueryRow(ctx, query, evt.InventoryItemID).Scan(&itemName, &itemUnit, &supplierName, &contactName, &email, &phone); err != nil {
		return err
	}

	payload := map[string]any{
		"kind":            "reorder.supplier_notice",
		"notificationId":  evt.NotificationID,
		"itemName":        itemName,
		"unit":            itemUnit,
		"quantityNeeded":  evt.QuantityNeeded,
		"currentQuantity": evt.CurrentQuantity,
		"supplierName":    nil,
		"supplierContact": nil,
		"supplierEmail":   nil,
		"supplierPhone":   nil,
	}
	if supplierName.Valid {
		payload["supplierName"] = supplierName.String
	}
	if contactName.Valid {
		payload["supplierContact"] = contactName.String
	}
	if email.Valid {
		payload["supplierEmail"] = email.String
	}
	if phone.Valid {
		payload["supplierPhone"] = phone.String
	}

	job := map[string]any{
		"kind":      "reorder.supplier_notice",
		"payload":   payload,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
		"attempt":   1,
	}
	return qc.PublishJSON(ctx, ReorderJobsExchange, ReorderJobsRK, job)
}
