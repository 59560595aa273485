package order

import "time"

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusReady      Status = "READY"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Order struct {
	ID          int64     `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	TableID     *int64    `json:"tableId"`
	TableNumber *string   `json:"tableNumber"`
	Status      Status    `json:"status"`
	Subtotal    float64   `json:"subtotal"`
	Total       float64   `json:"total"`
	Notes       *string   `json:"notes,omitempty"`
	Items       []Line    `json:"items,omitempty"`
	PlacedAt    time.Time `json:"placedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Line struct {
	ID         int64   `json:"id"`
	MenuItemID int64   `json:"menuItemId"`
	MenuName   string  `json:"menuName"`
	Quantity   int32   `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	Subtotal   float64 `json:"subtotal"`
	Notes      *string `json:"notes,omitempty"`
}

type CreateParams struct {
	TableID     *int64
	TableNumber *string
	Notes       *string
	PlacedBy    string
	Items       []CreateLineParams
}

type CreateLineParams struct {
	MenuItemID int64
	Quantity   int32
	Notes      *string
}

// ConsumptionReport summarizes what the bridge did to inventory for one
// order: which ingredients were decremented and which were skipped.
type ConsumptionReport struct {
	Applied []AppliedConsumption `json:"applied"`
	Skipped []SkippedConsumption `json:"skipped"`
}

type AppliedConsumption struct {
	InventoryItemID int64   `json:"inventoryItemId"`
	MenuItemID      int64   `json:"menuItemId"`
	Quantity        float64 `json:"quantity"`
	NewQuantity     float64 `json:"newQuantity"`
}

type SkippedConsumption struct {
	InventoryItemID int64   `json:"inventoryItemId"`
	MenuItemID      int64   `json:"menuItemId"`
	Quantity        float64 `json:"quantity"`
	Reason          string  `json:"reason"`
}
