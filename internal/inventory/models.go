package inventory

import "time"

type TransactionType string

const (
	TypeRestock    TransactionType = "restock"
	TypeUsage      TransactionType = "usage"
	TypeAdjustment TransactionType = "adjustment"
	TypeWaste      TransactionType = "waste"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeRestock, TypeUsage, TypeAdjustment, TypeWaste:
		return true
	}
	return false
}

// Decreases reports whether the type consumes stock.
func (t TransactionType) Decreases() bool {
	return t == TypeUsage || t == TypeWaste
}

type NotificationStatus string

const (
	StatusPending   NotificationStatus = "PENDING"
	StatusOrdered   NotificationStatus = "ORDERED"
	StatusReceived  NotificationStatus = "RECEIVED"
	StatusCancelled NotificationStatus = "CANCELLED"
)

func (s NotificationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusOrdered, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

type BatchStatus string

const (
	BatchPending   BatchStatus = "PENDING"
	BatchCompleted BatchStatus = "COMPLETED"
	BatchCancelled BatchStatus = "CANCELLED"
)

type Item struct {
	ID                   int64      `json:"id"`
	Name                 string     `json:"name"`
	Category             string     `json:"category"`
	Unit                 string     `json:"unit"`
	Quantity             float64    `json:"quantity"`
	CostPerUnit          float64    `json:"costPerUnit"`
	ReorderPoint         float64    `json:"reorderPoint"`
	SupplierID           *int64     `json:"supplierId"`
	AutoReorderNotify    bool       `json:"autoReorderNotify"`
	AutoReorderThreshold *float64   `json:"autoReorderThreshold"`
	AutoReorderQuantity  *float64   `json:"autoReorderQuantity"`
	LowStock             bool       `json:"lowStock"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
	DeletedAt            *time.Time `json:"deletedAt,omitempty"`
}

// Transaction is one immutable quantity movement. Quantity holds the
// magnitude of the change for restock/usage/waste and the signed delta
// (new - previous) for adjustment, so the chained PreviousQuantity and
// NewQuantity columns always reconstruct the ledger from zero.
type Transaction struct {
	ID               int64           `json:"id"`
	InventoryItemID  int64           `json:"inventoryItemId"`
	Type             TransactionType `json:"type"`
	Quantity         float64         `json:"quantity"`
	PreviousQuantity float64         `json:"previousQuantity"`
	NewQuantity      float64         `json:"newQuantity"`
	UnitCost         float64         `json:"unitCost"`
	TotalCost        float64         `json:"totalCost"`
	BatchID          *int64          `json:"batchId,omitempty"`
	MenuItemID       *int64          `json:"menuItemId,omitempty"`
	OrderID          *int64          `json:"orderId,omitempty"`
	PerformedBy      string          `json:"performedBy"`
	Notes            *string         `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

type ReorderNotification struct {
	ID                int64              `json:"id"`
	InventoryItemID   int64              `json:"inventoryItemId"`
	ItemName          string             `json:"itemName,omitempty"`
	SupplierID        *int64             `json:"supplierId"`
	QuantityNeeded    float64            `json:"quantityNeeded"`
	CurrentQuantity   float64            `json:"currentQuantity"`
	ThresholdSnapshot float64            `json:"thresholdSnapshot"`
	Status            NotificationStatus `json:"status"`
	Notes             *string            `json:"notes,omitempty"`
	PurchaseOrderURL  *string            `json:"purchaseOrderUrl,omitempty"`
	CreatedAt         time.Time          `json:"createdAt"`
	OrderedAt         *time.Time         `json:"orderedAt,omitempty"`
	ReceivedAt        *time.Time         `json:"receivedAt,omitempty"`
	CancelledAt       *time.Time         `json:"cancelledAt,omitempty"`
	UpdatedAt         time.Time          `json:"updatedAt"`
}

type Batch struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Status      BatchStatus `json:"status"`
	CreatedBy   string      `json:"createdBy"`
	Items       []BatchItem `json:"items,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

type BatchItem struct {
	ID              int64   `json:"id"`
	InventoryItemID int64   `json:"inventoryItemId"`
	ItemName        string  `json:"itemName,omitempty"`
	Quantity        float64 `json:"quantity"`
	UnitCost        float64 `json:"unitCost"`
}

type AdjustParams struct {
	ItemID int64
	Type   TransactionType
	// Quantity is a positive magnitude for restock/usage/waste and the
	// target quantity for adjustment.
	Quantity    float64
	UnitCost    *float64
	BatchID     *int64
	MenuItemID  *int64
	OrderID     *int64
	PerformedBy string
	Notes       *string
}

type ReorderCreatedEvent struct {
	Type            string    `json:"type"`
	NotificationID  int64     `json:"notificationId"`
	InventoryItemID int64     `json:"inventoryItemId"`
	ItemName        string    `json:"itemName"`
	QuantityNeeded  float64   `json:"quantityNeeded"`
	CurrentQuantity float64   `json:"currentQuantity"`
	SupplierID      *int64    `json:"supplierId"`
	CreatedAt       time.Time `json:"createdAt"`
}
