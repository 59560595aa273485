package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/middleware"
	"brewtab-cafe-service/pkg/response"
)

type createItemPayload struct {
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	Unit                 string   `json:"unit"`
	Quantity             float64  `json:"quantity"`
	CostPerUnit          float64  `json:"costPerUnit"`
	ReorderPoint         float64  `json:"reorderPoint"`
	SupplierID           *int64   `json:"supplierId"`
	AutoReorderNotify    bool     `json:"autoReorderNotify"`
	AutoReorderThreshold *float64 `json:"autoReorderThreshold"`
	AutoReorderQuantity  *float64 `json:"autoReorderQuantity"`
}

type updateItemPayload struct {
	Name                 *string  `json:"name"`
	Category             *string  `json:"category"`
	Unit                 *string  `json:"unit"`
	CostPerUnit          *float64 `json:"costPerUnit"`
	ReorderPoint         *float64 `json:"reorderPoint"`
	SupplierID           *int64   `json:"supplierId"`
	ClearSupplier        bool     `json:"clearSupplier"`
	AutoReorderNotify    *bool    `json:"autoReorderNotify"`
	AutoReorderThreshold *float64 `json:"autoReorderThreshold"`
	AutoReorderQuantity  *float64 `json:"autoReorderQuantity"`
}

func (h *Handler) InventoryList(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	lowStock := strings.EqualFold(r.URL.Query().Get("lowStock"), "true")

	items, err := h.Inventory.ListItems(r.Context(), category, lowStock)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, items)
}

func (h *Handler) InventoryCreate(w http.ResponseWriter, r *http.Request) {
	var payload createItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	payload.Name = strings.TrimSpace(payload.Name)
	payload.Unit = strings.TrimSpace(payload.Unit)
	if payload.Name == "" || payload.Unit == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name and unit are required")
		return
	}
	if payload.Quantity < 0 || payload.CostPerUnit < 0 || payload.ReorderPoint < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Quantity, cost and reorder point must not be negative")
		return
	}
	if payload.Category == "" {
		payload.Category = "Uncategorized"
	}

	item, err := h.Inventory.CreateItem(r.Context(), inventory.CreateItemParams{
		Name:                 payload.Name,
		Category:             payload.Category,
		Unit:                 payload.Unit,
		Quantity:             payload.Quantity,
		CostPerUnit:          payload.CostPerUnit,
		ReorderPoint:         payload.ReorderPoint,
		SupplierID:           payload.SupplierID,
		AutoReorderNotify:    payload.AutoReorderNotify,
		AutoReorderThreshold: payload.AutoReorderThreshold,
		AutoReorderQuantity:  payload.AutoReorderQuantity,
	})
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Created(w, item)
}

func (h *Handler) InventoryDetail(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid item id")
		return
	}
	item, err := h.Inventory.GetItem(r.Context(), id)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, item)
}

func (h *Handler) InventoryUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid item id")
		return
	}

	var payload updateItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	if payload.Name != nil && strings.TrimSpace(*payload.Name) == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name must not be empty")
		return
	}

	item, err := h.Inventory.UpdateItem(r.Context(), id, inventory.UpdateItemParams{
		Name:                 payload.Name,
		Category:             payload.Category,
		Unit:                 payload.Unit,
		CostPerUnit:          payload.CostPerUnit,
		ReorderPoint:         payload.ReorderPoint,
		SupplierID:           payload.SupplierID,
		ClearSupplier:        payload.ClearSupplier,
		AutoReorderNotify:    payload.AutoReorderNotify,
		AutoReorderThreshold: payload.AutoReorderThreshold,
		AutoReorderQuantity:  payload.AutoReorderQuantity,
	})
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, item)
}

func (h *Handler) InventoryDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid item id")
		return
	}
	if err := h.Inventory.DeleteItem(r.Context(), id); err != nil {
		h.writeCoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createTransactionPayload struct {
	InventoryItemID int64    `json:"inventoryItemId"`
	Type            string   `json:"type"`
	Quantity        float64  `json:"quantity"`
	UnitCost        *float64 `json:"unitCost"`
	Notes           *string  `json:"notes"`
}

// TransactionCreate is the manual restock/adjustment/waste entrypoint;
// order-driven usage goes through the bridge instead.
func (h *Handler) TransactionCreate(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff session required")
		return
	}

	var payload createTransactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	if payload.InventoryItemID <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "inventoryItemId is required")
		return
	}

	result, err := h.Inventory.AdjustQuantity(r.Context(), inventory.AdjustParams{
		ItemID:      payload.InventoryItemID,
		Type:        inventory.TransactionType(strings.ToLower(strings.TrimSpace(payload.Type))),
		Quantity:    payload.Quantity,
		UnitCost:    payload.UnitCost,
		Notes:       payload.Notes,
		PerformedBy: authCtx.Name,
	})
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Created(w, map[string]any{
		"item":        result.Item,
		"transaction": result.Transaction,
	})
}

func (h *Handler) TransactionList(w http.ResponseWriter, r *http.Request) {
	filter := inventory.TransactionFilter{
		Page:  readQueryInt(r, "page", 1),
		Limit: readQueryInt(r, "limit", 0),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("itemId")); raw != "" {
		id := int64(readQueryInt(r, "itemId", 0))
		if id <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid itemId filter")
			return
		}
		filter.ItemID = &id
	}
	if raw := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("type"))); raw != "" {
		t := inventory.TransactionType(raw)
		if !t.Valid() {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid transaction type filter")
			return
		}
		filter.Type = &t
	}

	from, err := readQueryTime(r, "from")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	to, err := readQueryTime(r, "to")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}
	filter.From = from
	filter.To = to

	transactions, total, err := h.Inventory.ListTransactions(r.Context(), filter)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}

	filter.Normalize()
	response.Paginated(w, transactions, response.PaginationMeta{
		Page:       filter.Page,
		Limit:      filter.Limit,
		Total:      total,
		TotalPages: inventory.TotalPages(total, filter.Limit),
	})
}
