package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/middleware"
	"brewtab-cafe-service/pkg/response"
)

type createBatchPayload struct {
	Name  string `json:"name"`
	Items []struct {
		InventoryItemID int64    `json:"inventoryItemId"`
		Quantity        float64  `json:"quantity"`
		UnitCost        *float64 `json:"unitCost"`
	} `json:"items"`
}

func (h *Handler) BatchCreate(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff session required")
		return
	}

	var payload createBatchPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name is required")
		return
	}
	if len(payload.Items) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "At least one item is required")
		return
	}

	params := inventory.CreateBatchParams{Name: payload.Name, CreatedBy: authCtx.Name}
	for _, bi := range payload.Items {
		params.Items = append(params.Items, inventory.BatchItemParams{
			InventoryItemID: bi.InventoryItemID,
			Quantity:        bi.Quantity,
			UnitCost:        bi.UnitCost,
		})
	}

	batch, err := h.Inventory.CreateBatch(r.Context(), params)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Created(w, batch)
}

func (h *Handler) BatchList(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	batches, err := h.Inventory.ListBatches(r.Context(), status)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, batches)
}

func (h *Handler) BatchDetail(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid batch id")
		return
	}
	batch, err := h.Inventory.GetBatch(r.Context(), id)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, batch)
}

type batchStatusPayload struct {
	Status string `json:"status"`
}

// BatchUpdateStatus completes or cancels a pending batch. Completing
// replays every staged item as a restock.
func (h *Handler) BatchUpdateStatus(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff session required")
		return
	}
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid batch id")
		return
	}

	var payload batchStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	var batch *inventory.Batch
	switch inventory.BatchStatus(strings.ToUpper(strings.TrimSpace(payload.Status))) {
	case inventory.BatchCompleted:
		batch, err = h.Inventory.CompleteBatch(r.Context(), id, authCtx.Name)
	case inventory.BatchCancelled:
		batch, err = h.Inventory.CancelBatch(r.Context(), id)
	default:
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Status must be COMPLETED or CANCELLED")
		return
	}
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, batch)
}
