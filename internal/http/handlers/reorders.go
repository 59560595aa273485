package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/middleware"
	"brewtab-cafe-service/internal/utils"
	"brewtab-cafe-service/pkg/response"
)

func (h *Handler) ReorderList(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !inventory.NotificationStatus(status).Valid() {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter")
		return
	}
	notifications, err := h.Inventory.ListNotifications(r.Context(), status)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, notifications)
}

func (h *Handler) ReorderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification id")
		return
	}
	n, err := h.Inventory.GetNotification(r.Context(), id)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, n)
}

type transitionPayload struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// ReorderTransition moves a notification through its status machine.
// Marking ORDERED additionally generates and stores the supplier
// purchase order document; a storage failure there is logged but does
// not undo the transition.
func (h *Handler) ReorderTransition(w http.ResponseWriter, r *http.Request) {
	authCtx, ok := middleware.GetAuthContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Staff session required")
		return
	}

	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid notification id")
		return
	}

	var payload transitionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	status := inventory.NotificationStatus(strings.ToUpper(strings.TrimSpace(payload.Status)))
	if !status.Valid() {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status")
		return
	}

	n, err := h.Inventory.TransitionNotification(r.Context(), id, inventory.TransitionParams{
		Status:      status,
		Notes:       payload.Notes,
		PerformedBy: authCtx.Name,
	})
	if err != nil {
		h.writeCoreError(w, err)
		return
	}

	if status == inventory.StatusOrdered && h.Store != nil {
		if url, err := h.buildPurchaseOrder(r.Context(), n); err != nil {
			h.Logger.Error("purchase order generation failed",
				zap.Int64("notificationId", n.ID), zap.Error(err))
		} else {
			n.PurchaseOrderURL = &url
		}
	}

	response.Success(w, n)
}

func (h *Handler) buildPurchaseOrder(ctx context.Context, n *inventory.ReorderNotification) (string, error) {
	data := utils.PurchaseOrderData{
		NotificationID:  n.ID,
		ItemName:        n.ItemName,
		QuantityNeeded:  n.QuantityNeeded,
		CurrentQuantity: n.CurrentQuantity,
		OrderedAt:       time.Now(),
	}
	if n.OrderedAt != nil {
		data.OrderedAt = *n.OrderedAt
	}
	if n.Notes != nil {
		data.Notes = *n.Notes
	}

	var (
		unit         string
		reorderPoint pgtype.Numeric
		supName      pgtype.Text
		supContact   pgtype.Text
		supEmail     pgtype.Text
		supPhone     pgtype.Text
	)
	err := h.DB.QueryRow(ctx, `
		select i.unit, i.reorder_point, s.name, s.contact_name, s.email, s.phone
		from inventory_items i
		left join suppliers s on s.id = i.supplier_id
		where i.id = $1
	`, n.InventoryItemID).Scan(&unit, &reorderPoint, &supName, &supContact, &supEmail, &supPhone)
	if err != nil {
		return "", err
	}
	data.Unit = unit
	data.ReorderPoint = utils.NumericToFloat64(reorderPoint)
	if supName.Valid {
		data.SupplierName = supName.String
	}
	if supContact.Valid {
		data.SupplierContact = supContact.String
	}
	if supEmail.Valid {
		data.SupplierEmail = supEmail.String
	}
	if supPhone.Valid {
		data.SupplierPhone = supPhone.String
	}

	pdf, err := utils.BuildPurchaseOrderPDF(data)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("purchase-orders/po-%06d.pdf", n.ID)
	url, err := h.Store.PutObject(ctx, key, pdf, "application/pdf")
	if err != nil {
		return "", err
	}
	if err := h.Inventory.SetPurchaseOrderURL(ctx, n.ID, url); err != nil {
		return "", err
	}
	return url, nil
}
