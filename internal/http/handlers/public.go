package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/auth"
	"brewtab-cafe-service/internal/cache"
	"brewtab-cafe-service/internal/middleware"
	"brewtab-cafe-service/internal/order"
	"brewtab-cafe-service/pkg/response"
)

// PublicTableSession exchanges a scanned table number for a signed
// session token. The QR code carries nothing but the table number; the
// server decides whether it maps to an active table.
func (h *Handler) PublicTableSession(w http.ResponseWriter, r *http.Request) {
	tableNumber := strings.TrimSpace(readPathString(r, "tableNumber"))
	if tableNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}

	var (
		tableID  int64
		isActive bool
	)
	err := h.DB.QueryRow(r.Context(), `
		select id, is_active from cafe_tables where table_number = $1
	`, tableNumber).Scan(&tableID, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Unknown table")
			return
		}
		h.writeCoreError(w, err)
		return
	}
	if !isActive {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table is not available")
		return
	}

	token, err := auth.IssueTableToken(tableID, tableNumber, h.Config.TableTokenSecret, h.Config.TableTokenTTL)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, map[string]any{
		"sessionToken": token,
		"tableId":      tableID,
		"tableNumber":  tableNumber,
		"expiresIn":    int64(h.Config.TableTokenTTL.Seconds()),
	})
}

// PublicMenu serves the customer-facing menu, read-through cached in
// redis since every seated guest hits it.
func (h *Handler) PublicMenu(w http.ResponseWriter, r *http.Request) {
	var cached []MenuItem
	if err := h.Cache.Get(r.Context(), menuCacheKey, &cached); err == nil {
		response.Success(w, cached)
		return
	} else if !errors.Is(err, cache.ErrMiss) {
		h.Logger.Warn("menu cache read failed", zap.Error(err))
	}

	rows, err := h.DB.Query(r.Context(), `
		select `+menuColumns+` from menu_items
		where deleted_at is null and is_active = true
		order by category asc, name asc
	`)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	defer rows.Close()

	out := make([]MenuItem, 0)
	for rows.Next() {
		m, err := scanMenuItem(rows)
		if err != nil {
			h.writeCoreError(w, err)
			return
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		h.writeCoreError(w, err)
		return
	}

	if err := h.Cache.Set(r.Context(), menuCacheKey, out); err != nil {
		h.Logger.Warn("menu cache write failed", zap.Error(err))
	}
	response.Success(w, out)
}

type publicOrderPayload struct {
	Notes *string `json:"notes"`
	Items []struct {
		MenuItemID int64   `json:"menuItemId"`
		Quantity   int32   `json:"quantity"`
		Notes      *string `json:"notes"`
	} `json:"items"`
}

// PublicOrderCreate places a customer order under the table session. The
// inventory bridge runs after the order is committed; shortages never
// block the sale.
func (h *Handler) PublicOrderCreate(w http.ResponseWriter, r *http.Request) {
	tableCtx, ok := middleware.GetTableContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNAUTHORIZED", "Table session required")
		return
	}

	var payload publicOrderPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	params := order.CreateParams{
		TableID:     &tableCtx.TableID,
		TableNumber: &tableCtx.TableNumber,
		Notes:       payload.Notes,
		PlacedBy:    "table:" + tableCtx.TableNumber,
	}
	for _, line := range payload.Items {
		params.Items = append(params.Items, order.CreateLineParams{
			MenuItemID: line.MenuItemID,
			Quantity:   line.Quantity,
			Notes:      line.Notes,
		})
	}

	o, report, err := h.Orders.Create(r.Context(), params)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	if len(report.Skipped) > 0 {
		h.Logger.Warn("order placed with skipped inventory consumption",
			zap.String("orderNumber", o.OrderNumber),
			zap.Int("skipped", len(report.Skipped)))
	}
	response.Created(w, o)
}

func (h *Handler) PublicOrderDetail(w http.ResponseWriter, r *http.Request) {
	orderNumber := strings.TrimSpace(readPathString(r, "orderNumber"))
	if orderNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order number is required")
		return
	}
	o, err := h.Orders.GetByNumber(r.Context(), orderNumber)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, o)
}
