package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"brewtab-cafe-service/internal/order"
	"brewtab-cafe-service/pkg/response"
)

func (h *Handler) OrderList(w http.ResponseWriter, r *http.Request) {
	status := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("status")))
	if status != "" && !order.Status(status).Valid() {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid status filter")
		return
	}
	orders, err := h.Orders.List(r.Context(), status)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, orders)
}

func (h *Handler) OrderDetail(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}
	o, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, o)
}

type orderStatusPayload struct {
	Status string `json:"status"`
}

func (h *Handler) OrderUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid order id")
		return
	}
	var payload orderStatusPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	status := order.Status(strings.ToUpper(strings.TrimSpace(payload.Status)))

	o, err := h.Orders.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, o)
}
