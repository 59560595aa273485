package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/inventory"
	"brewtab-cafe-service/internal/order"
	"brewtab-cafe-service/pkg/response"
)

var errMissingParam = errors.New("missing param")

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	return strconv.ParseInt(value, 10, 64)
}

func readQueryInt(r *http.Request, key string, fallback int) int {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func readQueryTime(r *http.Request, key string) (*time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("invalid time value: " + value)
}

// writeCoreError maps the core's sentinel errors onto the HTTP contract:
// 400 validation, 404 not found, 409 conflict, 500 everything else.
func (h *Handler) writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrNotFound), errors.Is(err, order.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		response.Error(w, http.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, inventory.ErrAlreadyCompleted):
		response.Error(w, http.StatusConflict, "BATCH_NOT_PENDING", err.Error())
	case errors.Is(err, inventory.ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", err.Error())
	case errors.Is(err, inventory.ErrInvalidType), errors.Is(err, inventory.ErrInvalidQuantity),
		errors.Is(err, order.ErrEmptyOrder), errors.Is(err, order.ErrInvalidStatus):
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, order.ErrMenuItem):
		response.Error(w, http.StatusNotFound, "MENU_ITEM_NOT_FOUND", err.Error())
	default:
		h.Logger.Error("request failed", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Unexpected error")
	}
}
