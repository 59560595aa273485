package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/auth"
	"brewtab-cafe-service/pkg/response"
)

type CafeTable struct {
	ID              int64      `json:"id"`
	TableNumber     string     `json:"tableNumber"`
	Label           *string    `json:"label,omitempty"`
	Seats           int32      `json:"seats"`
	IsActive        bool       `json:"isActive"`
	QRTokenIssuedAt *time.Time `json:"qrTokenIssuedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

type tablePayload struct {
	TableNumber string  `json:"tableNumber"`
	Label       *string `json:"label"`
	Seats       *int32  `json:"seats"`
	IsActive    *bool   `json:"isActive"`
}

const tableColumns = `id, table_number, label, seats, is_active, qr_token_issued_at, created_at, updated_at`

func scanTable(row pgx.Row) (*CafeTable, error) {
	var (
		t        CafeTable
		label    pgtype.Text
		issuedAt pgtype.Timestamptz
	)
	err := row.Scan(&t.ID, &t.TableNumber, &label, &t.Seats, &t.IsActive, &issuedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if label.Valid {
		t.Label = &label.String
	}
	if issuedAt.Valid {
		t.QRTokenIssuedAt = &issuedAt.Time
	}
	return &t, nil
}

func (h *Handler) TableList(w http.ResponseWriter, r *http.Request) {
	rows, err := h.DB.Query(r.Context(), `select `+tableColumns+` from cafe_tables order by table_number asc`)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	defer rows.Close()

	out := make([]CafeTable, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			h.writeCoreError(w, err)
			return
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, out)
}

func (h *Handler) TableCreate(w http.ResponseWriter, r *http.Request) {
	var payload tablePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	payload.TableNumber = strings.TrimSpace(payload.TableNumber)
	if payload.TableNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return
	}
	seats := int32(2)
	if payload.Seats != nil && *payload.Seats > 0 {
		seats = *payload.Seats
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	t, err := scanTable(h.DB.QueryRow(r.Context(), `
		insert into cafe_tables (table_number, label, seats, is_active)
		values ($1, $2, $3, $4)
		returning `+tableColumns+`
	`, payload.TableNumber, payload.Label, seats, active))
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Created(w, t)
}

func (h *Handler) TableUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}
	var payload tablePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	var tableNumber *string
	if trimmed := strings.TrimSpace(payload.TableNumber); trimmed != "" {
		tableNumber = &trimmed
	}

	t, err := scanTable(h.DB.QueryRow(r.Context(), `
		update cafe_tables
		set table_number = coalesce($2, table_number),
		    label = coalesce($3, label),
		    seats = coalesce($4, seats),
		    is_active = coalesce($5, is_active),
		    updated_at = now()
		where id = $1
		returning `+tableColumns+`
	`, id, tableNumber, payload.Label, payload.Seats, payload.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
			return
		}
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, t)
}

// TableReissue hands staff a fresh session token for a table, used when
// regenerating the printed QR code or seating a walk-in manually.
func (h *Handler) TableReissue(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}

	t, err := scanTable(h.DB.QueryRow(r.Context(), `select `+tableColumns+` from cafe_tables where id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
			return
		}
		h.writeCoreError(w, err)
		return
	}
	if !t.IsActive {
		response.Error(w, http.StatusConflict, "TABLE_INACTIVE", "Table is not active")
		return
	}

	token, err := auth.IssueTableToken(t.ID, t.TableNumber, h.Config.TableTokenSecret, h.Config.TableTokenTTL)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}

	if _, err := h.DB.Exec(r.Context(), `update cafe_tables set qr_token_issued_at = now() where id = $1`, t.ID); err != nil {
		h.Logger.Warn("qr issue stamp failed", zap.Int64("tableId", t.ID), zap.Error(err))
	}

	response.Success(w, map[string]any{
		"tableId":      t.ID,
		"tableNumber":  t.TableNumber,
		"sessionToken": token,
		"expiresIn":    int64(h.Config.TableTokenTTL.Seconds()),
	})
}

func (h *Handler) TableDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid table id")
		return
	}
	res, err := h.DB.Exec(r.Context(), `update cafe_tables set is_active = false, updated_at = now() where id = $1`, id)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	if res.RowsAffected() != 1 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Table not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
