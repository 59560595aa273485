package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"brewtab-cafe-service/pkg/response"
)

type Supplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ContactName *string   `json:"contactName,omitempty"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Address     *string   `json:"address,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type supplierPayload struct {
	Name        string  `json:"name"`
	ContactName *string `json:"contactName"`
	Email       *string `json:"email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Notes       *string `json:"notes"`
	IsActive    *bool   `json:"isActive"`
}

const supplierColumns = `id, name, contact_name, email, phone, address, notes, is_active, created_at, updated_at`

func scanSupplier(row pgx.Row) (*Supplier, error) {
	var (
		s       Supplier
		contact pgtype.Text
		email   pgtype.Text
		phone   pgtype.Text
		address pgtype.Text
		notes   pgtype.Text
	)
	err := row.Scan(&s.ID, &s.Name, &contact, &email, &phone, &address, &notes, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if contact.Valid {
		s.ContactName = &contact.String
	}
	if email.Valid {
		s.Email = &email.String
	}
	if phone.Valid {
		s.Phone = &phone.String
	}
	if address.Valid {
		s.Address = &address.String
	}
	if notes.Valid {
		s.Notes = &notes.String
	}
	return &s, nil
}

func (h *Handler) SupplierList(w http.ResponseWriter, r *http.Request) {
	query := `select ` + supplierColumns + ` from suppliers`
	args := []any{}
	if strings.EqualFold(r.URL.Query().Get("active"), "true") {
		query += ` where is_active = true`
	}
	query += ` order by name asc`

	rows, err := h.DB.Query(r.Context(), query, args...)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	defer rows.Close()

	out := make([]Supplier, 0)
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			h.writeCoreError(w, err)
			return
		}
		out = append(out, *s)
	}
	if err := rows.Err(); err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, out)
}

func (h *Handler) SupplierCreate(w http.ResponseWriter, r *http.Request) {
	var payload supplierPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name is required")
		return
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	s, err := scanSupplier(h.DB.QueryRow(r.Context(), `
		insert into suppliers (name, contact_name, email, phone, address, notes, is_active)
		values ($1, $2, $3, $4, $5, $6, $7)
		returning `+supplierColumns+`
	`, payload.Name, payload.ContactName, payload.Email, payload.Phone, payload.Address, payload.Notes, active))
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Created(w, s)
}

func (h *Handler) SupplierDetail(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid supplier id")
		return
	}
	s, err := scanSupplier(h.DB.QueryRow(r.Context(), `select `+supplierColumns+` from suppliers where id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Supplier not found")
			return
		}
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, s)
}

func (h *Handler) SupplierUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid supplier id")
		return
	}
	var payload supplierPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}

	var name *string
	if trimmed := strings.TrimSpace(payload.Name); trimmed != "" {
		name = &trimmed
	}

	s, err := scanSupplier(h.DB.QueryRow(r.Context(), `
		update suppliers
		set name = coalesce($2, name),
		    contact_name = coalesce($3, contact_name),
		    email = coalesce($4, email),
		    phone = coalesce($5, phone),
		    address = coalesce($6, address),
		    notes = coalesce($7, notes),
		    is_active = coalesce($8, is_active),
		    updated_at = now()
		where id = $1
		returning `+supplierColumns+`
	`, id, name, payload.ContactName, payload.Email, payload.Phone, payload.Address, payload.Notes, payload.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Supplier not found")
			return
		}
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, s)
}

// SupplierDelete deactivates instead of deleting so past notifications
// and purchase orders keep their supplier reference.
func (h *Handler) SupplierDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid supplier id")
		return
	}
	res, err := h.DB.Exec(r.Context(), `update suppliers set is_active = false, updated_at = now() where id = $1`, id)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	if res.RowsAffected() != 1 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Supplier not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
