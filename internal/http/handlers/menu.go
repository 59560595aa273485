package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"

	"brewtab-cafe-service/internal/utils"
	"brewtab-cafe-service/pkg/response"
)

const menuCacheKey = "cafe:menu:public"

type MenuItem struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Category    string           `json:"category"`
	Price       float64          `json:"price"`
	ImageURL    *string          `json:"imageUrl,omitempty"`
	ThumbURL    *string          `json:"thumbUrl,omitempty"`
	IsActive    bool             `json:"isActive"`
	Ingredients []MenuIngredient `json:"ingredients,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type MenuIngredient struct {
	InventoryItemID int64   `json:"inventoryItemId"`
	ItemName        string  `json:"itemName,omitempty"`
	Unit            string  `json:"unit,omitempty"`
	Quantity        float64 `json:"quantity"`
}

type menuItemPayload struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Category    string   `json:"category"`
	Price       *float64 `json:"price"`
	IsActive    *bool    `json:"isActive"`
}

const menuColumns = `id, name, description, category, price, image_url, thumb_url, is_active, created_at, updated_at`

func scanMenuItem(row pgx.Row) (*MenuItem, error) {
	var (
		m           MenuItem
		description pgtype.Text
		price       pgtype.Numeric
		imageURL    pgtype.Text
		thumbURL    pgtype.Text
	)
	err := row.Scan(&m.ID, &m.Name, &description, &m.Category, &price, &imageURL, &thumbURL, &m.IsActive, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if description.Valid {
		m.Description = &description.String
	}
	m.Price = utils.NumericToFloat64(price)
	if imageURL.Valid {
		m.ImageURL = &imageURL.String
	}
	if thumbURL.Valid {
		m.ThumbURL = &thumbURL.String
	}
	return &m, nil
}

func (h *Handler) loadMenuIngredients(r *http.Request, m *MenuItem) error {
	rows, err := h.DB.Query(r.Context(), `
		select mi.inventory_item_id, i.name, i.unit, mi.quantity
		from menu_item_ingredients mi
		join inventory_items i on i.id = mi.inventory_item_id
		where mi.menu_item_id = $1
		order by mi.inventory_item_id asc
	`, m.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			ing MenuIngredient
			qty pgtype.Numeric
		)
		if err := rows.Scan(&ing.InventoryItemID, &ing.ItemName, &ing.Unit, &qty); err != nil {
			return err
		}
		ing.Quantity = utils.NumericToFloat64(qty)
		m.Ingredients = append(m.Ingredients, ing)
	}
	return rows.Err()
}

func (h *Handler) invalidateMenuCache(r *http.Request) {
	if err := h.Cache.Delete(r.Context(), menuCacheKey); err != nil {
		h.Logger.Warn("menu cache invalidation failed", zap.Error(err))
	}
}

func (h *Handler) MenuList(w http.ResponseWriter, r *http.Request) {
	query := `select ` + menuColumns + ` from menu_items where deleted_at is null`
	args := []any{}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		query += ` and category = $1`
		args = append(args, category)
	}
	query += ` order by category asc, name asc`

	rows, err := h.DB.Query(r.Context(), query, args...)
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
	response.Success(w, out)
}

func (h *Handler) MenuCreate(w http.ResponseWriter, r *http.Request) {
	var payload menuItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	payload.Name = strings.TrimSpace(payload.Name)
	if payload.Name == "" || payload.Price == nil || *payload.Price < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Name and a non-negative price are required")
		return
	}
	if payload.Category == "" {
		payload.Category = "Uncategorized"
	}
	active := true
	if payload.IsActive != nil {
		active = *payload.IsActive
	}

	m, err := scanMenuItem(h.DB.QueryRow(r.Context(), `
		insert into menu_items (name, description, category, price, is_active)
		values ($1, $2, $3, $4, $5)
		returning `+menuColumns+`
	`, payload.Name, payload.Description, payload.Category, *payload.Price, active))
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	h.invalidateMenuCache(r)
	response.Created(w, m)
}

func (h *Handler) MenuDetail(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}
	m, err := scanMenuItem(h.DB.QueryRow(r.Context(), `select `+menuColumns+` from menu_items where id = $1 and deleted_at is null`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
			return
		}
		h.writeCoreError(w, err)
		return
	}
	if err := h.loadMenuIngredients(r, m); err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, m)
}

func (h *Handler) MenuUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}
	var payload menuItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	if payload.Price != nil && *payload.Price < 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Price must not be negative")
		return
	}

	var name *string
	if trimmed := strings.TrimSpace(payload.Name); trimmed != "" {
		name = &trimmed
	}
	var category *string
	if trimmed := strings.TrimSpace(payload.Category); trimmed != "" {
		category = &trimmed
	}

	m, err := scanMenuItem(h.DB.QueryRow(r.Context(), `
		update menu_items
		set name = coalesce($2, name),
		    description = coalesce($3, description),
		    category = coalesce($4, category),
		    price = coalesce($5, price),
		    is_active = coalesce($6, is_active),
		    updated_at = now()
		where id = $1 and deleted_at is null
		returning `+menuColumns+`
	`, id, name, payload.Description, category, payload.Price, payload.IsActive))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
			return
		}
		h.writeCoreError(w, err)
		return
	}
	h.invalidateMenuCache(r)
	response.Success(w, m)
}

func (h *Handler) MenuDelete(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}
	res, err := h.DB.Exec(r.Context(), `
		update menu_items set deleted_at = now(), is_active = false, updated_at = now()
		where id = $1 and deleted_at is null
	`, id)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	if res.RowsAffected() != 1 {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
		return
	}
	h.invalidateMenuCache(r)
	w.WriteHeader(http.StatusNoContent)
}

type ingredientsPayload struct {
	Ingredients []struct {
		InventoryItemID int64   `json:"inventoryItemId"`
		Quantity        float64 `json:"quantity"`
	} `json:"ingredients"`
}

// MenuSetIngredients replaces a menu item's recipe wholesale. The
// recipe is what the order-to-inventory bridge consumes per sold line.
func (h *Handler) MenuSetIngredients(w http.ResponseWriter, r *http.Request) {
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}
	var payload ingredientsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body")
		return
	}
	for _, ing := range payload.Ingredients {
		if ing.InventoryItemID <= 0 || ing.Quantity <= 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Each ingredient needs an inventory item and a positive quantity")
			return
		}
	}

	tx, err := h.DB.Begin(r.Context())
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	defer tx.Rollback(r.Context())

	var exists bool
	if err := tx.QueryRow(r.Context(), `select exists(select 1 from menu_items where id = $1 and deleted_at is null)`, id).Scan(&exists); err != nil {
		h.writeCoreError(w, err)
		return
	}
	if !exists {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
		return
	}

	if _, err := tx.Exec(r.Context(), `delete from menu_item_ingredients where menu_item_id = $1`, id); err != nil {
		h.writeCoreError(w, err)
		return
	}
	for _, ing := range payload.Ingredients {
		var itemExists bool
		if err := tx.QueryRow(r.Context(), `select exists(select 1 from inventory_items where id = $1 and deleted_at is null)`, ing.InventoryItemID).Scan(&itemExists); err != nil {
			h.writeCoreError(w, err)
			return
		}
		if !itemExists {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("Inventory item %d not found", ing.InventoryItemID))
			return
		}
		if _, err := tx.Exec(r.Context(), `
			insert into menu_item_ingredients (menu_item_id, inventory_item_id, quantity)
			values ($1, $2, $3)
			on conflict (menu_item_id, inventory_item_id) do update set quantity = excluded.quantity
		`, id, ing.InventoryItemID, ing.Quantity); err != nil {
			h.writeCoreError(w, err)
			return
		}
	}

	if err := tx.Commit(r.Context()); err != nil {
		h.writeCoreError(w, err)
		return
	}

	m, err := scanMenuItem(h.DB.QueryRow(r.Context(), `select `+menuColumns+` from menu_items where id = $1`, id))
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	if err := h.loadMenuIngredients(r, m); err != nil {
		h.writeCoreError(w, err)
		return
	}
	response.Success(w, m)
}

// MenuUploadImage accepts a multipart photo, normalizes it into display
// and thumbnail JPEGs and stores both on the object store.
func (h *Handler) MenuUploadImage(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		response.Error(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Object storage is not configured")
		return
	}
	id, err := readPathInt64(r, "id")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid menu item id")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.Config.MaxFileSizeBytes)
	if err := r.ParseMultipartForm(h.Config.MaxFileSizeBytes); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "File too large or malformed upload")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing image file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeCoreError(w, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = utils.DetectContentType(data)
	}
	if !utils.ValidateImageContentType(contentType) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unsupported image type")
		return
	}

	m, err := scanMenuItem(h.DB.QueryRow(r.Context(), `select `+menuColumns+` from menu_items where id = $1 and deleted_at is null`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Menu item not found")
			return
		}
		h.writeCoreError(w, err)
		return
	}

	variants, err := utils.BuildMenuImageVariants(data)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Image could not be processed")
		return
	}

	stamp := time.Now().UnixMilli()
	displayURL, err := h.Store.PutObject(r.Context(), fmt.Sprintf("menu/%d/%d.jpg", id, stamp), variants.Display, "image/jpeg")
	if err != nil {
		h.writeCoreError(w, err)
		return
	}
	thumbURL, err := h.Store.PutObject(r.Context(), fmt.Sprintf("menu/%d/%d_thumb.jpg", id, stamp), variants.Thumb, "image/jpeg")
	if err != nil {
		h.writeCoreError(w, err)
		return
	}

	oldImage, oldThumb := m.ImageURL, m.ThumbURL

	m, err = scanMenuItem(h.DB.QueryRow(r.Context(), `
		update menu_items set image_url = $2, thumb_url = $3, updated_at = now()
		where id = $1
		returning `+menuColumns+`
	`, id, displayURL, thumbURL))
	if err != nil {
		h.writeCoreError(w, err)
		return
	}

	for _, old := range []*string{oldImage, oldThumb} {
		if old == nil {
			continue
		}
		if err := h.Store.DeleteURL(r.Context(), *old); err != nil {
			h.Logger.Warn("stale menu image cleanup failed", zap.String("url", *old), zap.Error(err))
		}
	}

	h.invalidateMenuCache(r)
	response.Success(w, m)
}
