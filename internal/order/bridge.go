package order

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"brewtab-cafe-service/internal/inventory"
)

type ingredientRequirement struct {
	menuItemID      int64
	inventoryItemID int64
	quantity        float64
}

// consumeInventory is the order-to-inventory bridge: every recipe
// ingredient of every line becomes one usage adjustment. Shortages and
// missing inventory records are logged and skipped so the order itself
// still completes; each adjustment stays individually atomic.
func (s *Service) consumeInventory(ctx context.Context, o *Order, performedBy string) (*ConsumptionReport, error) {
	requirements, err := s.collectRequirements(ctx, o)
	if err != nil {
		return nil, err
	}

	report := &ConsumptionReport{
		Applied: make([]AppliedConsumption, 0, len(requirements)),
		Skipped: make([]SkippedConsumption, 0),
	}

	for _, req := range requirements {
		menuItemID := req.menuItemID
		orderID := o.ID
		result, err := s.Inventory.AdjustQuantity(ctx, inventory.AdjustParams{
			ItemID:      req.inventoryItemID,
			Type:        inventory.TypeUsage,
			Quantity:    req.quantity,
			MenuItemID:  &menuItemID,
			OrderID:     &orderID,
			PerformedBy: performedBy,
		})
		if err != nil {
			if errors.Is(err, inventory.ErrInsufficientStock) || errors.Is(err, inventory.ErrNotFound) {
				s.Logger.Warn("order consumption skipped",
					zap.String("orderNumber", o.OrderNumber),
					zap.Int64("inventoryItemId", req.inventoryItemID),
					zap.Int64("menuItemId", req.menuItemID),
					zap.Float64("quantity", req.quantity),
					zap.Error(err))
				report.Skipped = append(report.Skipped, SkippedConsumption{
					InventoryItemID: req.inventoryItemID,
					MenuItemID:      req.menuItemID,
					Quantity:        req.quantity,
					Reason:          err.Error(),
				})
				continue
			}
			return nil, err
		}
		report.Applied = append(report.Applied, AppliedConsumption{
			InventoryItemID: req.inventoryItemID,
			MenuItemID:      req.menuItemID,
			Quantity:        req.quantity,
			NewQuantity:     result.Item.Quantity,
		})
	}
	return report, nil
}

// collectRequirements resolves each line's recipe and multiplies it by
// the line quantity, merging duplicates per (menu item, ingredient).
func (s *Service) collectRequirements(ctx context.Context, o *Order) ([]ingredientRequirement, error) {
	lineQty := make(map[int64]int32, len(o.Items))
	menuIDs := make([]int64, 0, len(o.Items))
	for _, line := range o.Items {
		if _, seen := lineQty[line.MenuItemID]; !seen {
			menuIDs = append(menuIDs, line.MenuItemID)
		}
		lineQty[line.MenuItemID] += line.Quantity
	}
	if len(menuIDs) == 0 {
		return nil, nil
	}

	rows, err := s.DB.Query(ctx, `
		select menu_item_id, inventory_item_id, quantity
		from menu_item_ingredients
		where menu_item_id = any($1)
		order by menu_item_id, inventory_item_id
	`, menuIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ingredientRequirement, 0)
	for rows.Next() {
		var req ingredientRequirement
		if err := rows.Scan(&req.menuItemID, &req.inventoryItemID, &req.quantity); err != nil {
			return nil, err
		}
		req.quantity *= float64(lineQty[req.menuItemID])
		if req.quantity > 0 {
			out = append(out, req)
		}
	}
	return out, rows.Err()
}
