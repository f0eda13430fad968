package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/store"
	"github.com/k-cyero-ryu/TeamTaskFlow-sub001/internal/util"
)

type StockItemInput struct {
	Name                 string  `json:"name"`
	Description          string  `json:"description"`
	CostCents            int64   `json:"costCents"`
	Quantity             int     `json:"quantity"`
	LowQuantityThreshold int     `json:"lowQuantityThreshold"`
	AssignedTo           *string `json:"assignedTo"`
}

var errForbidden = domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)

func (s *Service) ListStockItems(ctx context.Context, session Session) ([]store.StockItem, error) {
	perm, err := s.permissionFor(ctx, session, FeatureStock)
	if err != nil {
		return nil, err
	}
	if !perm.CanView {
		return nil, errForbidden
	}
	return s.store.ListStockItems(ctx)
}

func (s *Service) GetStockItem(ctx context.Context, session Session, itemID string) (store.StockItem, error) {
	perm, err := s.permissionFor(ctx, session, FeatureStock)
	if err != nil {
		return store.StockItem{}, err
	}
	if !perm.CanView {
		return store.StockItem{}, errForbidden
	}
	return s.store.GetStockItem(ctx, itemID)
}

func (s *Service) CreateStockItem(ctx context.Context, session Session, input StockItemInput) (store.StockItem, error) {
	perm, err := s.permissionFor(ctx, session, FeatureStock)
	if err != nil {
		return store.StockItem{}, err
	}
	if !perm.CanManage {
		return store.StockItem{}, errForbidden
	}
	item, err := stockItemFromInput(input)
	if err != nil {
		return store.StockItem{}, err
	}
	item.ID = util.NewID("stk")
	if err := s.store.InsertStockItem(ctx, item); err != nil {
		return store.StockItem{}, err
	}
	return s.store.GetStockItem(ctx, item.ID)
}

func (s *Service) UpdateStockItem(ctx context.Context, session Session, itemID string, input StockItemInput) (store.StockItem, error) {
	perm, err := s.permissionFor(ctx, session, FeatureStock)
	if err != nil {
		return store.StockItem{}, err
	}
	if !perm.CanManage {
		return store.StockItem{}, errForbidden
	}
	existing, err := s.store.GetStockItem(ctx, itemID)
	if err != nil {
		return store.StockItem{}, err
	}
	item, err := stockItemFromInput(input)
	if err != nil {
		return store.StockItem{}, err
	}
	item.ID = itemID
	// Quantity only moves through the adjust endpoint so every change
	// leaves a movement row.
	item.Quantity = existing.Quantity
	if err := s.store.UpdateStockItem(ctx, item); err != nil {
		return store.StockItem{}, err
	}
	return s.store.GetStockItem(ctx, itemID)
}

func stockItemFromInput(input StockItemInput) (store.StockItem, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.StockItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name is required", nil)
	}
	if input.Quantity < 0 {
		return store.StockItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "quantity cannot be negative", nil)
	}
	return store.StockItem{
		Name:                 name,
		Description:          input.Description,
		CostCents:            input.CostCents,
		Quantity:             input.Quantity,
		LowQuantityThreshold: input.LowQuantityThreshold,
		AssignedTo:           input.AssignedTo,
	}, nil
}

func (s *Service) DeleteStockItem(ctx context.Context, session Session, itemID string) error {
	perm, err := s.permissionFor(ctx, session, FeatureStock)
	if err != nil {
		return err
	}
	if !perm.CanDelete {
		return errForbidden
	}
	if _, err := s.store.GetStockItem(ctx, itemID); err != nil {
		return err
	}
	return s.store.DeleteStockItem(ctx, itemID)
}

// AdjustStock applies a signed quantity delta and records the movement in
// the same transaction. A delta that would push the quantity negative is
// rejected with 422.
func (s *Service) AdjustStock(ctx context.Context, session Session, itemID string, delta int, reason string) (store.StockItem, error) {
	perm, err := s.permissionFor(ctx, session, FeatureStock)
	if err != nil {
		return store.StockItem{}, err
	}
	if !perm.CanAdjust {
		return store.StockItem{}, errForbidden
	}
	if delta == 0 {
		return store.StockItem{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "delta must be non-zero", nil)
	}

	item, err := s.store.GetStockItem(ctx, itemID)
	if err != nil {
		return store.StockItem{}, err
	}

	newQuantity, err := s.store.AdjustStockQuantity(ctx, store.StockMovement{
		ID:          util.NewID("mov"),
		ItemID:      itemID,
		Delta:       delta,
		Reason:      reason,
		PerformedBy: session.UserID,
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			return store.StockItem{}, domainError(http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK", "Quantity cannot go negative", map[string]any{
				"quantity": item.Quantity,
				"delta":    delta,
			})
		}
		return store.StockItem{}, err
	}

	if item.LowQuantityThreshold > 0 && newQuantity <= item.LowQuantityThreshold && item.Quantity > item.LowQuantityThreshold {
		s.alertLowStock(ctx, item, newQuantity)
	}

	item.Quantity = newQuantity
	return item, nil
}

// alertLowStock fans a stock-alert notification out to every stock manager.
func (s *Service) alertLowStock(ctx context.Context, item store.StockItem, quantity int) {
	managers, err := s.store.ListManagers(ctx, FeatureStock)
	if err != nil {
		return
	}
	s.broadcast(managers, "stock:low", map[string]any{
		"itemId":   item.ID,
		"name":     item.Name,
		"quantity": quantity,
	})
	for _, userID := range managers {
		s.notify(ctx, userID, "stock-alert",
			fmt.Sprintf("Low stock: %s", item.Name),
			"Low stock alert",
			fmt.Sprintf("%s is down to %d units (threshold %d).", item.Name, quantity, item.LowQuantityThreshold),
			"/stock/"+item.ID)
	}
}

func (s *Service) ListStockMovements(ctx context.Context, session Session, itemID string, limit int) ([]store.StockMovement, error) {
	perm, err := s.permissionFor(ctx, session, FeatureStock)
	if err != nil {
		return nil, err
	}
	if !perm.CanView {
		return nil, errForbidden
	}
	if _, err := s.store.GetStockItem(ctx, itemID); err != nil {
		return nil, err
	}
	return s.store.ListStockMovements(ctx, itemID, limit)
}

// Permission records are admin-only to read and write.

func (s *Service) ListPermissions(ctx context.Context, session Session, feature string) ([]store.Permission, error) {
	if !session.IsAdmin {
		return nil, errForbidden
	}
	if _, ok := allowedFeatures[feature]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown feature %q", feature), nil)
	}
	return s.store.ListPermissions(ctx, feature)
}

func (s *Service) SavePermission(ctx context.Context, session Session, perm store.Permission) error {
	if !session.IsAdmin {
		return errForbidden
	}
	if _, ok := allowedFeatures[perm.Feature]; !ok {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown feature %q", perm.Feature), nil)
	}
	if _, err := s.store.GetUserByID(ctx, perm.UserID); err != nil {
		return err
	}
	return s.store.SavePermission(ctx, perm)
}

func (s *Service) DeletePermission(ctx context.Context, session Session, userID, feature string) error {
	if !session.IsAdmin {
		return errForbidden
	}
	if _, ok := allowedFeatures[feature]; !ok {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown feature %q", feature), nil)
	}
	return s.store.DeletePermission(ctx, userID, feature)
}
