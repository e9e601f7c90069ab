package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrValidation   = errors.New("validation")          // 400
	ErrNotFound     = errors.New("not found")           // 404
	ErrInvalidState = errors.New("invalid order state") // 409
)

// InventoryService is the single authority over stock counters. Every
// mutation ends up as one conditional statement in the repo, so counters stay
// non-negative under any interleaving of callers.
type InventoryService struct {
	Repo *repo.GormRepo
}

func (svc *InventoryService) GetInventory(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	rec, err := svc.Repo.GetInventory(ctx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no inventory for product %s", ErrNotFound, productID)
	}
	return rec, err
}

func (svc *InventoryService) HasAvailable(ctx context.Context, productID uuid.UUID, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	return svc.Repo.HasAvailable(ctx, productID, uint(quantity))
}

func (svc *InventoryService) Reserve(ctx context.Context, productID uuid.UUID, quantity int) (*models.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	rec, err := svc.Repo.ReserveStock(ctx, productID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no inventory for product %s", ErrNotFound, productID)
	}
	return rec, err
}

func (svc *InventoryService) Release(ctx context.Context, productID uuid.UUID, quantity int) (*models.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	rec, err := svc.Repo.ReleaseStock(ctx, productID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no inventory for product %s", ErrNotFound, productID)
	}
	return rec, err
}

func (svc *InventoryService) AddStock(ctx context.Context, productID uuid.UUID, quantity int) (*models.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	rec, err := svc.Repo.AddStock(ctx, productID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no inventory for product %s", ErrNotFound, productID)
	}
	return rec, err
}

// RemoveStock is the administrative counterpart of Reserve: same conditional
// decrement, same failure mode when stock is short.
func (svc *InventoryService) RemoveStock(ctx context.Context, productID uuid.UUID, quantity int) (*models.InventoryRecord, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	rec, err := svc.Repo.ReserveStock(ctx, productID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no inventory for product %s", ErrNotFound, productID)
	}
	return rec, err
}

func (svc *InventoryService) SetStock(ctx context.Context, productID uuid.UUID, quantity int) (*models.InventoryRecord, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}
	rec, err := svc.Repo.SetStock(ctx, productID, uint(quantity))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no inventory for product %s", ErrNotFound, productID)
	}
	return rec, err
}

func (svc *InventoryService) ListBelowReorderLevel(ctx context.Context) ([]models.InventoryRecord, error) {
	return svc.Repo.ListBelowReorderLevel(ctx)
}
