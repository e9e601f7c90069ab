package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (r *GormRepo) GetInventory(ctx context.Context, productID uuid.UUID) (*models.InventoryRecord, error) {
	var rec models.InventoryRecord
	if err := r.DB.WithContext(ctx).Where("product_id = ?", productID).First(&rec).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}

// HasAvailable reports whether a record exists with at least qty in stock.
// A missing record is "not available", not an error.
func (r *GormRepo) HasAvailable(ctx context.Context, productID uuid.UUID, qty uint) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormRepo) ListBelowReorderLevel(ctx context.Context) ([]models.InventoryRecord, error) {
	var recs []models.InventoryRecord
	err := r.DB.WithContext(ctx).
		Where("quantity < reorder_level").
		Order("product_id ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}
	return recs, nil
}

func (r *GormRepo) ReserveStock(ctx context.Context, productID uuid.UUID, qty uint) (*models.InventoryRecord, error) {
	if err := reserveStock(r.DB.WithContext(ctx), productID, qty); err != nil {
		return nil, err
	}
	return r.GetInventory(ctx, productID)
}

func (r *GormRepo) ReleaseStock(ctx context.Context, productID uuid.UUID, qty uint) (*models.InventoryRecord, error) {
	if err := releaseStock(r.DB.WithContext(ctx), productID, qty); err != nil {
		return nil, err
	}
	return r.GetInventory(ctx, productID)
}

func (r *GormRepo) AddStock(ctx context.Context, productID uuid.UUID, qty uint) (*models.InventoryRecord, error) {
	now := time.Now().UTC()
	res := r.DB.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"quantity":          gorm.Expr("quantity + ?", qty),
			"last_restocked_at": now,
			"updated_at":        now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetInventory(ctx, productID)
}

func (r *GormRepo) SetStock(ctx context.Context, productID uuid.UUID, qty uint) (*models.InventoryRecord, error) {
	res := r.DB.WithContext(ctx).
		Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"quantity":   qty,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.GetInventory(ctx, productID)
}

// reserveStock is the single conditional decrement everything rides on: the
// guard and the update are one statement, so two concurrent callers can never
// both take the last units.
func reserveStock(db *gorm.DB, productID uuid.UUID, qty uint) error {
	res := db.Model(&models.InventoryRecord{}).
		Where("product_id = ? AND quantity >= ?", productID, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var rec models.InventoryRecord
		if err := db.Where("product_id = ?", productID).First(&rec).Error; err != nil {
			return err
		}
		return &StockError{ProductID: productID, Requested: qty, Available: rec.Quantity}
	}
	return nil
}

func releaseStock(db *gorm.DB, productID uuid.UUID, qty uint) error {
	res := db.Model(&models.InventoryRecord{}).
		Where("product_id = ?", productID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
