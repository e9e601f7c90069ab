package repo

import (
	"context"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateOrderTx persists the order header and then, per line in list order,
// the line row followed by the stock reservation. Any failed reservation
// rolls back the whole attempt.
func (r *GormRepo) CreateOrderTx(ctx context.Context, order *models.Order) error {
	items := order.Items
	order.Items = nil

	err := r.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
			if err := reserveStock(tx, items[i].ProductID, items[i].Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	order.Items = items
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", orderID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

func (r *GormRepo) ListOrdersByStatus(ctx context.Context, status models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("status = ?", status)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var orders []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// TransitionOrder loads, validates and persists a status change in one
// transaction. The guard on the previous status turns a lost race into
// ErrConflict instead of a silent overwrite.
func (r *GormRepo) TransitionOrder(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	var order models.Order
	err := r.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			return err
		}
		if err := models.ValidateTransition(order.Status, next); err != nil {
			return err
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Update("status", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return tx.Preload("Items").Where("id = ?", orderID).First(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// CancelOrderTx releases every line's reservation and marks the order
// CANCELLED, all or nothing. A paid order is flipped to REFUNDED as well.
func (r *GormRepo) CancelOrderTx(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			return err
		}
		if err := models.ValidateTransition(order.Status, models.OrderStatusCancelled); err != nil {
			return err
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", orderID).Order("id ASC").Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if err := releaseStock(tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		updates := map[string]any{"status": models.OrderStatusCancelled}
		if order.PaymentStatus == models.PaymentStatusPaid {
			updates["payment_status"] = models.PaymentStatusRefunded
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return tx.Preload("Items").Where("id = ?", orderID).First(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// MarkOrderPaid flips an unpaid order to PAID. Payment capture itself lives
// with the payment service; this only records the outcome.
func (r *GormRepo) MarkOrderPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.tx(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", orderID).First(&order).Error; err != nil {
			return err
		}
		if order.PaymentStatus != models.PaymentStatusUnpaid {
			return ErrConflict
		}

		res := tx.Model(&models.Order{}).
			Where("id = ? AND payment_status = ?", orderID, models.PaymentStatusUnpaid).
			Update("payment_status", models.PaymentStatusPaid)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}

		return tx.Preload("Items").Where("id = ?", orderID).First(&order).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}
