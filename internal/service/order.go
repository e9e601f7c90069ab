package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Skotchmaster/shop_orders/internal/clients"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserDirectory and ProductCatalog are the two collaborators the workflow
// consumes. Production wiring uses the HTTP clients; tests use stubs.
type UserDirectory interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*clients.User, error)
}

type ProductCatalog interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*clients.Product, error)
}

// OrderService coordinates order creation and cancellation. It is the only
// place allowed to touch orders and stock inside one transaction.
type OrderService struct {
	Repo    *repo.GormRepo
	Users   UserDirectory
	Catalog ProductCatalog
}

func (svc *OrderService) CreateOrder(ctx context.Context, userID uuid.UUID, req transport.CreateOrderRequest) (*models.Order, error) {
	if _, err := svc.Users.GetUser(ctx, userID); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if len(req.Items) == 0 {
		return nil, fmt.Errorf("%w: items required", ErrValidation)
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		return nil, fmt.Errorf("%w: shipping_address required", ErrValidation)
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return nil, fmt.Errorf("%w: payment_method required", ErrValidation)
	}
	for i := range req.Items {
		if req.Items[i].ProductID == uuid.Nil {
			return nil, fmt.Errorf("%w: product_id required", ErrValidation)
		}
		if req.Items[i].Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
		}
	}

	// Prices come from the catalog, never from the client, and are snapshotted
	// into the lines so later price changes leave the order untouched.
	var total int64
	items := make([]models.OrderItem, 0, len(req.Items))
	for i := range req.Items {
		product, err := svc.Catalog.GetProduct(ctx, req.Items[i].ProductID)
		if err != nil {
			if errors.Is(err, clients.ErrNotFound) {
				return nil, fmt.Errorf("%w: product %s", ErrNotFound, req.Items[i].ProductID)
			}
			return nil, fmt.Errorf("product lookup: %w", err)
		}

		ok, err := svc.Repo.HasAvailable(ctx, product.ID, uint(req.Items[i].Quantity))
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: insufficient stock for product %s", ErrValidation, product.ID)
		}

		subtotal := product.Price * int64(req.Items[i].Quantity)
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  uint(req.Items[i].Quantity),
			UnitPrice: product.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}

	order := &models.Order{
		UserID:          userID,
		TotalAmount:     total,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusUnpaid,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
		Items:           items,
	}

	// The pre-check above is only a fast rejection; the transaction's atomic
	// reserve per line is what actually prevents overselling.
	if err := svc.Repo.CreateOrderTx(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (svc *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := svc.Repo.GetOrder(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
	}
	return order, err
}

func (svc *OrderService) GetOrdersByUser(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return svc.Repo.ListOrdersByUser(ctx, userID, offset, limit)
}

func (svc *OrderService) GetOrdersByStatus(ctx context.Context, status models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	if !models.IsValidStatus(status) {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return svc.Repo.ListOrdersByStatus(ctx, status, offset, limit)
}

func (svc *OrderService) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	if !models.IsValidStatus(next) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}

	order, err := svc.Repo.TransitionOrder(ctx, orderID, next)
	if err != nil {
		var tErr *models.TransitionError
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		case errors.As(err, &tErr):
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, tErr)
		case errors.Is(err, repo.ErrConflict):
			return nil, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidState, orderID)
		}
		return nil, err
	}
	return order, nil
}

// Confirm, Ship and Complete are sugar over UpdateOrderStatus. Each asserts
// the single expected predecessor before delegating, so callers get a precise
// error instead of a generic transition failure.
func (svc *OrderService) Confirm(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return svc.advance(ctx, orderID, models.OrderStatusPending, models.OrderStatusProcessing)
}

func (svc *OrderService) Ship(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return svc.advance(ctx, orderID, models.OrderStatusProcessing, models.OrderStatusShipped)
}

func (svc *OrderService) Complete(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return svc.advance(ctx, orderID, models.OrderStatusShipped, models.OrderStatusDelivered)
}

func (svc *OrderService) advance(ctx context.Context, orderID uuid.UUID, expected, next models.OrderStatus) (*models.Order, error) {
	order, err := svc.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != expected {
		return nil, fmt.Errorf("%w: order is %s, expected %s", ErrInvalidState, order.Status, expected)
	}
	return svc.UpdateOrderStatus(ctx, orderID, next)
}

func (svc *OrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := svc.Repo.CancelOrderTx(ctx, orderID)
	if err != nil {
		var tErr *models.TransitionError
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		case errors.As(err, &tErr):
			return nil, fmt.Errorf("%w: %v", ErrInvalidState, tErr)
		case errors.Is(err, repo.ErrConflict):
			return nil, fmt.Errorf("%w: order %s changed concurrently", ErrInvalidState, orderID)
		}
		return nil, err
	}
	return order, nil
}

func (svc *OrderService) MarkPaid(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := svc.Repo.MarkOrderPaid(ctx, orderID)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		case errors.Is(err, repo.ErrConflict):
			return nil, fmt.Errorf("%w: order %s is not unpaid", ErrInvalidState, orderID)
		}
		return nil, err
	}
	return order, nil
}
