package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/mykafka"
	"github.com/Skotchmaster/shop_orders/internal/redisx"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	"github.com/Skotchmaster/shop_orders/internal/util"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EventPublisher is what the handlers need from kafka. Nil disables publishing.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type OrderHTTP struct {
	Svc      *service.OrderService
	Producer EventPublisher
	Cache    *redisx.OrderCache
}

func (h *OrderHTTP) GetID(c echo.Context) (uuid.UUID, error) {
	v := c.Get("user_id")
	s, ok := v.(string)
	if !ok || s == "" {
		return uuid.Nil, errors.New("unauthorized")
	}

	userID, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, errors.New("unauthorized")
	}

	return userID, nil
}

func (h *OrderHTTP) isAdmin(c echo.Context) bool {
	role, ok := c.Get("role").(string)
	return ok && role == "admin"
}

func (h *OrderHTTP) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicOrderEvents, fmt.Sprint(event["orderID"]), event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka_publish_error", "error", err)
	}
}

func (h *OrderHTTP) invalidate(c echo.Context, orderID uuid.UUID) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(c.Request().Context(), orderID); err != nil {
		logging.FromContext(c.Request().Context()).Warn("cache_invalidate_error", "error", err)
	}
}

// svcError maps the business error taxonomy onto HTTP statuses. Storage
// internals never leak: anything unknown becomes a generic 500.
func svcError(l *slog.Logger, op string, err error) error {
	var stockErr *repo.StockError
	switch {
	case errors.As(err, &stockErr):
		l.Warn(op+"_error", "status", 409, "reason", "insufficient stock",
			"product_id", stockErr.ProductID, "requested", stockErr.Requested, "available", stockErr.Available)
		return echo.NewHTTPError(http.StatusConflict, stockErr.Error())
	case errors.Is(err, service.ErrValidation):
		l.Warn(op+"_error", "status", 400, "reason", "validation", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(op+"_error", "status", 404, "reason", "not found", "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		l.Warn(op+"_error", "status", 409, "reason", "invalid order state", "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		l.Error(op+"_error", "status", 500, "reason", "internal error", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	userID, err := h.GetID(c)
	if err != nil {
		l.Warn("create_order_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_order_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.CreateOrder(ctx, userID, req)
	if err != nil {
		return svcError(l, "create_order", err)
	}

	h.publish(c, map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  order.UserID,
		"total":   order.TotalAmount,
	})
	l.Info("create_order_success", "order_id", order.ID)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	userID, err := h.GetID(c)
	if err != nil {
		l.Warn("get_order_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("get_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	if h.Cache != nil {
		if cached, err := h.Cache.Get(ctx, orderID); err == nil && cached != nil {
			if cached.UserID != userID && !h.isAdmin(c) {
				l.Warn("get_order_error", "status", 404, "reason", "order belongs to another user")
				return echo.NewHTTPError(http.StatusNotFound, "order not found")
			}
			return c.JSON(http.StatusOK, cached)
		}
	}

	order, err := h.Svc.GetOrder(ctx, orderID)
	if err != nil {
		return svcError(l, "get_order", err)
	}
	if order.UserID != userID && !h.isAdmin(c) {
		l.Warn("get_order_error", "status", 404, "reason", "order belongs to another user")
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	if h.Cache != nil {
		if err := h.Cache.Set(ctx, order); err != nil {
			l.Warn("cache_set_error", "error", err)
		}
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	userID, err := h.GetID(c)
	if err != nil {
		l.Warn("get_orders_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.GetOrdersByUser(ctx, userID, offset, limit)
	if err != nil {
		return svcError(l, "get_orders", err)
	}

	return c.JSON(http.StatusOK, pagedResponse(orders, page, offset, limit, total))
}

func (h *OrderHTTP) GetOrdersByStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders_by_status")

	status := models.OrderStatus(c.Param("status"))

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.GetOrdersByStatus(ctx, status, offset, limit)
	if err != nil {
		return svcError(l, "get_orders_by_status", err)
	}

	return c.JSON(http.StatusOK, pagedResponse(orders, page, offset, limit, total))
}

func (h *OrderHTTP) UpdateOrderStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_order_status")

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("update_order_status_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_order_status_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	order, err := h.Svc.UpdateOrderStatus(ctx, orderID, models.OrderStatus(req.Status))
	if err != nil {
		return svcError(l, "update_order_status", err)
	}

	h.invalidate(c, orderID)
	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"orderID": order.ID,
		"status":  order.Status,
	})
	l.Info("update_order_status_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) ConfirmOrder(c echo.Context) error {
	return h.transition(c, "order.confirm_order", h.Svc.Confirm)
}

func (h *OrderHTTP) ShipOrder(c echo.Context) error {
	return h.transition(c, "order.ship_order", h.Svc.Ship)
}

func (h *OrderHTTP) CompleteOrder(c echo.Context) error {
	return h.transition(c, "order.complete_order", h.Svc.Complete)
}

func (h *OrderHTTP) MarkOrderPaid(c echo.Context) error {
	return h.transition(c, "order.mark_order_paid", h.Svc.MarkPaid)
}

func (h *OrderHTTP) transition(c echo.Context, op string, fn func(context.Context, uuid.UUID) (*models.Order, error)) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", op)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn(op+"_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	order, err := fn(ctx, orderID)
	if err != nil {
		return svcError(l, op, err)
	}

	h.invalidate(c, orderID)
	h.publish(c, map[string]any{
		"type":    "order_status_updated",
		"orderID": order.ID,
		"status":  order.Status,
	})
	l.Info(op+"_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	userID, err := h.GetID(c)
	if err != nil {
		l.Warn("cancel_order_error", "status", 401, "reason", "unauthorized", "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("cancel_order_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "id is not a uuid")
	}

	existing, err := h.Svc.GetOrder(ctx, orderID)
	if err != nil {
		return svcError(l, "cancel_order", err)
	}
	if existing.UserID != userID && !h.isAdmin(c) {
		l.Warn("cancel_order_error", "status", 404, "reason", "order belongs to another user")
		return echo.NewHTTPError(http.StatusNotFound, "order not found")
	}

	order, err := h.Svc.Cancel(ctx, orderID)
	if err != nil {
		return svcError(l, "cancel_order", err)
	}

	h.invalidate(c, orderID)
	h.publish(c, map[string]any{
		"type":    "order_cancelled",
		"orderID": order.ID,
		"userID":  order.UserID,
	})
	l.Info("cancel_order_success", "order_id", order.ID)
	return c.JSON(http.StatusOK, order)
}

func pagedResponse(data any, page, offset, limit int, total int64) map[string]any {
	return map[string]any{
		"data": data,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	}
}
