package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/mykafka"
	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/Skotchmaster/shop_orders/internal/transport"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type InventoryHTTP struct {
	Svc      *service.InventoryService
	Producer EventPublisher
}

func (h *InventoryHTTP) publish(c echo.Context, event map[string]any) {
	if h.Producer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, mykafka.TopicStockEvents, c.Param("product_id"), event); err != nil {
		logging.FromContext(c.Request().Context()).Warn("kafka_publish_error", "error", err)
	}
}

func (h *InventoryHTTP) GetInventory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "inventory.get_inventory")

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		l.Warn("get_inventory_error", "status", 400, "reason", "product_id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is not a uuid")
	}

	rec, err := h.Svc.GetInventory(ctx, productID)
	if err != nil {
		return svcError(l, "get_inventory", err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *InventoryHTTP) GetLowStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "inventory.get_low_stock")

	recs, err := h.Svc.ListBelowReorderLevel(ctx)
	if err != nil {
		return svcError(l, "get_low_stock", err)
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *InventoryHTTP) AddStock(c echo.Context) error {
	return h.mutate(c, "inventory.add_stock", "stock_added", h.Svc.AddStock)
}

func (h *InventoryHTTP) RemoveStock(c echo.Context) error {
	return h.mutate(c, "inventory.remove_stock", "stock_removed", h.Svc.RemoveStock)
}

func (h *InventoryHTTP) SetStock(c echo.Context) error {
	return h.mutate(c, "inventory.set_stock", "stock_set", h.Svc.SetStock)
}

func (h *InventoryHTTP) Reserve(c echo.Context) error {
	return h.mutate(c, "inventory.reserve", "stock_reserved", h.Svc.Reserve)
}

func (h *InventoryHTTP) Release(c echo.Context) error {
	return h.mutate(c, "inventory.release", "stock_released", h.Svc.Release)
}

func (h *InventoryHTTP) mutate(c echo.Context, op, eventType string, fn func(context.Context, uuid.UUID, int) (*models.InventoryRecord, error)) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", op)

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		l.Warn(op+"_error", "status", 400, "reason", "product_id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "product_id is not a uuid")
	}

	var req transport.StockRequest
	if err := c.Bind(&req); err != nil {
		l.Warn(op+"_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	rec, err := fn(ctx, productID, req.Quantity)
	if err != nil {
		return svcError(l, op, err)
	}

	h.publish(c, map[string]any{
		"type":      eventType,
		"productID": rec.ProductID,
		"quantity":  req.Quantity,
		"in_stock":  rec.Quantity,
	})
	l.Info(op+"_success", "product_id", rec.ProductID, "in_stock", rec.Quantity)
	return c.JSON(http.StatusOK, rec)
}
