package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/shop_orders/pkg/authclient"
	middleware "github.com/Skotchmaster/shop_orders/pkg/middleware/auth"
	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler     *OrderHTTP
	InventoryHandler *InventoryHTTP
	JWTSecret        []byte
	AuthClient       *authclient.Client
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := middleware.NewAutoRefreshMiddleware(d.JWTSecret, d.AuthClient)

	orders := e.Group("/order", authMW.RequireAuth)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	ordersAdmin := e.Group("/order", authMW.RequireAdmin)
	ordersAdmin.GET("/status/:status", d.OrderHandler.GetOrdersByStatus)
	ordersAdmin.PATCH("/:id/status", d.OrderHandler.UpdateOrderStatus)
	ordersAdmin.POST("/:id/confirm", d.OrderHandler.ConfirmOrder)
	ordersAdmin.POST("/:id/ship", d.OrderHandler.ShipOrder)
	ordersAdmin.POST("/:id/complete", d.OrderHandler.CompleteOrder)
	ordersAdmin.POST("/:id/pay", d.OrderHandler.MarkOrderPaid)

	inventory := e.Group("/inventory", authMW.RequireAuth)
	inventory.GET("/:product_id", d.InventoryHandler.GetInventory)

	inventoryAdmin := e.Group("/inventory", authMW.RequireAdmin)
	inventoryAdmin.GET("/low", d.InventoryHandler.GetLowStock)
	inventoryAdmin.POST("/:product_id/add", d.InventoryHandler.AddStock)
	inventoryAdmin.POST("/:product_id/remove", d.InventoryHandler.RemoveStock)
	inventoryAdmin.POST("/:product_id/set", d.InventoryHandler.SetStock)
	inventoryAdmin.POST("/:product_id/reserve", d.InventoryHandler.Reserve)
	inventoryAdmin.POST("/:product_id/release", d.InventoryHandler.Release)
}
