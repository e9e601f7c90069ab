package transport

import "github.com/google/uuid"

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CreateOrderRequest struct {
	Items           []CreateOrderItem `json:"items"`
	ShippingAddress string            `json:"shipping_address"`
	PaymentMethod   string            `json:"payment_method"`
	Notes           string            `json:"notes"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type StockRequest struct {
	Quantity int `json:"quantity"`
}
