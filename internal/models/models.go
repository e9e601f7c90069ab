package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Order struct {
	ID              uuid.UUID     `gorm:"primaryKey"                  json:"id"`
	UserID          uuid.UUID     `gorm:"index;not null"              json:"user_id"`
	TotalAmount     int64         `gorm:"not null"                    json:"total_amount"`
	Status          OrderStatus   `gorm:"index;not null"              json:"status"`
	PaymentStatus   PaymentStatus `gorm:"not null"                    json:"payment_status"`
	ShippingAddress string        `gorm:"not null"                    json:"shipping_address"`
	PaymentMethod   string        `gorm:"not null"                    json:"payment_method"`
	Notes           string        `json:"notes"`
	Items           []OrderItem   `gorm:"foreignKey:OrderID"          json:"items"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (Order) TableName() string {
	return "orders"
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"primaryKey"                  json:"id"`
	OrderID   uuid.UUID `gorm:"index;not null"              json:"order_id"`
	ProductID uuid.UUID `gorm:"not null"                    json:"product_id"`
	Quantity  uint      `gorm:"not null;check:quantity>0"   json:"quantity"`
	UnitPrice int64     `gorm:"not null"                    json:"unit_price"`
	Subtotal  int64     `gorm:"not null"                    json:"subtotal"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (OrderItem) TableName() string {
	return "order_items"
}

type InventoryRecord struct {
	ID              uuid.UUID `gorm:"primaryKey"                  json:"id"`
	ProductID       uuid.UUID `gorm:"uniqueIndex;not null"        json:"product_id"`
	Quantity        uint      `gorm:"not null"                    json:"quantity"`
	ReorderLevel    uint      `gorm:"not null"                    json:"reorder_level"`
	LastRestockedAt time.Time `json:"last_restocked_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (r *InventoryRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (InventoryRecord) TableName() string {
	return "inventory_records"
}
