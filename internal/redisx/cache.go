package redisx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyOrder = "order:%s"

var TTLOrderCache = 5 * time.Minute

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// OrderCache is a read-path cache for order lookups. Writes to an order go
// through Invalidate, never through the cache; the reservation path does not
// touch it at all.
type OrderCache struct {
	RDB *redis.Client
}

func (c *OrderCache) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	data, err := c.RDB.Get(ctx, fmt.Sprintf(keyOrder, orderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var order models.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *OrderCache) Set(ctx context.Context, order *models.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.RDB.Set(ctx, fmt.Sprintf(keyOrder, order.ID), data, TTLOrderCache).Err()
}

func (c *OrderCache) Invalidate(ctx context.Context, orderID uuid.UUID) error {
	return c.RDB.Del(ctx, fmt.Sprintf(keyOrder, orderID)).Err()
}
