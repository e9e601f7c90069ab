package service

import (
	"context"
	"testing"
	"time"

	"github.com/Skotchmaster/shop_orders/internal/clients"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRepo(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	// in-memory sqlite gives every connection its own database, so the pool
	// must stay at a single connection
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.InventoryRecord{}))

	return &repo.GormRepo{DB: db}
}

func seedInventory(t *testing.T, r *repo.GormRepo, productID uuid.UUID, qty, reorder uint) {
	t.Helper()
	rec := models.InventoryRecord{
		ProductID:       productID,
		Quantity:        qty,
		ReorderLevel:    reorder,
		LastRestockedAt: time.Now().UTC(),
	}
	require.NoError(t, r.DB.Create(&rec).Error)
}

type stubUsers struct {
	users map[uuid.UUID]*clients.User
}

func (s *stubUsers) GetUser(_ context.Context, userID uuid.UUID) (*clients.User, error) {
	if u, ok := s.users[userID]; ok {
		return u, nil
	}
	return nil, clients.ErrNotFound
}

type stubCatalog struct {
	products map[uuid.UUID]*clients.Product
}

func (s *stubCatalog) GetProduct(_ context.Context, productID uuid.UUID) (*clients.Product, error) {
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, clients.ErrNotFound
}

type orderTestEnv struct {
	Repo    *repo.GormRepo
	Svc     *OrderService
	Inv     *InventoryService
	Users   *stubUsers
	Catalog *stubCatalog
	UserID  uuid.UUID
}

func newOrderTestEnv(t *testing.T) *orderTestEnv {
	t.Helper()

	r := newTestRepo(t)
	userID := uuid.New()

	users := &stubUsers{users: map[uuid.UUID]*clients.User{
		userID: {ID: userID, Username: "customer", Role: "user"},
	}}
	catalog := &stubCatalog{products: map[uuid.UUID]*clients.Product{}}

	return &orderTestEnv{
		Repo:    r,
		Svc:     &OrderService{Repo: r, Users: users, Catalog: catalog},
		Inv:     &InventoryService{Repo: r},
		Users:   users,
		Catalog: catalog,
		UserID:  userID,
	}
}

// addProduct registers a product in the stub catalog and seeds its inventory.
func (env *orderTestEnv) addProduct(t *testing.T, price int64, stock uint) uuid.UUID {
	t.Helper()
	id := uuid.New()
	env.Catalog.products[id] = &clients.Product{ID: id, Name: "product", Price: price}
	seedInventory(t, env.Repo, id, stock, 2)
	return id
}
