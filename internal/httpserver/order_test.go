package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Skotchmaster/shop_orders/internal/clients"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/internal/service"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubUsers struct{ known map[uuid.UUID]bool }

func (s *stubUsers) GetUser(_ context.Context, userID uuid.UUID) (*clients.User, error) {
	if !s.known[userID] {
		return nil, clients.ErrNotFound
	}
	return &clients.User{ID: userID, Username: "tester", Role: "user"}, nil
}

type stubCatalog struct{ products map[uuid.UUID]*clients.Product }

func (s *stubCatalog) GetProduct(_ context.Context, productID uuid.UUID) (*clients.Product, error) {
	if p, ok := s.products[productID]; ok {
		return p, nil
	}
	return nil, clients.ErrNotFound
}

type recordingProducer struct {
	mu     sync.Mutex
	events []map[string]any
}

func (p *recordingProducer) PublishEvent(_ context.Context, _, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event.(map[string]any))
	return nil
}

type handlerEnv struct {
	Handler  *OrderHTTP
	Repo     *repo.GormRepo
	Producer *recordingProducer
	Catalog  *stubCatalog
	UserID   uuid.UUID
}

func newHandlerEnv(t *testing.T) *handlerEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: gives every connection its own database
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.InventoryRecord{}))

	userID := uuid.New()
	r := &repo.GormRepo{DB: db}
	catalog := &stubCatalog{products: map[uuid.UUID]*clients.Product{}}
	producer := &recordingProducer{}

	svc := &service.OrderService{
		Repo:    r,
		Users:   &stubUsers{known: map[uuid.UUID]bool{userID: true}},
		Catalog: catalog,
	}

	return &handlerEnv{
		Handler:  &OrderHTTP{Svc: svc, Producer: producer},
		Repo:     r,
		Producer: producer,
		Catalog:  catalog,
		UserID:   userID,
	}
}

func (env *handlerEnv) addProduct(t *testing.T, price int64, stock uint) uuid.UUID {
	t.Helper()
	id := uuid.New()
	env.Catalog.products[id] = &clients.Product{ID: id, Name: "product", Price: price}
	require.NoError(t, env.Repo.DB.Create(&models.InventoryRecord{
		ProductID: id,
		Quantity:  stock,
	}).Error)
	return id
}

func (env *handlerEnv) request(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", env.UserID.String())
	c.Set("role", "user")
	return c, rec
}

func TestOrderHTTP_CreateOrder(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	productID := env.addProduct(t, 500, 5)

	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":2}],"shipping_address":"1 Main Street","payment_method":"card"}`, productID)
	c, rec := env.request(http.MethodPost, "/order", body)

	require.NoError(t, env.Handler.CreateOrder(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.EqualValues(t, 1000, order.TotalAmount)

	require.Len(t, env.Producer.events, 1)
	assert.Equal(t, "order_created", env.Producer.events[0]["type"])
}

func TestOrderHTTP_CreateOrder_InsufficientStock(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	productID := env.addProduct(t, 500, 1)

	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":3}],"shipping_address":"1 Main Street","payment_method":"card"}`, productID)
	c, _ := env.request(http.MethodPost, "/order", body)

	err := env.Handler.CreateOrder(c)
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	assert.Empty(t, env.Producer.events)
}

func TestOrderHTTP_CreateOrder_Unauthorized(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	c, _ := env.request(http.MethodPost, "/order", `{"items":[]}`)
	c.Set("user_id", nil)

	err := env.Handler.CreateOrder(c)
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestOrderHTTP_GetOrder_NotFound(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	c, _ := env.request(http.MethodGet, "/order/"+uuid.NewString(), "")
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	err := env.Handler.GetOrder(c)
	require.Error(t, err)

	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
}

func TestOrderHTTP_CancelOrder_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	productID := env.addProduct(t, 500, 5)

	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":1}],"shipping_address":"1 Main Street","payment_method":"card"}`, productID)
	c, rec := env.request(http.MethodPost, "/order", body)
	require.NoError(t, env.Handler.CreateOrder(c))

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	// another user's cancel attempt reads like a missing order
	c, _ = env.request(http.MethodPost, "/order/"+order.ID.String()+"/cancel", "")
	c.Set("user_id", uuid.NewString())
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())

	err := env.Handler.CancelOrder(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)

	// the owner succeeds and the reserved unit goes back on the shelf
	c, rec = env.request(http.MethodPost, "/order/"+order.ID.String()+"/cancel", "")
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())
	require.NoError(t, env.Handler.CancelOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var cancelled models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cancelled))
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	var inv models.InventoryRecord
	require.NoError(t, env.Repo.DB.Where("product_id = ?", productID).First(&inv).Error)
	assert.EqualValues(t, 5, inv.Quantity)
}

func TestOrderHTTP_GetOrder_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	productID := env.addProduct(t, 500, 5)

	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":1}],"shipping_address":"1 Main Street","payment_method":"card"}`, productID)
	c, rec := env.request(http.MethodPost, "/order", body)
	require.NoError(t, env.Handler.CreateOrder(c))

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	// another user's read reads like a missing order
	c, _ = env.request(http.MethodGet, "/order/"+order.ID.String(), "")
	c.Set("user_id", uuid.NewString())
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())

	err := env.Handler.GetOrder(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)

	// the owner sees it
	c, rec = env.request(http.MethodGet, "/order/"+order.ID.String(), "")
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())
	require.NoError(t, env.Handler.GetOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	// and so does an admin
	c, rec = env.request(http.MethodGet, "/order/"+order.ID.String(), "")
	c.Set("user_id", uuid.NewString())
	c.Set("role", "admin")
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())
	require.NoError(t, env.Handler.GetOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrderHTTP_StatusTransitionConflict(t *testing.T) {
	t.Parallel()

	env := newHandlerEnv(t)
	productID := env.addProduct(t, 500, 5)

	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":1}],"shipping_address":"1 Main Street","payment_method":"card"}`, productID)
	c, rec := env.request(http.MethodPost, "/order", body)
	require.NoError(t, env.Handler.CreateOrder(c))

	var order models.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))

	// PENDING cannot ship
	c, _ = env.request(http.MethodPost, "/order/"+order.ID.String()+"/ship", "")
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())

	err := env.Handler.ShipOrder(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, httpErr.Code)

	c, rec = env.request(http.MethodPost, "/order/"+order.ID.String()+"/confirm", "")
	c.SetParamNames("id")
	c.SetParamValues(order.ID.String())
	require.NoError(t, env.Handler.ConfirmOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
