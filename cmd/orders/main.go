package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/shop_orders/pkg/authclient"
	pkgdb "github.com/Skotchmaster/shop_orders/pkg/db"
	"github.com/Skotchmaster/shop_orders/pkg/logging"
	loggingmw "github.com/Skotchmaster/shop_orders/pkg/middleware/logging"

	"github.com/Skotchmaster/shop_orders/internal/clients"
	orderscfg "github.com/Skotchmaster/shop_orders/internal/config"
	"github.com/Skotchmaster/shop_orders/internal/httpserver"
	"github.com/Skotchmaster/shop_orders/internal/models"
	"github.com/Skotchmaster/shop_orders/internal/mykafka"
	"github.com/Skotchmaster/shop_orders/internal/redisx"
	"github.com/Skotchmaster/shop_orders/internal/repo"
	"github.com/Skotchmaster/shop_orders/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := orderscfg.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	if err := db.AutoMigrate(&models.Order{}, &models.OrderItem{}, &models.InventoryRecord{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ordersRepo := &repo.GormRepo{DB: db, Isolation: sql.LevelSerializable}

	orderService := &service.OrderService{
		Repo:    ordersRepo,
		Users:   clients.NewUserClient(cfg.AuthHTTPURL),
		Catalog: clients.NewCatalogClient(cfg.CatalogHTTPURL),
	}
	inventoryService := &service.InventoryService{Repo: ordersRepo}

	var producer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = mykafka.NewProducer(cfg.KafkaBrokers)
		defer producer.Close()
	}

	var cache *redisx.OrderCache
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		cache = &redisx.OrderCache{RDB: rdb}
	}

	orderHandler := &httpserver.OrderHTTP{Svc: orderService, Cache: cache}
	inventoryHandler := &httpserver.InventoryHTTP{Svc: inventoryService}
	if producer != nil {
		orderHandler.Producer = producer
		inventoryHandler.Producer = producer
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:     orderHandler,
		InventoryHandler: inventoryHandler,
		JWTSecret:        cfg.JWTAccessSecret,
		AuthClient:       authclient.NewClient(cfg.AuthHTTPURL),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("orders listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Println("orders stopped")
}
