package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"ecom-backend/internal/cache"
	"ecom-backend/internal/cart"
	"ecom-backend/internal/category"
	"ecom-backend/internal/config"
	"ecom-backend/internal/database"
	"ecom-backend/internal/notify"
	ord "ecom-backend/internal/order"
	"ecom-backend/internal/product"
	"ecom-backend/internal/user"
)

func main() {
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	pool, err := database.NewPool(context.Background(), cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		log.Fatal("database connect failed", zap.Error(err))
	}
	defer pool.Close()

	users := user.NewPGRepo(pool)
	tokens := user.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	categories := category.NewPGRepo(pool)
	products := product.NewPGRepo(pool)
	carts := cart.NewPGRepo(pool)
	orders := ord.NewPGRepo(pool)

	bus := notify.NewHub(log)
	engine := ord.NewEngine(orders, carts, bus, log)
	catalogCache := cache.New(cache.NewMemoryStore(cfg.CacheTTL), cfg.CacheTTL, log)

	a := &app{
		cfg:        cfg,
		log:        log,
		users:      users,
		tokens:     tokens,
		categories: categories,
		products:   products,
		carts:      carts,
		engine:     engine,
		bus:        bus,
		cache:      catalogCache,
	}

	log.Info("api listening", zap.String("addr", cfg.HTTPAddr))
	if err := http.ListenAndServe(cfg.HTTPAddr, a.router()); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
