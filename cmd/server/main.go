package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/oakmart/storefront/internal/config"
	"github.com/oakmart/storefront/internal/events"
	"github.com/oakmart/storefront/internal/handlers"
	"github.com/oakmart/storefront/internal/handlers/cart"
	"github.com/oakmart/storefront/internal/handlers/order"
	"github.com/oakmart/storefront/internal/logging"
	"github.com/oakmart/storefront/internal/search"
	"github.com/oakmart/storefront/internal/service/token"
	httpserver "github.com/oakmart/storefront/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB()
	if err != nil {
		logger.Error("database init failed", "err", err)
		os.Exit(1)
	}

	jwtSecret := []byte(configuration.JWT_SECRET)
	refreshSecret := []byte(configuration.REFRESH_SECRET)

	var publisher events.Publisher = &events.Recorder{}
	var producer *events.Producer
	if configuration.KAFKA_ADDRESS != "" {
		producer = events.NewProducer([]string{configuration.KAFKA_ADDRESS})
		publisher = producer
	} else {
		logger.Warn("KAFKA_ADDRESS not set, events are not published")
	}

	esClient, err := search.NewClient(configuration)
	if err != nil {
		logger.Warn("elasticsearch unavailable, search disabled", "err", err)
		esClient = nil
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())

	deps := httpserver.Deps{
		DB:                  db,
		AuthHandler:         &handlers.AuthHandler{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret, Publisher: publisher},
		ProductHandler:      &handlers.ProductHandler{DB: db, Publisher: publisher},
		UserHandler:         &handlers.UserHandler{DB: db, Publisher: publisher},
		CouponHandler:       &handlers.CouponHandler{DB: db},
		WishlistHandler:     &handlers.WishlistHandler{DB: db},
		NotificationHandler: &handlers.NotificationHandler{DB: db},
		AnalyticsHandler:    &handlers.AnalyticsHandler{DB: db},
		SearchHandler:       &handlers.SearchHandler{ES: esClient, Index: "products"},
		CartHandler:         &cart.CartHandler{DB: db, Publisher: publisher},
		OrderHandler:        &order.OrderHandler{DB: db, Publisher: publisher},
		TokenService:        &token.TokenService{DB: db, JWTSecret: jwtSecret, RefreshSecret: refreshSecret},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         ":" + configuration.PORT,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "err", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "err", err)
		}
	}

	if producer != nil {
		if err := producer.Close(); err != nil {
			logger.Error("kafka close error", "err", err)
		}
	}

	logger.Info("shutdown complete")
}
